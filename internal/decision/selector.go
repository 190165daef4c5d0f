package decision

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/user/wifipilot/internal/model"
)

// BatchFiveGHzFloorDbm is the weakest 5 GHz signal accepted into the
// suggestion batch regardless of the current signal.
const BatchFiveGHzFloorDbm = -80

// Reason labels for results that carry no candidate.
const (
	ReasonGamingMode   = "Optimization Skipped: Gaming Mode Active"
	ReasonPaused       = "Service is paused"
	ReasonNoConnection = "Not connected"
)

// Selector runs one evaluation cycle at a time against a shared probation
// store.
type Selector struct {
	mu        sync.Mutex
	probation *ProbationStore
	clock     Clock
}

// NewSelector creates a selector. A nil clock means SystemClock.
func NewSelector(probation *ProbationStore, clock Clock) *Selector {
	if clock == nil {
		clock = SystemClock{}
	}
	if probation == nil {
		probation = NewProbationStore(clock, DefaultProbationDuration)
	}
	return &Selector{probation: probation, clock: clock}
}

// Probation returns the store the selector consults.
func (s *Selector) Probation() *ProbationStore {
	return s.probation
}

// Evaluate picks the best switch target from scans and builds the suggestion
// batch. It never fails; malformed observations are skipped.
func (s *Selector) Evaluate(current *model.ConnectionState, scans []model.NetworkObservation, settings model.UserSettings) model.DecisionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := model.DecisionResult{
		CycleID:     uuid.NewString(),
		EvaluatedAt: s.clock.Now(),
	}

	if settings.IsGamingMode {
		res.Skipped = true
		res.Reason = ReasonGamingMode
		return res
	}
	if settings.IsPaused {
		res.Skipped = true
		res.Reason = ReasonPaused
		return res
	}
	if current == nil || NormalizeBSSID(current.BSSID) == "" {
		res.Skipped = true
		res.Reason = ReasonNoConnection
		return res
	}

	self := NormalizeBSSID(current.BSSID)
	var best *model.NetworkObservation

	for i := range scans {
		obs := scans[i]
		key := NormalizeBSSID(obs.BSSID)
		if key == "" {
			continue
		}

		// Deliberately ahead of the self and probation filters: the connected
		// AP joins the batch when its scan reading beats the link report.
		if obs.SignalLevel > current.RSSI || (obs.Is5GHz() && obs.SignalLevel > BatchFiveGHzFloorDbm) {
			res.BatchSuggestions = append(res.BatchSuggestions, obs)
		}

		if key == self || s.probation.IsUnderProbation(obs.BSSID) {
			continue
		}
		if !Qualifies(current, obs, settings) {
			continue
		}
		if best == nil || Outranks(obs, *best) {
			c := obs
			best = &c
		}
	}

	threshold := settings.SwitchThresholdDbm()
	res.PoorSignal = current.RSSI < threshold
	res.BadgeWarning = current.RSSI < settings.BadgeThresholdDbm()
	res.BestCandidate = best

	switch {
	case best != nil && best.Is5GHz() && !current.Is5GHz():
		res.Reason = fmt.Sprintf("Better 5G Found: %s", best.SSID)
	case best != nil:
		res.Reason = fmt.Sprintf("Stronger Signal Found: %s", best.SSID)
	case res.PoorSignal:
		res.Reason = fmt.Sprintf("Signal Weak (%d < %d). Searching...", current.RSSI, threshold)
	default:
		res.Reason = fmt.Sprintf("Signal Optimal (%d dBm)", current.RSSI)
	}
	return res
}
