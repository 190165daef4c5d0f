// Package suggest keeps the batch of access points offered to the system as
// connection hints.
package suggest

import (
	"sort"
	"sync"
	"time"

	"github.com/user/wifipilot/internal/model"
)

// fiveGHzPriorityBonus lifts 5 GHz entries above 2.4 GHz ones of equal signal.
const fiveGHzPriorityBonus = 20

// Priority maps an observation onto the 0-100 hint priority.
func Priority(obs model.NetworkObservation) int {
	p := obs.SignalLevel + 100
	if p < 0 {
		p = 0
	}
	if obs.Is5GHz() {
		p += fiveGHzPriorityBonus
	}
	if p > 100 {
		p = 100
	}
	return p
}

// Sink receives a submitted batch, for example to persist it.
type Sink interface {
	SaveSuggestions(batch []model.Suggestion) error
}

// Registry holds the current batch. Each submission replaces the previous
// batch wholesale.
type Registry struct {
	mu      sync.RWMutex
	current []model.Suggestion
	sink    Sink
	now     func() time.Time
}

// NewRegistry creates a registry. sink may be nil.
func NewRegistry(sink Sink) *Registry {
	return &Registry{sink: sink, now: time.Now}
}

// Submit replaces the batch with observations, ordered by priority. An empty
// batch clears the registry. Entries with duplicate BSSIDs keep the first.
func (r *Registry) Submit(observations []model.NetworkObservation) ([]model.Suggestion, error) {
	now := r.now()
	seen := make(map[string]bool, len(observations))
	batch := make([]model.Suggestion, 0, len(observations))

	for _, obs := range observations {
		if obs.BSSID == "" || seen[obs.BSSID] {
			continue
		}
		seen[obs.BSSID] = true
		batch = append(batch, model.Suggestion{
			SSID:        obs.SSID,
			BSSID:       obs.BSSID,
			SignalLevel: obs.SignalLevel,
			Frequency:   obs.FrequencyMHz,
			Priority:    Priority(obs),
			SubmittedAt: now,
		})
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Priority > batch[j].Priority
	})

	r.mu.Lock()
	r.current = batch
	r.mu.Unlock()

	if r.sink != nil {
		if err := r.sink.SaveSuggestions(batch); err != nil {
			return batch, err
		}
	}
	return batch, nil
}

// Current returns a copy of the active batch.
func (r *Registry) Current() []model.Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Suggestion, len(r.current))
	copy(out, r.current)
	return out
}
