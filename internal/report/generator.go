// Package report generates decision journal reports.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

// Outcome buckets a journaled decision.
type Outcome string

// Outcomes, in report order.
const (
	OutcomeSwitch  Outcome = "Switch suggested"
	OutcomeWeak    Outcome = "Weak signal"
	OutcomeOptimal Outcome = "Optimal"
	OutcomeSkipped Outcome = "Skipped"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeSwitch, OutcomeWeak, OutcomeOptimal, OutcomeSkipped}

// Generator creates decision reports.
type Generator struct {
	db     *storage.DB
	config *util.Config
}

// NewGenerator creates a new report generator.
func NewGenerator(db *storage.DB, cfg *util.Config) *Generator {
	return &Generator{
		db:     db,
		config: cfg,
	}
}

// ReportData holds all data for a report.
type ReportData struct {
	GeneratedAt time.Time
	Since       time.Time
	Until       time.Time

	Decisions []model.DecisionRecord
	Outcomes  map[Outcome]int

	// Candidates counts how often each access point was the best candidate.
	Candidates []CandidateCount

	// Transitions are the points where the connected access point changed.
	Transitions []Transition

	Probation   []model.ProbationEntry
	Suggestions []model.Suggestion
}

// CandidateCount is one row of the candidate leaderboard.
type CandidateCount struct {
	BSSID      string
	SSID       string
	Count      int
	BestSignal int
}

// Transition records a change of the connected access point.
type Transition struct {
	FromBSSID string
	FromSSID  string
	ToBSSID   string
	ToSSID    string
	Timestamp time.Time
}

// Generate creates a report for the specified time range.
func (g *Generator) Generate(opts model.ReportOptions) (*ReportData, error) {
	data := &ReportData{
		GeneratedAt: time.Now(),
		Since:       opts.Since,
		Until:       opts.Until,
	}

	decisions, err := storage.NewDecisionStorage(g.db).GetRange(opts.Since, opts.Until)
	if err != nil {
		return nil, fmt.Errorf("failed to get decisions: %w", err)
	}
	data.Decisions = decisions
	data.Outcomes = CountOutcomes(decisions)
	data.Candidates = rankCandidates(decisions)
	data.Transitions = DetectTransitions(decisions)

	probation, err := storage.NewProbationStorage(g.db).GetActive(data.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get probation list: %w", err)
	}
	data.Probation = probation

	// suggestions are informational; a read failure leaves the section empty
	if sugg, err := storage.NewSuggestionStorage(g.db).GetCurrent(); err == nil {
		data.Suggestions = sugg
	} else {
		util.Warn("Report: failed to read suggestions: %v", err)
	}

	return data, nil
}

// Classify buckets a decision record.
func Classify(rec model.DecisionRecord) Outcome {
	switch {
	case rec.Skipped:
		return OutcomeSkipped
	case rec.CandidateBSSID != "":
		return OutcomeSwitch
	case strings.HasPrefix(rec.Reason, "Signal Weak"):
		return OutcomeWeak
	default:
		return OutcomeOptimal
	}
}

// CountOutcomes tallies records per outcome.
func CountOutcomes(records []model.DecisionRecord) map[Outcome]int {
	counts := make(map[Outcome]int, len(Outcomes))
	for _, rec := range records {
		counts[Classify(rec)]++
	}
	return counts
}

func rankCandidates(records []model.DecisionRecord) []CandidateCount {
	byBSSID := make(map[string]*CandidateCount)
	for _, rec := range records {
		if rec.CandidateBSSID == "" {
			continue
		}
		c, ok := byBSSID[rec.CandidateBSSID]
		if !ok {
			c = &CandidateCount{BSSID: rec.CandidateBSSID, SSID: rec.CandidateSSID, BestSignal: rec.CandidateSignal}
			byBSSID[rec.CandidateBSSID] = c
		}
		c.Count++
		if rec.CandidateSignal > c.BestSignal {
			c.BestSignal = rec.CandidateSignal
		}
	}

	out := make([]CandidateCount, 0, len(byBSSID))
	for _, c := range byBSSID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].BSSID < out[j].BSSID
	})
	return out
}

// DetectTransitions expects records oldest first, as GetRange returns them.
func DetectTransitions(records []model.DecisionRecord) []Transition {
	var changes []Transition

	for i := 1; i < len(records); i++ {
		prev := records[i-1]
		curr := records[i]
		if prev.CurrentBSSID == "" || curr.CurrentBSSID == "" {
			continue
		}
		if prev.CurrentBSSID != curr.CurrentBSSID {
			changes = append(changes, Transition{
				FromBSSID: prev.CurrentBSSID,
				FromSSID:  prev.CurrentSSID,
				ToBSSID:   curr.CurrentBSSID,
				ToSSID:    curr.CurrentSSID,
				Timestamp: curr.Timestamp,
			})
		}
	}

	return changes
}
