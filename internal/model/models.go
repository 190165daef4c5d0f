// Package model defines core data structures for wifipilot.
package model

import "time"

// BandSplitMHz separates the 2.4 GHz band from the 5 GHz band.
const BandSplitMHz = 4900

// NetworkObservation is one access point seen during a scan cycle.
type NetworkObservation struct {
	SSID            string `json:"ssid" yaml:"ssid"`
	BSSID           string `json:"bssid" yaml:"bssid"`
	SignalLevel     int    `json:"signal_level" yaml:"level"`
	FrequencyMHz    int    `json:"frequency_mhz" yaml:"frequency"`
	ChannelWidthMHz int    `json:"channel_width_mhz" yaml:"channel_width"`
	Capabilities    string `json:"capabilities" yaml:"capabilities"`
	IsMetered       bool   `json:"is_metered" yaml:"metered"`
	IsConnected     bool   `json:"is_connected" yaml:"connected"`
}

// Is5GHz reports whether the observation is on the 5 GHz band.
func (o NetworkObservation) Is5GHz() bool {
	return o.FrequencyMHz > BandSplitMHz
}

// Band returns a display label for the frequency band.
func (o NetworkObservation) Band() string {
	return BandLabel(o.FrequencyMHz)
}

// BandLabel classifies a frequency in MHz.
func BandLabel(frequencyMHz int) string {
	if frequencyMHz > BandSplitMHz {
		return "5GHz"
	}
	return "2.4GHz"
}

// ConnectionState is the radio's active association.
type ConnectionState struct {
	BSSID        string `json:"bssid" yaml:"bssid"`
	SSID         string `json:"ssid" yaml:"ssid"`
	RSSI         int    `json:"rssi" yaml:"rssi"`
	FrequencyMHz int    `json:"frequency_mhz" yaml:"frequency"`
	IsMetered    bool   `json:"is_metered" yaml:"metered"`
	HasInternet  bool   `json:"has_internet" yaml:"has_internet"`
}

// Is5GHz reports whether the connection is on the 5 GHz band.
func (c ConnectionState) Is5GHz() bool {
	return c.FrequencyMHz > BandSplitMHz
}

// ProbationEntry is a temporarily excluded access point.
type ProbationEntry struct {
	BSSID  string    `json:"bssid"`
	Expiry time.Time `json:"expiry"`
}

// Remaining returns the time left on probation, never negative.
func (p ProbationEntry) Remaining(now time.Time) time.Duration {
	if d := p.Expiry.Sub(now); d > 0 {
		return d
	}
	return 0
}

// UserSettings are the user-tunable switching preferences. They are read
// once per evaluation and never retained by the decision core.
type UserSettings struct {
	Sensitivity               int  `mapstructure:"sensitivity" json:"sensitivity" yaml:"sensitivity"`
	BadgeSensitivity          int  `mapstructure:"badge_sensitivity" json:"badge_sensitivity" yaml:"badge_sensitivity"`
	MinSignalDiff             int  `mapstructure:"min_signal_diff" json:"min_signal_diff" yaml:"min_signal_diff"`
	Is5GHzPriorityEnabled     bool `mapstructure:"five_ghz_priority" json:"five_ghz_priority" yaml:"five_ghz_priority"`
	FiveGHzThresholdDbm       int  `mapstructure:"five_ghz_threshold_dbm" json:"five_ghz_threshold_dbm" yaml:"five_ghz_threshold_dbm"`
	MobileDataThresholdMbps   int  `mapstructure:"mobile_data_threshold_mbps" json:"mobile_data_threshold_mbps" yaml:"mobile_data_threshold_mbps"`
	IsHotspotSwitchingEnabled bool `mapstructure:"hotspot_switching" json:"hotspot_switching" yaml:"hotspot_switching"`
	IsGamingMode              bool `mapstructure:"gaming_mode" json:"gaming_mode" yaml:"gaming_mode"`
	IsPaused                  bool `mapstructure:"paused" json:"paused" yaml:"paused"`
}

// DefaultSettings returns the out-of-the-box switching preferences.
func DefaultSettings() UserSettings {
	return UserSettings{
		Sensitivity:               50,
		BadgeSensitivity:          50,
		MinSignalDiff:             5,
		Is5GHzPriorityEnabled:     true,
		FiveGHzThresholdDbm:       -75,
		MobileDataThresholdMbps:   5,
		IsHotspotSwitchingEnabled: false,
	}
}

// SwitchThresholdDbm maps the 0-100 sensitivity slider onto -90..-40 dBm.
func (s UserSettings) SwitchThresholdDbm() int {
	return sliderToDbm(s.Sensitivity)
}

// BadgeThresholdDbm maps the badge slider onto -90..-40 dBm.
func (s UserSettings) BadgeThresholdDbm() int {
	return sliderToDbm(s.BadgeSensitivity)
}

func sliderToDbm(v int) int {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return -90 + v*50/100
}

// DecisionResult is the outcome of one evaluation cycle.
type DecisionResult struct {
	CycleID          string               `json:"cycle_id"`
	EvaluatedAt      time.Time            `json:"evaluated_at"`
	BestCandidate    *NetworkObservation  `json:"best_candidate,omitempty"`
	Reason           string               `json:"reason"`
	BatchSuggestions []NetworkObservation `json:"batch_suggestions"`
	PoorSignal       bool                 `json:"poor_signal"`
	BadgeWarning     bool                 `json:"badge_warning"`
	Skipped          bool                 `json:"skipped"`
}

// IsEmpty reports whether the result carries neither a switch target nor suggestions.
func (r DecisionResult) IsEmpty() bool {
	return r.BestCandidate == nil && len(r.BatchSuggestions) == 0
}

// DecisionRecord is a persisted decision together with the connection it was made on.
type DecisionRecord struct {
	ID              int64     `json:"id"`
	CycleID         string    `json:"cycle_id"`
	Timestamp       time.Time `json:"timestamp"`
	CurrentBSSID    string    `json:"current_bssid"`
	CurrentSSID     string    `json:"current_ssid"`
	CurrentRSSI     int       `json:"current_rssi"`
	CurrentFreqMHz  int       `json:"current_frequency_mhz"`
	HasInternet     bool      `json:"has_internet"`
	CandidateBSSID  string    `json:"candidate_bssid,omitempty"`
	CandidateSSID   string    `json:"candidate_ssid,omitempty"`
	CandidateSignal int       `json:"candidate_signal,omitempty"`
	CandidateFreq   int       `json:"candidate_frequency_mhz,omitempty"`
	Reason          string    `json:"reason"`
	BatchSize       int       `json:"batch_size"`
	Skipped         bool      `json:"skipped"`
	BadgeWarning    bool      `json:"badge_warning"`
}

// NewDecisionRecord flattens a result and the connection it was evaluated against.
func NewDecisionRecord(res DecisionResult, current *ConnectionState) *DecisionRecord {
	rec := &DecisionRecord{
		CycleID:      res.CycleID,
		Timestamp:    res.EvaluatedAt,
		Reason:       res.Reason,
		BatchSize:    len(res.BatchSuggestions),
		Skipped:      res.Skipped,
		BadgeWarning: res.BadgeWarning,
	}
	if current != nil {
		rec.CurrentBSSID = current.BSSID
		rec.CurrentSSID = current.SSID
		rec.CurrentRSSI = current.RSSI
		rec.CurrentFreqMHz = current.FrequencyMHz
		rec.HasInternet = current.HasInternet
	}
	if c := res.BestCandidate; c != nil {
		rec.CandidateBSSID = c.BSSID
		rec.CandidateSSID = c.SSID
		rec.CandidateSignal = c.SignalLevel
		rec.CandidateFreq = c.FrequencyMHz
	}
	return rec
}

// Suggestion is one entry of the batch handed to the OS suggestion facility.
type Suggestion struct {
	SSID        string    `json:"ssid"`
	BSSID       string    `json:"bssid"`
	SignalLevel int       `json:"signal_level"`
	Frequency   int       `json:"frequency_mhz"`
	Priority    int       `json:"priority"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Snapshot is a captured radio state: the current association plus a scan.
type Snapshot struct {
	Current  *ConnectionState     `json:"current,omitempty" yaml:"current"`
	Networks []NetworkObservation `json:"networks" yaml:"networks"`
	Settings *UserSettings        `json:"settings,omitempty" yaml:"settings"`
}

// ReportOptions defines options for report generation.
type ReportOptions struct {
	Since      time.Time `json:"since"`
	Until      time.Time `json:"until"`
	Format     string    `json:"format"`
	OutputPath string    `json:"output_path"`
}
