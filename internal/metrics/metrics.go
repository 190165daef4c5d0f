// Package metrics exposes Prometheus collectors for the decision loop.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/wifipilot/internal/model"
)

// Evaluation outcome labels.
const (
	OutcomeSwitch  = "switch"
	OutcomeNone    = "none"
	OutcomeSkipped = "skipped"
)

// Notification result labels.
const (
	NotifySent       = "sent"
	NotifySuppressed = "suppressed"
	NotifyFailed     = "failed"
)

// Collector bundles the wifipilot metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	Notifications      *prometheus.CounterVec
	Probations         prometheus.Counter

	ProbationEntries prometheus.Gauge
	CurrentRSSI      prometheus.Gauge
	BatchSize        prometheus.Gauge
	InternetUp       prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wifipilot_evaluations_total",
		Help: "Decision cycles run, labeled by outcome.",
	}, []string{"outcome"}), "wifipilot_evaluations_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wifipilot_evaluation_duration_seconds",
		Help:    "Time spent in one decision cycle including radio reads.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}), "wifipilot_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	notifications, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wifipilot_notifications_total",
		Help: "User notifications, labeled by sink and result.",
	}, []string{"sink", "result"}), "wifipilot_notifications_total")
	if err != nil {
		return nil, err
	}

	probations, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wifipilot_probations_total",
		Help: "Access points put on probation.",
	}), "wifipilot_probations_total")
	if err != nil {
		return nil, err
	}

	entries, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wifipilot_probation_entries",
		Help: "Entries currently held by the probation store.",
	}), "wifipilot_probation_entries")
	if err != nil {
		return nil, err
	}

	rssi, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wifipilot_current_rssi_dbm",
		Help: "Signal of the current association.",
	}), "wifipilot_current_rssi_dbm")
	if err != nil {
		return nil, err
	}

	batch, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wifipilot_suggestion_batch_size",
		Help: "Size of the last suggestion batch.",
	}), "wifipilot_suggestion_batch_size")
	if err != nil {
		return nil, err
	}

	up, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wifipilot_internet_up",
		Help: "1 when the last liveness check succeeded.",
	}), "wifipilot_internet_up")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		Evaluations:        evaluations,
		EvaluationDuration: duration,
		Notifications:      notifications,
		Probations:         probations,
		ProbationEntries:   entries,
		CurrentRSSI:        rssi,
		BatchSize:          batch,
		InternetUp:         up,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveDecision records one decision cycle.
func (c *Collector) ObserveDecision(res model.DecisionResult, current *model.ConnectionState, seconds float64) {
	if c == nil {
		return
	}
	outcome := OutcomeNone
	switch {
	case res.Skipped:
		outcome = OutcomeSkipped
	case res.BestCandidate != nil:
		outcome = OutcomeSwitch
	}
	c.Evaluations.WithLabelValues(outcome).Inc()
	c.EvaluationDuration.Observe(seconds)
	c.BatchSize.Set(float64(len(res.BatchSuggestions)))
	if current != nil {
		c.CurrentRSSI.Set(float64(current.RSSI))
	}
}

// ObserveNotification records one notification attempt.
func (c *Collector) ObserveNotification(sink, result string) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues(sink, result).Inc()
}

// ObserveProbation records a new probation and the store size.
func (c *Collector) ObserveProbation(size int) {
	if c == nil {
		return
	}
	c.Probations.Inc()
	c.ProbationEntries.Set(float64(size))
}

// SetProbationEntries updates the store size gauge.
func (c *Collector) SetProbationEntries(size int) {
	if c == nil {
		return
	}
	c.ProbationEntries.Set(float64(size))
}

// SetInternetUp records the last liveness result.
func (c *Collector) SetInternetUp(up bool) {
	if c == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	c.InternetUp.Set(v)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
