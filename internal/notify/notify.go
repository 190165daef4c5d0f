// Package notify delivers throttled user-facing prompts about decisions.
package notify

import (
	"context"
	"fmt"

	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/metrics"
	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/util"
)

// Event is a prompt derived from one decision cycle.
type Event struct {
	Title      string
	Message    string
	Candidate  *model.NetworkObservation
	Current    *model.ConnectionState
	Warning    bool
	DecisionID string
}

// Notifier is a destination for events.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

// EventFromDecision builds the prompt for a result. It returns false when the
// result warrants no prompt.
func EventFromDecision(res model.DecisionResult, current *model.ConnectionState) (Event, bool) {
	if res.Skipped {
		return Event{}, false
	}
	ev := Event{
		Current:    current,
		Candidate:  res.BestCandidate,
		DecisionID: res.CycleID,
		Message:    res.Reason,
	}
	switch {
	case res.BestCandidate != nil:
		ev.Title = "Better network available"
		ev.Message = fmt.Sprintf("%s (%d dBm, %s)", res.Reason, res.BestCandidate.SignalLevel, res.BestCandidate.Band())
	case res.BadgeWarning:
		ev.Title = "Weak WiFi signal"
		ev.Warning = true
	default:
		return Event{}, false
	}
	return ev, true
}

// Dispatcher fans an event out to its notifiers behind a shared throttle.
type Dispatcher struct {
	throttle  *decision.Throttle
	notifiers []Notifier
	metrics   *metrics.Collector
	log       *util.Logger
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(throttle *decision.Throttle, m *metrics.Collector, notifiers ...Notifier) *Dispatcher {
	if throttle == nil {
		throttle = decision.NewThrottle(nil, 0)
	}
	return &Dispatcher{
		throttle:  throttle,
		notifiers: notifiers,
		metrics:   m,
		log:       util.GetLogger().WithPrefix("notify"),
	}
}

// Dispatch delivers ev unless the throttle window is still open. It reports
// whether the event was delivered to at least one notifier. Failures are
// logged and counted, never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) bool {
	if !d.throttle.Allow() {
		for _, n := range d.notifiers {
			d.metrics.ObserveNotification(n.Name(), metrics.NotifySuppressed)
		}
		d.log.Debug("suppressed: %s", ev.Title)
		return false
	}

	delivered := false
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			d.log.Warn("%s notifier failed: %v", n.Name(), err)
			d.metrics.ObserveNotification(n.Name(), metrics.NotifyFailed)
			continue
		}
		d.metrics.ObserveNotification(n.Name(), metrics.NotifySent)
		delivered = true
	}
	return delivered
}

// LogNotifier writes events to the application log.
type LogNotifier struct {
	log *util.Logger
}

// NewLogNotifier creates a notifier writing to l, or to the default logger
// when l is nil.
func NewLogNotifier(l *util.Logger) *LogNotifier {
	if l == nil {
		l = util.GetLogger()
	}
	return &LogNotifier{log: l}
}

// Name returns "log".
func (n *LogNotifier) Name() string { return "log" }

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Warning {
		n.log.Warn("%s: %s", ev.Title, ev.Message)
		return nil
	}
	n.log.Info("%s: %s", ev.Title, ev.Message)
	return nil
}
