package daemon

import (
	"context"
	"time"

	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/monitor"
	"github.com/user/wifipilot/internal/notify"
	"github.com/user/wifipilot/internal/util"
)

// Job names.
const (
	JobHeartbeat   = "heartbeat"
	JobLiveness    = "liveness"
	JobScan        = "scan"
	JobMaintenance = "maintenance"
)

// registerJobs registers the decision loop and its feeders with the scheduler.
func (d *Daemon) registerJobs() {
	// nmcli can stall for seconds while the radio rescans
	d.scheduler.AddJob(&Job{
		Name:     JobHeartbeat,
		Interval: d.config.HeartbeatInterval,
		Timeout:  10 * time.Second,
		Run:      d.runHeartbeat,
	})

	d.scheduler.AddJob(&Job{
		Name:     JobLiveness,
		Interval: d.config.LivenessInterval,
		Run:      d.runLiveness,
	})

	d.scheduler.AddJob(&Job{
		Name:     JobScan,
		Interval: d.config.ScanInterval,
		Run:      d.runScan,
	})

	d.scheduler.AddJob(&Job{
		Name:     JobMaintenance,
		Interval: time.Hour,
		Timeout:  time.Minute,
		Run:      d.runMaintenance,
	})
}

func (d *Daemon) runHeartbeat(ctx context.Context) error {
	_, err := d.Evaluate(ctx)
	return err
}

// Evaluate runs one decision cycle against fresh radio state and publishes
// the result.
func (d *Daemon) Evaluate(ctx context.Context) (model.DecisionResult, error) {
	start := time.Now()

	current, err := d.source.Current(ctx)
	if err != nil {
		util.Warn("Failed to read current connection: %v", err)
		current = nil
	}
	scans, err := d.source.Scan(ctx)
	if err != nil {
		util.Warn("Failed to read scan results: %v", err)
		scans = nil
	}

	if current != nil {
		current.HasInternet = d.internetUp()
	}

	res := d.selector.Evaluate(current, scans, d.Settings())
	d.metrics.ObserveDecision(res, current, time.Since(start).Seconds())

	return res, d.publish(ctx, res, current)
}

func (d *Daemon) publish(ctx context.Context, res model.DecisionResult, current *model.ConnectionState) error {
	d.mu.Lock()
	prev := d.lastRecorded
	d.lastResult = &res
	d.lastCurrent = current
	record := shouldRecord(prev, res)
	if record {
		d.lastRecorded = &res
	}
	d.mu.Unlock()

	if record {
		if err := d.decisions.Save(model.NewDecisionRecord(res, current)); err != nil {
			return err
		}
		util.Info("Decision: %s", res.Reason)
	}

	if !res.Skipped {
		if _, err := d.registry.Submit(res.BatchSuggestions); err != nil {
			util.Warn("Failed to persist suggestions: %v", err)
		}
	}

	if ev, ok := notify.EventFromDecision(res, current); ok {
		d.dispatcher.Dispatch(ctx, ev)
	}

	if err := d.writeStatus(); err != nil {
		util.Debug("Failed to write status file: %v", err)
	}
	return nil
}

// shouldRecord keeps the journal to changes: a new reason or a different
// candidate.
func shouldRecord(prev *model.DecisionResult, res model.DecisionResult) bool {
	if prev == nil {
		return true
	}
	if prev.Reason != res.Reason {
		return true
	}
	return candidateBSSID(prev) != candidateBSSID(&res)
}

func candidateBSSID(res *model.DecisionResult) string {
	if res.BestCandidate == nil {
		return ""
	}
	return res.BestCandidate.BSSID
}

func (d *Daemon) internetUp() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.liveness == nil {
		return true
	}
	return d.liveness.Online
}

func (d *Daemon) runLiveness(ctx context.Context) error {
	res := d.checker.Check(ctx)

	d.mu.Lock()
	d.liveness = &res
	d.mu.Unlock()
	d.metrics.SetInternetUp(res.Online)

	if res.Online {
		return nil
	}
	util.Warn("Internet check failed via %s: %s", res.Method, res.Err)

	current, err := d.source.Current(ctx)
	if err != nil || current == nil {
		return nil
	}
	current.HasInternet = false

	if monitor.ShouldProbate(current) {
		d.Probate(current.BSSID, "zombie")
		// give the loop a chance to move away right now
		d.scheduler.TriggerJob(JobHeartbeat)
	}
	return nil
}

// Probate puts bssid on probation in memory and in storage.
func (d *Daemon) Probate(bssid, reason string) time.Time {
	expiry := d.probation.Add(bssid)
	if err := d.probationDB.Upsert(bssid, expiry, reason); err != nil {
		util.Warn("Failed to persist probation for %s: %v", bssid, err)
	}
	d.metrics.ObserveProbation(d.probation.Len())
	util.Info("Probation: %s until %s (%s)", bssid, expiry.Format("15:04:05"), reason)
	return expiry
}

func (d *Daemon) runScan(ctx context.Context) error {
	if err := d.source.RequestScan(ctx); err != nil {
		return err
	}
	// new results are available; evaluate without waiting for the heartbeat
	d.scheduler.TriggerJob(JobHeartbeat)
	return nil
}

func (d *Daemon) runMaintenance(ctx context.Context) error {
	purged, err := d.probationDB.Purge(d.clock.Now())
	if err != nil {
		return err
	}
	removed, err := d.decisions.Cleanup(d.config.DecisionRetention)
	if err != nil {
		return err
	}
	if purged > 0 || removed > 0 {
		util.Info("Maintenance: purged %d probation entries, %d old decisions", purged, removed)
	}
	return nil
}
