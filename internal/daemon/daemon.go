// Package daemon provides background service functionality.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/metrics"
	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/monitor"
	"github.com/user/wifipilot/internal/notify"
	"github.com/user/wifipilot/internal/probes"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/suggest"
	"github.com/user/wifipilot/internal/util"
)

// PIDFileName is the PID file inside the data dir.
const PIDFileName = "wifipilot.pid"

// Daemon manages the background service.
type Daemon struct {
	config    *util.Config
	scheduler *Scheduler
	db        *storage.DB
	pidFile   string
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	startTime time.Time
	mu        sync.RWMutex

	source     probes.RadioSource
	clock      decision.Clock
	checker    *monitor.Checker
	probation  *decision.ProbationStore
	selector   *decision.Selector
	registry   *suggest.Registry
	dispatcher *notify.Dispatcher
	metrics    *metrics.Collector

	decisions    *storage.DecisionStorage
	probationDB  *storage.ProbationStorage
	settings     model.UserSettings
	liveness     *monitor.LivenessResult
	lastCurrent  *model.ConnectionState
	lastResult   *model.DecisionResult
	lastRecorded *model.DecisionResult
}

// Option customizes a daemon at construction.
type Option func(*options)

type options struct {
	source     probes.RadioSource
	registerer prometheus.Registerer
	notifiers  []notify.Notifier
	clock      decision.Clock
}

// WithRadioSource replaces the configured radio source.
func WithRadioSource(src probes.RadioSource) Option {
	return func(o *options) { o.source = src }
}

// WithRegisterer registers metrics against reg instead of the global registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithNotifiers replaces the notifiers built from config.
func WithNotifiers(n ...notify.Notifier) Option {
	return func(o *options) { o.notifiers = n }
}

// WithClock drives probation and throttling from clock.
func WithClock(clock decision.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// New creates a new daemon instance.
func New(cfg *util.Config, opts ...Option) (*Daemon, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	collector, err := metrics.NewCollector(o.registerer)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if o.source == nil {
		o.source = NewRadioSource(cfg)
	}
	if o.notifiers == nil {
		o.notifiers, err = buildNotifiers(cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	if o.clock == nil {
		o.clock = decision.SystemClock{}
	}
	probation := decision.NewProbationStore(o.clock, cfg.ProbationDuration)

	d := &Daemon{
		config:      cfg,
		db:          db,
		pidFile:     filepath.Join(cfg.DataDir, PIDFileName),
		ctx:         ctx,
		cancel:      cancel,
		source:      o.source,
		clock:       o.clock,
		checker:     monitor.NewChecker(cfg.LivenessURL, cfg.LivenessDNS, cfg.LivenessTimeout),
		probation:   probation,
		selector:    decision.NewSelector(probation, o.clock),
		registry:    suggest.NewRegistry(storage.NewSuggestionStorage(db)),
		dispatcher:  notify.NewDispatcher(decision.NewThrottle(o.clock, cfg.NotifyInterval), collector, o.notifiers...),
		metrics:     collector,
		decisions:   storage.NewDecisionStorage(db),
		probationDB: storage.NewProbationStorage(db),
		settings:    cfg.Settings,
	}

	d.scheduler = NewScheduler(ctx)

	return d, nil
}

// NewRadioSource builds the radio source named by cfg.RadioSource.
func NewRadioSource(cfg *util.Config) probes.RadioSource {
	if cfg.RadioSource == "file" && cfg.SnapshotFile != "" {
		return probes.NewFileSource(cfg.SnapshotFile)
	}
	return probes.NewWiFiProbe(cfg.Interface)
}

func buildNotifiers(cfg *util.Config) ([]notify.Notifier, error) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(nil)}

	discord, err := notify.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord notifier: %w", err)
	}
	if discord.Enabled() {
		notifiers = append(notifiers, discord)
	}
	return notifiers, nil
}

// Start starts the daemon.
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	util.Info("Daemon starting...")

	if err := d.ReloadProbation(); err != nil {
		util.Warn("Failed to restore probation list: %v", err)
	}

	d.registerJobs()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.scheduler.Run()
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handleSignals()
	}()

	util.Info("Daemon started with PID %d", os.Getpid())

	return nil
}

// Wait blocks until a signal or Stop cancels the daemon.
func (d *Daemon) Wait() {
	d.wg.Wait()
}

// Stop stops the daemon gracefully.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	util.Info("Daemon stopping...")

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		util.Info("Daemon stopped gracefully")
	case <-time.After(30 * time.Second):
		util.Warn("Daemon stop timed out")
	}

	d.removePIDFile()
	if err := d.writeStatus(); err != nil {
		util.Debug("Failed to write final status: %v", err)
	}
	if d.db != nil {
		d.db.Close()
	}

	return nil
}

func (d *Daemon) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				util.Info("Received SIGHUP, reloading probation list")
				if err := d.ReloadProbation(); err != nil {
					util.Warn("Probation reload failed: %v", err)
				}
				continue
			}
			util.Info("Received signal: %v", sig)
			// the caller of Wait finishes shutdown with Stop
			d.cancel()
			return
		case <-d.ctx.Done():
			return
		}
	}
}

// ReloadProbation replaces the in-memory probation list with the persisted one.
func (d *Daemon) ReloadProbation() error {
	entries, err := d.probationDB.GetActive(d.clock.Now())
	if err != nil {
		return err
	}
	d.probation.Restore(entries)
	d.metrics.SetProbationEntries(d.probation.Len())
	util.Debug("Restored %d probation entries", len(entries))
	return nil
}

// UpdateSettings swaps the switching preferences used by the next cycle.
func (d *Daemon) UpdateSettings(s model.UserSettings) {
	d.mu.Lock()
	d.settings = s
	d.mu.Unlock()
	util.Info("Settings updated (sensitivity %d, gaming %v, paused %v)", s.Sensitivity, s.IsGamingMode, s.IsPaused)
}

// Settings returns the current switching preferences.
func (d *Daemon) Settings() model.UserSettings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

func (d *Daemon) writePIDFile() error {
	pid := os.Getpid()
	return os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)), 0644)
}

func (d *Daemon) removePIDFile() {
	os.Remove(d.pidFile)
}

// IsRunning returns whether the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// GetStatus returns the daemon status.
func (d *Daemon) GetStatus() *DaemonStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return &DaemonStatus{
		Running:      d.running,
		PID:          os.Getpid(),
		StartTime:    d.startTime,
		Uptime:       time.Since(d.startTime),
		Current:      d.lastCurrent,
		LastDecision: d.lastResult,
		Liveness:     d.liveness,
		Probation:    d.probation.ListActive(),
		Jobs:         d.scheduler.GetJobStatuses(),
	}
}

// DaemonStatus holds the current daemon status.
type DaemonStatus struct {
	Running      bool
	PID          int
	StartTime    time.Time
	Uptime       time.Duration
	Current      *model.ConnectionState
	LastDecision *model.DecisionResult
	Liveness     *monitor.LivenessResult
	Probation    map[string]time.Time
	Jobs         []JobStatus
}

// GetDB returns the database instance.
func (d *Daemon) GetDB() *storage.DB {
	return d.db
}

// GetConfig returns the configuration.
func (d *Daemon) GetConfig() *util.Config {
	return d.config
}

// GetContext returns the daemon context.
func (d *Daemon) GetContext() context.Context {
	return d.ctx
}

// Metrics returns the daemon's collectors.
func (d *Daemon) Metrics() *metrics.Collector {
	return d.metrics
}

// Suggestions returns the active suggestion batch.
func (d *Daemon) Suggestions() []model.Suggestion {
	return d.registry.Current()
}
