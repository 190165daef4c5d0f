package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/user/wifipilot/internal/util"
)

// Job is a unit of periodic daemon work.
type Job struct {
	Name     string
	Interval time.Duration

	// Timeout bounds one run. Zero means the interval.
	Timeout time.Duration
	Run     func(ctx context.Context) error

	mu           sync.RWMutex
	lastRun      time.Time
	nextRun      time.Time
	lastDuration time.Duration
	lastError    error
	errorCount   int
	runCount     int
	running      bool
}

func (j *Job) timeout() time.Duration {
	if j.Timeout > 0 {
		return j.Timeout
	}
	return j.Interval
}

// due reports whether the job should start at now.
func (j *Job) due(now time.Time) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return !j.running && !now.Before(j.nextRun)
}

// JobStatus is a point-in-time view of a job for the status file.
type JobStatus struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	LastRun      time.Time     `json:"last_run"`
	NextRun      time.Time     `json:"next_run"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	ErrorCount   int           `json:"error_count"`
	RunCount     int           `json:"run_count"`
	Running      bool          `json:"running"`
}

// Scheduler runs jobs on their intervals. A job never overlaps itself and
// retries after half its interval when it fails.
type Scheduler struct {
	ctx          context.Context
	tick         time.Duration
	initialDelay time.Duration
	wake         chan struct{}
	inflight     sync.WaitGroup

	mu   sync.RWMutex
	jobs []*Job
}

// NewScheduler creates a scheduler bound to ctx.
func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		ctx:          ctx,
		tick:         time.Second,
		initialDelay: time.Second,
		wake:         make(chan struct{}, 1),
	}
}

// AddJob registers a job; its first run follows the initial delay.
func (s *Scheduler) AddJob(job *Job) {
	job.mu.Lock()
	job.nextRun = time.Now().Add(s.initialDelay)
	job.mu.Unlock()

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
}

// Run blocks until the context is cancelled and every in-flight job has
// returned.
func (s *Scheduler) Run() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	util.Info("Scheduler started with %d jobs", len(s.snapshot()))

	for {
		select {
		case <-s.ctx.Done():
			util.Info("Scheduler stopping")
			s.inflight.Wait()
			return
		case now := <-ticker.C:
			s.dispatch(now)
		case <-s.wake:
			s.dispatch(time.Now())
		}
	}
}

func (s *Scheduler) snapshot() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Job(nil), s.jobs...)
}

func (s *Scheduler) dispatch(now time.Time) {
	for _, job := range s.snapshot() {
		if !job.due(now) {
			continue
		}
		s.inflight.Add(1)
		go func(j *Job) {
			defer s.inflight.Done()
			s.runJob(j)
		}(job)
	}
}

func (s *Scheduler) runJob(job *Job) {
	job.mu.Lock()
	if job.running {
		job.mu.Unlock()
		return
	}
	job.running = true
	started := time.Now()
	job.lastRun = started
	job.mu.Unlock()

	util.Debug("Running job: %s", job.Name)

	ctx, cancel := context.WithTimeout(s.ctx, job.timeout())
	err := job.Run(ctx)
	cancel()

	finished := time.Now()

	job.mu.Lock()
	defer job.mu.Unlock()

	job.running = false
	job.runCount++
	job.lastDuration = finished.Sub(started)
	job.lastError = err
	if err != nil {
		job.errorCount++
		job.nextRun = finished.Add(job.Interval / 2)
		util.Warn("Job %s failed after %s: %v", job.Name, job.lastDuration.Round(time.Millisecond), err)
		return
	}
	job.nextRun = finished.Add(job.Interval)
}

// GetJobStatuses returns the status of every job in registration order.
func (s *Scheduler) GetJobStatuses() []JobStatus {
	jobs := s.snapshot()
	statuses := make([]JobStatus, 0, len(jobs))
	for _, job := range jobs {
		job.mu.RLock()
		st := JobStatus{
			Name:         job.Name,
			Interval:     job.Interval,
			LastRun:      job.lastRun,
			NextRun:      job.nextRun,
			LastDuration: job.lastDuration,
			ErrorCount:   job.errorCount,
			RunCount:     job.runCount,
			Running:      job.running,
		}
		if job.lastError != nil {
			st.LastError = job.lastError.Error()
		}
		job.mu.RUnlock()
		statuses = append(statuses, st)
	}
	return statuses
}

// GetJob returns a job by name, or nil.
func (s *Scheduler) GetJob(name string) *Job {
	for _, job := range s.snapshot() {
		if job.Name == name {
			return job
		}
	}
	return nil
}

// TriggerJob makes a job due now and wakes the loop without waiting for the
// next tick. A trigger that arrives while the job is running is absorbed by
// that run.
func (s *Scheduler) TriggerJob(name string) bool {
	job := s.GetJob(name)
	if job == nil {
		return false
	}

	job.mu.Lock()
	job.nextRun = time.Now()
	job.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}
