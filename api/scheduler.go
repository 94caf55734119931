/*
scheduler.go - Persisted job scheduler

PURPOSE:
  Runs recurring travel maintenance (aggregate rebuilds, exports, monthly
  statements) inside the server process.

DESIGN:
  - Each job has a cron expression (standard 5-field syntax) evaluated in
    the travel timezone
  - Job state (enabled, last run, next due, last status/error) lives in the
    store, so a restart resumes from the persisted due time
  - A ticker checks for due jobs; due jobs run sequentially
  - A run writes back only its own fields onto freshly read state, so a
    toggle made mid-run is kept
  - A job that was due while the process was down runs once on the next
    check, then its due time moves past now

CONFIGURATION:
  - Tick: How often to check (default: 1 minute)
  - Enabled: Whether the background loop starts (manual runs always work)

USAGE:
  scheduler := NewScheduler(store, loc, logger)
  scheduler.Register(ctx, job)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - jobs.go: The travel jobs
  - handlers.go: /api/jobs endpoints
  - travel/jobs.go: JobState and JobStore
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/travel"
)

// JobFunc does the work of one run. now is the scheduler's clock reading
// at the start of the run.
type JobFunc func(ctx context.Context, now time.Time) error

// Job is a named recurring task.
type Job struct {
	Name     string
	Schedule string // cron expression, e.g. "0 2 * * *"
	Run      JobFunc
}

type registeredJob struct {
	Job
	schedule cron.Schedule
}

// Scheduler runs registered jobs when they fall due.
type Scheduler struct {
	Tick    time.Duration
	Enabled bool

	store  travel.JobStore
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger

	jobs  map[string]*registeredJob
	order []string

	runMu   sync.Mutex // one job at a time, loop or manual
	stateMu sync.Mutex // read-modify-write of persisted state

	mu      sync.Mutex
	stop    chan struct{}
	running bool
	wg      sync.WaitGroup
}

type SchedulerOption func(*Scheduler)

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func WithTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.Tick = d }
}

// NewScheduler creates a scheduler. Jobs are added with Register.
func NewScheduler(store travel.JobStore, loc *time.Location, logger *zap.Logger, opts ...SchedulerOption) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		Tick:    time.Minute,
		Enabled: true,
		store:   store,
		loc:     loc,
		now:     time.Now,
		logger:  logger.Named("scheduler"),
		jobs:    make(map[string]*registeredJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job and reconciles it with any persisted state. A new
// job is enabled and first due at the next matching time. A changed
// schedule recomputes the due time; enabled/disabled is kept.
func (s *Scheduler) Register(ctx context.Context, job Job) error {
	sched, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return &travel.ValidationError{Field: "schedule", Message: fmt.Sprintf("invalid cron expression %q: %v", job.Schedule, err)}
	}
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	now := s.now()
	state, err := s.store.GetJob(ctx, job.Name)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", job.Name, err)
	}

	switch {
	case state == nil:
		state = &travel.JobState{
			Name:      job.Name,
			Schedule:  job.Schedule,
			Enabled:   true,
			NextDueAt: sched.Next(now.In(s.loc)).UTC(),
		}
	case state.Schedule != job.Schedule:
		state.Schedule = job.Schedule
		state.NextDueAt = sched.Next(now.In(s.loc)).UTC()
	}
	state.UpdatedAt = now.UTC()
	if err := s.store.SaveJob(ctx, *state); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.Name, err)
	}

	s.jobs[job.Name] = &registeredJob{Job: job, schedule: sched}
	s.order = append(s.order, job.Name)
	s.logger.Info("job registered",
		zap.String("job", job.Name),
		zap.String("schedule", job.Schedule),
		zap.Time("next_due_at", state.NextDueAt))
	return nil
}

// Start begins the background loop. It checks immediately, then every
// Tick.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("disabled, not starting")
		return
	}
	if s.running {
		return
	}

	s.stop = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.run(s.stop)

	s.logger.Info("started", zap.Duration("tick", s.Tick), zap.Int("jobs", len(s.order)))
}

// Stop ends the loop and waits for a job in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.running = false
	s.logger.Info("stopped")
}

func (s *Scheduler) run(stop <-chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()

	s.checkDue(ctx)
	for {
		select {
		case <-ticker.C:
			s.checkDue(ctx)
		case <-stop:
			return
		}
	}
}

func (s *Scheduler) checkDue(ctx context.Context) {
	if _, err := s.RunDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("due job check failed", zap.Error(err))
	}
}

// RunDue runs every enabled job whose due time has passed and returns how
// many ran. A failing job is recorded and does not stop the others.
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	ran := 0
	for _, name := range s.order {
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		_, did, err := s.execute(ctx, s.jobs[name], true)
		if did {
			ran++
		}
		if err != nil {
			if !did {
				return ran, err
			}
			s.logger.Warn("job failed", zap.String("job", name), zap.Error(err))
		}
	}
	return ran, nil
}

// RunNow runs a job immediately, enabled or not. The returned state is
// saved before returning; the error is the job's own.
func (s *Scheduler) RunNow(ctx context.Context, name string) (travel.JobState, error) {
	job, ok := s.jobs[name]
	if !ok {
		return travel.JobState{}, fmt.Errorf("job %s: %w", name, travel.ErrNotFound)
	}
	state, _, err := s.execute(ctx, job, false)
	return state, err
}

// SetEnabled turns a job on or off. Enabling moves the due time to the
// next match after now so a long-disabled job doesn't fire at once.
func (s *Scheduler) SetEnabled(ctx context.Context, name string, enabled bool) (travel.JobState, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	job, state, err := s.lookup(ctx, name)
	if err != nil {
		return travel.JobState{}, err
	}

	now := s.now()
	if enabled && !state.Enabled {
		state.NextDueAt = job.schedule.Next(now.In(s.loc)).UTC()
	}
	state.Enabled = enabled
	state.UpdatedAt = now.UTC()
	if err := s.store.SaveJob(ctx, state); err != nil {
		return travel.JobState{}, fmt.Errorf("failed to save job %s: %w", name, err)
	}
	s.logger.Info("job toggled", zap.String("job", name), zap.Bool("enabled", enabled))
	return state, nil
}

// Jobs returns the state of every registered job in registration order.
func (s *Scheduler) Jobs(ctx context.Context) ([]travel.JobState, error) {
	out := make([]travel.JobState, 0, len(s.order))
	for _, name := range s.order {
		_, state, err := s.lookup(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, nil
}

func (s *Scheduler) lookup(ctx context.Context, name string) (*registeredJob, travel.JobState, error) {
	job, ok := s.jobs[name]
	if !ok {
		return nil, travel.JobState{}, fmt.Errorf("job %s: %w", name, travel.ErrNotFound)
	}
	state, err := s.store.GetJob(ctx, name)
	if err != nil {
		return nil, travel.JobState{}, fmt.Errorf("failed to load job %s: %w", name, err)
	}
	if state == nil {
		return nil, travel.JobState{}, fmt.Errorf("job %s state: %w", name, travel.ErrNotFound)
	}
	return job, *state, nil
}

// execute runs one job under runMu. With dueOnly the state is checked
// after the lock is taken, so a run that finished while this call waited
// is not repeated. Only the run fields are written back, onto a fresh read,
// so a toggle made during the run survives.
func (s *Scheduler) execute(ctx context.Context, job *registeredJob, dueOnly bool) (travel.JobState, bool, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	_, state, err := s.lookup(ctx, job.Name)
	if err != nil {
		return travel.JobState{}, false, err
	}
	if dueOnly && (!state.Enabled || s.now().Before(state.NextDueAt)) {
		return state, false, nil
	}

	start := s.now()
	s.logger.Info("job started", zap.String("job", job.Name))

	runErr := job.Run(ctx, start)
	finished := s.now()

	// Persist even when the caller's context is gone.
	saveCtx := context.WithoutCancel(ctx)

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	_, state, err = s.lookup(saveCtx, job.Name)
	if err != nil {
		return travel.JobState{}, true, err
	}
	ranAt := start.UTC()
	state.LastRunAt = &ranAt
	state.NextDueAt = job.schedule.Next(finished.In(s.loc)).UTC()
	state.UpdatedAt = finished.UTC()
	if runErr != nil {
		state.LastStatus = travel.JobStatusFailed
		state.LastError = runErr.Error()
	} else {
		state.LastStatus = travel.JobStatusOK
		state.LastError = ""
	}

	if err := s.store.SaveJob(saveCtx, state); err != nil {
		return state, true, fmt.Errorf("failed to save job %s: %w", job.Name, err)
	}

	s.logger.Info("job finished",
		zap.String("job", job.Name),
		zap.String("status", string(state.LastStatus)),
		zap.Duration("took", finished.Sub(start)),
		zap.Time("next_due_at", state.NextDueAt))
	return state, true, runErr
}
