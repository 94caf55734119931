package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/travel"
	"github.com/warp/travel-engine/travel/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestScheduler(t *testing.T, start time.Time) (*Scheduler, *store.Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: start}
	mem := store.NewMemory()
	s := NewScheduler(mem, start.Location(), zap.NewNop(), WithSchedulerClock(clock.Now), WithTick(10*time.Millisecond))
	return s, mem, clock
}

func TestScheduler_Register(t *testing.T) {
	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	s, mem, _ := newTestScheduler(t, start)
	ctx := context.Background()

	noop := func(context.Context, time.Time) error { return nil }

	// Invalid cron expression
	err := s.Register(ctx, Job{Name: "bad", Schedule: "every day", Run: noop})
	assert.True(t, travel.IsClientError(err))

	// First registration: enabled, due at the next 02:00 local
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: noop}))
	state, err := mem.GetJob(ctx, "nightly")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.Enabled)
	assert.Equal(t, time.Date(2025, time.March, 11, 2, 0, 0, 0, loc).UTC(), state.NextDueAt)

	// Duplicate
	assert.Error(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: noop}))
}

func TestScheduler_RegisterKeepsPersistedState(t *testing.T) {
	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	ctx := context.Background()
	mem := store.NewMemory()
	noop := func(context.Context, time.Time) error { return nil }

	// GIVEN: A job disabled in a previous process with an old due time
	due := time.Date(2025, time.March, 9, 2, 0, 0, 0, loc).UTC()
	require.NoError(t, mem.SaveJob(ctx, travel.JobState{Name: "nightly", Schedule: "0 2 * * *", NextDueAt: due}))

	// WHEN: Registering again with the same schedule
	s := NewScheduler(mem, loc, zap.NewNop(), WithSchedulerClock(func() time.Time { return start }))
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: noop}))

	// THEN: Enabled flag and due time are untouched
	state, err := mem.GetJob(ctx, "nightly")
	require.NoError(t, err)
	assert.False(t, state.Enabled)
	assert.Equal(t, due, state.NextDueAt)

	// WHEN: The schedule changes on the next start
	s = NewScheduler(mem, loc, zap.NewNop(), WithSchedulerClock(func() time.Time { return start }))
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "30 1 * * *", Run: noop}))

	// THEN: The due time is recomputed
	state, err = mem.GetJob(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 11, 1, 30, 0, 0, loc).UTC(), state.NextDueAt)
}

func TestScheduler_RunDue(t *testing.T) {
	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	s, mem, clock := newTestScheduler(t, start)
	ctx := context.Background()

	var runs []time.Time
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: func(_ context.Context, now time.Time) error {
		runs = append(runs, now)
		return nil
	}}))
	require.NoError(t, s.Register(ctx, Job{Name: "broken", Schedule: "0 2 * * *", Run: func(context.Context, time.Time) error {
		return errors.New("disk full")
	}}))

	// Not due yet
	n, err := s.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// WHEN: The clock passes 02:00 (a missed window after downtime runs once)
	clock.Set(time.Date(2025, time.March, 12, 9, 0, 0, 0, loc))
	n, err = s.RunDue(ctx)
	require.NoError(t, err)

	// THEN: Both ran, the failure is recorded, and both are due next at 02:00
	assert.Equal(t, 2, n)
	require.Len(t, runs, 1)

	nightly, err := mem.GetJob(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, travel.JobStatusOK, nightly.LastStatus)
	require.NotNil(t, nightly.LastRunAt)
	assert.Equal(t, time.Date(2025, time.March, 13, 2, 0, 0, 0, loc).UTC(), nightly.NextDueAt)

	broken, err := mem.GetJob(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, travel.JobStatusFailed, broken.LastStatus)
	assert.Equal(t, "disk full", broken.LastError)

	// Nothing else due
	n, err = s.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScheduler_DisabledJobsOnlyRunManually(t *testing.T) {
	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	s, _, clock := newTestScheduler(t, start)
	ctx := context.Background()

	runs := 0
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: func(context.Context, time.Time) error {
		runs++
		return nil
	}}))

	state, err := s.SetEnabled(ctx, "nightly", false)
	require.NoError(t, err)
	assert.False(t, state.Enabled)

	clock.Set(time.Date(2025, time.March, 20, 9, 0, 0, 0, loc))
	n, err := s.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.RunNow(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, 1, runs)

	// Re-enabling after a long pause does not fire immediately
	state, err = s.SetEnabled(ctx, "nightly", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 21, 2, 0, 0, 0, loc).UTC(), state.NextDueAt)

	_, err = s.RunNow(ctx, "missing")
	assert.True(t, travel.IsNotFound(err))
	_, err = s.SetEnabled(ctx, "missing", true)
	assert.True(t, travel.IsNotFound(err))
}

func TestScheduler_DisableDuringRunIsKept(t *testing.T) {
	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	s, mem, _ := newTestScheduler(t, start)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: func(context.Context, time.Time) error {
		close(started)
		<-release
		return nil
	}}))

	// GIVEN: A manual run in progress
	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(ctx, "nightly")
		done <- err
	}()
	<-started

	// WHEN: The job is disabled before the run finishes
	state, err := s.SetEnabled(ctx, "nightly", false)
	require.NoError(t, err)
	assert.False(t, state.Enabled)
	close(release)
	require.NoError(t, <-done)

	// THEN: The run is recorded and the job stays disabled
	state2, err := mem.GetJob(ctx, "nightly")
	require.NoError(t, err)
	require.NotNil(t, state2)
	assert.False(t, state2.Enabled)
	assert.Equal(t, travel.JobStatusOK, state2.LastStatus)
	assert.NotNil(t, state2.LastRunAt)
}

func TestScheduler_DueCheckWaitingOnManualRunDoesNotRepeatIt(t *testing.T) {
	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	s, _, clock := newTestScheduler(t, start)
	ctx := context.Background()

	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: func(context.Context, time.Time) error {
		if runs.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	}}))

	// GIVEN: The job is due and a manual run is holding it
	clock.Set(time.Date(2025, time.March, 11, 3, 0, 0, 0, loc))
	manual := make(chan error, 1)
	go func() {
		_, err := s.RunNow(ctx, "nightly")
		manual <- err
	}()
	<-started

	// WHEN: A due check starts while the manual run is still going
	due := make(chan int, 1)
	go func() {
		n, err := s.RunDue(ctx)
		assert.NoError(t, err)
		due <- n
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	// THEN: The due check sees the fresh due time and skips
	require.NoError(t, <-manual)
	assert.Equal(t, 0, <-due)
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	loc := sydney(t)
	start := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)
	s, _, clock := newTestScheduler(t, start)
	ctx := context.Background()

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Register(ctx, Job{Name: "nightly", Schedule: "0 2 * * *", Run: func(context.Context, time.Time) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}))

	clock.Set(time.Date(2025, time.March, 11, 2, 0, 0, 0, loc))
	s.Start()
	s.Start() // second start is a no-op

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("due job did not run")
	}

	s.Stop()
	s.Stop()
}

func TestScheduler_StartWhenDisabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _, _ := newTestScheduler(t, time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC))
	s.Enabled = false
	s.Start()
	s.Stop()
}

// =============================================================================
// TRAVEL JOBS
// =============================================================================

func TestTravelJobs_ExportYesterday(t *testing.T) {
	loc := sydney(t)
	now := time.Date(2025, time.March, 11, 3, 0, 0, 0, loc)
	ctx := context.Background()

	mem := store.NewMemory()
	est := &stubEstimator{est: travel.Estimate{
		DistanceKm: decimal.NewFromInt(20), TravelMinutes: 25,
		OriginBand: travel.BandMMM1, DestinationBand: travel.BandMMM1, Band: travel.BandMMM1,
	}}
	svc := travel.NewService(mem, est, travel.WithLocation(loc), travel.WithClock(func() time.Time { return now }))

	require.NoError(t, mem.SaveStaff(ctx, travel.Staff{ID: "staff-s", Name: "Sam"}))
	require.NoError(t, mem.SaveShift(ctx, travel.Shift{
		ID: "shift-1", StaffID: "staff-s", Status: travel.ShiftScheduled,
		StartTime: time.Date(2025, time.March, 10, 8, 0, 0, 0, loc),
		EndTime:   time.Date(2025, time.March, 10, 10, 0, 0, 0, loc),
	}))
	_, err := svc.Calculate(ctx, travel.CalculationRequest{
		ShiftID: "shift-1", OriginAddress: "a", DestinationAddress: "b",
		TravelDate: travel.NewDate(2025, time.March, 10),
	})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "exports")
	jobs := TravelJobs(svc, dir)
	require.Len(t, jobs, 3)

	for _, job := range jobs {
		require.NoError(t, job.Run(ctx, now), job.Name)
	}

	_, err = os.Stat(filepath.Join(dir, "travel-daily-2025-03-10.xlsx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "travel-statements-2025-02-01_2025-02-28.xlsx"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestPreviousMonth(t *testing.T) {
	from, to := previousMonth(travel.NewDate(2025, time.January, 1))
	assert.Equal(t, "2024-12-01", from.String())
	assert.Equal(t, "2024-12-31", to.String())

	from, to = previousMonth(travel.NewDate(2024, time.March, 15))
	assert.Equal(t, "2024-02-01", from.String())
	assert.Equal(t, "2024-02-29", to.String())
}
