package travel

import (
	"context"
	"time"
)

// =============================================================================
// SCHEDULED JOB STATE
// =============================================================================
// The scheduler lives in api/, but its state is persisted next to the rest
// of the travel data so a restart resumes from the stored due times.

type JobStatus string

const (
	JobStatusNever  JobStatus = ""
	JobStatusOK     JobStatus = "ok"
	JobStatusFailed JobStatus = "failed"
)

// JobState is one row of scheduled_jobs.
type JobState struct {
	Name       string
	Schedule   string // cron expression
	Enabled    bool
	LastRunAt  *time.Time
	NextDueAt  time.Time
	LastStatus JobStatus
	LastError  string
	UpdatedAt  time.Time
}

// JobStore persists scheduler state. GetJob returns (nil, nil) when the job
// has never been saved.
type JobStore interface {
	SaveJob(ctx context.Context, j JobState) error
	GetJob(ctx context.Context, name string) (*JobState, error)
	ListJobs(ctx context.Context) ([]JobState, error)
}
