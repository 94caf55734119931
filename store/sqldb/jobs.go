package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// SCHEDULED JOBS (travel.JobStore interface)
// =============================================================================

const jobColumns = `name, schedule, enabled, last_run_at, next_due_at, last_status, last_error, updated_at`

func (x *queries) SaveJob(ctx context.Context, j travel.JobState) error {
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = time.Now()
	}
	err := x.exec(ctx, `
		INSERT INTO scheduled_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schedule = excluded.schedule,
			enabled = excluded.enabled,
			last_run_at = excluded.last_run_at,
			next_due_at = excluded.next_due_at,
			last_status = excluded.last_status,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`,
		j.Name, j.Schedule, j.Enabled, formatNullTime(j.LastRunAt),
		formatTime(j.NextDueAt), string(j.LastStatus), j.LastError, formatTime(j.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", j.Name, err)
	}
	return nil
}

func (x *queries) GetJob(ctx context.Context, name string) (*travel.JobState, error) {
	rows, err := x.query(ctx, "SELECT "+jobColumns+" FROM scheduled_jobs WHERE name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	j, err := scanJob(rows)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (x *queries) ListJobs(ctx context.Context) ([]travel.JobState, error) {
	rows, err := x.query(ctx, "SELECT "+jobColumns+" FROM scheduled_jobs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var out []travel.JobState
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(rows *sql.Rows) (travel.JobState, error) {
	var (
		j                  travel.JobState
		lastRun            sql.NullString
		nextDue, updatedAt string
		status             string
	)
	err := rows.Scan(&j.Name, &j.Schedule, &j.Enabled, &lastRun, &nextDue, &status, &j.LastError, &updatedAt)
	if err != nil {
		return j, fmt.Errorf("failed to scan job: %w", err)
	}
	j.LastStatus = travel.JobStatus(status)
	if j.LastRunAt, err = parseNullTime(lastRun); err != nil {
		return j, err
	}
	if j.NextDueAt, err = parseTime(nextDue); err != nil {
		return j, err
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return j, err
	}
	return j, nil
}
