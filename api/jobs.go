package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/warp/travel-engine/report"
	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// TRAVEL JOBS
// =============================================================================

const (
	JobDailyRebuild      = "daily_travel_rebuild"
	JobDailyExport       = "daily_travel_export"
	JobMonthlyStatements = "monthly_travel_statements"
)

// TravelJobs returns the recurring maintenance jobs. Exports are written
// under exportDir.
func TravelJobs(svc *travel.Service, exportDir string) []Job {
	return []Job{
		{
			Name:     JobDailyRebuild,
			Schedule: "0 2 * * *",
			Run: func(ctx context.Context, now time.Time) error {
				_, err := svc.RebuildDate(ctx, yesterday(svc, now))
				return err
			},
		},
		{
			Name:     JobDailyExport,
			Schedule: "0 3 * * *",
			Run: func(ctx context.Context, now time.Time) error {
				_, err := ExportDaily(ctx, svc, exportDir, yesterday(svc, now))
				return err
			},
		},
		{
			Name:     JobMonthlyStatements,
			Schedule: "0 4 1 * *",
			Run: func(ctx context.Context, now time.Time) error {
				from, to := previousMonth(travel.DateOf(now, svc.Location()))
				_, err := ExportStatements(ctx, svc, exportDir, from, to)
				return err
			},
		},
	}
}

// ExportDaily writes the daily summaries for one date and returns the file
// path.
func ExportDaily(ctx context.Context, svc *travel.Service, dir string, date travel.Date) (string, error) {
	seqs, err := svc.DailySummaries(ctx, travel.SequenceFilter{From: date, To: date})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.DailyFileName(date, date))
	return path, writeFile(path, func(w io.Writer) error { return report.WriteDailySummaries(w, seqs) })
}

// ExportStatements writes every staff member's statement for [from, to].
func ExportStatements(ctx context.Context, svc *travel.Service, dir string, from, to travel.Date) (string, error) {
	stmts, err := svc.StaffStatements(ctx, from, to)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.StatementsFileName(from, to))
	return path, writeFile(path, func(w io.Writer) error { return report.WriteStaffStatements(w, stmts) })
}

func yesterday(svc *travel.Service, now time.Time) travel.Date {
	return travel.DateOf(now, svc.Location()).AddDays(-1)
}

// previousMonth returns the first and last day of the month before d.
func previousMonth(d travel.Date) (travel.Date, travel.Date) {
	first := travel.StartOfMonth(d.Year(), d.Month()).AddMonths(-1)
	return first, travel.EndOfMonth(first.Year(), first.Month())
}

// writeFile writes to a temp file and renames it into place so readers
// never see a partial workbook.
func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
