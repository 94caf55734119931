package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// DAILY SHIFT SEQUENCES
// =============================================================================

const sequenceColumns = `staff_id, shift_date, total_shifts, shifts_with_travel,
	total_travel_km_hundredths, total_billable_cents, total_payable_cents,
	first_shift_id, last_shift_id, last_sequence_number, updated_at`

// AddToDailySequence applies one calculation's contribution as a single
// conditional upsert. The row is never read first.
func (x *queries) AddToDailySequence(ctx context.Context, c travel.Calculation) error {
	delta := travel.Contribution(c)
	updatedAt := c.CreatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	err := x.exec(ctx, `
		INSERT INTO daily_shift_sequences (`+sequenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (staff_id, shift_date) DO UPDATE SET
			total_shifts = daily_shift_sequences.total_shifts + excluded.total_shifts,
			shifts_with_travel = daily_shift_sequences.shifts_with_travel + excluded.shifts_with_travel,
			total_travel_km_hundredths = daily_shift_sequences.total_travel_km_hundredths + excluded.total_travel_km_hundredths,
			total_billable_cents = daily_shift_sequences.total_billable_cents + excluded.total_billable_cents,
			total_payable_cents = daily_shift_sequences.total_payable_cents + excluded.total_payable_cents,
			first_shift_id = CASE
				WHEN daily_shift_sequences.first_shift_id = '' THEN excluded.first_shift_id
				ELSE daily_shift_sequences.first_shift_id
			END,
			last_shift_id = CASE
				WHEN excluded.last_sequence_number >= daily_shift_sequences.last_sequence_number THEN excluded.last_shift_id
				ELSE daily_shift_sequences.last_shift_id
			END,
			last_sequence_number = CASE
				WHEN excluded.last_sequence_number >= daily_shift_sequences.last_sequence_number THEN excluded.last_sequence_number
				ELSE daily_shift_sequences.last_sequence_number
			END,
			updated_at = excluded.updated_at
	`,
		delta.StaffID, delta.Date.String(), delta.TotalShifts, delta.ShiftsWithTravel,
		toHundredths(delta.TotalTravelKm), toHundredths(delta.TotalBillable), toHundredths(delta.TotalPayable),
		delta.FirstShiftID, delta.LastShiftID, delta.LastSequenceNumber, formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update daily sequence %s/%s: %w", c.StaffID, c.TravelDate, err)
	}
	return nil
}

// ReplaceDailySequence overwrites the row. Zero shifts removes it.
func (x *queries) ReplaceDailySequence(ctx context.Context, seq travel.DailySequence) error {
	err := x.exec(ctx,
		"DELETE FROM daily_shift_sequences WHERE staff_id = ? AND shift_date = ?",
		seq.StaffID, seq.Date.String())
	if err != nil {
		return fmt.Errorf("failed to clear daily sequence: %w", err)
	}
	if seq.TotalShifts == 0 {
		return nil
	}
	if seq.UpdatedAt.IsZero() {
		seq.UpdatedAt = time.Now()
	}
	err = x.exec(ctx, `
		INSERT INTO daily_shift_sequences (`+sequenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		seq.StaffID, seq.Date.String(), seq.TotalShifts, seq.ShiftsWithTravel,
		toHundredths(seq.TotalTravelKm), toHundredths(seq.TotalBillable), toHundredths(seq.TotalPayable),
		seq.FirstShiftID, seq.LastShiftID, seq.LastSequenceNumber, formatTime(seq.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to write daily sequence: %w", err)
	}
	return nil
}

func (x *queries) GetDailySequence(ctx context.Context, staffID string, date travel.Date) (*travel.DailySequence, error) {
	rows, err := x.query(ctx,
		"SELECT "+sequenceColumns+" FROM daily_shift_sequences WHERE staff_id = ? AND shift_date = ?",
		staffID, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sequence: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	seq, err := scanSequence(rows)
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// ListDailySequences orders by date descending, then staff.
func (x *queries) ListDailySequences(ctx context.Context, f travel.SequenceFilter) ([]travel.DailySequence, error) {
	var (
		where []string
		args  []any
	)
	if f.StaffID != "" {
		where = append(where, "staff_id = ?")
		args = append(args, f.StaffID)
	}
	if !f.From.IsZero() {
		where = append(where, "shift_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "shift_date <= ?")
		args = append(args, f.To.String())
	}
	query := "SELECT " + sequenceColumns + " FROM daily_shift_sequences"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY shift_date DESC, staff_id ASC"

	rows, err := x.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sequences: %w", err)
	}
	defer rows.Close()

	var out []travel.DailySequence
	for rows.Next() {
		seq, err := scanSequence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, rows.Err()
}

func scanSequence(rows *sql.Rows) (travel.DailySequence, error) {
	var (
		seq                   travel.DailySequence
		date, updatedAt       string
		km, billable, payable int64
	)
	err := rows.Scan(
		&seq.StaffID, &date, &seq.TotalShifts, &seq.ShiftsWithTravel,
		&km, &billable, &payable,
		&seq.FirstShiftID, &seq.LastShiftID, &seq.LastSequenceNumber, &updatedAt,
	)
	if err != nil {
		return seq, fmt.Errorf("failed to scan daily sequence: %w", err)
	}
	seq.TotalTravelKm = fromHundredths(km)
	seq.TotalBillable = fromHundredths(billable)
	seq.TotalPayable = fromHundredths(payable)
	if seq.Date, err = parseDate(date); err != nil {
		return seq, err
	}
	if seq.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return seq, err
	}
	return seq, nil
}
