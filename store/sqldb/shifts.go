package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// STAFF
// =============================================================================

func (x *queries) SaveStaff(ctx context.Context, s travel.Staff) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	err := x.exec(ctx, `
		INSERT INTO staff (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`, s.ID, s.Name, s.Email, formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save staff %s: %w", s.ID, err)
	}
	return nil
}

// GetStaff retrieves a staff member by ID.
func (x *queries) GetStaff(ctx context.Context, id string) (*travel.Staff, error) {
	var (
		s         travel.Staff
		createdAt string
	)
	err := x.queryRow(ctx,
		"SELECT id, name, email, created_at FROM staff WHERE id = ?", id,
	).Scan(&s.ID, &s.Name, &s.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (x *queries) ListStaff(ctx context.Context) ([]travel.Staff, error) {
	rows, err := x.query(ctx, "SELECT id, name, email, created_at FROM staff ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var out []travel.Staff
	for rows.Next() {
		var (
			s         travel.Staff
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

func (x *queries) SaveParticipant(ctx context.Context, p travel.Participant) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	err := x.exec(ctx, `
		INSERT INTO participants (id, name, address, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address
	`, p.ID, p.Name, p.Address, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save participant %s: %w", p.ID, err)
	}
	return nil
}

func (x *queries) ListParticipants(ctx context.Context) ([]travel.Participant, error) {
	rows, err := x.query(ctx, "SELECT id, name, address, created_at FROM participants ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var out []travel.Participant
	for rows.Next() {
		var (
			p         travel.Participant
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// SHIFTS
// =============================================================================

const shiftColumns = `id, staff_id, participant_id, start_time, end_time, status, created_at`

func (x *queries) SaveShift(ctx context.Context, s travel.Shift) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.Status == "" {
		s.Status = travel.ShiftScheduled
	}
	err := x.exec(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			staff_id = excluded.staff_id,
			participant_id = excluded.participant_id,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			status = excluded.status
	`,
		s.ID, nullString(s.StaffID), nullString(s.ParticipantID),
		formatTime(s.StartTime), formatTime(s.EndTime),
		string(s.Status), formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift %s: %w", s.ID, err)
	}
	return nil
}

func (x *queries) GetShift(ctx context.Context, id string) (*travel.Shift, error) {
	rows, err := x.query(ctx, "SELECT "+shiftColumns+" FROM shifts WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	s, err := scanShift(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ShiftsForStaffBetween returns shifts starting in [from, to).
func (x *queries) ShiftsForStaffBetween(ctx context.Context, staffID string, from, to time.Time) ([]travel.Shift, error) {
	rows, err := x.query(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE staff_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time ASC, id ASC
	`, staffID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var out []travel.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanShift(rows *sql.Rows) (travel.Shift, error) {
	var (
		s                  travel.Shift
		staffID, partID    sql.NullString
		start, end, status string
		createdAt          string
	)
	if err := rows.Scan(&s.ID, &staffID, &partID, &start, &end, &status, &createdAt); err != nil {
		return s, fmt.Errorf("failed to scan shift: %w", err)
	}
	s.StaffID = staffID.String
	s.ParticipantID = partID.String
	s.Status = travel.ShiftStatus(status)

	var err error
	if s.StartTime, err = parseTime(start); err != nil {
		return s, err
	}
	if s.EndTime, err = parseTime(end); err != nil {
		return s, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return s, err
	}
	return s, nil
}
