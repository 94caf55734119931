package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// TRAVEL CALCULATIONS - insert-only
// =============================================================================

const calculationColumns = `id, shift_id, staff_id, participant_id,
	origin_address, destination_address, travel_date,
	distance_km_hundredths, travel_minutes, sequence_number, is_first_shift,
	origin_band, destination_band, applicable_band, max_travel_minutes, billable_time_minutes,
	band_rate, billable_cents, is_billable, non_billable_reason,
	vehicle_allowance_rate, payable_cents, is_payable, non_payable_reason,
	verification_status, verification_flags_json, requires_manual_review,
	is_ato_compliant, ato_reasons_json, rate_configuration_id, created_at`

// InsertCalculation appends a record. There is no update path.
func (x *queries) InsertCalculation(ctx context.Context, c travel.Calculation) error {
	err := x.exec(ctx, `
		INSERT INTO travel_calculations (`+calculationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.ShiftID, c.StaffID, c.ParticipantID,
		c.OriginAddress, c.DestinationAddress, c.TravelDate.String(),
		toHundredths(c.DistanceKm), c.TravelMinutes, c.SequenceNumber, c.IsFirstShift,
		int(c.OriginBand), int(c.DestinationBand), int(c.ApplicableBand),
		c.MaxTravelMinutes, c.BillableTimeMinutes,
		c.BandRate.String(), toHundredths(c.BillableAmount), c.IsBillable, c.NonBillableReason,
		c.VehicleAllowanceRate.String(), toHundredths(c.PayableAmount), c.IsPayable, c.NonPayableReason,
		string(c.VerificationStatus), encodeStrings(c.VerificationFlags), c.RequiresManualReview,
		c.IsAtoCompliant, encodeStrings(c.AtoNonComplianceReasons),
		c.RateConfigurationID, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert calculation %s: %w", c.ID, err)
	}
	return nil
}

func (x *queries) GetCalculation(ctx context.Context, id string) (*travel.Calculation, error) {
	rows, err := x.query(ctx, "SELECT "+calculationColumns+" FROM travel_calculations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	c, err := scanCalculation(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCalculations returns matching records, newest first.
func (x *queries) ListCalculations(ctx context.Context, f travel.CalculationFilter) ([]travel.Calculation, error) {
	var (
		where []string
		args  []any
	)
	if f.StaffID != "" {
		where = append(where, "staff_id = ?")
		args = append(args, f.StaffID)
	}
	if f.ShiftID != "" {
		where = append(where, "shift_id = ?")
		args = append(args, f.ShiftID)
	}
	if !f.From.IsZero() {
		where = append(where, "travel_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "travel_date <= ?")
		args = append(args, f.To.String())
	}

	query := "SELECT " + calculationColumns + " FROM travel_calculations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := x.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var out []travel.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCalculation(rows *sql.Rows) (travel.Calculation, error) {
	var (
		c                                travel.Calculation
		travelDate                       string
		distance, billable, payable      int64
		originBand, destBand, applicable int
		bandRate, vehicleRate            string
		status, flagsJSON, reasonsJSON   string
		createdAt                        string
	)
	err := rows.Scan(
		&c.ID, &c.ShiftID, &c.StaffID, &c.ParticipantID,
		&c.OriginAddress, &c.DestinationAddress, &travelDate,
		&distance, &c.TravelMinutes, &c.SequenceNumber, &c.IsFirstShift,
		&originBand, &destBand, &applicable, &c.MaxTravelMinutes, &c.BillableTimeMinutes,
		&bandRate, &billable, &c.IsBillable, &c.NonBillableReason,
		&vehicleRate, &payable, &c.IsPayable, &c.NonPayableReason,
		&status, &flagsJSON, &c.RequiresManualReview,
		&c.IsAtoCompliant, &reasonsJSON, &c.RateConfigurationID, &createdAt,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan calculation: %w", err)
	}

	c.DistanceKm = fromHundredths(distance)
	c.BillableAmount = fromHundredths(billable)
	c.PayableAmount = fromHundredths(payable)
	c.OriginBand = travel.Band(originBand)
	c.DestinationBand = travel.Band(destBand)
	c.ApplicableBand = travel.Band(applicable)
	c.VerificationStatus = travel.VerificationStatus(status)

	if c.TravelDate, err = parseDate(travelDate); err != nil {
		return c, err
	}
	if c.BandRate, err = parseDecimal(bandRate); err != nil {
		return c, err
	}
	if c.VehicleAllowanceRate, err = parseDecimal(vehicleRate); err != nil {
		return c, err
	}
	if c.VerificationFlags, err = decodeStrings(flagsJSON); err != nil {
		return c, err
	}
	if c.AtoNonComplianceReasons, err = decodeStrings(reasonsJSON); err != nil {
		return c, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, err
	}
	return c, nil
}
