package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// RATE CONFIGURATIONS - insert-only, time-versioned
// =============================================================================

const rateColumns = `id, mmm1_rate, mmm2_rate, mmm3_rate, mmm4_rate, mmm5_rate,
	near_cap_minutes, far_cap_minutes, vehicle_allowance_rate, tax_business_km_rate,
	effective_from, is_active, created_at`

func (x *queries) SaveRateConfiguration(ctx context.Context, rc travel.RateConfiguration) error {
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now()
	}
	err := x.exec(ctx, `
		INSERT INTO rate_configurations (`+rateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rc.ID,
		rc.BandRates[0].String(), rc.BandRates[1].String(), rc.BandRates[2].String(),
		rc.BandRates[3].String(), rc.BandRates[4].String(),
		rc.NearCapMinutes, rc.FarCapMinutes,
		rc.VehicleAllowanceRate.String(), rc.TaxBusinessKmRate.String(),
		formatTime(rc.EffectiveFrom), rc.IsActive, formatTime(rc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save rate configuration %s: %w", rc.ID, err)
	}
	return nil
}

// ActiveRateConfiguration returns the newest active configuration whose
// effective date is not after asOf, or nil.
func (x *queries) ActiveRateConfiguration(ctx context.Context, asOf time.Time) (*travel.RateConfiguration, error) {
	rows, err := x.query(ctx, `
		SELECT `+rateColumns+`
		FROM rate_configurations
		WHERE is_active = ? AND effective_from <= ?
		ORDER BY effective_from DESC, created_at DESC
		LIMIT 1
	`, true, formatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query rate configurations: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rc, err := scanRateConfiguration(rows)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func (x *queries) ListRateConfigurations(ctx context.Context) ([]travel.RateConfiguration, error) {
	rows, err := x.query(ctx, `
		SELECT `+rateColumns+`
		FROM rate_configurations
		ORDER BY effective_from DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate configurations: %w", err)
	}
	defer rows.Close()

	var out []travel.RateConfiguration
	for rows.Next() {
		rc, err := scanRateConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanRateConfiguration(rows *sql.Rows) (travel.RateConfiguration, error) {
	var (
		rc                     travel.RateConfiguration
		bands                  [5]string
		vehicle, tax           string
		effectiveFrom, created string
	)
	err := rows.Scan(
		&rc.ID, &bands[0], &bands[1], &bands[2], &bands[3], &bands[4],
		&rc.NearCapMinutes, &rc.FarCapMinutes, &vehicle, &tax,
		&effectiveFrom, &rc.IsActive, &created,
	)
	if err != nil {
		return rc, fmt.Errorf("failed to scan rate configuration: %w", err)
	}
	for i, b := range bands {
		if rc.BandRates[i], err = parseDecimal(b); err != nil {
			return rc, err
		}
	}
	if rc.VehicleAllowanceRate, err = parseDecimal(vehicle); err != nil {
		return rc, err
	}
	if rc.TaxBusinessKmRate, err = parseDecimal(tax); err != nil {
		return rc, err
	}
	if rc.EffectiveFrom, err = parseTime(effectiveFrom); err != nil {
		return rc, err
	}
	if rc.CreatedAt, err = parseTime(created); err != nil {
		return rc, err
	}
	return rc, nil
}
