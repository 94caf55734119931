package travel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE CONFIGURATION - Time-versioned rate table
// =============================================================================

// DefaultRateConfigurationID identifies the built-in fallback configuration.
const DefaultRateConfigurationID = "default"

// RateConfiguration is immutable once stored. A change of rates is a new
// configuration with a later EffectiveFrom.
type RateConfiguration struct {
	ID string

	// BandRates[0] is the per-km rate for MMM1, BandRates[4] for MMM5.
	BandRates [5]decimal.Decimal

	NearCapMinutes int // MMM1-3
	FarCapMinutes  int // MMM4-5

	VehicleAllowanceRate decimal.Decimal // worker, per km, band independent
	TaxBusinessKmRate    decimal.Decimal // tax authority reference rate

	EffectiveFrom time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// DefaultRateConfiguration is used when no active configuration exists.
func DefaultRateConfiguration() RateConfiguration {
	return RateConfiguration{
		ID: DefaultRateConfigurationID,
		BandRates: [5]decimal.Decimal{
			decimal.RequireFromString("0.99"),
			decimal.RequireFromString("0.99"),
			decimal.RequireFromString("0.99"),
			decimal.RequireFromString("0.85"),
			decimal.RequireFromString("0.78"),
		},
		NearCapMinutes:       30,
		FarCapMinutes:        60,
		VehicleAllowanceRate: decimal.RequireFromString("0.95"),
		TaxBusinessKmRate:    decimal.RequireFromString("0.85"),
		IsActive:             true,
	}
}

// Rate returns the per-km funding scheme rate for a band. Unknown bands use
// the MMM1 rate.
func (rc RateConfiguration) Rate(b Band) decimal.Decimal {
	if !b.Valid() {
		return rc.BandRates[0]
	}
	return rc.BandRates[b-1]
}

// TimeCap returns the maximum billable travel minutes for a band.
func (rc RateConfiguration) TimeCap(b Band) int {
	if b.IsRemote() {
		return rc.FarCapMinutes
	}
	return rc.NearCapMinutes
}

func (rc RateConfiguration) IsDefault() bool { return rc.ID == DefaultRateConfigurationID }

// Validate checks a configuration before it is stored.
func (rc RateConfiguration) Validate() error {
	for i, r := range rc.BandRates {
		if r.IsNegative() {
			return fmt.Errorf("%w: MMM%d rate is negative", ErrInvalidRateConfiguration, i+1)
		}
	}
	if rc.NearCapMinutes <= 0 || rc.FarCapMinutes <= 0 {
		return fmt.Errorf("%w: time caps must be positive", ErrInvalidRateConfiguration)
	}
	if rc.VehicleAllowanceRate.IsNegative() || rc.TaxBusinessKmRate.IsNegative() {
		return fmt.Errorf("%w: allowance rates must not be negative", ErrInvalidRateConfiguration)
	}
	if rc.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: effective_from is required", ErrInvalidRateConfiguration)
	}
	return nil
}

// SelectActive picks the configuration that is in force at asOf: the most
// recent active one whose EffectiveFrom is not after asOf, the later
// CreatedAt on a tie. Returns nil when none applies. Stores that cannot
// filter in SQL use this directly.
func SelectActive(configs []RateConfiguration, asOf time.Time) *RateConfiguration {
	var best *RateConfiguration
	for i := range configs {
		c := &configs[i]
		if !c.IsActive || c.EffectiveFrom.After(asOf) {
			continue
		}
		if best == nil || newerRates(c, best) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func newerRates(a, b *RateConfiguration) bool {
	if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
		return a.EffectiveFrom.After(b.EffectiveFrom)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
