package travel

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DUAL AMOUNT CALCULATOR
// =============================================================================
// The funding scheme amount and the worker allowance come from different
// rate schedules. They share the distance and the first-shift override and
// nothing else.

const (
	FirstShiftNonBillableReason = "First shift of the day - non-billable per NDIS guidelines"
	FirstShiftNonPayableReason  = "First shift of the day - non-payable per policy"
)

// RoundCents rounds half away from zero to 2 decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// CalculateAmounts computes both money tracks for an estimate.
func CalculateAmounts(est Estimate, rules RuleOutcome, rates RateConfiguration) Amounts {
	a := Amounts{
		BandRate:             rates.Rate(est.Band),
		VehicleAllowanceRate: rates.VehicleAllowanceRate,
	}

	if rules.IsFirstShift {
		a.BillableAmount = decimal.Zero
		a.NonBillableReason = FirstShiftNonBillableReason
		a.PayableAmount = decimal.Zero
		a.NonPayableReason = FirstShiftNonPayableReason
		return a
	}

	a.BillableAmount = RoundCents(est.DistanceKm.Mul(a.BandRate))
	a.IsBillable = true
	a.PayableAmount = RoundCents(est.DistanceKm.Mul(a.VehicleAllowanceRate))
	a.IsPayable = true
	return a
}
