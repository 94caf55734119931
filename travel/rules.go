package travel

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// BILLING RULE EVALUATOR
// =============================================================================

var (
	// DistanceCeilingKm triggers manual review and breaks tax compliance.
	DistanceCeilingKm = decimal.NewFromInt(100)

	// AtoMaxDistanceKm is the tax authority's excessive-distance threshold.
	AtoMaxDistanceKm = decimal.NewFromInt(200)
)

// EvaluateRules applies travel policy. Pure: no I/O, no clock.
//
// The first-shift override only governs the money (see CalculateAmounts);
// the review and compliance flags are always derived from the estimate so
// that long first-shift trips are still visible to reviewers.
func EvaluateRules(seq SequenceResult, est Estimate, rates RateConfiguration) RuleOutcome {
	out := RuleOutcome{
		IsFirstShift:           seq.IsFirstShift,
		ExceedsTimeLimit:       est.TravelMinutes > rates.TimeCap(est.Band),
		ExceedsDistanceCeiling: est.DistanceKm.GreaterThan(DistanceCeilingKm),
	}
	out.RequiresManualReview = out.ExceedsTimeLimit || out.ExceedsDistanceCeiling
	out.IsAtoCompliant = !est.DistanceKm.GreaterThan(AtoMaxDistanceKm) && !out.ExceedsDistanceCeiling
	return out
}

// BillableMinutes caps the estimated minutes at the band's limit.
func BillableMinutes(est Estimate, rates RateConfiguration) int {
	limit := rates.TimeCap(est.Band)
	if est.TravelMinutes < limit {
		return est.TravelMinutes
	}
	return limit
}

// verificationFlags lists the rules that fired, in a stable order.
func verificationFlags(out RuleOutcome) []string {
	flags := []string{}
	if out.ExceedsTimeLimit {
		flags = append(flags, FlagExceedsTimeLimit)
	}
	if out.ExceedsDistanceCeiling {
		flags = append(flags, FlagExceedsDistanceCeiling)
	}
	return flags
}

func atoNonComplianceReasons(est Estimate, out RuleOutcome) []string {
	reasons := []string{}
	if est.DistanceKm.GreaterThan(AtoMaxDistanceKm) {
		reasons = append(reasons, FlagExceedsAtoDistance)
	}
	if out.ExceedsDistanceCeiling {
		reasons = append(reasons, FlagExceedsDistanceCeiling)
	}
	return reasons
}
