/*
Package travel provides the provider travel & payment calculation engine.

PURPOSE:
  Calculates the travel a support worker incurs between shifts and splits it
  into two independent money tracks: the amount claimable from the funding
  scheme (NDIS) and the vehicle allowance owed to the worker (SCHADS award).

KEY CONCEPTS IN THIS FILE (types.go):
  - Band: Modified Monash Model remoteness band (MMM1 = major city, MMM5 = very remote)
  - Shift: A scheduled block of work for one staff member
  - Calculation: The immutable record produced for one shift
  - DailySequence: Per staff, per day running totals

PIPELINE:
  rates lookup -> shift sequencing -> distance estimate -> rules -> amounts
  -> persist calculation + aggregate (one store transaction)

DESIGN PRINCIPLES:
  1. Immutability: Calculations are never edited. A recalculation inserts a new record.
  2. Precision: Money and distance use decimal.Decimal, rounded to cents.
  3. Rebuildable aggregates: DailySequence is derived data and can be rebuilt
     from the latest calculation of each shift.

SEE ALSO:
  - rates.go: Rate configuration and the built-in default
  - rules.go: Billing rule evaluator
  - amounts.go: Dual amount calculator
  - service.go: The calculation pipeline
*/
package travel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REMOTENESS BAND
// =============================================================================

// Band is a Modified Monash Model remoteness classification.
type Band int

const (
	BandMMM1 Band = iota + 1
	BandMMM2
	BandMMM3
	BandMMM4
	BandMMM5
)

// ParseBand accepts "MMM3", "mmm3" or "3".
func ParseBand(s string) (Band, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "MMM")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "band", Message: fmt.Sprintf("invalid band %q", s)}
	}
	b := Band(n)
	if !b.Valid() {
		return 0, &ValidationError{Field: "band", Message: fmt.Sprintf("band %d out of range 1-5", n)}
	}
	return b, nil
}

func (b Band) Valid() bool { return b >= BandMMM1 && b <= BandMMM5 }
func (b Band) IsRemote() bool { return b >= BandMMM4 }
func (b Band) String() string { return fmt.Sprintf("MMM%d", int(b)) }

// MoreRemote returns the higher of the two bands.
func MoreRemote(a, b Band) Band {
	if a > b {
		return a
	}
	return b
}

// =============================================================================
// PEOPLE AND SHIFTS
// =============================================================================

type Staff struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

type Participant struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}

type ShiftStatus string

const (
	ShiftScheduled ShiftStatus = "scheduled"
	ShiftCompleted ShiftStatus = "completed"
	ShiftCancelled ShiftStatus = "cancelled"
)

// Shift belongs to at most one staff member and at most one participant.
// An empty StaffID means the shift is unassigned.
type Shift struct {
	ID            string
	StaffID       string
	ParticipantID string
	StartTime     time.Time
	EndTime       time.Time
	Status        ShiftStatus
	CreatedAt     time.Time
}

// =============================================================================
// PIPELINE VALUES
// =============================================================================

// CalculationRequest is the input of one travel calculation.
type CalculationRequest struct {
	ShiftID            string
	OriginAddress      string
	DestinationAddress string
	TravelDate         Date
}

func (r CalculationRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.ShiftID) == "":
		return &ValidationError{Field: "shift_id", Message: "is required"}
	case strings.TrimSpace(r.OriginAddress) == "":
		return &ValidationError{Field: "origin_address", Message: "is required"}
	case strings.TrimSpace(r.DestinationAddress) == "":
		return &ValidationError{Field: "destination_address", Message: "is required"}
	case r.TravelDate.IsZero():
		return &ValidationError{Field: "travel_date", Message: "is required"}
	}
	return nil
}

// Estimate is the output of the distance/time estimator.
type Estimate struct {
	DistanceKm      decimal.Decimal
	TravelMinutes   int
	OriginBand      Band
	DestinationBand Band
	Band            Band // applicable band
}

// SequenceResult is the position of a shift within its staff member's day.
type SequenceResult struct {
	SequenceNumber int
	IsFirstShift   bool
	TotalShifts    int
}

// RuleOutcome is the result of the billing rule evaluator.
type RuleOutcome struct {
	IsFirstShift           bool
	ExceedsTimeLimit       bool
	ExceedsDistanceCeiling bool
	RequiresManualReview   bool
	IsAtoCompliant         bool
}

// Amounts holds the two independent money tracks.
type Amounts struct {
	BandRate          decimal.Decimal
	BillableAmount    decimal.Decimal
	IsBillable        bool
	NonBillableReason string

	VehicleAllowanceRate decimal.Decimal
	PayableAmount        decimal.Decimal
	IsPayable            bool
	NonPayableReason     string
}

// =============================================================================
// PERSISTED RECORDS
// =============================================================================

type VerificationStatus string

const (
	VerificationVerified     VerificationStatus = "verified"
	VerificationManualReview VerificationStatus = "manual_review"
)

// Verification flags recorded on a calculation.
const (
	FlagExceedsTimeLimit       = "exceeds_time_limit"
	FlagExceedsDistanceCeiling = "exceeds_distance_ceiling"
	FlagExceedsAtoDistance     = "exceeds_ato_distance"
)

// Calculation is one TravelCalculation record. Insert-only.
type Calculation struct {
	ID            string
	ShiftID       string
	StaffID       string
	ParticipantID string

	OriginAddress      string
	DestinationAddress string
	TravelDate         Date

	DistanceKm     decimal.Decimal
	TravelMinutes  int
	SequenceNumber int
	IsFirstShift   bool

	OriginBand          Band
	DestinationBand     Band
	ApplicableBand      Band
	MaxTravelMinutes    int
	BillableTimeMinutes int

	BandRate          decimal.Decimal
	BillableAmount    decimal.Decimal
	IsBillable        bool
	NonBillableReason string

	VehicleAllowanceRate decimal.Decimal
	PayableAmount        decimal.Decimal
	IsPayable            bool
	NonPayableReason     string

	VerificationStatus      VerificationStatus
	VerificationFlags       []string
	RequiresManualReview    bool
	IsAtoCompliant          bool
	AtoNonComplianceReasons []string

	RateConfigurationID string
	CreatedAt           time.Time
}

// DailySequence accumulates one staff member's travel for one calendar day.
type DailySequence struct {
	StaffID          string
	Date             Date
	TotalShifts      int
	ShiftsWithTravel int
	TotalTravelKm    decimal.Decimal
	TotalBillable    decimal.Decimal
	TotalPayable     decimal.Decimal
	FirstShiftID     string
	LastShiftID      string
	// Sequence number of LastShiftID, so out-of-order calculations keep
	// the chronologically last shift.
	LastSequenceNumber int
	UpdatedAt          time.Time
}

// StaffStatement sums a staff member's daily sequences over a date range.
type StaffStatement struct {
	StaffID       string
	From          Date
	To            Date
	Days          int
	TotalShifts   int
	TotalTravelKm decimal.Decimal
	TotalBillable decimal.Decimal
	TotalPayable  decimal.Decimal
}
