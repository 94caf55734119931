/*
service.go - The travel calculation pipeline

PURPOSE:
  Service wires the pure calculators (sequence, rules, amounts) to the store
  and the distance estimator. It is constructed once at process start and
  passed to whoever needs it. There is no package-level instance.

PIPELINE (Calculate):
  1. Validate request
  2. Load shift                       -> ErrShiftNotFound
  3. Require assigned staff           -> ErrNoStaffAssigned
  4. Sequence shift within its day    -> ErrShiftNotInDay
  5. Look up active rates             (default when none)
  6. Estimate distance/time/band      -> *ProviderError
  7. Evaluate rules, compute amounts
  8. WithTx: insert calculation + atomic aggregate increment

NON-IDEMPOTENCE:
  Calculating the same shift twice inserts two records and adds to the day
  twice. RebuildDay is the correction path: it recomputes the aggregate from
  the latest record of each shift.

SEE ALSO:
  - recalculate.go: Bulk recalculation over a date range
  - routing/: Estimator implementation
*/
package travel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Estimator converts an address pair into distance, time and band.
// Implementations return *ProviderError on provider failure.
type Estimator interface {
	Estimate(ctx context.Context, origin, destination string) (Estimate, error)
}

// Service runs travel calculations.
type Service struct {
	store     TxStore
	estimator Estimator
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger

	recalcParallelism int
}

type Option func(*Service)

// WithLocation sets the timezone that defines a calendar day.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// WithRecalcParallelism bounds concurrent estimator calls in Recalculate.
func WithRecalcParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recalcParallelism = n
		}
	}
}

func NewService(store TxStore, estimator Estimator, opts ...Option) *Service {
	s := &Service{
		store:             store,
		estimator:         estimator,
		loc:               time.UTC,
		now:               time.Now,
		logger:            zap.NewNop(),
		recalcParallelism: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

// Today is the current calendar day in the service timezone.
func (s *Service) Today() Date { return DateOf(s.now(), s.loc) }

// Now reads the service clock.
func (s *Service) Now() time.Time { return s.now() }

// =============================================================================
// RATE CONFIGURATION LOOKUP
// =============================================================================

// ActiveRates returns the configuration in force now. An empty store yields
// DefaultRateConfiguration(); only a store failure is an error.
func (s *Service) ActiveRates(ctx context.Context) (RateConfiguration, error) {
	rc, err := s.store.ActiveRateConfiguration(ctx, s.now())
	if err != nil {
		return RateConfiguration{}, fmt.Errorf("failed to load rate configuration: %w", err)
	}
	if rc == nil {
		s.logger.Debug("no active rate configuration, using default")
		return DefaultRateConfiguration(), nil
	}
	return *rc, nil
}

// CreateRateConfiguration stores a new configuration. Existing ones are
// never modified; a later EffectiveFrom supersedes them.
func (s *Service) CreateRateConfiguration(ctx context.Context, rc RateConfiguration) (RateConfiguration, error) {
	if err := rc.Validate(); err != nil {
		return RateConfiguration{}, err
	}
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
	rc.CreatedAt = s.now().UTC()
	if err := s.store.SaveRateConfiguration(ctx, rc); err != nil {
		return RateConfiguration{}, fmt.Errorf("failed to save rate configuration: %w", err)
	}
	s.logger.Info("rate configuration created",
		zap.String("id", rc.ID),
		zap.Time("effective_from", rc.EffectiveFrom),
		zap.Bool("active", rc.IsActive))
	return rc, nil
}

// =============================================================================
// SHIFT SEQUENCING
// =============================================================================

// SequenceFor loads the staff member's shifts starting on date and returns
// the position of shiftID among them.
func (s *Service) SequenceFor(ctx context.Context, staffID string, date Date, shiftID string) (SequenceResult, error) {
	from, to := date.Bounds(s.loc)
	shifts, err := s.store.ShiftsForStaffBetween(ctx, staffID, from, to)
	if err != nil {
		return SequenceResult{}, fmt.Errorf("failed to load shifts for %s on %s: %w", staffID, date, err)
	}
	seq, err := Sequence(shifts, shiftID)
	if err != nil {
		return seq, fmt.Errorf("shift %s, staff %s, date %s: %w", shiftID, staffID, date, err)
	}
	return seq, nil
}

// =============================================================================
// CALCULATION
// =============================================================================

// Calculate runs the full pipeline and returns the stored record.
func (s *Service) Calculate(ctx context.Context, req CalculationRequest) (*Calculation, error) {
	return s.calculate(ctx, req, true)
}

func (s *Service) calculate(ctx context.Context, req CalculationRequest, aggregate bool) (*Calculation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	shift, err := s.store.GetShift(ctx, req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift %s: %w", req.ShiftID, err)
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: %s", ErrShiftNotFound, req.ShiftID)
	}
	if shift.StaffID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoStaffAssigned, req.ShiftID)
	}

	seq, err := s.SequenceFor(ctx, shift.StaffID, req.TravelDate, shift.ID)
	if err != nil {
		s.logger.Warn("shift sequence lookup missed",
			zap.String("shift_id", shift.ID),
			zap.String("staff_id", shift.StaffID),
			zap.String("travel_date", req.TravelDate.String()))
		return nil, err
	}

	rates, err := s.ActiveRates(ctx)
	if err != nil {
		return nil, err
	}

	est, err := s.estimator.Estimate(ctx, req.OriginAddress, req.DestinationAddress)
	if err != nil {
		s.logger.Error("distance estimate failed",
			zap.String("shift_id", shift.ID),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to estimate travel for shift %s: %w", shift.ID, err)
	}
	est.DistanceKm = RoundCents(est.DistanceKm)

	rules := EvaluateRules(seq, est, rates)
	amounts := CalculateAmounts(est, rules, rates)
	calc := s.buildRecord(req, shift, seq, est, rates, rules, amounts)

	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.InsertCalculation(ctx, calc); err != nil {
			return fmt.Errorf("failed to insert calculation: %w", err)
		}
		if !aggregate {
			return nil
		}
		if err := tx.AddToDailySequence(ctx, calc); err != nil {
			return fmt.Errorf("failed to update daily sequence: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("travel calculated",
		zap.String("calculation_id", calc.ID),
		zap.String("shift_id", calc.ShiftID),
		zap.String("staff_id", calc.StaffID),
		zap.Int("sequence", calc.SequenceNumber),
		zap.String("distance_km", calc.DistanceKm.StringFixed(2)),
		zap.String("band", calc.ApplicableBand.String()),
		zap.String("billable", calc.BillableAmount.StringFixed(2)),
		zap.String("payable", calc.PayableAmount.StringFixed(2)),
		zap.Bool("manual_review", calc.RequiresManualReview))
	return &calc, nil
}

func (s *Service) buildRecord(
	req CalculationRequest,
	shift *Shift,
	seq SequenceResult,
	est Estimate,
	rates RateConfiguration,
	rules RuleOutcome,
	amounts Amounts,
) Calculation {
	status := VerificationVerified
	if rules.RequiresManualReview {
		status = VerificationManualReview
	}
	return Calculation{
		ID:                 uuid.NewString(),
		ShiftID:            shift.ID,
		StaffID:            shift.StaffID,
		ParticipantID:      shift.ParticipantID,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		TravelDate:         req.TravelDate,

		DistanceKm:     RoundCents(est.DistanceKm),
		TravelMinutes:  est.TravelMinutes,
		SequenceNumber: seq.SequenceNumber,
		IsFirstShift:   seq.IsFirstShift,

		OriginBand:          est.OriginBand,
		DestinationBand:     est.DestinationBand,
		ApplicableBand:      est.Band,
		MaxTravelMinutes:    rates.TimeCap(est.Band),
		BillableTimeMinutes: BillableMinutes(est, rates),

		BandRate:          amounts.BandRate,
		BillableAmount:    amounts.BillableAmount,
		IsBillable:        amounts.IsBillable,
		NonBillableReason: amounts.NonBillableReason,

		VehicleAllowanceRate: amounts.VehicleAllowanceRate,
		PayableAmount:        amounts.PayableAmount,
		IsPayable:            amounts.IsPayable,
		NonPayableReason:     amounts.NonPayableReason,

		VerificationStatus:      status,
		VerificationFlags:       verificationFlags(rules),
		RequiresManualReview:    rules.RequiresManualReview,
		IsAtoCompliant:          rules.IsAtoCompliant,
		AtoNonComplianceReasons: atoNonComplianceReasons(est, rules),

		RateConfigurationID: rates.ID,
		CreatedAt:           s.now().UTC(),
	}
}

// =============================================================================
// READ PATHS
// =============================================================================

func (s *Service) GetCalculation(ctx context.Context, id string) (*Calculation, error) {
	c, err := s.store.GetCalculation(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("calculation %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *Service) ListCalculations(ctx context.Context, f CalculationFilter) ([]Calculation, error) {
	return s.store.ListCalculations(ctx, f)
}

func (s *Service) DailySummaries(ctx context.Context, f SequenceFilter) ([]DailySequence, error) {
	return s.store.ListDailySequences(ctx, f)
}

// StaffStatement totals a staff member's daily sequences in [from, to].
func (s *Service) StaffStatement(ctx context.Context, staffID string, from, to Date) (StaffStatement, error) {
	staff, err := s.store.GetStaff(ctx, staffID)
	if err != nil {
		return StaffStatement{}, err
	}
	if staff == nil {
		return StaffStatement{}, fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	days, err := s.store.ListDailySequences(ctx, SequenceFilter{StaffID: staffID, From: from, To: to})
	if err != nil {
		return StaffStatement{}, err
	}
	return Statement(staffID, from, to, days), nil
}

// StaffStatements builds a statement for every staff member, skipping those
// with no travel in the range.
func (s *Service) StaffStatements(ctx context.Context, from, to Date) ([]StaffStatement, error) {
	days, err := s.store.ListDailySequences(ctx, SequenceFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	byStaff := make(map[string][]DailySequence)
	var order []string
	for _, d := range days {
		if _, ok := byStaff[d.StaffID]; !ok {
			order = append(order, d.StaffID)
		}
		byStaff[d.StaffID] = append(byStaff[d.StaffID], d)
	}
	sort.Strings(order)

	statements := make([]StaffStatement, 0, len(order))
	for _, id := range order {
		statements = append(statements, Statement(id, from, to, byStaff[id]))
	}
	return statements, nil
}
