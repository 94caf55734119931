/*
store.go - Persistence interfaces for the travel engine

PURPOSE:
  Defines the interface between the calculation pipeline and the database.
  Implementations:
  - store/sqldb: SQLite and PostgreSQL via database/sql
  - travel/store: In-memory, for tests and local experiments

INSERT-ONLY CALCULATIONS:
  CalculationStore has no Update or Delete. A recalculation inserts a new
  record; readers that need "current" values take the latest record per
  shift (see LatestPerShift).

ATOMIC AGGREGATION:
  AddToDailySequence must be a single atomic increment performed by the
  store (conditional upsert with deltas). It is never read-modify-write in
  application code.

  ReplaceDailySequence is the correction path. It overwrites the row with
  values recomputed from calculations.

TRANSACTIONS:
  TxStore.WithTx runs fn atomically. The calculation insert and the
  aggregate increment happen inside one WithTx call.
*/
package travel

import (
	"context"
	"time"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// RateStore persists rate configurations. Configurations are never edited.
type RateStore interface {
	SaveRateConfiguration(ctx context.Context, rc RateConfiguration) error

	// ActiveRateConfiguration returns the most recent active configuration
	// effective at asOf, or nil if there is none.
	ActiveRateConfiguration(ctx context.Context, asOf time.Time) (*RateConfiguration, error)

	ListRateConfigurations(ctx context.Context) ([]RateConfiguration, error)
}

// ShiftStore persists staff, participants and shifts.
// Getters return (nil, nil) when the record doesn't exist.
type ShiftStore interface {
	SaveStaff(ctx context.Context, s Staff) error
	GetStaff(ctx context.Context, id string) (*Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)

	SaveParticipant(ctx context.Context, p Participant) error
	ListParticipants(ctx context.Context) ([]Participant, error)

	SaveShift(ctx context.Context, s Shift) error
	GetShift(ctx context.Context, id string) (*Shift, error)

	// ShiftsForStaffBetween returns the staff member's shifts whose start
	// time is in [from, to), ordered by start time ascending.
	ShiftsForStaffBetween(ctx context.Context, staffID string, from, to time.Time) ([]Shift, error)
}

// CalculationFilter narrows ListCalculations. Zero values mean "any".
type CalculationFilter struct {
	StaffID string
	ShiftID string
	From    Date
	To      Date // inclusive
	Limit   int
}

// CalculationStore persists calculation records (insert-only).
type CalculationStore interface {
	InsertCalculation(ctx context.Context, c Calculation) error
	GetCalculation(ctx context.Context, id string) (*Calculation, error)

	// ListCalculations returns matching records, newest first.
	ListCalculations(ctx context.Context, f CalculationFilter) ([]Calculation, error)
}

// SequenceFilter narrows ListDailySequences. Zero values mean "any".
type SequenceFilter struct {
	StaffID string
	From    Date
	To      Date // inclusive
}

// SequenceStore persists DailySequence aggregates.
type SequenceStore interface {
	// AddToDailySequence atomically adds one calculation's contribution to
	// the (staff, travel date) row, creating it if needed.
	AddToDailySequence(ctx context.Context, c Calculation) error

	// ReplaceDailySequence overwrites the row for (seq.StaffID, seq.Date).
	// A sequence with zero shifts deletes the row.
	ReplaceDailySequence(ctx context.Context, seq DailySequence) error

	GetDailySequence(ctx context.Context, staffID string, date Date) (*DailySequence, error)

	// ListDailySequences returns matching rows ordered by date descending,
	// then staff.
	ListDailySequences(ctx context.Context, f SequenceFilter) ([]DailySequence, error)
}

// Store is the full persistence surface used by Service.
type Store interface {
	RateStore
	ShiftStore
	CalculationStore
	SequenceStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
