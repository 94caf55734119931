/*
Package sqldb provides a database/sql implementation of travel.TxStore.

PURPOSE:
  One Store type for both SQLite (mattn/go-sqlite3) and PostgreSQL (lib/pq).
  Queries are written once with "?" placeholders and rebound to "$n" for
  PostgreSQL.

INTERFACES IMPLEMENTED:
  travel.TxStore:  Rates, staff/shifts, calculations, daily sequences
  travel.JobStore: Scheduler state

INSERT-ONLY CALCULATIONS:
  travel_calculations is never updated or deleted. Recalculations insert
  new rows; readers take the latest row per shift.

ATOMIC AGGREGATION:
  daily_shift_sequences is updated with a single
  INSERT ... ON CONFLICT (staff_id, shift_date) DO UPDATE SET x = x + excluded.x.
  Money is stored as integer cents and distance as integer hundredths of a
  km, so the increment is exact integer arithmetic in the database.

KEY TABLES:
  staff, participants, shifts
  rate_configurations:   Time-versioned, never edited
  travel_calculations:   Insert-only calculation records
  daily_shift_sequences: One row per (staff, date)
  scheduled_jobs:        Persisted scheduler state

TIMESTAMPS:
  Stored as fixed-width UTC text (timeLayout) so that string comparison in
  SQL matches time order on both dialects.

CONCURRENCY:
  SQLite is opened with WAL and a single connection; database/sql queues
  callers behind an open transaction. PostgreSQL uses a normal pool and
  relies on row locks taken by the upsert.

USAGE:
  st, err := sqldb.Open(ctx, sqldb.DialectSQLite, "./data/travel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on Open(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - travel/store.go: Interface definitions
  - travel/store/memory.go: In-memory implementation for testing
*/
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/travel-engine/travel"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces on database/sql.
type Store struct {
	*queries
	db *sql.DB
}

// Open connects and migrates. For SQLite, dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectSQLite:
		db, err = sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
		if err == nil {
			// ":memory:" is per connection.
			db.SetMaxOpenConns(1)
		}
	case DialectPostgres:
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			db.SetMaxOpenConns(20)
			db.SetMaxIdleConns(10)
			db.SetConnMaxLifetime(5 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	s := &Store{db: db, queries: &queries{q: db, dialect: dialect}}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() Dialect { return s.dialect }

// Migrate creates the schema if needed. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schema = `
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		staff_id TEXT,
		participant_id TEXT,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TEXT NOT NULL
	);

	-- Hot path: a staff member's shifts on one day
	CREATE INDEX IF NOT EXISTS idx_shifts_staff_start
		ON shifts(staff_id, start_time);

	CREATE TABLE IF NOT EXISTS rate_configurations (
		id TEXT PRIMARY KEY,
		mmm1_rate TEXT NOT NULL,
		mmm2_rate TEXT NOT NULL,
		mmm3_rate TEXT NOT NULL,
		mmm4_rate TEXT NOT NULL,
		mmm5_rate TEXT NOT NULL,
		near_cap_minutes INTEGER NOT NULL,
		far_cap_minutes INTEGER NOT NULL,
		vehicle_allowance_rate TEXT NOT NULL,
		tax_business_km_rate TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		is_active BOOLEAN NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rates_active_effective
		ON rate_configurations(is_active, effective_from DESC);

	-- Insert-only
	CREATE TABLE IF NOT EXISTS travel_calculations (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL,
		staff_id TEXT NOT NULL,
		participant_id TEXT NOT NULL DEFAULT '',
		origin_address TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		travel_date TEXT NOT NULL,
		distance_km_hundredths BIGINT NOT NULL,
		travel_minutes INTEGER NOT NULL,
		sequence_number INTEGER NOT NULL,
		is_first_shift BOOLEAN NOT NULL,
		origin_band INTEGER NOT NULL,
		destination_band INTEGER NOT NULL,
		applicable_band INTEGER NOT NULL,
		max_travel_minutes INTEGER NOT NULL,
		billable_time_minutes INTEGER NOT NULL,
		band_rate TEXT NOT NULL,
		billable_cents BIGINT NOT NULL,
		is_billable BOOLEAN NOT NULL,
		non_billable_reason TEXT NOT NULL DEFAULT '',
		vehicle_allowance_rate TEXT NOT NULL,
		payable_cents BIGINT NOT NULL,
		is_payable BOOLEAN NOT NULL,
		non_payable_reason TEXT NOT NULL DEFAULT '',
		verification_status TEXT NOT NULL,
		verification_flags_json TEXT NOT NULL DEFAULT '[]',
		requires_manual_review BOOLEAN NOT NULL,
		is_ato_compliant BOOLEAN NOT NULL,
		ato_reasons_json TEXT NOT NULL DEFAULT '[]',
		rate_configuration_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_shift
		ON travel_calculations(shift_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calculations_staff_date
		ON travel_calculations(staff_id, travel_date);
	CREATE INDEX IF NOT EXISTS idx_calculations_date
		ON travel_calculations(travel_date);

	CREATE TABLE IF NOT EXISTS daily_shift_sequences (
		staff_id TEXT NOT NULL,
		shift_date TEXT NOT NULL,
		total_shifts INTEGER NOT NULL DEFAULT 0,
		shifts_with_travel INTEGER NOT NULL DEFAULT 0,
		total_travel_km_hundredths BIGINT NOT NULL DEFAULT 0,
		total_billable_cents BIGINT NOT NULL DEFAULT 0,
		total_payable_cents BIGINT NOT NULL DEFAULT 0,
		first_shift_id TEXT NOT NULL DEFAULT '',
		last_shift_id TEXT NOT NULL DEFAULT '',
		last_sequence_number INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (staff_id, shift_date)
	);

	CREATE INDEX IF NOT EXISTS idx_sequences_date
		ON daily_shift_sequences(shift_date);

	CREATE TABLE IF NOT EXISTS scheduled_jobs (
		name TEXT PRIMARY KEY,
		schedule TEXT NOT NULL,
		enabled BOOLEAN NOT NULL,
		last_run_at TEXT,
		next_due_at TEXT NOT NULL,
		last_status TEXT NOT NULL DEFAULT '',
		last_error TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);
`

// =============================================================================
// TRANSACTIONAL STORE (travel.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. fn must use the Store it
// is given; on SQLite the outer Store would wait for the transaction's
// connection.
func (s *Store) WithTx(ctx context.Context, fn func(travel.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx, dialect: s.dialect}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Reset clears all data (for testing/demo). Scheduler state is kept.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"daily_shift_sequences", "travel_calculations", "rate_configurations",
		"shifts", "participants", "staff",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// QUERIES - shared by Store and transactions
// =============================================================================

type queries struct {
	q       querier
	dialect Dialect
}

// rebind rewrites "?" placeholders to "$1..$n" for PostgreSQL.
func (x *queries) rebind(query string) string {
	if x.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (x *queries) exec(ctx context.Context, query string, args ...any) error {
	_, err := x.q.ExecContext(ctx, x.rebind(query), args...)
	return err
}

func (x *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return x.q.QueryContext(ctx, x.rebind(query), args...)
}

func (x *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return x.q.QueryRowContext(ctx, x.rebind(query), args...)
}

var (
	_ travel.TxStore  = (*Store)(nil)
	_ travel.JobStore = (*Store)(nil)
	_ travel.Store    = (*queries)(nil)
)
