// Package store provides an in-memory travel.Store.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	rates        map[string]travel.RateConfiguration
	staff        map[string]travel.Staff
	participants map[string]travel.Participant
	shifts       map[string]travel.Shift
	calculations []travel.Calculation // insertion order
	sequences    map[dayKey]travel.DailySequence
	jobs         map[string]travel.JobState
}

type dayKey struct {
	StaffID string
	Date    string
}

func NewMemory() *Memory {
	return &Memory{state: newState()}
}

func newState() *state {
	return &state{
		rates:        make(map[string]travel.RateConfiguration),
		staff:        make(map[string]travel.Staff),
		participants: make(map[string]travel.Participant),
		shifts:       make(map[string]travel.Shift),
		sequences:    make(map[dayKey]travel.DailySequence),
		jobs:         make(map[string]travel.JobState),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.rates {
		c.rates[k] = v
	}
	for k, v := range s.staff {
		c.staff[k] = v
	}
	for k, v := range s.participants {
		c.participants[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	c.calculations = append([]travel.Calculation(nil), s.calculations...)
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	return c
}

// WithTx runs fn against a private copy of the data and swaps it in if fn
// succeeds. Other callers block until the transaction finishes.
func (m *Memory) WithTx(_ context.Context, fn func(travel.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &Memory{state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

// Reset clears all data except job state.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := m.state.jobs
	m.state = newState()
	m.state.jobs = jobs
	return nil
}

// =============================================================================
// RATES
// =============================================================================

func (m *Memory) SaveRateConfiguration(_ context.Context, rc travel.RateConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.rates[rc.ID] = rc
	return nil
}

func (m *Memory) ActiveRateConfiguration(_ context.Context, asOf time.Time) (*travel.RateConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configs := make([]travel.RateConfiguration, 0, len(m.state.rates))
	for _, rc := range m.state.rates {
		configs = append(configs, rc)
	}
	return travel.SelectActive(configs, asOf), nil
}

func (m *Memory) ListRateConfigurations(_ context.Context) ([]travel.RateConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]travel.RateConfiguration, 0, len(m.state.rates))
	for _, rc := range m.state.rates {
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// STAFF, PARTICIPANTS, SHIFTS
// =============================================================================

func (m *Memory) SaveStaff(_ context.Context, s travel.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.staff[s.ID] = s
	return nil
}

func (m *Memory) GetStaff(_ context.Context, id string) (*travel.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.state.staff[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) ListStaff(_ context.Context) ([]travel.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]travel.Staff, 0, len(m.state.staff))
	for _, s := range m.state.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveParticipant(_ context.Context, p travel.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.participants[p.ID] = p
	return nil
}

func (m *Memory) ListParticipants(_ context.Context) ([]travel.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]travel.Participant, 0, len(m.state.participants))
	for _, p := range m.state.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveShift(_ context.Context, s travel.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.shifts[s.ID] = s
	return nil
}

func (m *Memory) GetShift(_ context.Context, id string) (*travel.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.state.shifts[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) ShiftsForStaffBetween(_ context.Context, staffID string, from, to time.Time) ([]travel.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []travel.Shift
	for _, s := range m.state.shifts {
		if s.StaffID != staffID {
			continue
		}
		if s.StartTime.Before(from) || !s.StartTime.Before(to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// CALCULATIONS - insert-only
// =============================================================================

func (m *Memory) InsertCalculation(_ context.Context, c travel.Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.calculations = append(m.state.calculations, c)
	return nil
}

func (m *Memory) GetCalculation(_ context.Context, id string) (*travel.Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.state.calculations {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListCalculations(_ context.Context, f travel.CalculationFilter) ([]travel.Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []travel.Calculation
	// Walk backwards so ties on CreatedAt stay newest-inserted first.
	for i := len(m.state.calculations) - 1; i >= 0; i-- {
		c := m.state.calculations[i]
		if f.StaffID != "" && c.StaffID != f.StaffID {
			continue
		}
		if f.ShiftID != "" && c.ShiftID != f.ShiftID {
			continue
		}
		if !f.From.IsZero() && c.TravelDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && c.TravelDate.After(f.To) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// =============================================================================
// DAILY SEQUENCES
// =============================================================================

func keyOf(staffID string, d travel.Date) dayKey {
	return dayKey{StaffID: staffID, Date: d.String()}
}

// AddToDailySequence applies the contribution under the write lock, which is
// the in-memory equivalent of the SQL conditional upsert.
func (m *Memory) AddToDailySequence(_ context.Context, c travel.Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(c.StaffID, c.TravelDate)
	cur, ok := m.state.sequences[k]
	if !ok {
		cur = travel.Aggregate(c.StaffID, c.TravelDate, nil)
	}
	next := cur.Add(travel.Contribution(c))
	next.UpdatedAt = c.CreatedAt
	m.state.sequences[k] = next
	return nil
}

func (m *Memory) ReplaceDailySequence(_ context.Context, seq travel.DailySequence) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(seq.StaffID, seq.Date)
	if seq.TotalShifts == 0 {
		delete(m.state.sequences, k)
		return nil
	}
	m.state.sequences[k] = seq
	return nil
}

func (m *Memory) GetDailySequence(_ context.Context, staffID string, date travel.Date) (*travel.DailySequence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seq, ok := m.state.sequences[keyOf(staffID, date)]
	if !ok {
		return nil, nil
	}
	return &seq, nil
}

func (m *Memory) ListDailySequences(_ context.Context, f travel.SequenceFilter) ([]travel.DailySequence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []travel.DailySequence
	for _, seq := range m.state.sequences {
		if f.StaffID != "" && seq.StaffID != f.StaffID {
			continue
		}
		if !f.From.IsZero() && seq.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && seq.Date.After(f.To) {
			continue
		}
		out = append(out, seq)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out, nil
}

// =============================================================================
// SCHEDULED JOBS
// =============================================================================

func (m *Memory) SaveJob(_ context.Context, j travel.JobState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.jobs[j.Name] = j
	return nil
}

func (m *Memory) GetJob(_ context.Context, name string) (*travel.JobState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.state.jobs[name]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (m *Memory) ListJobs(_ context.Context) ([]travel.JobState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]travel.JobState, 0, len(m.state.jobs))
	for _, j := range m.state.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var (
	_ travel.TxStore  = (*Memory)(nil)
	_ travel.JobStore = (*Memory)(nil)
)
