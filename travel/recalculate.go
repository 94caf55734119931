package travel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// REBUILD AND BULK RECALCULATION
// =============================================================================

// RebuildDay recomputes the (staff, date) aggregate from the latest
// calculation of each shift and overwrites the stored row. This is the only
// correction path; the incremental upsert is never unwound.
func (s *Service) RebuildDay(ctx context.Context, staffID string, date Date) (DailySequence, error) {
	var seq DailySequence
	err := s.store.WithTx(ctx, func(tx Store) error {
		// All staff: a shift reassigned to someone else must not keep
		// counting for its previous staff member.
		calcs, err := tx.ListCalculations(ctx, CalculationFilter{From: date, To: date})
		if err != nil {
			return fmt.Errorf("failed to load calculations: %w", err)
		}
		var mine []Calculation
		for _, c := range LatestPerShift(calcs) {
			if c.StaffID == staffID {
				mine = append(mine, c)
			}
		}
		seq = Aggregate(staffID, date, mine)
		seq.UpdatedAt = s.now().UTC()
		return tx.ReplaceDailySequence(ctx, seq)
	})
	if err != nil {
		return DailySequence{}, fmt.Errorf("failed to rebuild %s on %s: %w", staffID, date, err)
	}
	s.logger.Info("daily sequence rebuilt",
		zap.String("staff_id", staffID),
		zap.String("date", date.String()),
		zap.Int("shifts", seq.TotalShifts))
	return seq, nil
}

// RebuildDate rebuilds every staff member with calculations on date.
func (s *Service) RebuildDate(ctx context.Context, date Date) (int, error) {
	calcs, err := s.store.ListCalculations(ctx, CalculationFilter{From: date, To: date})
	if err != nil {
		return 0, err
	}
	staff := map[string]bool{}
	for _, c := range calcs {
		staff[c.StaffID] = true
	}
	ids := make([]string, 0, len(staff))
	for id := range staff {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := s.RebuildDay(ctx, id, date); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// RecalcSummary reports the outcome of Recalculate.
type RecalcSummary struct {
	From         Date
	To           Date
	Recalculated int
	Failed       int
	DaysRebuilt  int
	Errors       []string
}

type staffDay struct {
	staffID string
	date    Date
}

// Recalculate re-runs the latest calculation of every shift with travel in
// [from, to] against current rates, sequencing and routing, then rebuilds
// each affected day. Individual failures are reported, not fatal.
func (s *Service) Recalculate(ctx context.Context, from, to Date) (RecalcSummary, error) {
	summary := RecalcSummary{From: from, To: to}
	if to.Before(from) {
		return summary, &ValidationError{Field: "to", Message: "must not be before from"}
	}

	existing, err := s.store.ListCalculations(ctx, CalculationFilter{From: from, To: to})
	if err != nil {
		return summary, fmt.Errorf("failed to load calculations: %w", err)
	}
	latest := LatestPerShift(existing)

	var (
		mu       sync.Mutex
		affected = map[staffDay]bool{}
	)
	for _, c := range latest {
		affected[staffDay{c.StaffID, c.TravelDate}] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recalcParallelism)
	for _, prev := range latest {
		prev := prev
		g.Go(func() error {
			calc, err := s.calculate(gctx, CalculationRequest{
				ShiftID:            prev.ShiftID,
				OriginAddress:      prev.OriginAddress,
				DestinationAddress: prev.DestinationAddress,
				TravelDate:         prev.TravelDate,
			}, false)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("shift %s: %v", prev.ShiftID, err))
				return nil
			}
			summary.Recalculated++
			affected[staffDay{calc.StaffID, calc.TravelDate}] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	days := make([]staffDay, 0, len(affected))
	for d := range affected {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if !days[i].date.Equal(days[j].date) {
			return days[i].date.Before(days[j].date)
		}
		return days[i].staffID < days[j].staffID
	})
	for _, d := range days {
		if _, err := s.RebuildDay(ctx, d.staffID, d.date); err != nil {
			return summary, err
		}
		summary.DaysRebuilt++
	}
	sort.Strings(summary.Errors)

	s.logger.Info("bulk recalculation finished",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("recalculated", summary.Recalculated),
		zap.Int("failed", summary.Failed),
		zap.Int("days_rebuilt", summary.DaysRebuilt))
	return summary, nil
}
