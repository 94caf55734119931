package travel

import (
	"sort"
)

// =============================================================================
// SHIFT SEQUENCING - Position of a shift within its staff member's day
// =============================================================================

// Sequence orders the day's shifts by start time (ties broken by ID so the
// ordering is deterministic) and returns the 1-based position of shiftID.
//
// A shift that is not in the list yields ErrShiftNotInDay. Callers must not
// treat that case as "first shift".
func Sequence(dayShifts []Shift, shiftID string) (SequenceResult, error) {
	ordered := make([]Shift, len(dayShifts))
	copy(ordered, dayShifts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	for i, s := range ordered {
		if s.ID == shiftID {
			return SequenceResult{
				SequenceNumber: i + 1,
				IsFirstShift:   i == 0,
				TotalShifts:    len(ordered),
			}, nil
		}
	}
	return SequenceResult{TotalShifts: len(ordered)}, ErrShiftNotInDay
}
