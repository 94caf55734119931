package travel

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAILY AGGREGATION
// =============================================================================

// Contribution is the delta one calculation adds to its day's aggregate.
// Stores apply it atomically in AddToDailySequence.
func Contribution(c Calculation) DailySequence {
	withTravel := 0
	if c.DistanceKm.IsPositive() {
		withTravel = 1
	}
	return DailySequence{
		StaffID:          c.StaffID,
		Date:             c.TravelDate,
		TotalShifts:      1,
		ShiftsWithTravel: withTravel,
		TotalTravelKm:    c.DistanceKm,
		TotalBillable:    c.BillableAmount,
		TotalPayable:     c.PayableAmount,
		FirstShiftID:     c.ShiftID,
		LastShiftID:      c.ShiftID,

		LastSequenceNumber: c.SequenceNumber,
	}
}

// Add merges a contribution into an existing aggregate the same way the SQL
// upsert does: counters and sums add, FirstShiftID is kept, LastShiftID
// follows the highest sequence number seen (ties go to the newer delta).
func (d DailySequence) Add(delta DailySequence) DailySequence {
	d.TotalShifts += delta.TotalShifts
	d.ShiftsWithTravel += delta.ShiftsWithTravel
	d.TotalTravelKm = d.TotalTravelKm.Add(delta.TotalTravelKm)
	d.TotalBillable = d.TotalBillable.Add(delta.TotalBillable)
	d.TotalPayable = d.TotalPayable.Add(delta.TotalPayable)
	if d.FirstShiftID == "" {
		d.FirstShiftID = delta.FirstShiftID
	}
	if delta.LastSequenceNumber >= d.LastSequenceNumber {
		d.LastShiftID = delta.LastShiftID
		d.LastSequenceNumber = delta.LastSequenceNumber
	}
	return d
}

// LatestPerShift keeps the most recent calculation of every shift.
// Output is ordered by travel date, then sequence number.
func LatestPerShift(calcs []Calculation) []Calculation {
	latest := make(map[string]Calculation, len(calcs))
	for _, c := range calcs {
		cur, ok := latest[c.ShiftID]
		if !ok || newer(c, cur) {
			latest[c.ShiftID] = c
		}
	}

	out := make([]Calculation, 0, len(latest))
	for _, c := range latest {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TravelDate.Equal(out[j].TravelDate) {
			return out[i].TravelDate.Before(out[j].TravelDate)
		}
		if out[i].SequenceNumber != out[j].SequenceNumber {
			return out[i].SequenceNumber < out[j].SequenceNumber
		}
		return out[i].ShiftID < out[j].ShiftID
	})
	return out
}

func newer(a, b Calculation) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Aggregate recomputes a day's totals from scratch. calcs must already be
// reduced to one record per shift (LatestPerShift).
func Aggregate(staffID string, date Date, calcs []Calculation) DailySequence {
	seq := DailySequence{
		StaffID:       staffID,
		Date:          date,
		TotalTravelKm: decimal.Zero,
		TotalBillable: decimal.Zero,
		TotalPayable:  decimal.Zero,
	}
	for _, c := range calcs {
		seq = seq.Add(Contribution(c))
	}
	return seq
}

// Statement sums daily sequences for one staff member.
func Statement(staffID string, from, to Date, days []DailySequence) StaffStatement {
	st := StaffStatement{
		StaffID:       staffID,
		From:          from,
		To:            to,
		TotalTravelKm: decimal.Zero,
		TotalBillable: decimal.Zero,
		TotalPayable:  decimal.Zero,
	}
	for _, d := range days {
		if d.StaffID != staffID {
			continue
		}
		st.Days++
		st.TotalShifts += d.TotalShifts
		st.TotalTravelKm = st.TotalTravelKm.Add(d.TotalTravelKm)
		st.TotalBillable = st.TotalBillable.Add(d.TotalBillable)
		st.TotalPayable = st.TotalPayable.Add(d.TotalPayable)
	}
	return st
}
