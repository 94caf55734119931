/*
Package report renders travel data as Excel workbooks.

PURPOSE:
  Finance and payroll work from spreadsheets. Each writer produces a single
  sheet workbook with a bold header row, one row per record and a totals
  row where amounts add up.

  Money is written as numbers (two decimal places format) so the sheet
  can be summed; dates are written as YYYY-MM-DD text.

SEE ALSO:
  - api/handlers.go: daily export endpoint
  - api/scheduler.go: scheduled export jobs
  - cmd/server/main.go: export command
*/
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/travel-engine/travel"
)

const (
	SheetDaily        = "Daily Travel"
	SheetStatements   = "Staff Statements"
	SheetCalculations = "Calculations"

	// ContentType is the MIME type of every workbook written here.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// numFmt2dp is the built-in "0.00" number format.
const numFmt2dp = 2

// table is one sheet's worth of cells. moneyCols are 1-based.
type table struct {
	name      string
	headers   []string
	rows      [][]any
	totals    []any
	moneyCols []int
}

// =============================================================================
// WRITERS
// =============================================================================

// WriteDailySummaries writes one row per (staff, date) aggregate.
func WriteDailySummaries(w io.Writer, seqs []travel.DailySequence) error {
	t := table{
		name:      SheetDaily,
		headers:   []string{"Date", "Staff ID", "Total Shifts", "Shifts With Travel", "Travel KM", "Billable", "Payable", "First Shift", "Last Shift"},
		moneyCols: []int{5, 6, 7},
	}

	var total travel.DailySequence
	for _, s := range seqs {
		t.rows = append(t.rows, []any{
			s.Date.String(), s.StaffID, s.TotalShifts, s.ShiftsWithTravel,
			money(s.TotalTravelKm), money(s.TotalBillable), money(s.TotalPayable),
			s.FirstShiftID, s.LastShiftID,
		})
		total = total.Add(s)
	}
	t.totals = []any{"Total", "", total.TotalShifts, total.ShiftsWithTravel,
		money(total.TotalTravelKm), money(total.TotalBillable), money(total.TotalPayable)}

	return write(w, t)
}

// WriteStaffStatements writes one row per staff member.
func WriteStaffStatements(w io.Writer, stmts []travel.StaffStatement) error {
	t := table{
		name:      SheetStatements,
		headers:   []string{"Staff ID", "From", "To", "Days", "Total Shifts", "Travel KM", "Billable", "Payable"},
		moneyCols: []int{6, 7, 8},
	}

	var (
		days, shifts          int
		km, billable, payable decimal.Decimal
	)
	for _, s := range stmts {
		t.rows = append(t.rows, []any{
			s.StaffID, s.From.String(), s.To.String(), s.Days, s.TotalShifts,
			money(s.TotalTravelKm), money(s.TotalBillable), money(s.TotalPayable),
		})
		days += s.Days
		shifts += s.TotalShifts
		km = km.Add(s.TotalTravelKm)
		billable = billable.Add(s.TotalBillable)
		payable = payable.Add(s.TotalPayable)
	}
	t.totals = []any{"Total", "", "", days, shifts, money(km), money(billable), money(payable)}

	return write(w, t)
}

// WriteCalculations writes the full record for each calculation.
func WriteCalculations(w io.Writer, calcs []travel.Calculation) error {
	t := table{
		name: SheetCalculations,
		headers: []string{
			"ID", "Travel Date", "Staff ID", "Shift ID", "Participant ID",
			"Origin", "Destination", "Distance KM", "Minutes", "Sequence", "First Shift",
			"Band", "Max Minutes", "Billable Minutes", "Band Rate", "Billable", "Non-Billable Reason",
			"Vehicle Rate", "Payable", "Non-Payable Reason",
			"Verification", "Flags", "Manual Review", "ATO Compliant", "ATO Reasons", "Created At",
		},
		moneyCols: []int{8, 16, 19},
	}
	for _, c := range calcs {
		t.rows = append(t.rows, []any{
			c.ID, c.TravelDate.String(), c.StaffID, c.ShiftID, c.ParticipantID,
			c.OriginAddress, c.DestinationAddress, money(c.DistanceKm), c.TravelMinutes, c.SequenceNumber, c.IsFirstShift,
			c.ApplicableBand.String(), c.MaxTravelMinutes, c.BillableTimeMinutes, c.BandRate.String(), money(c.BillableAmount), c.NonBillableReason,
			c.VehicleAllowanceRate.String(), money(c.PayableAmount), c.NonPayableReason,
			string(c.VerificationStatus), strings.Join(c.VerificationFlags, "; "), c.RequiresManualReview,
			c.IsAtoCompliant, strings.Join(c.AtoNonComplianceReasons, "; "), c.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return write(w, t)
}

// =============================================================================
// FILE NAMES
// =============================================================================

func DailyFileName(from, to travel.Date) string {
	if from.Equal(to) {
		return fmt.Sprintf("travel-daily-%s.xlsx", from)
	}
	return fmt.Sprintf("travel-daily-%s_%s.xlsx", from, to)
}

func StatementsFileName(from, to travel.Date) string {
	return fmt.Sprintf("travel-statements-%s_%s.xlsx", from, to)
}

// =============================================================================
// EXCELIZE
// =============================================================================

func write(w io.Writer, t table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", t.name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	twoDP, err := f.NewStyle(&excelize.Style{NumFmt: numFmt2dp})
	if err != nil {
		return err
	}
	boldTwoDP, err := f.NewStyle(&excelize.Style{NumFmt: numFmt2dp, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, t.name, 1, toAny(t.headers)); err != nil {
		return err
	}
	if err := styleRow(f, t.name, 1, len(t.headers), bold); err != nil {
		return err
	}

	row := 2
	for _, r := range t.rows {
		if err := setRow(f, t.name, row, r); err != nil {
			return err
		}
		row++
	}
	last := row - 1

	if t.totals != nil {
		if err := setRow(f, t.name, row, t.totals); err != nil {
			return err
		}
		if err := styleRow(f, t.name, row, len(t.headers), bold); err != nil {
			return err
		}
	}

	for _, col := range t.moneyCols {
		if last >= 2 {
			if err := styleRange(f, t.name, col, 2, col, last, twoDP); err != nil {
				return err
			}
		}
		if t.totals != nil {
			if err := styleRange(f, t.name, col, row, col, row, boldTwoDP); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(t.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	return styleRange(f, sheet, 1, row, cols, row, style)
}

func styleRange(f *excelize.File, sheet string, c1, r1, c2, r2, style int) error {
	from, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// money converts to float64 for the cell. Values are already rounded to
// cents so the conversion is exact enough for display and summing.
func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
