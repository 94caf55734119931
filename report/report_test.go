package report

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/travel-engine/travel"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func readSheet(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

func number(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err, s)
	return v
}

func TestWriteDailySummaries(t *testing.T) {
	seqs := []travel.DailySequence{
		{
			StaffID: "staff-1", Date: travel.NewDate(2025, 3, 11),
			TotalShifts: 2, ShiftsWithTravel: 1,
			TotalTravelKm: dec("20"), TotalBillable: dec("19.80"), TotalPayable: dec("19.00"),
			FirstShiftID: "s1", LastShiftID: "s2",
		},
		{
			StaffID: "staff-2", Date: travel.NewDate(2025, 3, 10),
			TotalShifts: 3, ShiftsWithTravel: 2,
			TotalTravelKm: dec("12.35"), TotalBillable: dec("12.23"), TotalPayable: dec("11.73"),
			FirstShiftID: "s3", LastShiftID: "s5",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDailySummaries(&buf, seqs))

	rows := readSheet(t, &buf, SheetDaily)
	require.Len(t, rows, 4)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Last Shift", rows[0][8])

	assert.Equal(t, []string{"2025-03-11", "staff-1", "2", "1"}, rows[1][:4])
	assert.InDelta(t, 19.80, number(t, rows[1][5]), 1e-9)
	assert.Equal(t, "s2", rows[1][8])

	total := rows[3]
	assert.Equal(t, "Total", total[0])
	assert.Equal(t, "5", total[2])
	assert.Equal(t, "3", total[3])
	assert.InDelta(t, 32.35, number(t, total[4]), 1e-9)
	assert.InDelta(t, 32.03, number(t, total[5]), 1e-9)
	assert.InDelta(t, 30.73, number(t, total[6]), 1e-9)
}

func TestWriteDailySummaries_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDailySummaries(&buf, nil))

	rows := readSheet(t, &buf, SheetDaily)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
	assert.Equal(t, "0", rows[1][2])
}

func TestWriteStaffStatements(t *testing.T) {
	from, to := travel.NewDate(2025, 3, 1), travel.NewDate(2025, 3, 31)
	stmts := []travel.StaffStatement{
		{StaffID: "staff-1", From: from, To: to, Days: 4, TotalShifts: 9,
			TotalTravelKm: dec("80.5"), TotalBillable: dec("79.70"), TotalPayable: dec("76.48")},
		{StaffID: "staff-2", From: from, To: to, Days: 1, TotalShifts: 2,
			TotalTravelKm: dec("150"), TotalBillable: dec("117.00"), TotalPayable: dec("142.50")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStaffStatements(&buf, stmts))

	rows := readSheet(t, &buf, SheetStatements)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"staff-1", "2025-03-01", "2025-03-31", "4", "9"}, rows[1][:5])
	assert.InDelta(t, 142.50, number(t, rows[2][7]), 1e-9)

	total := rows[3]
	assert.Equal(t, "5", total[3])
	assert.Equal(t, "11", total[4])
	assert.InDelta(t, 196.70, number(t, total[6]), 1e-9)
	assert.InDelta(t, 218.98, number(t, total[7]), 1e-9)
}

func TestWriteCalculations(t *testing.T) {
	calcs := []travel.Calculation{{
		ID: "calc-1", ShiftID: "s2", StaffID: "staff-1", ParticipantID: "p1",
		OriginAddress: "A", DestinationAddress: "B", TravelDate: travel.NewDate(2025, 3, 11),
		DistanceKm: dec("20"), TravelMinutes: 25, SequenceNumber: 2,
		ApplicableBand: travel.BandMMM1, MaxTravelMinutes: 30, BillableTimeMinutes: 25,
		BandRate: dec("0.99"), BillableAmount: dec("19.80"), IsBillable: true,
		VehicleAllowanceRate: dec("0.95"), PayableAmount: dec("19.00"), IsPayable: true,
		VerificationStatus: travel.VerificationVerified, VerificationFlags: []string{"a", "b"},
		IsAtoCompliant: true, CreatedAt: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCalculations(&buf, calcs))

	rows := readSheet(t, &buf, SheetCalculations)
	require.Len(t, rows, 2)
	r := rows[1]
	assert.Equal(t, "calc-1", r[0])
	assert.Equal(t, "2025-03-11", r[1])
	assert.Equal(t, "MMM1", r[11])
	assert.InDelta(t, 19.80, number(t, r[15]), 1e-9)
	assert.Equal(t, "a; b", r[21])
	assert.Equal(t, "2025-03-11 09:00:00", r[25])
}

func TestFileNames(t *testing.T) {
	d := travel.NewDate(2025, 3, 10)
	assert.Equal(t, "travel-daily-2025-03-10.xlsx", DailyFileName(d, d))
	assert.Equal(t, "travel-daily-2025-03-01_2025-03-31.xlsx", DailyFileName(travel.NewDate(2025, 3, 1), travel.NewDate(2025, 3, 31)))
	assert.Equal(t, "travel-statements-2025-03-01_2025-03-31.xlsx", StatementsFileName(travel.NewDate(2025, 3, 1), travel.NewDate(2025, 3, 31)))
}
