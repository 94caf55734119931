/*
handlers_test.go - HTTP tests for the travel API

Tests for:
- Two-shift day end to end (shifts, calculations, daily aggregate)
- Error status mapping (400, 404, 422, 502)
- Rate configurations, statements, exports
- Job endpoints and scenarios
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/report"
	"github.com/warp/travel-engine/travel"
	"github.com/warp/travel-engine/travel/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// stubEstimator returns the same estimate for every leg unless failing.
type stubEstimator struct {
	mu    sync.Mutex
	est   travel.Estimate
	err   error
	calls int
}

func (s *stubEstimator) Estimate(_ context.Context, _, _ string) (travel.Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return travel.Estimate{}, s.err
	}
	return s.est, nil
}

type testAPI struct {
	t      *testing.T
	store  *store.Memory
	est    *stubEstimator
	svc    *travel.Service
	router http.Handler
	loc    *time.Location
}

func sydney(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return loc
}

func newTestAPI(t *testing.T, withScheduler bool) *testAPI {
	t.Helper()
	loc := sydney(t)
	now := time.Date(2025, time.March, 10, 20, 0, 0, 0, loc)

	mem := store.NewMemory()
	est := &stubEstimator{est: travel.Estimate{
		DistanceKm:      decimal.NewFromInt(20),
		TravelMinutes:   25,
		OriginBand:      travel.BandMMM1,
		DestinationBand: travel.BandMMM1,
		Band:            travel.BandMMM1,
	}}
	svc := travel.NewService(mem, est,
		travel.WithLocation(loc),
		travel.WithClock(func() time.Time { return now }))

	var sched *Scheduler
	if withScheduler {
		sched = NewScheduler(mem, loc, zap.NewNop(), WithSchedulerClock(func() time.Time { return now }))
		for _, job := range TravelJobs(svc, t.TempDir()) {
			require.NoError(t, sched.Register(context.Background(), job))
		}
	}

	h := NewHandler(svc, mem, sched, zap.NewNop())
	return &testAPI{
		t:      t,
		store:  mem,
		est:    est,
		svc:    svc,
		router: NewRouter(h, []string{"http://localhost:5173"}),
		loc:    loc,
	}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedTwoShiftDay creates staff-s with shifts at 08:00 and 13:00 on
// 2025-03-10 through the API.
func (a *testAPI) seedTwoShiftDay() {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/staff", CreateStaffRequest{ID: "staff-s", Name: "Sam"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, s := range []struct{ id, start, end string }{
		{"shift-0800", "2025-03-10T08:00:00+11:00", "2025-03-10T11:00:00+11:00"},
		{"shift-1300", "2025-03-10T13:00:00+11:00", "2025-03-10T15:00:00+11:00"},
	} {
		rec := a.do(http.MethodPost, "/api/shifts", CreateShiftRequest{
			ID: s.id, StaffID: "staff-s", StartTime: s.start, EndTime: s.end,
		})
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func (a *testAPI) calculate(shiftID string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/travel/calculations", CalculateRequest{
		ShiftID:            shiftID,
		OriginAddress:      "1 Home St, Parramatta NSW 2150",
		DestinationAddress: "88 Pitt St, Sydney NSW 2000",
		TravelDate:         "2025-03-10",
	})
}

// =============================================================================
// TWO-SHIFT DAY
// =============================================================================

func TestCalculateTravel_TwoShiftDay(t *testing.T) {
	// GIVEN: Two shifts for one staff member on the same day
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()

	// WHEN: Calculating the 08:00 shift
	rec := a.calculate("shift-0800")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[CalculationDTO](t, rec)

	// THEN: It is the first shift and nothing is billed or paid
	assert.Equal(t, 1, first.ShiftSequenceNumber)
	assert.True(t, first.IsFirstShiftOfDay)
	assert.Equal(t, "0.00", first.NdisTravelAmount)
	assert.Equal(t, "0.00", first.SchadsTravelPayment)
	assert.False(t, first.NdisIsBillable)
	assert.NotEmpty(t, first.NdisNonBillableReason)

	// WHEN: Calculating the 13:00 shift
	rec = a.calculate("shift-1300")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decode[CalculationDTO](t, rec)

	// THEN: 20 km at MMM1 bills 19.80 and pays 19.00
	assert.Equal(t, 2, second.ShiftSequenceNumber)
	assert.False(t, second.IsFirstShiftOfDay)
	assert.Equal(t, "20.00", second.DistanceKm)
	assert.Equal(t, "MMM1", second.ApplicableMmmRating)
	assert.Equal(t, "0.99", second.NdisRatePerKm)
	assert.Equal(t, "19.80", second.NdisTravelAmount)
	assert.Equal(t, "19.00", second.SchadsTravelPayment)
	assert.True(t, second.NdisIsBillable)
	assert.True(t, second.SchadsIsPayable)
	assert.Equal(t, "verified", second.AutoVerificationStatus)
	assert.Equal(t, []string{}, second.VerificationFlags)
	assert.True(t, second.AtoCompliant)
	assert.Equal(t, travel.DefaultRateConfigurationID, second.RateConfigurationID)

	// AND: The daily aggregate sums both calculations
	rec = a.do(http.MethodGet, "/api/travel/daily?staff_id=staff-s", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]DailySequenceDTO](t, rec)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-03-10", days[0].ShiftDate)
	assert.Equal(t, 2, days[0].TotalShifts)
	assert.Equal(t, "40.00", days[0].TotalTravelKm)
	assert.Equal(t, "19.80", days[0].TotalNdisBilled)
	assert.Equal(t, "19.00", days[0].TotalSchadsPaid)
	assert.Equal(t, "shift-0800", days[0].FirstShiftID)
	assert.Equal(t, "shift-1300", days[0].LastShiftID)

	// AND: The record can be read back
	rec = a.do(http.MethodGet, "/api/travel/calculations/"+second.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second, decode[CalculationDTO](t, rec))

	rec = a.do(http.MethodGet, "/api/travel/calculations?staff_id=staff-s&from=2025-03-10&to=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CalculationDTO](t, rec), 2)
}

func TestRebuildDailySequence(t *testing.T) {
	// GIVEN: The 13:00 shift calculated twice, inflating the aggregate
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()
	require.Equal(t, http.StatusCreated, a.calculate("shift-0800").Code)
	require.Equal(t, http.StatusCreated, a.calculate("shift-1300").Code)
	require.Equal(t, http.StatusCreated, a.calculate("shift-1300").Code)

	rec := a.do(http.MethodGet, "/api/travel/daily?staff_id=staff-s", nil)
	days := decode[[]DailySequenceDTO](t, rec)
	require.Len(t, days, 1)
	assert.Equal(t, "39.60", days[0].TotalNdisBilled)

	// WHEN: Rebuilding the day
	rec = a.do(http.MethodPost, "/api/travel/daily/rebuild", RebuildDayRequest{StaffID: "staff-s", Date: "2025-03-10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Only the latest calculation of each shift counts
	day := decode[DailySequenceDTO](t, rec)
	assert.Equal(t, 2, day.TotalShifts)
	assert.Equal(t, "40.00", day.TotalTravelKm)
	assert.Equal(t, "19.80", day.TotalNdisBilled)
}

func TestRecalculate(t *testing.T) {
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()
	require.Equal(t, http.StatusCreated, a.calculate("shift-0800").Code)
	require.Equal(t, http.StatusCreated, a.calculate("shift-1300").Code)

	rec := a.do(http.MethodPost, "/api/travel/recalculate", RecalculateRequest{From: "2025-03-01", To: "2025-03-31"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sum := decode[RecalcSummaryDTO](t, rec)
	assert.Equal(t, 2, sum.Recalculated)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, 1, sum.DaysRebuilt)
	assert.Empty(t, sum.Errors)

	rec = a.do(http.MethodPost, "/api/travel/recalculate", RecalculateRequest{From: "2025-03-31", To: "2025-03-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestCalculateTravel_Errors(t *testing.T) {
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()

	rec := a.do(http.MethodPost, "/api/shifts", CreateShiftRequest{
		ID: "shift-open", StartTime: "2025-03-10T09:00:00+11:00", EndTime: "2025-03-10T10:00:00+11:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("missing field", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/travel/calculations", CalculateRequest{
			ShiftID: "shift-1300", DestinationAddress: "x", TravelDate: "2025-03-10",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/travel/calculations", CalculateRequest{
			ShiftID: "shift-1300", OriginAddress: "a", DestinationAddress: "b", TravelDate: "10/03/2025",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/travel/calculations", map[string]string{"shift": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("shift not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, a.calculate("shift-missing").Code)
	})

	t.Run("no staff assigned", func(t *testing.T) {
		assert.Equal(t, http.StatusUnprocessableEntity, a.calculate("shift-open").Code)
	})

	t.Run("shift not in travel date", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/api/travel/calculations", CalculateRequest{
			ShiftID: "shift-1300", OriginAddress: "a", DestinationAddress: "b", TravelDate: "2025-03-11",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		a.est.err = &travel.ProviderError{Provider: "test", Err: errors.New("quota")}
		defer func() { a.est.err = nil }()

		rec := a.calculate("shift-1300")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Details, "quota")
	})

	t.Run("calculation not found", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/api/travel/calculations/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&travel.ValidationError{Field: "x", Message: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", travel.ErrInvalidRateConfiguration), http.StatusBadRequest},
		{fmt.Errorf("%w: s1", travel.ErrShiftNotFound), http.StatusNotFound},
		{fmt.Errorf("staff: %w", travel.ErrNotFound), http.StatusNotFound},
		{travel.ErrNoStaffAssigned, http.StatusUnprocessableEntity},
		{travel.ErrShiftNotInDay, http.StatusUnprocessableEntity},
		{&travel.ProviderError{Provider: "p", Err: errors.New("down")}, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

// =============================================================================
// PEOPLE, SHIFTS, RATES
// =============================================================================

func TestShifts(t *testing.T) {
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()

	rec := a.do(http.MethodGet, "/api/shifts?staff_id=staff-s", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shifts := decode[[]ShiftDTO](t, rec)
	require.Len(t, shifts, 2, "date defaults to today")
	assert.Equal(t, "shift-0800", shifts[0].ID)
	assert.Equal(t, "2025-03-09T21:00:00Z", shifts[0].StartTime)
	assert.Equal(t, "scheduled", shifts[0].Status)

	rec = a.do(http.MethodGet, "/api/shifts?staff_id=staff-s&date=2025-03-11", nil)
	assert.Empty(t, decode[[]ShiftDTO](t, rec))

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/shifts", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/shifts/shift-1300", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/shifts/nope", nil).Code)

	tests := []struct {
		name string
		req  CreateShiftRequest
		want int
	}{
		{"end before start", CreateShiftRequest{StaffID: "staff-s", StartTime: "2025-03-10T10:00:00Z", EndTime: "2025-03-10T09:00:00Z"}, http.StatusBadRequest},
		{"bad time", CreateShiftRequest{StaffID: "staff-s", StartTime: "10am", EndTime: "2025-03-10T09:00:00Z"}, http.StatusBadRequest},
		{"bad status", CreateShiftRequest{StaffID: "staff-s", StartTime: "2025-03-10T10:00:00Z", EndTime: "2025-03-10T11:00:00Z", Status: "done"}, http.StatusBadRequest},
		{"unknown staff", CreateShiftRequest{StaffID: "ghost", StartTime: "2025-03-10T10:00:00Z", EndTime: "2025-03-10T11:00:00Z"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.do(http.MethodPost, "/api/shifts", tt.req).Code)
		})
	}
}

func TestStaffAndParticipants(t *testing.T) {
	a := newTestAPI(t, false)

	rec := a.do(http.MethodPost, "/api/staff", CreateStaffRequest{Name: "Jo"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, decode[StaffDTO](t, rec).ID, "id is generated")

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/staff", CreateStaffRequest{Name: " "}).Code)

	rec = a.do(http.MethodPost, "/api/participants", CreateParticipantRequest{ID: "p1", Name: "Pat", Address: "1 Main St, Dubbo NSW 2830"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/api/participants", nil)
	participants := decode[[]ParticipantDTO](t, rec)
	require.Len(t, participants, 1)
	assert.Equal(t, "1 Main St, Dubbo NSW 2830", participants[0].Address)

	rec = a.do(http.MethodGet, "/api/staff", nil)
	assert.Len(t, decode[[]StaffDTO](t, rec), 1)
}

func TestRates(t *testing.T) {
	a := newTestAPI(t, false)

	// GIVEN: Nothing stored
	rec := a.do(http.MethodGet, "/api/rates/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	def := decode[RateConfigurationDTO](t, rec)

	// THEN: The built-in default is active
	assert.True(t, def.IsDefault)
	assert.Equal(t, [5]string{"0.99", "0.99", "0.99", "0.85", "0.78"}, def.BandRates)
	assert.Equal(t, 30, def.NearCapMinutes)
	assert.Equal(t, 60, def.FarCapMinutes)

	// WHEN: A new configuration is created without effectiveFrom
	rec = a.do(http.MethodPost, "/api/rates", CreateRateConfigurationRequest{
		BandRates:            [5]string{"1.00", "1.00", "1.00", "0.90", "0.80"},
		NearCapMinutes:       30,
		FarCapMinutes:        60,
		VehicleAllowanceRate: "0.96",
		TaxBusinessKmRate:    "0.88",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[RateConfigurationDTO](t, rec)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsDefault)

	// THEN: It is in force immediately
	rec = a.do(http.MethodGet, "/api/rates/active", nil)
	assert.Equal(t, created.ID, decode[RateConfigurationDTO](t, rec).ID)

	rec = a.do(http.MethodGet, "/api/rates", nil)
	assert.Len(t, decode[[]RateConfigurationDTO](t, rec), 1)

	// AND: Invalid configurations are rejected
	for _, req := range []CreateRateConfigurationRequest{
		{BandRates: [5]string{"-1", "1", "1", "1", "1"}, NearCapMinutes: 30, FarCapMinutes: 60, VehicleAllowanceRate: "0.95", TaxBusinessKmRate: "0.85"},
		{BandRates: [5]string{"1", "1", "1", "1", "1"}, NearCapMinutes: 0, FarCapMinutes: 60, VehicleAllowanceRate: "0.95", TaxBusinessKmRate: "0.85"},
		{BandRates: [5]string{"1", "1", "abc", "1", "1"}, NearCapMinutes: 30, FarCapMinutes: 60, VehicleAllowanceRate: "0.95", TaxBusinessKmRate: "0.85"},
		{BandRates: [5]string{"1", "1", "1", "1", "1"}, NearCapMinutes: 30, FarCapMinutes: 60, VehicleAllowanceRate: "0.95", TaxBusinessKmRate: "0.85", EffectiveFrom: "tomorrow"},
	} {
		assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/rates", req).Code)
	}
}

func TestStaffStatement(t *testing.T) {
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()
	require.Equal(t, http.StatusCreated, a.calculate("shift-0800").Code)
	require.Equal(t, http.StatusCreated, a.calculate("shift-1300").Code)

	// Range defaults to the current month
	rec := a.do(http.MethodGet, "/api/staff/staff-s/statement", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stmt := decode[StaffStatementDTO](t, rec)
	assert.Equal(t, "2025-03-01", stmt.From)
	assert.Equal(t, "2025-03-31", stmt.To)
	assert.Equal(t, 1, stmt.Days)
	assert.Equal(t, 2, stmt.TotalShifts)
	assert.Equal(t, "19.80", stmt.TotalNdisBilled)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/staff/ghost/statement", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/staff/staff-s/statement?from=2025-04-01&to=2025-03-01", nil).Code)
}

// =============================================================================
// EXPORT, JOBS, SCENARIOS
// =============================================================================

func TestExportDailySequences(t *testing.T) {
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()
	require.Equal(t, http.StatusCreated, a.calculate("shift-0800").Code)
	require.Equal(t, http.StatusCreated, a.calculate("shift-1300").Code)

	rec := a.do(http.MethodGet, "/api/travel/daily/export.xlsx?from=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "travel-daily-2025-03-10.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.SheetDaily, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header, one day, totals")
}

func TestJobs_WithoutScheduler(t *testing.T) {
	a := newTestAPI(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, a.do(http.MethodGet, "/api/jobs", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, a.do(http.MethodPost, "/api/jobs/daily_travel_rebuild/run", nil).Code)
}

func TestJobs(t *testing.T) {
	a := newTestAPI(t, true)

	rec := a.do(http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decode[[]JobDTO](t, rec)
	require.Len(t, jobs, 3)
	assert.Equal(t, JobDailyRebuild, jobs[0].Name)
	assert.True(t, jobs[0].Enabled)
	assert.Empty(t, jobs[0].LastRunAt)

	rec = a.do(http.MethodPost, "/api/jobs/"+JobDailyRebuild+"/disable", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[JobDTO](t, rec).Enabled)

	rec = a.do(http.MethodPost, "/api/jobs/"+JobDailyRebuild+"/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ran := decode[JobDTO](t, rec)
	assert.Equal(t, "ok", ran.LastStatus)
	assert.NotEmpty(t, ran.LastRunAt)

	rec = a.do(http.MethodPost, "/api/jobs/"+JobDailyRebuild+"/enable", nil)
	assert.True(t, decode[JobDTO](t, rec).Enabled)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/jobs/nope/run", nil).Code)
}

func TestScenarios(t *testing.T) {
	a := newTestAPI(t, false)

	rec := a.do(http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	rec = a.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "two-shift-day", Calculate: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decode[LoadScenarioResponse](t, rec)
	require.Len(t, loaded.Calculations, 2)
	assert.Equal(t, "0.00", loaded.Calculations[0].NdisTravelAmount)
	assert.Equal(t, "19.80", loaded.Calculations[1].NdisTravelAmount)
	assert.Equal(t, "19.00", loaded.Calculations[1].SchadsTravelPayment)

	rec = a.do(http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "two-shift-day", decode[ScenarioDTO](t, rec).ID)

	// Loading another scenario replaces the data
	rec = a.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "regional-roster"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[LoadScenarioResponse](t, rec).Calculations)

	staff, err := a.store.ListStaff(context.Background())
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "staff-r", staff[0].ID)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}).Code)
}

func TestResetDatabase(t *testing.T) {
	a := newTestAPI(t, false)
	a.seedTwoShiftDay()

	rec := a.do(http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/api/staff", nil)
	assert.Empty(t, decode[[]StaffDTO](t, rec))
	rec = a.do(http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, false)
	rec := a.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}
