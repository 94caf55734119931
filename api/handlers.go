/*
handlers.go - HTTP API handlers for the travel engine

PURPOSE:
  Exposes travel calculation, aggregates, exports and scheduled jobs via a
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to travel.Service.

ENDPOINTS:
  People and shifts:
    GET    /api/staff                      List staff
    POST   /api/staff                      Create staff member
    GET    /api/staff/{id}/statement       Travel statement for a date range
    GET    /api/participants               List participants
    POST   /api/participants               Create participant
    GET    /api/shifts?staff_id=&date=     A staff member's shifts on a day
    POST   /api/shifts                     Create shift
    GET    /api/shifts/{id}                Get shift

  Rates:
    GET    /api/rates                      All stored configurations
    POST   /api/rates                      New configuration (never edits)
    GET    /api/rates/active               Configuration in force now

  Travel:
    POST   /api/travel/calculations        Calculate travel for a shift
    GET    /api/travel/calculations        List records (staff_id, shift_id, from, to, limit)
    GET    /api/travel/calculations/{id}   Get record
    POST   /api/travel/recalculate         Recalculate a date range
    GET    /api/travel/daily               Daily aggregates (staff_id, from, to)
    POST   /api/travel/daily/rebuild       Rebuild one (staff, date) aggregate
    GET    /api/travel/daily/export.xlsx   Daily aggregates as Excel

  Jobs:
    GET    /api/jobs                       Job states
    POST   /api/jobs/{name}/run            Run now
    POST   /api/jobs/{name}/enable         Enable
    POST   /api/jobs/{name}/disable        Disable

  Scenarios:
    GET    /api/scenarios                  List demo scenarios
    POST   /api/scenarios/load             Load a demo scenario
    POST   /api/reset                      Clear all data (dev only)

ERROR HANDLING:
  Errors are returned as JSON with the status chosen by statusFor:
  - 400: Validation errors, invalid input
  - 404: Shift, staff or record not found
  - 422: Shift has no staff, or is missing from its own day
  - 502: Routing provider failure
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/report"
	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs beyond travel.Service.
type Store interface {
	travel.TxStore
	travel.JobStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *travel.Service
	Store     Store
	Scheduler *Scheduler

	logger *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. scheduler may be nil, in which case the
// job endpoints answer 503.
func NewHandler(svc *travel.Service, store Store, scheduler *Scheduler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:   svc,
		Store:     store,
		Scheduler: scheduler,
		logger:    logger.Named("api"),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   formatTime(h.Service.Now()),
	})
}

// =============================================================================
// STAFF AND PARTICIPANTS
// =============================================================================

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.ListStaff(r.Context())
	if err != nil {
		h.fail(w, "Failed to list staff", err)
		return
	}

	dtos := make([]StaffDTO, len(staff))
	for i, s := range staff {
		dtos[i] = toStaffDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.fail(w, "Invalid staff member", &travel.ValidationError{Field: "name", Message: "is required"})
		return
	}

	staff := travel.Staff{
		ID:        orNewID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: h.Service.Now().UTC(),
	}
	if err := h.Store.SaveStaff(r.Context(), staff); err != nil {
		h.fail(w, "Failed to create staff member", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(staff))
}

// GetStaffStatement totals a staff member's travel. from/to default to the
// current month.
func (h *Handler) GetStaffStatement(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.dateRange(r, true)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}

	stmt, err := h.Service.StaffStatement(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		h.fail(w, "Failed to build statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffStatementDTO(stmt))
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.Store.ListParticipants(r.Context())
	if err != nil {
		h.fail(w, "Failed to list participants", err)
		return
	}

	dtos := make([]ParticipantDTO, len(participants))
	for i, p := range participants {
		dtos[i] = toParticipantDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req CreateParticipantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.fail(w, "Invalid participant", &travel.ValidationError{Field: "name", Message: "is required"})
		return
	}

	p := travel.Participant{
		ID:        orNewID(req.ID),
		Name:      req.Name,
		Address:   req.Address,
		CreatedAt: h.Service.Now().UTC(),
	}
	if err := h.Store.SaveParticipant(r.Context(), p); err != nil {
		h.fail(w, "Failed to create participant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipantDTO(p))
}

// =============================================================================
// SHIFTS
// =============================================================================

// ListShifts returns one staff member's shifts starting on a day (default
// today).
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	staffID := r.URL.Query().Get("staff_id")
	if staffID == "" {
		h.fail(w, "Invalid query", &travel.ValidationError{Field: "staff_id", Message: "is required"})
		return
	}
	date, err := dateParam(r, "date", h.Service.Today())
	if err != nil {
		h.fail(w, "Invalid date", err)
		return
	}

	from, to := date.Bounds(h.Service.Location())
	shifts, err := h.Store.ShiftsForStaffBetween(r.Context(), staffID, from, to)
	if err != nil {
		h.fail(w, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	shift, err := h.Store.GetShift(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get shift", err)
		return
	}
	if shift == nil {
		writeError(w, http.StatusNotFound, "Shift not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(*shift))
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shift, err := h.shiftFromRequest(r.Context(), req)
	if err != nil {
		h.fail(w, "Invalid shift", err)
		return
	}
	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		h.fail(w, "Failed to create shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

func (h *Handler) shiftFromRequest(ctx context.Context, req CreateShiftRequest) (travel.Shift, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return travel.Shift{}, &travel.ValidationError{Field: "startTime", Message: "must be RFC 3339"}
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return travel.Shift{}, &travel.ValidationError{Field: "endTime", Message: "must be RFC 3339"}
	}
	if !end.After(start) {
		return travel.Shift{}, &travel.ValidationError{Field: "endTime", Message: "must be after startTime"}
	}

	status := travel.ShiftStatus(req.Status)
	switch status {
	case "":
		status = travel.ShiftScheduled
	case travel.ShiftScheduled, travel.ShiftCompleted, travel.ShiftCancelled:
	default:
		return travel.Shift{}, &travel.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", req.Status)}
	}

	if req.StaffID != "" {
		staff, err := h.Store.GetStaff(ctx, req.StaffID)
		if err != nil {
			return travel.Shift{}, err
		}
		if staff == nil {
			return travel.Shift{}, fmt.Errorf("staff %s: %w", req.StaffID, travel.ErrNotFound)
		}
	}

	return travel.Shift{
		ID:            orNewID(req.ID),
		StaffID:       req.StaffID,
		ParticipantID: req.ParticipantID,
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		CreatedAt:     h.Service.Now().UTC(),
	}, nil
}

// =============================================================================
// RATE CONFIGURATIONS
// =============================================================================

func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Store.ListRateConfigurations(r.Context())
	if err != nil {
		h.fail(w, "Failed to list rate configurations", err)
		return
	}

	dtos := make([]RateConfigurationDTO, len(configs))
	for i, rc := range configs {
		dtos[i] = toRateConfigurationDTO(rc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetActiveRates returns the configuration in force now, or the built-in
// default when none is stored.
func (h *Handler) GetActiveRates(w http.ResponseWriter, r *http.Request) {
	rc, err := h.Service.ActiveRates(r.Context())
	if err != nil {
		h.fail(w, "Failed to load rate configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toRateConfigurationDTO(rc))
}

func (h *Handler) CreateRates(w http.ResponseWriter, r *http.Request) {
	var req CreateRateConfigurationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rc, err := h.rateConfigurationFromRequest(req)
	if err != nil {
		h.fail(w, "Invalid rate configuration", err)
		return
	}
	created, err := h.Service.CreateRateConfiguration(r.Context(), rc)
	if err != nil {
		h.fail(w, "Failed to create rate configuration", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateConfigurationDTO(created))
}

func (h *Handler) rateConfigurationFromRequest(req CreateRateConfigurationRequest) (travel.RateConfiguration, error) {
	rc := travel.RateConfiguration{
		NearCapMinutes: req.NearCapMinutes,
		FarCapMinutes:  req.FarCapMinutes,
		IsActive:       req.IsActive == nil || *req.IsActive,
		EffectiveFrom:  h.Service.Now().UTC(),
	}

	var err error
	for i, s := range req.BandRates {
		if rc.BandRates[i], err = parseDecimal(fmt.Sprintf("bandRates[%d]", i), s); err != nil {
			return rc, err
		}
	}
	if rc.VehicleAllowanceRate, err = parseDecimal("vehicleAllowanceRate", req.VehicleAllowanceRate); err != nil {
		return rc, err
	}
	if rc.TaxBusinessKmRate, err = parseDecimal("taxBusinessKmRate", req.TaxBusinessKmRate); err != nil {
		return rc, err
	}
	if req.EffectiveFrom != "" {
		t, err := time.Parse(time.RFC3339, req.EffectiveFrom)
		if err != nil {
			return rc, &travel.ValidationError{Field: "effectiveFrom", Message: "must be RFC 3339"}
		}
		rc.EffectiveFrom = t.UTC()
	}
	return rc, nil
}

// =============================================================================
// TRAVEL CALCULATIONS
// =============================================================================

// CalculateTravel runs the full pipeline for one shift and returns the
// stored record.
func (h *Handler) CalculateTravel(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	travelDate, err := parseDateField("travelDate", req.TravelDate)
	if err != nil {
		h.fail(w, "Invalid travel date", err)
		return
	}

	calc, err := h.Service.Calculate(r.Context(), travel.CalculationRequest{
		ShiftID:            req.ShiftID,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		TravelDate:         travelDate,
	})
	if err != nil {
		h.fail(w, "Travel calculation failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCalculationDTO(*calc))
}

func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := h.dateRange(r, false)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}

	f := travel.CalculationFilter{
		StaffID: q.Get("staff_id"),
		ShiftID: q.Get("shift_id"),
		From:    from,
		To:      to,
		Limit:   100,
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.fail(w, "Invalid limit", &travel.ValidationError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		f.Limit = n
	}

	calcs, err := h.Service.ListCalculations(r.Context(), f)
	if err != nil {
		h.fail(w, "Failed to list calculations", err)
		return
	}

	dtos := make([]CalculationDTO, len(calcs))
	for i, c := range calcs {
		dtos[i] = toCalculationDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	calc, err := h.Service.GetCalculation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get calculation", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(*calc))
}

// Recalculate re-runs the latest calculation of every shift in the range
// and rebuilds the affected daily aggregates.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	from, err := parseDateField("from", req.From)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}
	to, err := parseDateField("to", req.To)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}

	sum, err := h.Service.Recalculate(r.Context(), from, to)
	if err != nil {
		h.fail(w, "Recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecalcSummaryDTO{
		From:         sum.From.String(),
		To:           sum.To.String(),
		Recalculated: sum.Recalculated,
		Failed:       sum.Failed,
		DaysRebuilt:  sum.DaysRebuilt,
		Errors:       nonNil(sum.Errors),
	})
}

// =============================================================================
// DAILY AGGREGATES
// =============================================================================

func (h *Handler) ListDailySequences(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.dateRange(r, false)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}

	seqs, err := h.Service.DailySummaries(r.Context(), travel.SequenceFilter{
		StaffID: r.URL.Query().Get("staff_id"),
		From:    from,
		To:      to,
	})
	if err != nil {
		h.fail(w, "Failed to list daily aggregates", err)
		return
	}

	dtos := make([]DailySequenceDTO, len(seqs))
	for i, s := range seqs {
		dtos[i] = toDailySequenceDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RebuildDailySequence recomputes one aggregate from the latest
// calculation of each shift.
func (h *Handler) RebuildDailySequence(w http.ResponseWriter, r *http.Request) {
	var req RebuildDayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StaffID == "" {
		h.fail(w, "Invalid rebuild request", &travel.ValidationError{Field: "staffId", Message: "is required"})
		return
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		h.fail(w, "Invalid rebuild request", err)
		return
	}

	seq, err := h.Service.RebuildDay(r.Context(), req.StaffID, date)
	if err != nil {
		h.fail(w, "Failed to rebuild daily aggregate", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailySequenceDTO(seq))
}

// ExportDailySequences streams the aggregates for a date range (default
// yesterday) as an Excel workbook.
func (h *Handler) ExportDailySequences(w http.ResponseWriter, r *http.Request) {
	yesterday := h.Service.Today().AddDays(-1)
	from, err := dateParam(r, "from", yesterday)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}
	to, err := dateParam(r, "to", from)
	if err != nil {
		h.fail(w, "Invalid date range", err)
		return
	}
	if to.Before(from) {
		h.fail(w, "Invalid date range", &travel.ValidationError{Field: "to", Message: "must not be before from"})
		return
	}

	seqs, err := h.Service.DailySummaries(r.Context(), travel.SequenceFilter{
		StaffID: r.URL.Query().Get("staff_id"),
		From:    from,
		To:      to,
	})
	if err != nil {
		h.fail(w, "Failed to load daily aggregates", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteDailySummaries(&buf, seqs); err != nil {
		h.fail(w, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DailyFileName(from, to)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// =============================================================================
// JOBS
// =============================================================================

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduler(w) {
		return
	}
	jobs, err := h.Scheduler.Jobs(r.Context())
	if err != nil {
		h.fail(w, "Failed to list jobs", err)
		return
	}

	dtos := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toJobDTO(j)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunJob runs a job now. A job that fails still answers 200 with the
// recorded failure in lastStatus and lastError.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if !h.requireScheduler(w) {
		return
	}
	state, err := h.Scheduler.RunNow(r.Context(), chi.URLParam(r, "name"))
	if err != nil && state.Name == "" {
		h.fail(w, "Failed to run job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(state))
}

func (h *Handler) EnableJob(w http.ResponseWriter, r *http.Request) {
	h.setJobEnabled(w, r, true)
}

func (h *Handler) DisableJob(w http.ResponseWriter, r *http.Request) {
	h.setJobEnabled(w, r, false)
}

func (h *Handler) setJobEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	if !h.requireScheduler(w) {
		return
	}
	state, err := h.Scheduler.SetEnabled(r.Context(), chi.URLParam(r, "name"), enabled)
	if err != nil {
		h.fail(w, "Failed to update job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(state))
}

func (h *Handler) requireScheduler(w http.ResponseWriter) bool {
	if h.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return false
	}
	return true
}

// ResetDatabase clears all data except job state.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case travel.IsClientError(err):
		return http.StatusBadRequest
	case travel.IsNotFound(err):
		return http.StatusNotFound
	case travel.IsUnprocessable(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, travel.ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status statusFor picks. Server-side failures
// are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeBody decodes JSON into dst, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func orNewID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &travel.ValidationError{Field: field, Message: fmt.Sprintf("invalid number %q", s)}
	}
	return d, nil
}

func parseDateField(field, s string) (travel.Date, error) {
	if s == "" {
		return travel.Date{}, &travel.ValidationError{Field: field, Message: "is required"}
	}
	d, err := travel.ParseDate(s)
	if err != nil {
		return travel.Date{}, &travel.ValidationError{Field: field, Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return d, nil
}

// dateParam reads a YYYY-MM-DD query parameter, returning def when absent.
func dateParam(r *http.Request, name string, def travel.Date) (travel.Date, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	return parseDateField(name, s)
}

// dateRange reads from/to query parameters. With monthDefault an absent
// bound falls back to the current month; otherwise it stays open.
func (h *Handler) dateRange(r *http.Request, monthDefault bool) (travel.Date, travel.Date, error) {
	var defFrom, defTo travel.Date
	if monthDefault {
		today := h.Service.Today()
		defFrom = travel.StartOfMonth(today.Year(), today.Month())
		defTo = travel.EndOfMonth(today.Year(), today.Month())
	}
	from, err := dateParam(r, "from", defFrom)
	if err != nil {
		return from, defTo, err
	}
	to, err := dateParam(r, "to", defTo)
	if err != nil {
		return from, to, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, &travel.ValidationError{Field: "to", Message: "must not be before from"}
	}
	return from, to, nil
}
