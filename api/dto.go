/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the travel domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - JSON fields are camelCase; query parameters are snake_case

MONEY AND DISTANCE:
  Amounts and kilometres are strings with exactly two decimals ("19.80").
  Rates keep their configured precision ("0.99"). Clients never see floats.

TYPES:
  People:       StaffDTO, ParticipantDTO, ShiftDTO (+ Create*Request)
  Rates:        RateConfigurationDTO, CreateRateConfigurationRequest
  Calculations: CalculateRequest, CalculationDTO
  Aggregates:   DailySequenceDTO, StaffStatementDTO, RebuildDayRequest
  Bulk:         RecalculateRequest, RecalcSummaryDTO
  Jobs:         JobDTO
  Scenarios:    ScenarioDTO, LoadScenarioRequest, LoadScenarioResponse

VALIDATION:
  Validation is done in handlers and the travel package, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - travel/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// PEOPLE AND SHIFTS
// =============================================================================

type StaffDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type CreateStaffRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ParticipantDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type CreateParticipantRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ShiftDTO struct {
	ID            string `json:"id"`
	StaffID       string `json:"staffId,omitempty"`
	ParticipantID string `json:"participantId,omitempty"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Status        string `json:"status"`
}

// CreateShiftRequest times are RFC 3339.
type CreateShiftRequest struct {
	ID            string `json:"id"`
	StaffID       string `json:"staffId"`
	ParticipantID string `json:"participantId"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Status        string `json:"status"`
}

// =============================================================================
// RATES
// =============================================================================

type RateConfigurationDTO struct {
	ID                   string    `json:"id"`
	BandRates            [5]string `json:"bandRates"` // MMM1..MMM5 per km
	NearCapMinutes       int       `json:"nearCapMinutes"`
	FarCapMinutes        int       `json:"farCapMinutes"`
	VehicleAllowanceRate string    `json:"vehicleAllowanceRate"`
	TaxBusinessKmRate    string    `json:"taxBusinessKmRate"`
	EffectiveFrom        string    `json:"effectiveFrom,omitempty"`
	IsActive             bool      `json:"isActive"`
	IsDefault            bool      `json:"isDefault"`
	CreatedAt            string    `json:"createdAt,omitempty"`
}

// CreateRateConfigurationRequest: EffectiveFrom defaults to now and
// IsActive to true.
type CreateRateConfigurationRequest struct {
	BandRates            [5]string `json:"bandRates"`
	NearCapMinutes       int       `json:"nearCapMinutes"`
	FarCapMinutes        int       `json:"farCapMinutes"`
	VehicleAllowanceRate string    `json:"vehicleAllowanceRate"`
	TaxBusinessKmRate    string    `json:"taxBusinessKmRate"`
	EffectiveFrom        string    `json:"effectiveFrom"`
	IsActive             *bool     `json:"isActive"`
}

// =============================================================================
// CALCULATIONS
// =============================================================================

type CalculateRequest struct {
	ShiftID            string `json:"shiftId"`
	OriginAddress      string `json:"originAddress"`
	DestinationAddress string `json:"destinationAddress"`
	TravelDate         string `json:"travelDate"`
}

// CalculationDTO is the full travel calculation record.
type CalculationDTO struct {
	ID                 string `json:"id"`
	ShiftID            string `json:"shiftId"`
	StaffID            string `json:"staffId"`
	ParticipantID      string `json:"participantId,omitempty"`
	OriginAddress      string `json:"originAddress"`
	DestinationAddress string `json:"destinationAddress"`
	TravelDate         string `json:"travelDate"`

	DistanceKm          string `json:"distanceKm"`
	TravelTimeMinutes   int    `json:"travelTimeMinutes"`
	ShiftSequenceNumber int    `json:"shiftSequenceNumber"`
	IsFirstShiftOfDay   bool   `json:"isFirstShiftOfDay"`

	OriginMmmClassification      string `json:"originMmmClassification"`
	DestinationMmmClassification string `json:"destinationMmmClassification"`
	ApplicableMmmRating          string `json:"applicableMmmRating"`

	NdisMaxTravelTimeMinutes int    `json:"ndisMaxTravelTimeMinutes"`
	NdisBillableTimeMinutes  int    `json:"ndisBillableTimeMinutes"`
	NdisRatePerKm            string `json:"ndisRatePerKm"`
	NdisTravelAmount         string `json:"ndisTravelAmount"`
	NdisIsBillable           bool   `json:"ndisIsBillable"`
	NdisNonBillableReason    string `json:"ndisNonBillableReason,omitempty"`

	SchadsVehicleAllowancePerKm string `json:"schadsVehicleAllowancePerKm"`
	SchadsTravelPayment         string `json:"schadsTravelPayment"`
	SchadsIsPayable             bool   `json:"schadsIsPayable"`
	SchadsNonPayableReason      string `json:"schadsNonPayableReason,omitempty"`

	AutoVerificationStatus  string   `json:"autoVerificationStatus"`
	VerificationFlags       []string `json:"verificationFlags"`
	RequiresManualReview    bool     `json:"requiresManualReview"`
	AtoCompliant            bool     `json:"atoCompliant"`
	AtoNonComplianceReasons []string `json:"atoNonComplianceReasons"`

	RateConfigurationID string `json:"rateConfigurationId"`
	CreatedAt           string `json:"createdAt"`
}

// =============================================================================
// AGGREGATES
// =============================================================================

type DailySequenceDTO struct {
	StaffID          string `json:"staffId"`
	ShiftDate        string `json:"shiftDate"`
	TotalShifts      int    `json:"totalShifts"`
	ShiftsWithTravel int    `json:"shiftsWithTravel"`
	TotalTravelKm    string `json:"totalTravelKm"`
	TotalNdisBilled  string `json:"totalNdisBilled"`
	TotalSchadsPaid  string `json:"totalSchadsPaid"`
	FirstShiftID     string `json:"firstShiftId,omitempty"`
	LastShiftID      string `json:"lastShiftId,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

type StaffStatementDTO struct {
	StaffID         string `json:"staffId"`
	From            string `json:"from"`
	To              string `json:"to"`
	Days            int    `json:"days"`
	TotalShifts     int    `json:"totalShifts"`
	TotalTravelKm   string `json:"totalTravelKm"`
	TotalNdisBilled string `json:"totalNdisBilled"`
	TotalSchadsPaid string `json:"totalSchadsPaid"`
}

type RebuildDayRequest struct {
	StaffID string `json:"staffId"`
	Date    string `json:"date"`
}

type RecalculateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type RecalcSummaryDTO struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Recalculated int      `json:"recalculated"`
	Failed       int      `json:"failed"`
	DaysRebuilt  int      `json:"daysRebuilt"`
	Errors       []string `json:"errors"`
}

// =============================================================================
// JOBS AND SCENARIOS
// =============================================================================

type JobDTO struct {
	Name       string `json:"name"`
	Schedule   string `json:"schedule"`
	Enabled    bool   `json:"enabled"`
	LastRunAt  string `json:"lastRunAt,omitempty"`
	NextDueAt  string `json:"nextDueAt"`
	LastStatus string `json:"lastStatus,omitempty"`
	LastError  string `json:"lastError,omitempty"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest: with Calculate set, every leg of the roster is
// calculated after loading.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
	Calculate  bool   `json:"calculate"`
}

type LoadScenarioResponse struct {
	Status       string           `json:"status"`
	Scenario     string           `json:"scenario"`
	Calculations []CalculationDTO `json:"calculations"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toStaffDTO(s travel.Staff) StaffDTO {
	return StaffDTO{ID: s.ID, Name: s.Name, Email: s.Email, CreatedAt: formatTime(s.CreatedAt)}
}

func toParticipantDTO(p travel.Participant) ParticipantDTO {
	return ParticipantDTO{ID: p.ID, Name: p.Name, Address: p.Address, CreatedAt: formatTime(p.CreatedAt)}
}

func toShiftDTO(s travel.Shift) ShiftDTO {
	return ShiftDTO{
		ID:            s.ID,
		StaffID:       s.StaffID,
		ParticipantID: s.ParticipantID,
		StartTime:     formatTime(s.StartTime),
		EndTime:       formatTime(s.EndTime),
		Status:        string(s.Status),
	}
}

func toRateConfigurationDTO(rc travel.RateConfiguration) RateConfigurationDTO {
	dto := RateConfigurationDTO{
		ID:                   rc.ID,
		NearCapMinutes:       rc.NearCapMinutes,
		FarCapMinutes:        rc.FarCapMinutes,
		VehicleAllowanceRate: rc.VehicleAllowanceRate.String(),
		TaxBusinessKmRate:    rc.TaxBusinessKmRate.String(),
		EffectiveFrom:        formatTime(rc.EffectiveFrom),
		IsActive:             rc.IsActive,
		IsDefault:            rc.ID == travel.DefaultRateConfigurationID,
		CreatedAt:            formatTime(rc.CreatedAt),
	}
	for i, r := range rc.BandRates {
		dto.BandRates[i] = r.String()
	}
	return dto
}

func toCalculationDTO(c travel.Calculation) CalculationDTO {
	return CalculationDTO{
		ID:                 c.ID,
		ShiftID:            c.ShiftID,
		StaffID:            c.StaffID,
		ParticipantID:      c.ParticipantID,
		OriginAddress:      c.OriginAddress,
		DestinationAddress: c.DestinationAddress,
		TravelDate:         c.TravelDate.String(),

		DistanceKm:          money(c.DistanceKm),
		TravelTimeMinutes:   c.TravelMinutes,
		ShiftSequenceNumber: c.SequenceNumber,
		IsFirstShiftOfDay:   c.IsFirstShift,

		OriginMmmClassification:      c.OriginBand.String(),
		DestinationMmmClassification: c.DestinationBand.String(),
		ApplicableMmmRating:          c.ApplicableBand.String(),

		NdisMaxTravelTimeMinutes: c.MaxTravelMinutes,
		NdisBillableTimeMinutes:  c.BillableTimeMinutes,
		NdisRatePerKm:            c.BandRate.String(),
		NdisTravelAmount:         money(c.BillableAmount),
		NdisIsBillable:           c.IsBillable,
		NdisNonBillableReason:    c.NonBillableReason,

		SchadsVehicleAllowancePerKm: c.VehicleAllowanceRate.String(),
		SchadsTravelPayment:         money(c.PayableAmount),
		SchadsIsPayable:             c.IsPayable,
		SchadsNonPayableReason:      c.NonPayableReason,

		AutoVerificationStatus:  string(c.VerificationStatus),
		VerificationFlags:       nonNil(c.VerificationFlags),
		RequiresManualReview:    c.RequiresManualReview,
		AtoCompliant:            c.IsAtoCompliant,
		AtoNonComplianceReasons: nonNil(c.AtoNonComplianceReasons),

		RateConfigurationID: c.RateConfigurationID,
		CreatedAt:           formatTime(c.CreatedAt),
	}
}

func toDailySequenceDTO(d travel.DailySequence) DailySequenceDTO {
	return DailySequenceDTO{
		StaffID:          d.StaffID,
		ShiftDate:        d.Date.String(),
		TotalShifts:      d.TotalShifts,
		ShiftsWithTravel: d.ShiftsWithTravel,
		TotalTravelKm:    money(d.TotalTravelKm),
		TotalNdisBilled:  money(d.TotalBillable),
		TotalSchadsPaid:  money(d.TotalPayable),
		FirstShiftID:     d.FirstShiftID,
		LastShiftID:      d.LastShiftID,
		UpdatedAt:        formatTime(d.UpdatedAt),
	}
}

func toStaffStatementDTO(s travel.StaffStatement) StaffStatementDTO {
	return StaffStatementDTO{
		StaffID:         s.StaffID,
		From:            s.From.String(),
		To:              s.To.String(),
		Days:            s.Days,
		TotalShifts:     s.TotalShifts,
		TotalTravelKm:   money(s.TotalTravelKm),
		TotalNdisBilled: money(s.TotalBillable),
		TotalSchadsPaid: money(s.TotalPayable),
	}
}

func toJobDTO(j travel.JobState) JobDTO {
	dto := JobDTO{
		Name:       j.Name,
		Schedule:   j.Schedule,
		Enabled:    j.Enabled,
		NextDueAt:  formatTime(j.NextDueAt),
		LastStatus: string(j.LastStatus),
		LastError:  j.LastError,
	}
	if j.LastRunAt != nil {
		dto.LastRunAt = formatTime(*j.LastRunAt)
	}
	return dto
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
