/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built rosters that populate the database with realistic
  staff, participants and shifts. Each scenario shows a specific part of
  the travel rules.

AVAILABLE SCENARIOS:
  two-shift-day:    One support worker, two metro visits on 2025-03-10.
                    The 08:00 visit is the first of the day (nothing billed);
                    the 13:00 visit bills and pays the leg between clients.
  regional-roster:  Three visits across regional and remote postcodes,
                    with a long leg that needs manual review.

HOW SCENARIOS WORK:
  1. Reset database (clear all data, job state kept)
  2. Create staff and participants
  3. Create shifts in the travel timezone
  4. Optionally calculate every leg (calculate: true)

USAGE VIA API:
  POST /api/scenarios/load
  {"scenarioId": "two-shift-day", "calculate": true}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.
  Calculating legs calls the configured routing provider.

SEE ALSO:
  - handlers.go: Store, Service and the other endpoints
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenarioVisit struct {
	shiftID       string
	participantID string
	start         string // HH:MM in the travel timezone
	hours         int
}

type scenario struct {
	ScenarioDTO
	date         travel.Date
	staff        travel.Staff
	home         string // where the first leg of the day starts
	participants []travel.Participant
	visits       []scenarioVisit
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "two-shift-day",
			Name:        "Two-Shift Day",
			Description: "Metro support worker with a morning and an afternoon visit",
		},
		date:  travel.NewDate(2025, time.March, 10),
		staff: travel.Staff{ID: "staff-s", Name: "Sam Nguyen", Email: "sam@example.com"},
		home:  "12 George St, Parramatta NSW 2150",
		participants: []travel.Participant{
			{ID: "participant-a", Name: "Alex Morgan", Address: "4 Smith St, Chatswood NSW 2067"},
			{ID: "participant-b", Name: "Blake Chen", Address: "88 Pitt St, Sydney NSW 2000"},
		},
		visits: []scenarioVisit{
			{shiftID: "shift-0800", participantID: "participant-a", start: "08:00", hours: 3},
			{shiftID: "shift-1300", participantID: "participant-b", start: "13:00", hours: 2},
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "regional-roster",
			Name:        "Regional Roster",
			Description: "Regional and remote visits with long legs and MMM4-5 time caps",
		},
		date:  travel.NewDate(2025, time.March, 11),
		staff: travel.Staff{ID: "staff-r", Name: "Riley Walker", Email: "riley@example.com"},
		home:  "20 Macquarie St, Dubbo NSW 2830",
		participants: []travel.Participant{
			{ID: "participant-c", Name: "Casey Brown", Address: "5 Oxley St, Bourke NSW 2840"},
			{ID: "participant-d", Name: "Drew Wilson", Address: "11 Mitchell St, Brewarrina NSW 2839"},
			{ID: "participant-e", Name: "Eden Taylor", Address: "3 Argent St, Broken Hill NSW 2880"},
		},
		visits: []scenarioVisit{
			{shiftID: "shift-r-0700", participantID: "participant-c", start: "07:00", hours: 2},
			{shiftID: "shift-r-1100", participantID: "participant-d", start: "11:00", hours: 2},
			{shiftID: "shift-r-1600", participantID: "participant-e", start: "16:00", hours: 2},
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, _ := findScenario(current)
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the database and loads a predefined roster.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	calcs, err := h.loadScenario(ctx, s, req.Calculate)
	if err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario %s", s.ID), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	resp := LoadScenarioResponse{
		Status:       "loaded",
		Scenario:     s.ID,
		Calculations: make([]CalculationDTO, len(calcs)),
	}
	for i, c := range calcs {
		resp.Calculations[i] = toCalculationDTO(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SCENARIO LOADER
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, s scenario, calculate bool) ([]travel.Calculation, error) {
	now := h.Service.Now().UTC()

	staff := s.staff
	staff.CreatedAt = now
	if err := h.Store.SaveStaff(ctx, staff); err != nil {
		return nil, err
	}

	addresses := make(map[string]string, len(s.participants))
	for _, p := range s.participants {
		p.CreatedAt = now
		if err := h.Store.SaveParticipant(ctx, p); err != nil {
			return nil, err
		}
		addresses[p.ID] = p.Address
	}

	loc := h.Service.Location()
	reqs := make([]travel.CalculationRequest, 0, len(s.visits))
	origin := s.home
	for _, v := range s.visits {
		start, err := time.ParseInLocation("2006-01-02 15:04", s.date.String()+" "+v.start, loc)
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", v.shiftID, err)
		}
		shift := travel.Shift{
			ID:            v.shiftID,
			StaffID:       staff.ID,
			ParticipantID: v.participantID,
			StartTime:     start,
			EndTime:       start.Add(time.Duration(v.hours) * time.Hour),
			Status:        travel.ShiftScheduled,
			CreatedAt:     now,
		}
		if err := h.Store.SaveShift(ctx, shift); err != nil {
			return nil, err
		}

		dest := addresses[v.participantID]
		reqs = append(reqs, travel.CalculationRequest{
			ShiftID:            shift.ID,
			OriginAddress:      origin,
			DestinationAddress: dest,
			TravelDate:         s.date,
		})
		origin = dest
	}

	if !calculate {
		return nil, nil
	}

	calcs := make([]travel.Calculation, 0, len(reqs))
	for _, req := range reqs {
		c, err := h.Service.Calculate(ctx, req)
		if err != nil {
			return calcs, fmt.Errorf("shift %s: %w", req.ShiftID, err)
		}
		calcs = append(calcs, *c)
	}
	return calcs, nil
}
