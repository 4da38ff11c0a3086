package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"slotbook/internal/service/scheduling"
)

type availabilityResponse struct {
	PossibleTimes  []int `json:"possibleTimes"`
	AvailableTimes []int `json:"availableTimes"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "Availability"))

	username := r.PathValue("username")
	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		writeError(w, http.StatusBadRequest, "Date not provided.")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", rawDate, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	av, err := s.scheduling.Availability(r.Context(), username, date)
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		PossibleTimes:  av.PossibleTimes,
		AvailableTimes: av.AvailableTimes,
	})
}

type blockedDatesResponse struct {
	BlockedWeekDays []int `json:"blockedWeekDays"`
	BlockedDates    []int `json:"blockedDates"`
}

func (s *Server) handleBlockedDates(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "BlockedDates"))

	username := r.PathValue("username")
	rawYear := r.URL.Query().Get("year")
	rawMonth := r.URL.Query().Get("month")
	if rawYear == "" || rawMonth == "" {
		writeError(w, http.StatusBadRequest, "Year or month not specified.")
		return
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be a number")
		return
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be a number")
		return
	}

	blockage, err := s.scheduling.BlockedDates(r.Context(), username, year, time.Month(month))
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, blockedDatesResponse{
		BlockedWeekDays: blockage.BlockedWeekDays,
		BlockedDates:    blockage.BlockedDates,
	})
}

type createSchedulingRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Observations string `json:"observations"`
	Date         string `json:"date"`
}

type createSchedulingResponse struct {
	ID                string `json:"id"`
	Date              string `json:"date"`
	CalendarSynced    bool   `json:"calendarSynced"`
	CalendarSyncError string `json:"calendarSyncError,omitempty"`
}

func (s *Server) handleCreateScheduling(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CreateScheduling"))

	username := r.PathValue("username")

	var req createSchedulingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be an ISO-8601 date-time")
		return
	}

	out, err := s.scheduling.Create(r.Context(), username, scheduling.CreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Observations: req.Observations,
		Date:         date,
	})
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}

	log.Info("scheduling created",
		slog.String("scheduling_id", out.Scheduling.ID.String()),
		slog.String("username", username),
		slog.Time("date", out.Scheduling.Date),
		slog.Bool("calendar_synced", out.CalendarSynced),
	)

	resp := createSchedulingResponse{
		ID:             out.Scheduling.ID.String(),
		Date:           out.Scheduling.Date.Format(time.RFC3339),
		CalendarSynced: out.CalendarSynced,
	}
	// The booking is durable even when mirroring failed; surface the degraded
	// outcome instead of failing the request.
	if out.CalendarError != nil {
		log.Warn("calendar mirroring failed",
			slog.String("scheduling_id", out.Scheduling.ID.String()),
			slog.Any("err", out.CalendarError),
		)
		resp.CalendarSyncError = "calendar event was not created"
	}

	writeJSON(w, http.StatusCreated, resp)
}
