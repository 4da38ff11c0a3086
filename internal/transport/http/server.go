package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/service/scheduling"
	"slotbook/internal/service/users"
	"slotbook/internal/store"
)

type schedulingService interface {
	Availability(ctx context.Context, username string, date time.Time) (scheduling.Availability, error)
	BlockedDates(ctx context.Context, username string, year int, month time.Month) (scheduling.MonthBlockage, error)
	Create(ctx context.Context, username string, in scheduling.CreateInput) (scheduling.CreateOutput, error)
}

type usersService interface {
	Register(ctx context.Context, in users.RegisterInput) (domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in users.UpdateProfileInput) error
	ReplaceTimeIntervals(ctx context.Context, userID uuid.UUID, inputs []users.IntervalInput) ([]domain.TimeInterval, error)
}

// Server is the JSON surface consumed by the booking page front end.
type Server struct {
	scheduling schedulingService
	users      usersService
	log        *slog.Logger
	loc        *time.Location
}

// NewServer builds the handler set. loc is the zone calendar-date query
// params are interpreted in; it must match the zone the services compute in.
func NewServer(schedulingSvc schedulingService, usersSvc usersService, log *slog.Logger, loc *time.Location) *Server {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Server{
		scheduling: schedulingSvc,
		users:      usersSvc,
		log:        log.With(slog.String("component", "http")),
		loc:        loc,
	}
}

// Routes assembles the mux with the standard middleware stack.
func (s *Server) Routes(requestTimeout time.Duration, bodyLimit int64) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /users", s.handleRegister)
	mux.HandleFunc("PUT /users/{id}/profile", s.handleUpdateProfile)
	mux.HandleFunc("PUT /users/{id}/time-intervals", s.handleReplaceTimeIntervals)

	mux.HandleFunc("GET /users/{username}/availability", s.handleAvailability)
	mux.HandleFunc("GET /users/{username}/blocked-dates", s.handleBlockedDates)
	mux.HandleFunc("POST /users/{username}/schedulings", s.handleCreateScheduling)

	return Chain(mux,
		WithRequestID,
		WithLogging(s.log),
		WithBodyLimit(bodyLimit),
		WithTimeout(requestTimeout),
	)
}

// writeServiceError maps service and store errors onto status codes. Unknown
// errors are logged and reported as a plain 500 so internals never leak.
func (s *Server) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var schedVErr *scheduling.ValidationError
	var usersVErr *users.ValidationError
	var argErr *scheduling.InvalidArgumentError

	switch {
	case errors.As(err, &schedVErr):
		writeError(w, http.StatusBadRequest, schedVErr.Error())
	case errors.As(err, &usersVErr):
		writeError(w, http.StatusBadRequest, usersVErr.Error())
	case errors.As(err, &argErr):
		writeError(w, http.StatusBadRequest, argErr.Error())
	case errors.Is(err, scheduling.ErrPastDate):
		writeError(w, http.StatusBadRequest, "Date is in the past.")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "User does not exist.")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "There is another scheduling at the same time.")
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
