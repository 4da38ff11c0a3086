package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"slotbook/internal/service/users"
)

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "Register"))

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	user, err := s.users.Register(r.Context(), users.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)

	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Name:      user.Name,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
	})
}

type updateProfileRequest struct {
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "UpdateProfile"))

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	err = s.users.UpdateProfile(r.Context(), userID, users.UpdateProfileInput{
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type intervalRequest struct {
	WeekDay      int `json:"weekDay"`
	StartMinutes int `json:"startTimeInMinutes"`
	EndMinutes   int `json:"endTimeInMinutes"`
}

type timeIntervalsRequest struct {
	Intervals []intervalRequest `json:"intervals"`
}

func (s *Server) handleReplaceTimeIntervals(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ReplaceTimeIntervals"))

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req timeIntervalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	inputs := make([]users.IntervalInput, 0, len(req.Intervals))
	for _, in := range req.Intervals {
		inputs = append(inputs, users.IntervalInput{
			WeekDay:      in.WeekDay,
			StartMinutes: in.StartMinutes,
			EndMinutes:   in.EndMinutes,
		})
	}

	if _, err := s.users.ReplaceTimeIntervals(r.Context(), userID, inputs); err != nil {
		s.writeServiceError(w, log, err)
		return
	}

	log.Info("time intervals replaced",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(inputs)),
	)

	w.WriteHeader(http.StatusCreated)
}
