package users

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

func validationError(msg string) error {
	return NewValidationError(msg)
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,29}$`)

type Service struct {
	repo store.UserRepository
}

func NewService(repo store.UserRepository) *Service {
	return &Service{repo: repo}
}

type RegisterInput struct {
	Name     string
	Username string
}

// Register creates the booking-page owner. Username uniqueness is enforced by
// the storage constraint and surfaces as store.ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, validationError("name is required")
	}
	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return domain.User{}, validationError("username must be 3-30 lowercase letters, digits or hyphens")
	}

	return s.repo.Create(ctx, domain.User{
		Username: username,
		Name:     name,
	})
}

type UpdateProfileInput struct {
	Bio       string
	AvatarURL string
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) error {
	if userID == uuid.Nil {
		return validationError("user_id is required")
	}
	return s.repo.UpdateProfile(ctx, userID, in.Bio, in.AvatarURL)
}

type IntervalInput struct {
	WeekDay      int
	StartMinutes int
	EndMinutes   int
}

// ReplaceTimeIntervals swaps the user's whole weekly availability. Intervals
// must be hour-aligned and unique per weekday; both are rejected here so slot
// generation stays well-defined at query time.
func (s *Service) ReplaceTimeIntervals(ctx context.Context, userID uuid.UUID, inputs []IntervalInput) ([]domain.TimeInterval, error) {
	if userID == uuid.Nil {
		return nil, validationError("user_id is required")
	}
	if len(inputs) == 0 {
		return nil, validationError("at least one interval is required")
	}

	seen := make(map[int]struct{}, len(inputs))
	intervals := make([]domain.TimeInterval, 0, len(inputs))
	for _, in := range inputs {
		interval := domain.TimeInterval{
			UserID:       userID,
			WeekDay:      in.WeekDay,
			StartMinutes: in.StartMinutes,
			EndMinutes:   in.EndMinutes,
		}
		if err := interval.Validate(); err != nil {
			return nil, validationError(err.Error())
		}
		if _, ok := seen[in.WeekDay]; ok {
			return nil, validationError("only one interval per weekday is allowed")
		}
		seen[in.WeekDay] = struct{}{}
		intervals = append(intervals, interval)
	}

	return s.repo.ReplaceTimeIntervals(ctx, userID, intervals)
}
