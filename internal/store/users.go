package store

import (
	"context"

	"github.com/google/uuid"

	"slotbook/internal/domain"
)

type UserRepository interface {
	// Create persists a new user. ErrConflict when the username is taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// FindByUsername returns ErrNotFound for unknown usernames.
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, bio, avatarURL string) error

	// ReplaceTimeIntervals swaps the user's whole weekly availability in one
	// transaction. ErrConflict when two intervals share a weekday.
	ReplaceTimeIntervals(ctx context.Context, userID uuid.UUID, intervals []domain.TimeInterval) ([]domain.TimeInterval, error)
}
