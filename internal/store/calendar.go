package store

import (
	"context"

	"github.com/google/uuid"

	"slotbook/internal/domain"
)

type CalendarAccountRepository interface {
	// Get returns ErrNotFound when the user never linked the provider.
	Get(ctx context.Context, userID uuid.UUID, provider string) (domain.CalendarAccount, error)
	// UpdateTokens replaces the stored credential after a successful refresh.
	// Last writer wins; tokens are idempotently replaceable.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt int64) error
}
