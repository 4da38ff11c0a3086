package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const CalendarProviderGoogle = "google"

// CalendarAccount holds the OAuth credential for a user's linked external
// calendar, one row per (user, provider). ExpiresAt is whole seconds since
// epoch; zero means the access token never expires.
type CalendarAccount struct {
	bun.BaseModel `bun:"table:calendar_accounts"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	UserID       uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Provider     string    `bun:"provider,notnull"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token"`
	ExpiresAt    int64     `bun:"expires_at"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (a *CalendarAccount) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// Expired reports whether the stored access token is past its expiry at the
// given instant. A zero expiry never expires.
func (a CalendarAccount) Expired(now time.Time) bool {
	return a.ExpiresAt != 0 && a.ExpiresAt <= now.Unix()
}
