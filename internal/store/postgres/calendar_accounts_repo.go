package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type CalendarAccountRepo struct {
	db *bun.DB
}

func NewCalendarAccountRepo(db *bun.DB) *CalendarAccountRepo {
	return &CalendarAccountRepo{db: db}
}

func (r *CalendarAccountRepo) Get(ctx context.Context, userID uuid.UUID, provider string) (domain.CalendarAccount, error) {
	var a domain.CalendarAccount
	err := r.db.NewSelect().
		Model(&a).
		Where("user_id = ?", userID).
		Where("provider = ?", provider).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.CalendarAccount{}, mapRowError(err)
	}
	return a, nil
}

func (r *CalendarAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt int64) error {
	res, err := r.db.NewUpdate().
		Model((*domain.CalendarAccount)(nil)).
		Set("access_token = ?", accessToken).
		Set("refresh_token = ?", refreshToken).
		Set("expires_at = ?", expiresAt).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
