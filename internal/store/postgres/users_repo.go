package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m := user
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, store.ErrConflict
		}
		return domain.User{}, err
	}
	return m, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, mapRowError(err)
	}
	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, mapRowError(err)
	}
	return u, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, bio, avatarURL string) error {
	res, err := r.db.NewUpdate().
		Model((*domain.User)(nil)).
		Set("bio = ?", bio).
		Set("avatar_url = ?", avatarURL).
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

// ReplaceTimeIntervals swaps the user's weekly availability wholesale. The
// advisory lock serializes concurrent replacements for the same user so the
// delete-then-insert pair never interleaves.
func (r *UserRepo) ReplaceTimeIntervals(ctx context.Context, userID uuid.UUID, intervals []domain.TimeInterval) ([]domain.TimeInterval, error) {
	out := make([]domain.TimeInterval, 0, len(intervals))
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUserSchedule(ctx, tx, userID); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*domain.TimeInterval)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}

		for _, in := range intervals {
			m := in
			m.UserID = userID
			if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
				if isUniqueViolation(err) {
					return store.ErrConflict
				}
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockUserSchedule(ctx context.Context, tx bun.Tx, userID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", userID.String()).Exec(ctx)
	return err
}
