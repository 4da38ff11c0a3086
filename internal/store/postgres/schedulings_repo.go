package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type SchedulingRepo struct {
	db *bun.DB
	tz string
}

// NewSchedulingRepo builds the repo. timezone is the IANA zone used to bucket
// bookings into calendar days for the per-day aggregate; it must match the
// zone the services compute days in.
func NewSchedulingRepo(db *bun.DB, timezone string) *SchedulingRepo {
	if timezone == "" {
		timezone = "UTC"
	}
	return &SchedulingRepo{db: db, tz: timezone}
}

func (r *SchedulingRepo) Create(ctx context.Context, s domain.Scheduling) (domain.Scheduling, error) {
	m := s
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Scheduling{}, store.ErrConflict
		}
		return domain.Scheduling{}, err
	}
	return m, nil
}

func (r *SchedulingRepo) FindAt(ctx context.Context, userID uuid.UUID, date time.Time) (domain.Scheduling, error) {
	var s domain.Scheduling
	err := r.db.NewSelect().
		Model(&s).
		Where("user_id = ?", userID).
		Where("date = ?", date).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Scheduling{}, mapRowError(err)
	}
	return s, nil
}

func (r *SchedulingRepo) ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Scheduling, error) {
	var rows []domain.Scheduling
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("date >= ?", from).
		Where("date <= ?", to).
		OrderExpr("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SchedulingRepo) FindTimeInterval(ctx context.Context, userID uuid.UUID, weekDay int) (domain.TimeInterval, error) {
	var i domain.TimeInterval
	err := r.db.NewSelect().
		Model(&i).
		Where("user_id = ?", userID).
		Where("week_day = ?", weekDay).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.TimeInterval{}, mapRowError(err)
	}
	return i, nil
}

func (r *SchedulingRepo) ListTimeIntervals(ctx context.Context, userID uuid.UUID) ([]domain.TimeInterval, error) {
	var rows []domain.TimeInterval
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("week_day ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type dayCountRow struct {
	Day      int `bun:"day"`
	Booked   int `bun:"booked"`
	Capacity int `bun:"capacity"`
}

// CountBookingsPerDay joins the month's bookings against the weekday's
// availability interval, grouped per calendar day. Days without bookings do
// not appear; the caller handles capacity-0 weekdays itself.
func (r *SchedulingRepo) CountBookingsPerDay(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]store.DayBookingCount, error) {
	var rows []dayCountRow
	err := r.db.NewRaw(`
		SELECT
			EXTRACT(DAY FROM s.date AT TIME ZONE ?)::int AS day,
			COUNT(*)::int AS booked,
			COALESCE(MAX(i.time_end_in_minutes - i.time_start_in_minutes), 0) / 60 AS capacity
		FROM schedulings s
		LEFT JOIN user_time_intervals i
			ON i.user_id = s.user_id
			AND i.week_day = EXTRACT(DOW FROM s.date AT TIME ZONE ?)::int
		WHERE s.user_id = ?
			AND EXTRACT(YEAR FROM s.date AT TIME ZONE ?)::int = ?
			AND EXTRACT(MONTH FROM s.date AT TIME ZONE ?)::int = ?
		GROUP BY 1
		ORDER BY 1`,
		r.tz, r.tz, userID, r.tz, year, r.tz, int(month),
	).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	out := make([]store.DayBookingCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.DayBookingCount{
			Day:      row.Day,
			Booked:   row.Booked,
			Capacity: row.Capacity,
		})
	}
	return out, nil
}
