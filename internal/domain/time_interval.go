package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const minutesPerHour = 60

// ErrUnalignedInterval reports a stored availability window whose boundaries
// do not fall on whole hours. Slot granularity is one hour, so such a row is
// a data error, never something to truncate silently.
var ErrUnalignedInterval = errors.New("time interval is not aligned to whole hours")

// TimeInterval is a weekly-repeating availability rule: on WeekDay the owner
// is bookable between StartMinutes and EndMinutes (offsets from midnight,
// half-open). A user has at most one interval per weekday.
type TimeInterval struct {
	bun.BaseModel `bun:"table:user_time_intervals"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	UserID       uuid.UUID `bun:"user_id,notnull,type:uuid"`
	WeekDay      int       `bun:"week_day,notnull"`
	StartMinutes int       `bun:"time_start_in_minutes,notnull"`
	EndMinutes   int       `bun:"time_end_in_minutes,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (i *TimeInterval) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if i.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			i.ID = id
		}
		if i.CreatedAt.IsZero() {
			i.CreatedAt = now
		}
		if i.UpdatedAt.IsZero() {
			i.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		i.UpdatedAt = now
	}
	return nil
}

// Validate enforces the creation-time invariants: weekday in 0..6 (Sunday=0),
// start before end, both boundaries on whole hours.
func (i TimeInterval) Validate() error {
	if i.WeekDay < 0 || i.WeekDay > 6 {
		return fmt.Errorf("week_day must be between 0 and 6, got %d", i.WeekDay)
	}
	if i.StartMinutes < 0 || i.EndMinutes > 24*minutesPerHour {
		return fmt.Errorf("interval must fall within a single day")
	}
	if i.StartMinutes >= i.EndMinutes {
		return fmt.Errorf("interval start must be before its end")
	}
	if i.StartMinutes%minutesPerHour != 0 || i.EndMinutes%minutesPerHour != 0 {
		return ErrUnalignedInterval
	}
	return nil
}

// HourRange converts the minute offsets to whole hours. Fails with
// ErrUnalignedInterval rather than truncating.
func (i TimeInterval) HourRange() (startHour, endHour int, err error) {
	if i.StartMinutes%minutesPerHour != 0 || i.EndMinutes%minutesPerHour != 0 {
		return 0, 0, ErrUnalignedInterval
	}
	return i.StartMinutes / minutesPerHour, i.EndMinutes / minutesPerHour, nil
}

// Capacity is the number of one-hour slots the interval implies.
func (i TimeInterval) Capacity() int {
	return (i.EndMinutes - i.StartMinutes) / minutesPerHour
}
