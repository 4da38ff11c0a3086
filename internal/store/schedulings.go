package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
)

// DayBookingCount is one calendar day's booked-slot count next to the
// capacity implied by that weekday's availability interval.
type DayBookingCount struct {
	Day      int
	Booked   int
	Capacity int
}

type SchedulingRepository interface {
	// Create persists a booking. ErrConflict when the (user, date) slot is
	// already taken; the unique index is the authoritative guard.
	Create(ctx context.Context, s domain.Scheduling) (domain.Scheduling, error)
	// FindAt returns ErrNotFound when the slot is free.
	FindAt(ctx context.Context, userID uuid.UUID, date time.Time) (domain.Scheduling, error)
	ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Scheduling, error)

	// FindTimeInterval returns ErrNotFound when the user declared no
	// availability for the weekday.
	FindTimeInterval(ctx context.Context, userID uuid.UUID, weekDay int) (domain.TimeInterval, error)
	ListTimeIntervals(ctx context.Context, userID uuid.UUID) ([]domain.TimeInterval, error)

	// CountBookingsPerDay aggregates, for every day of the month that has at
	// least one booking, the booked count and the weekday's slot capacity.
	CountBookingsPerDay(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]DayBookingCount, error)
}
