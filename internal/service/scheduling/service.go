package scheduling

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

// CalendarGateway mirrors a committed booking into the owner's external
// calendar. Implementations handle the credential lifecycle themselves.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, s domain.Scheduling) error
}

type Service struct {
	users       store.UserRepository
	schedulings store.SchedulingRepository
	accounts    store.CalendarAccountRepository
	calendar    CalendarGateway
	loc         *time.Location
	now         func() time.Time
}

// NewService wires the booking engine. loc is the single zone every day and
// hour computation runs in; nil means UTC. calendar may be nil when no
// provider is configured, which disables mirroring entirely.
func NewService(
	users store.UserRepository,
	schedulings store.SchedulingRepository,
	accounts store.CalendarAccountRepository,
	calendar CalendarGateway,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		users:       users,
		schedulings: schedulings,
		accounts:    accounts,
		calendar:    calendar,
		loc:         loc,
		now:         time.Now,
	}
}

type Availability struct {
	PossibleTimes  []int
	AvailableTimes []int
}

// Availability computes the bookable hours of one calendar day. Read-only.
func (s *Service) Availability(ctx context.Context, username string, date time.Time) (Availability, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Availability{}, validationError("username is required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return Availability{}, err
	}

	empty := Availability{PossibleTimes: []int{}, AvailableTimes: []int{}}

	if domain.EndOfDay(date, s.loc).Before(s.now()) {
		return empty, nil
	}

	weekDay := int(date.In(s.loc).Weekday())
	interval, err := s.schedulings.FindTimeInterval(ctx, user.ID, weekDay)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return empty, nil
		}
		return Availability{}, err
	}

	possible, err := domain.SlotHours(interval)
	if err != nil {
		return Availability{}, fmt.Errorf("availability for %s weekday %d: %w", username, weekDay, err)
	}

	startHour, endHour, err := interval.HourRange()
	if err != nil {
		return Availability{}, err
	}

	from, to := domain.DayWindow(date, startHour, endHour, s.loc)
	booked, err := s.schedulings.ListInRange(ctx, user.ID, from, to)
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		PossibleTimes:  possible,
		AvailableTimes: domain.FreeHours(possible, booked, s.loc),
	}, nil
}

type MonthBlockage struct {
	BlockedWeekDays []int
	BlockedDates    []int
}

// BlockedDates reports the weekdays the user never works and the days of the
// month already saturated by bookings. Read-only.
func (s *Service) BlockedDates(ctx context.Context, username string, year int, month time.Month) (MonthBlockage, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return MonthBlockage{}, validationError("username is required")
	}
	if month < time.January || month > time.December {
		return MonthBlockage{}, invalidArgument("month must be between 1 and 12")
	}
	if year < 1 {
		return MonthBlockage{}, invalidArgument("year must be positive")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return MonthBlockage{}, err
	}

	intervals, err := s.schedulings.ListTimeIntervals(ctx, user.ID)
	if err != nil {
		return MonthBlockage{}, err
	}

	available := make(map[int]struct{}, len(intervals))
	for _, i := range intervals {
		available[i.WeekDay] = struct{}{}
	}

	blockedWeekDays := make([]int, 0, 7)
	for wd := 0; wd < 7; wd++ {
		if _, ok := available[wd]; !ok {
			blockedWeekDays = append(blockedWeekDays, wd)
		}
	}

	blocked := make(map[int]struct{})

	// A weekday with no interval has capacity 0, so every one of its dates is
	// saturated by definition.
	days := domain.DaysInMonth(year, month)
	for day := 1; day <= days; day++ {
		wd := int(time.Date(year, month, day, 0, 0, 0, 0, s.loc).Weekday())
		if _, ok := available[wd]; !ok {
			blocked[day] = struct{}{}
		}
	}

	counts, err := s.schedulings.CountBookingsPerDay(ctx, user.ID, year, month)
	if err != nil {
		return MonthBlockage{}, err
	}
	// >= rather than == guards against anomalies like two bookings squeezed
	// into a capacity-1 window reading as still open.
	for _, c := range counts {
		if c.Booked >= c.Capacity {
			blocked[c.Day] = struct{}{}
		}
	}

	blockedDates := make([]int, 0, len(blocked))
	for day := range blocked {
		blockedDates = append(blockedDates, day)
	}
	sort.Ints(blockedDates)

	return MonthBlockage{
		BlockedWeekDays: blockedWeekDays,
		BlockedDates:    blockedDates,
	}, nil
}

type CreateInput struct {
	Name         string
	Email        string
	Observations string
	Date         time.Time
}

type CreateOutput struct {
	Scheduling domain.Scheduling
	// CalendarSynced is true when the booking was mirrored to the owner's
	// external calendar. CalendarError carries the mirroring failure when the
	// booking committed but the event could not be created; the booking is
	// durable either way.
	CalendarSynced bool
	CalendarError  error
}

// Create runs the booking transaction: validate, resolve owner, truncate to
// the hour, reject past slots, persist behind the (user_id, date) unique
// index, then best-effort calendar mirroring strictly after the commit.
func (s *Service) Create(ctx context.Context, username string, in CreateInput) (CreateOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CreateOutput{}, validationError("name is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return CreateOutput{}, validationError("email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return CreateOutput{}, validationError("email is invalid")
	}
	if in.Date.IsZero() {
		return CreateOutput{}, validationError("date is required")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return CreateOutput{}, validationError("username is required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return CreateOutput{}, err
	}

	// Booking granularity is always on the hour.
	slot := in.Date.UTC().Truncate(time.Hour)

	if slot.Before(s.now()) {
		return CreateOutput{}, ErrPastDate
	}

	// Fail-fast pre-check only; the unique index is the real guard.
	_, err = s.schedulings.FindAt(ctx, user.ID, slot)
	if err == nil {
		return CreateOutput{}, store.ErrConflict
	}
	if !errors.Is(err, store.ErrNotFound) {
		return CreateOutput{}, err
	}

	created, err := s.schedulings.Create(ctx, domain.Scheduling{
		UserID:       user.ID,
		Name:         name,
		Email:        email,
		Observations: in.Observations,
		Date:         slot,
	})
	if err != nil {
		return CreateOutput{}, err
	}

	out := CreateOutput{Scheduling: created}

	if s.calendar == nil {
		return out, nil
	}
	_, err = s.accounts.Get(ctx, user.ID, domain.CalendarProviderGoogle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No linked calendar; mirroring is simply skipped.
			return out, nil
		}
		out.CalendarError = err
		return out, nil
	}

	if err := s.calendar.CreateEvent(ctx, user.ID, created); err != nil {
		out.CalendarError = err
		return out, nil
	}

	out.CalendarSynced = true
	return out, nil
}
