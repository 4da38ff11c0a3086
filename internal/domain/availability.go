package domain

import (
	"time"
)

// SlotHours generates every bookable hour in the interval's half-open
// [startHour, endHour) range.
func SlotHours(interval TimeInterval) ([]int, error) {
	startHour, endHour, err := interval.HourRange()
	if err != nil {
		return nil, err
	}
	hours := make([]int, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		hours = append(hours, h)
	}
	return hours, nil
}

// FreeHours returns the possible hours with every hour already taken by a
// scheduling removed. Booking hours are read in loc, the same zone the
// possible hours were derived in.
func FreeHours(possible []int, booked []Scheduling, loc *time.Location) []int {
	taken := make(map[int]struct{}, len(booked))
	for _, s := range booked {
		taken[s.Date.In(loc).Hour()] = struct{}{}
	}

	free := make([]int, 0, len(possible))
	for _, h := range possible {
		if _, ok := taken[h]; ok {
			continue
		}
		free = append(free, h)
	}
	return free
}

// DayWindow anchors an hour range onto the calendar day of date in loc.
// The returned bounds are inclusive of the end hour so a booking sitting
// exactly on the window's exclusive boundary is still fetched and filtered
// by hour-of-day instead of being missed.
func DayWindow(date time.Time, startHour, endHour int, loc *time.Location) (from, to time.Time) {
	d := date.In(loc)
	from = time.Date(d.Year(), d.Month(), d.Day(), startHour, 0, 0, 0, loc)
	to = time.Date(d.Year(), d.Month(), d.Day(), endHour, 0, 0, 0, loc)
	return from, to
}

// EndOfDay is the last representable second of date's calendar day in loc.
func EndOfDay(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
}

// DaysInMonth is the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
