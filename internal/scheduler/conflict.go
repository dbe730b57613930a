package scheduler

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidClockTime is returned when a time of day is not a zero-padded "HH:MM" value.
	ErrInvalidClockTime = errors.New("scheduler: invalid clock time")
	// ErrInvalidDate is returned when a calendar day is not a "YYYY-MM-DD" value.
	ErrInvalidDate = errors.New("scheduler: invalid date")
	// ErrInvalidTimeRange is returned when an interval does not end strictly after it starts.
	ErrInvalidTimeRange = errors.New("scheduler: end must be after start")
)

// DateLayout is the calendar day format accepted for bookings.
const DateLayout = "2006-01-02"

// ClockTime is a local time of day expressed as minutes since midnight.
type ClockTime int

// ParseClockTime parses a zero-padded 24 hour "HH:MM" value.
func ParseClockTime(value string) (ClockTime, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	hours, ok := twoDigits(value[0], value[1])
	if !ok || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	minutes, ok := twoDigits(value[3], value[4])
	if !ok || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	return ClockTime(hours*60 + minutes), nil
}

// String formats the clock time as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// ParseDate validates a "YYYY-MM-DD" calendar day.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return day, nil
}

// Booking is an operating room reservation for a single calendar day.
type Booking struct {
	ID        string
	Room      string
	Date      string
	Start     ClockTime
	End       ClockTime
	Cancelled bool
}

// Validate reports ErrInvalidTimeRange for empty or inverted intervals.
// Intervals crossing midnight are inverted on a single day and are rejected too.
func (b Booking) Validate() error {
	if b.End <= b.Start {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, b.Start, b.End)
	}
	return nil
}

// Conflict details an existing booking that overlaps the candidate.
type Conflict struct {
	WithBookingID string
	Room          string
	Date          string
	Start         ClockTime
	End           ClockTime
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one minute.
func Overlaps(aStart, aEnd, bStart, bEnd ClockTime) bool {
	return aStart < bEnd && bStart < aEnd
}

// DetectConflicts identifies bookings that the candidate would double-book.
// Cancelled bookings, other rooms, other dates and the candidate's own
// identifier never conflict.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	for _, booking := range existing {
		if booking.Cancelled || booking.Room != candidate.Room || booking.Date != candidate.Date {
			continue
		}
		if candidate.ID != "" && booking.ID == candidate.ID {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, booking.Start, booking.End) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithBookingID: booking.ID,
			Room:          booking.Room,
			Date:          booking.Date,
			Start:         booking.Start,
			End:           booking.End,
		})
	}
	return conflicts
}

// HasConflict reports whether the candidate overlaps any active booking in
// the same room on the same day.
func HasConflict(candidate Booking, existing []Booking) bool {
	return len(DetectConflicts(existing, candidate)) > 0
}
