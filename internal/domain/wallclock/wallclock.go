// internal/domain/wallclock/wallclock.go
package wallclock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedInput is returned when a time or date string does not match the
// expected entry format. Callers must surface it; it indicates bad data upstream.
var ErrMalformedInput = errors.New("malformed input")

// WallTime is a local wall-clock time of day in 24-hour form.
type WallTime struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// CalendarDate is a local calendar date with no time zone attached.
type CalendarDate struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

var timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}) ([AaPp][Mm])$`)

// ParseTime parses a 12-hour "H:MM AM" string. Exactly one space separates
// the minutes from the meridiem; surrounding whitespace is ignored.
func ParseTime(s string) (WallTime, error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return WallTime{}, fmt.Errorf("%w: time %q, want H:MM AM/PM", ErrMalformedInput, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return WallTime{}, fmt.Errorf("%w: time %q out of range", ErrMalformedInput, s)
	}

	pm := strings.EqualFold(m[3], "PM")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return WallTime{Hour: hour, Minute: minute}, nil
}

// FormatTime renders t as "H:MM AM/PM", the inverse of ParseTime.
func FormatTime(t WallTime) string {
	meridiem := "AM"
	if t.Hour >= 12 {
		meridiem = "PM"
	}
	hour := t.Hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute, meridiem)
}

// ParseDate parses a "MM/DD/YYYY" string. Day-of-month combinations the
// month cannot hold (02/30) are accepted and roll over when converted to an
// instant.
func ParseDate(s string) (CalendarDate, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return CalendarDate{}, fmt.Errorf("%w: date %q, want MM/DD/YYYY", ErrMalformedInput, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return CalendarDate{}, fmt.Errorf("%w: date %q has non-numeric component %q", ErrMalformedInput, s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return CalendarDate{}, fmt.Errorf("%w: date %q: %v", ErrMalformedInput, s, err)
		}
		nums[i] = n
	}

	d := CalendarDate{Month: nums[0], Day: nums[1], Year: nums[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 || d.Year < 1 {
		return CalendarDate{}, fmt.Errorf("%w: date %q out of range", ErrMalformedInput, s)
	}
	return d, nil
}

// FormatDate renders d as zero-padded "MM/DD/YYYY", the inverse of ParseDate.
func FormatDate(d CalendarDate) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Month, d.Day, d.Year)
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: int(m), Day: d}
}

// At combines the date with a wall-clock time in loc.
func (d CalendarDate) At(t WallTime, loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// EndOfDay is 23:59:59 on d in loc.
func (d CalendarDate) EndOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 23, 59, 59, 0, loc)
}

// AddDays returns the date n days later, normalizing month and year.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, time.Month(d.Month), d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d CalendarDate) Weekday() time.Weekday {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

// Before reports whether d is strictly earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// ParseDateTime parses a date and time pair into an instant in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTime(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.At(t, loc), nil
}
