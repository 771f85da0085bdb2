// internal/domain/wallclock/weekday.go
package wallclock

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// dayNames are the short weekday tokens used by class schedules, indexed by time.Weekday.
var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayName returns the short token ("Mon") for d.
func WeekdayName(d time.Weekday) string {
	return dayNames[d]
}

// ParseWeekday parses a short weekday token, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(s)
	for i, name := range dayNames {
		if strings.EqualFold(name, s) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: weekday %q, want one of %s", ErrMalformedInput, s, strings.Join(dayNames[:], ","))
}

// ParseWeekdays parses a list of tokens, keeping declared order.
func ParseWeekdays(tokens []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(tokens))
	for _, tok := range tokens {
		d, err := ParseWeekday(tok)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// NextOccurrence scans forward from `from` (inclusive) across at most seven
// days and returns the first date whose weekday is in days. The boolean is
// false when days is empty.
func NextOccurrence(days []time.Weekday, from CalendarDate) (CalendarDate, bool) {
	if len(days) == 0 {
		return CalendarDate{}, false
	}
	d := from
	for i := 0; i < 7; i++ {
		if slices.Contains(days, d.Weekday()) {
			return d, true
		}
		d = d.AddDays(1)
	}
	return CalendarDate{}, false
}
