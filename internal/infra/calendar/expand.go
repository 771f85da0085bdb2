// internal/infra/calendar/expand.go
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
)

// rruleWeekdays is indexed by time.Weekday.
var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Meeting is one concrete occurrence of a class.
type Meeting struct {
	Class *schedule.Class
	Start time.Time
	End   time.Time
}

// ClassRule builds the weekly recurrence of a class in loc, bounded by its
// start date and the end of its last day.
func ClassRule(c *schedule.Class, loc *time.Location) (*rrule.RRule, error) {
	startDate, err := wallclock.ParseDate(c.StartDate)
	if err != nil {
		return nil, fmt.Errorf("class %s start date: %w", c.ID, err)
	}
	endDate, err := wallclock.ParseDate(c.EndDate)
	if err != nil {
		return nil, fmt.Errorf("class %s end date: %w", c.ID, err)
	}
	startTime, err := wallclock.ParseTime(c.StartTime)
	if err != nil {
		return nil, fmt.Errorf("class %s start time: %w", c.ID, err)
	}
	days, err := wallclock.ParseWeekdays(c.DaysOfWeek)
	if err != nil {
		return nil, fmt.Errorf("class %s days: %w", c.ID, err)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("class %s: %w: no meeting days", c.ID, wallclock.ErrMalformedInput)
	}

	byDay := make([]rrule.Weekday, len(days))
	for i, d := range days {
		byDay[i] = rruleWeekdays[d]
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Dtstart:   startDate.At(startTime, loc),
		Until:     endDate.EndOfDay(loc),
	})
}

// ExpandMeetings lists the meetings of classes that start in [from, to),
// sorted by start time. Classes that meet on no day are skipped.
func ExpandMeetings(classes []*schedule.Class, from, to time.Time, loc *time.Location) ([]Meeting, error) {
	var out []Meeting
	for _, c := range classes {
		if len(c.DaysOfWeek) == 0 {
			continue
		}
		rule, err := ClassRule(c, loc)
		if err != nil {
			return nil, err
		}
		endTime, err := wallclock.ParseTime(c.EndTime)
		if err != nil {
			return nil, fmt.Errorf("class %s end time: %w", c.ID, err)
		}
		for _, start := range rule.Between(from, to, true) {
			if !start.Before(to) {
				continue
			}
			end := wallclock.DateOf(start).At(endTime, loc)
			out = append(out, Meeting{Class: c, Start: start, End: end})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
