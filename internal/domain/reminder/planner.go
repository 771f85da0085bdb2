// internal/domain/reminder/planner.go
package reminder

import (
	"fmt"
	"math"
	"time"

	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
)

// ClassLead is how long before a class starts its reminder fires.
const ClassLead = 15 * time.Minute

// tierOffsets lists reminder lead times in hours before the due instant,
// in descending order. Fractions are kept exact through the arithmetic.
var tierOffsets = map[schedule.Priority][]float64{
	schedule.PriorityLow:    {168, 24, 12, 6, 3, 1, 0.5},
	schedule.PriorityMedium: {168, 72, 48, 24, 12, 6, 4, 3, 2, 1, 0.5, 0.25},
	schedule.PriorityHigh:   {5, 4, 3, 2, 1, 0.5, 0.25},
}

// Offsets returns a copy of the lead-time table for tier (unset = Medium).
func Offsets(tier schedule.Priority) []float64 {
	return append([]float64(nil), tierOffsets[tier.Normalize()]...)
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// PlanAssignmentReminders returns one entry per tier offset whose firing
// instant is strictly after now, in table order. Payloads are left empty;
// see AssignmentPlan for rendered payloads.
func PlanAssignmentReminders(due time.Time, tier schedule.Priority, now time.Time) Plan {
	offsets := tierOffsets[tier.Normalize()]
	plan := make(Plan, 0, len(offsets))
	for _, h := range offsets {
		lead := hoursToDuration(h)
		fireAt := due.Add(-lead)
		if !fireAt.After(now) {
			continue
		}
		plan = append(plan, Entry{FireAt: fireAt, Lead: lead})
	}
	return plan
}

// PlanClassReminder plans a single reminder ClassLead before the next
// meeting on or after today's date. A class that never meets, or whose next
// meeting is too close to notify for, yields an empty plan.
func PlanClassReminder(start wallclock.WallTime, days []time.Weekday, now time.Time) Plan {
	next, ok := wallclock.NextOccurrence(days, wallclock.DateOf(now))
	if !ok {
		return Plan{}
	}
	fireAt := next.At(start, now.Location()).Add(-ClassLead)
	if !fireAt.After(now) {
		return Plan{}
	}
	return Plan{{FireAt: fireAt, Lead: ClassLead}}
}

// LeadText renders a lead time for display: whole days from 24h, whole
// hours from 1h, minutes below that.
func LeadText(lead time.Duration) string {
	hours := lead.Hours()
	switch {
	case hours >= 24:
		return fmt.Sprintf("%d day(s)", int(math.Round(hours/24)))
	case hours >= 1:
		return fmt.Sprintf("%d hour(s)", int(math.Round(hours)))
	default:
		return fmt.Sprintf("%d minutes", int(math.Round(hours*60)))
	}
}

// AssignmentPlan parses the assignment's due date and time in loc and
// returns its plan with rendered payloads.
func AssignmentPlan(a *schedule.Assignment, now time.Time, loc *time.Location) (Plan, error) {
	due, err := wallclock.ParseDateTime(a.DueDate, a.DueTime, loc)
	if err != nil {
		return nil, fmt.Errorf("assignment %s due: %w", a.ID, err)
	}
	plan := PlanAssignmentReminders(due, a.Priority, now)
	for i := range plan {
		plan[i].Payload = Payload{
			Title:         fmt.Sprintf("📝 %s due in %s", a.Title, LeadText(plan[i].Lead)),
			Body:          fmt.Sprintf("%s - Due %s at %s", a.CourseCode, a.DueDate, a.DueTime),
			CorrelationID: a.ID,
			Kind:          KindAssignment,
		}
	}
	return plan, nil
}

// ClassPlan parses the class schedule and returns its next-meeting plan.
// now must already be in the class's local zone.
func ClassPlan(c *schedule.Class, now time.Time) (Plan, error) {
	start, err := wallclock.ParseTime(c.StartTime)
	if err != nil {
		return nil, fmt.Errorf("class %s start: %w", c.ID, err)
	}
	days, err := wallclock.ParseWeekdays(c.DaysOfWeek)
	if err != nil {
		return nil, fmt.Errorf("class %s days: %w", c.ID, err)
	}
	plan := PlanClassReminder(start, days, now)
	for i := range plan {
		plan[i].Payload = Payload{
			Title:         fmt.Sprintf("🎓 %s starting soon", c.CourseCode),
			Body:          fmt.Sprintf("%s in %s %s", c.Name, c.Building, c.Room),
			CorrelationID: c.ID,
			Kind:          KindClass,
		}
	}
	return plan, nil
}
