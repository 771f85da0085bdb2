// internal/infra/calendar/encoder.go
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
)

const (
	productID = "-//Student Schedule Bot//Schedule Export//EN"

	// floatingLayout is a local wall-clock stamp with no zone suffix.
	floatingLayout = "20060102T150405"

	classUIDPrefix      = "class-"
	assignmentUIDPrefix = "assignment-"

	categoryClass      = "CLASS"
	categoryAssignment = "ASSIGNMENT"

	statusCompleted   = "COMPLETED"
	statusNeedsAction = "NEEDS-ACTION"
)

// rruleDays maps time.Weekday to its RRULE BYDAY token.
var rruleDays = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Event is one calendar entry before serialization. Start and End are
// floating wall-clock values; only their date and clock fields are written.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	RRule       string
	Categories  []string

	// Assignment-only fields. Priority zero means absent.
	Status   string
	Priority int
}

// EncodeClass turns a class into a weekly recurring event starting on its
// first day and repeating through the end of its last day.
func EncodeClass(c *schedule.Class) (Event, error) {
	startDate, err := wallclock.ParseDate(c.StartDate)
	if err != nil {
		return Event{}, fmt.Errorf("class %s start date: %w", c.ID, err)
	}
	endDate, err := wallclock.ParseDate(c.EndDate)
	if err != nil {
		return Event{}, fmt.Errorf("class %s end date: %w", c.ID, err)
	}
	startTime, err := wallclock.ParseTime(c.StartTime)
	if err != nil {
		return Event{}, fmt.Errorf("class %s start time: %w", c.ID, err)
	}
	endTime, err := wallclock.ParseTime(c.EndTime)
	if err != nil {
		return Event{}, fmt.Errorf("class %s end time: %w", c.ID, err)
	}
	days, err := wallclock.ParseWeekdays(c.DaysOfWeek)
	if err != nil {
		return Event{}, fmt.Errorf("class %s days: %w", c.ID, err)
	}

	return Event{
		UID:         classUIDPrefix + c.ID,
		Summary:     fmt.Sprintf("%s: %s", c.CourseCode, c.Name),
		Description: fmt.Sprintf("Instructor: %s\nNotes: %s", orDefault(c.Instructor, "N/A"), orDefault(c.Notes, "None")),
		Location:    strings.TrimSpace(c.Building + " " + c.Room),
		Start:       startDate.At(startTime, time.UTC),
		End:         startDate.At(endTime, time.UTC),
		RRule:       weeklyRule(days, endDate),
		Categories:  []string{categoryClass},
	}, nil
}

// EncodeAssignment turns an assignment into a point-in-time event at its
// due instant.
func EncodeAssignment(a *schedule.Assignment) (Event, error) {
	due, err := wallclock.ParseDateTime(a.DueDate, a.DueTime, time.UTC)
	if err != nil {
		return Event{}, fmt.Errorf("assignment %s due: %w", a.ID, err)
	}

	status := statusNeedsAction
	if a.Completed {
		status = statusCompleted
	}
	description := "Priority: " + string(a.Priority.Normalize())
	if a.Description != "" {
		description += "\n" + a.Description
	}

	return Event{
		UID:         assignmentUIDPrefix + a.ID,
		Summary:     fmt.Sprintf("📝 %s (%s)", a.Title, a.CourseCode),
		Description: description,
		Start:       due,
		End:         due,
		Categories:  []string{categoryAssignment},
		Status:      status,
		Priority:    a.Priority.Rank(),
	}, nil
}

func weeklyRule(days []time.Weekday, until wallclock.CalendarDate) string {
	tokens := make([]string, len(days))
	for i, d := range days {
		tokens[i] = rruleDays[d]
	}
	return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%04d%02d%02dT235959",
		strings.Join(tokens, ","), until.Year, until.Month, until.Day)
}

// lineBreaks folds CRLF and bare CR into LF, the only break the TEXT
// escaping encodes.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Encoder writes whole calendar documents.
type Encoder struct {
	name     string
	timezone string
	now      func() time.Time
}

// NewEncoder returns an encoder whose documents carry calendarName and the
// zone name of loc in their header.
func NewEncoder(calendarName string, loc *time.Location) *Encoder {
	if loc == nil {
		loc = time.Local
	}
	return &Encoder{name: calendarName, timezone: loc.String(), now: time.Now}
}

// WithClock overrides the clock used for DTSTAMP.
func (e *Encoder) WithClock(now func() time.Time) *Encoder {
	e.now = now
	return e
}

// EncodeDocument renders every class, then every assignment, in input order.
func (e *Encoder) EncodeDocument(classes []*schedule.Class, assignments []*schedule.Assignment) (string, error) {
	events := make([]Event, 0, len(classes)+len(assignments))
	for _, c := range classes {
		ev, err := EncodeClass(c)
		if err != nil {
			return "", err
		}
		events = append(events, ev)
	}
	for _, a := range assignments {
		ev, err := EncodeAssignment(a)
		if err != nil {
			return "", err
		}
		events = append(events, ev)
	}
	return e.Serialize(events), nil
}

// Serialize writes the header, one VEVENT per event and the footer.
func (e *Encoder) Serialize(events []Event) string {
	cal := ical.NewCalendarFor("Student Schedule Bot")
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(e.name)
	cal.SetXWRCalDesc("Class schedule and assignments")
	cal.SetXWRTimezone(e.timezone)

	stamp := e.now().UTC()
	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetDtStampTime(stamp)
		ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start.Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End.Format(floatingLayout))
		ve.SetSummary(lineBreaks.Replace(ev.Summary))
		ve.SetDescription(lineBreaks.Replace(ev.Description))
		ve.SetLocation(lineBreaks.Replace(ev.Location))
		if ev.RRule != "" {
			ve.SetProperty(ical.ComponentPropertyRrule, ev.RRule)
		}
		ve.SetProperty(ical.ComponentPropertyCategories, strings.Join(ev.Categories, ","))
		if ev.Status != "" {
			ve.SetProperty(ical.ComponentPropertyStatus, ev.Status)
		}
		if ev.Priority > 0 {
			ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(ev.Priority))
		}
	}
	return cal.Serialize()
}
