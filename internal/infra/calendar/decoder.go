// internal/infra/calendar/decoder.go
package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"

	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
)

// ErrUnsupportedEvent is returned for events this exporter did not write.
var ErrUnsupportedEvent = errors.New("unsupported calendar event")

// rruleDayTokens is indexed by rrule.Weekday.Day() (0 = Monday).
var rruleDayTokens = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Document holds the records recovered from an interchange document.
type Document struct {
	Classes     []*schedule.Class
	Assignments []*schedule.Assignment
}

// Decode parses a document produced by Encoder. Events that cannot be
// mapped back to a class or assignment are logged and skipped.
func Decode(r io.Reader, logger *logrus.Entry) (*Document, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	doc := &Document{}
	for _, ve := range cal.Events() {
		uid := propValue(ve, ical.ComponentPropertyUniqueId)
		var derr error
		switch {
		case strings.HasPrefix(uid, classUIDPrefix):
			var c *schedule.Class
			if c, derr = decodeClass(ve, strings.TrimPrefix(uid, classUIDPrefix)); derr == nil {
				doc.Classes = append(doc.Classes, c)
			}
		case strings.HasPrefix(uid, assignmentUIDPrefix):
			var a *schedule.Assignment
			if a, derr = decodeAssignment(ve, strings.TrimPrefix(uid, assignmentUIDPrefix)); derr == nil {
				doc.Assignments = append(doc.Assignments, a)
			}
		default:
			derr = fmt.Errorf("%w: uid %q", ErrUnsupportedEvent, uid)
		}
		if derr != nil {
			logger.WithField("uid", uid).WithError(derr).Warn("Skipping calendar event")
		}
	}
	logger.WithFields(logrus.Fields{
		"classes":     len(doc.Classes),
		"assignments": len(doc.Assignments),
	}).Info("Calendar document decoded")
	return doc, nil
}

func decodeClass(ve *ical.VEvent, id string) (*schedule.Class, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty class id", ErrUnsupportedEvent)
	}
	start, err := parseFloating(propValue(ve, ical.ComponentPropertyDtStart))
	if err != nil {
		return nil, err
	}
	end, err := parseFloating(propValue(ve, ical.ComponentPropertyDtEnd))
	if err != nil {
		return nil, err
	}
	opt, err := rrule.StrToROption(propValue(ve, ical.ComponentPropertyRrule))
	if err != nil {
		return nil, fmt.Errorf("%w: rrule: %v", wallclock.ErrMalformedInput, err)
	}
	if opt.Freq != rrule.WEEKLY || len(opt.Byweekday) == 0 || opt.Until.IsZero() {
		return nil, fmt.Errorf("%w: class rule must be weekly with days and an end", ErrUnsupportedEvent)
	}

	days := make([]string, len(opt.Byweekday))
	for i, wd := range opt.Byweekday {
		days[i] = rruleDayTokens[wd.Day()]
	}

	code, name, _ := strings.Cut(propValue(ve, ical.ComponentPropertySummary), ": ")
	building, room := splitLocation(propValue(ve, ical.ComponentPropertyLocation))

	c := &schedule.Class{
		ID:         id,
		Name:       name,
		CourseCode: code,
		Building:   building,
		Room:       room,
		StartTime:  clockOf(start),
		EndTime:    clockOf(end),
		DaysOfWeek: days,
		StartDate:  wallclock.FormatDate(wallclock.DateOf(start)),
		EndDate:    wallclock.FormatDate(wallclock.DateOf(opt.Until)),
	}
	// Notes come last and may span lines.
	head, notes, hasNotes := strings.Cut(propValue(ve, ical.ComponentPropertyDescription), "\nNotes: ")
	if v, ok := strings.CutPrefix(head, "Instructor: "); ok && v != "N/A" {
		c.Instructor = v
	}
	if hasNotes && notes != "None" {
		c.Notes = notes
	}
	return c, nil
}

func decodeAssignment(ve *ical.VEvent, id string) (*schedule.Assignment, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty assignment id", ErrUnsupportedEvent)
	}
	due, err := parseFloating(propValue(ve, ical.ComponentPropertyDtStart))
	if err != nil {
		return nil, err
	}

	a := &schedule.Assignment{
		ID:        id,
		DueDate:   wallclock.FormatDate(wallclock.DateOf(due)),
		DueTime:   clockOf(due),
		Completed: strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), statusCompleted),
		Priority:  schedule.PriorityMedium,
	}

	summary := strings.TrimPrefix(propValue(ve, ical.ComponentPropertySummary), "📝 ")
	if i := strings.LastIndex(summary, " ("); i >= 0 && strings.HasSuffix(summary, ")") {
		a.Title = summary[:i]
		a.CourseCode = summary[i+2 : len(summary)-1]
	} else {
		a.Title = summary
	}

	first, rest, _ := strings.Cut(propValue(ve, ical.ComponentPropertyDescription), "\n")
	if p, ok := strings.CutPrefix(first, "Priority: "); ok && schedule.Priority(p).Valid() {
		a.Priority = schedule.Priority(p)
	} else {
		rest = strings.TrimSpace(first + "\n" + rest)
	}
	a.Description = rest
	return a, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

func parseFloating(v string) (time.Time, error) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "Z")
	t, err := time.ParseInLocation(floatingLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stamp %q", wallclock.ErrMalformedInput, v)
	}
	return t, nil
}

func clockOf(t time.Time) string {
	return wallclock.FormatTime(wallclock.WallTime{Hour: t.Hour(), Minute: t.Minute()})
}

// splitLocation reverses the "<building> <room>" join, taking the last word
// as the room.
func splitLocation(loc string) (building, room string) {
	loc = strings.TrimSpace(loc)
	i := strings.LastIndex(loc, " ")
	if i < 0 {
		return loc, ""
	}
	return loc[:i], loc[i+1:]
}
