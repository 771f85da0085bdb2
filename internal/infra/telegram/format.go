// internal/infra/telegram/format.go
package telegram

import (
	"errors"
	"fmt"
	"strings"

	"student_schedule_bot/internal/app"
	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/domain/schedule"
)

const (
	doneCallbackPrefix = "done_"
	shortIDLen         = 8
)

var (
	errBadFormat   = errors.New("wrong number of fields")
	errNoMatch     = errors.New("no record with that id")
	errAmbiguousID = errors.New("id prefix matches more than one record")
)

// splitFields splits a command payload on "|" and trims every field.
func splitFields(payload string) []string {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	parts := strings.Split(payload, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseAssignmentArgs reads
// "<title> | <course> | <date> | <time> [| <priority> [| <description>]]".
func parseAssignmentArgs(payload string) (app.AddAssignmentRequest, error) {
	f := splitFields(payload)
	if len(f) < 4 || len(f) > 6 {
		return app.AddAssignmentRequest{}, errBadFormat
	}
	req := app.AddAssignmentRequest{
		Title:      f[0],
		CourseCode: f[1],
		DueDate:    f[2],
		DueTime:    f[3],
	}
	if len(f) > 4 {
		req.Priority = capitalize(f[4])
	}
	if len(f) > 5 {
		req.Description = f[5]
	}
	return req, nil
}

// parseClassArgs reads "<name> | <course> | <building> | <room> | <start> |
// <end> | <days> | <start date> | <end date> [| <instructor> [| <notes>]]".
func parseClassArgs(payload string) (app.AddClassRequest, error) {
	f := splitFields(payload)
	if len(f) < 9 || len(f) > 11 {
		return app.AddClassRequest{}, errBadFormat
	}
	req := app.AddClassRequest{
		Name:       f[0],
		CourseCode: f[1],
		Building:   f[2],
		Room:       f[3],
		StartTime:  f[4],
		EndTime:    f[5],
		DaysOfWeek: splitDays(f[6]),
		StartDate:  f[7],
		EndDate:    f[8],
	}
	if len(f) > 9 {
		req.Instructor = f[9]
	}
	if len(f) > 10 {
		req.Notes = f[10]
	}
	return req, nil
}

func splitDays(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// matchID resolves a full id or a unique prefix of one.
func matchID(ids []string, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errNoMatch
	}
	var found string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if found != "" {
				return "", errAmbiguousID
			}
			found = id
		}
	}
	if found == "" {
		return "", errNoMatch
	}
	return found, nil
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func reminderText(p reminder.Payload) string {
	return p.Title + "\n" + p.Body
}

func renderList(classes []*schedule.Class, upcoming []app.DueAssignment) string {
	var b strings.Builder
	b.WriteString("Classes:\n")
	if len(classes) == 0 {
		b.WriteString("  none\n")
	}
	for _, c := range classes {
		fmt.Fprintf(&b, "  [%s] %s %s, %s %s-%s, %s\n", shortID(c.ID), c.CourseCode, c.Name,
			strings.Join(c.DaysOfWeek, "/"), c.StartTime, c.EndTime, strings.TrimSpace(c.Building+" "+c.Room))
	}
	b.WriteString("\nOpen assignments:\n")
	if len(upcoming) == 0 {
		b.WriteString("  none\n")
	}
	for _, d := range upcoming {
		a := d.Assignment
		fmt.Fprintf(&b, "  [%s] %s (%s) due %s %s, %s\n", shortID(a.ID), a.Title, a.CourseCode,
			a.DueDate, a.DueTime, a.Priority.Normalize())
	}
	return b.String()
}

func renderWeek(w *app.WeekView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s\n", w.From.Format("Mon Jan 2"))
	mi, ai := 0, 0
	for day := w.From; day.Before(w.To); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		var lines []string
		for ; mi < len(w.Meetings) && w.Meetings[mi].Start.Before(next); mi++ {
			m := w.Meetings[mi]
			lines = append(lines, fmt.Sprintf("  %s-%s %s %s", m.Start.Format("3:04 PM"), m.End.Format("3:04 PM"),
				m.Class.CourseCode, strings.TrimSpace(m.Class.Building+" "+m.Class.Room)))
		}
		for ; ai < len(w.Assignments) && w.Assignments[ai].Due.Before(next); ai++ {
			a := w.Assignments[ai].Assignment
			mark := "📝"
			if a.Completed {
				mark = "✅"
			}
			lines = append(lines, fmt.Sprintf("  %s %s (%s) due %s", mark, a.Title, a.CourseCode, a.DueTime))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", day.Format("Mon Jan 2"), strings.Join(lines, "\n"))
	}
	if len(w.Meetings) == 0 && len(w.Assignments) == 0 {
		b.WriteString("\nNothing scheduled.")
	}
	return b.String()
}
