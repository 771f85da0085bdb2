package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student_schedule_bot/internal/app"
	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/infra/calendar"
)

func TestParseAssignmentArgs(t *testing.T) {
	req, err := parseAssignmentArgs(" Lab 3 | CS101 | 03/10/2025 | 11:59 PM | high | bring goggles ")
	require.NoError(t, err)
	assert.Equal(t, app.AddAssignmentRequest{
		Title:       "Lab 3",
		CourseCode:  "CS101",
		DueDate:     "03/10/2025",
		DueTime:     "11:59 PM",
		Priority:    "High",
		Description: "bring goggles",
	}, req)

	req, err = parseAssignmentArgs("Essay | ENG200 | 04/01/2025 | 9:00 AM")
	require.NoError(t, err)
	assert.Empty(t, req.Priority)

	for _, in := range []string{"", "Essay | ENG200", "a|b|c|d|e|f|g"} {
		_, err := parseAssignmentArgs(in)
		assert.ErrorIs(t, err, errBadFormat, in)
	}
}

func TestParseClassArgs(t *testing.T) {
	req, err := parseClassArgs("Intro | CS101 | Hall A | 101 | 9:00 AM | 9:50 AM | Mon, Wed,Fri | 01/06/2025 | 05/02/2025 | Dr. Smith")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Wed", "Fri"}, req.DaysOfWeek)
	assert.Equal(t, "Dr. Smith", req.Instructor)
	assert.Empty(t, req.Notes)
	assert.Equal(t, "05/02/2025", req.EndDate)

	_, err = parseClassArgs("Intro | CS101 | Hall A")
	assert.ErrorIs(t, err, errBadFormat)
}

func TestMatchID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}

	got, err := matchID(ids, "xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", got)

	got, err = matchID(ids, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	_, err = matchID(ids, "ab")
	assert.ErrorIs(t, err, errAmbiguousID)

	_, err = matchID(ids, "q")
	assert.ErrorIs(t, err, errNoMatch)

	_, err = matchID(ids, " ")
	assert.ErrorIs(t, err, errNoMatch)
}

func TestMatchIDPrefersExactMatch(t *testing.T) {
	got, err := matchID([]string{"ab", "abc"}, "ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestReminderText(t *testing.T) {
	p := reminder.Payload{Title: "🎓 CS101 starting soon", Body: "Intro in Hall A 101"}
	assert.Equal(t, "🎓 CS101 starting soon\nIntro in Hall A 101", reminderText(p))
}

func TestRenderListEmpty(t *testing.T) {
	out := renderList(nil, nil)
	assert.Contains(t, out, "Classes:\n  none")
	assert.Contains(t, out, "Open assignments:\n  none")
}

func TestRenderListShortensIDs(t *testing.T) {
	classes := []*schedule.Class{{
		ID: "0123456789abcdef", Name: "Intro", CourseCode: "CS101", Building: "Hall A", Room: "101",
		StartTime: "9:00 AM", EndTime: "9:50 AM", DaysOfWeek: []string{"Mon", "Wed"},
	}}
	upcoming := []app.DueAssignment{{
		Assignment: &schedule.Assignment{ID: "fedcba9876543210", Title: "Lab 3", CourseCode: "CS101", DueDate: "03/10/2025", DueTime: "11:59 PM"},
	}}

	out := renderList(classes, upcoming)
	assert.Contains(t, out, "[01234567] CS101 Intro, Mon/Wed 9:00 AM-9:50 AM, Hall A 101")
	assert.Contains(t, out, "[fedcba98] Lab 3 (CS101) due 03/10/2025 11:59 PM, Medium")
}

func TestRenderWeekGroupsByDay(t *testing.T) {
	loc := time.UTC
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, loc) // Monday
	class := &schedule.Class{CourseCode: "CS101", Building: "Hall A", Room: "101"}
	w := &app.WeekView{
		From: from,
		To:   from.AddDate(0, 0, 7),
		Meetings: []calendar.Meeting{
			{Class: class, Start: from.Add(9 * time.Hour), End: from.Add(9*time.Hour + 50*time.Minute)},
			{Class: class, Start: from.AddDate(0, 0, 2).Add(9 * time.Hour), End: from.AddDate(0, 0, 2).Add(9*time.Hour + 50*time.Minute)},
		},
		Assignments: []app.DueAssignment{{
			Assignment: &schedule.Assignment{Title: "Lab 3", CourseCode: "CS101", DueTime: "11:59 PM", Completed: true},
			Due:        from.Add(23*time.Hour + 59*time.Minute),
		}},
	}

	out := renderWeek(w)
	assert.Contains(t, out, "Week of Mon Mar 10")
	assert.Contains(t, out, "Mon Mar 10\n  9:00 AM-9:50 AM CS101 Hall A 101\n  ✅ Lab 3 (CS101) due 11:59 PM")
	assert.Contains(t, out, "Wed Mar 12\n  9:00 AM-9:50 AM CS101 Hall A 101")
	assert.NotContains(t, out, "Tue Mar 11")
	assert.NotContains(t, out, "Nothing scheduled")
}

func TestRenderWeekEmpty(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	out := renderWeek(&app.WeekView{From: from, To: from.AddDate(0, 0, 7)})
	assert.Contains(t, out, "Nothing scheduled.")
}
