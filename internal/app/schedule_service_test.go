package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
	idb "student_schedule_bot/internal/infra/database"
)

var sunday = time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC)

func essayRequest() AddAssignmentRequest {
	return AddAssignmentRequest{
		Title:      "Essay",
		CourseCode: "ENG101",
		DueDate:    "12/15/2025",
		DueTime:    "11:59 PM",
		Priority:   "High",
	}
}

func calculusRequest() AddClassRequest {
	return AddClassRequest{
		Name:       "Calculus I",
		CourseCode: "MATH101",
		Building:   "Science Hall",
		Room:       "204",
		StartTime:  "9:00 AM",
		EndTime:    "10:15 AM",
		DaysOfWeek: []string{"mon", "Wed"},
		StartDate:  "01/06/2025",
		EndDate:    "05/09/2025",
	}
}

func TestAddAssignmentSchedulesTierReminders(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	a, err := f.svc.AddAssignment(ctx, essayRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Len(t, a.NotificationIDs, 7)

	stored, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.NotificationIDs, stored.NotificationIDs)

	last := a.NotificationIDs[len(a.NotificationIDs)-1]
	assert.Equal(t, time.Date(2025, 12, 15, 23, 44, 0, 0, time.UTC), f.scheduler.fireAt[last])
	assert.Equal(t, "📝 Essay due in 15 minutes", f.scheduler.pending[last].Title)
	assert.Equal(t, reminder.KindAssignment, f.scheduler.pending[last].Kind)
}

func TestAddAssignmentDefaultsToMedium(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	req := essayRequest()
	req.Priority = ""

	a, err := f.svc.AddAssignment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, schedule.PriorityMedium, a.Priority)
	assert.Len(t, a.NotificationIDs, 12)
}

func TestAddAssignmentRejectsBadInput(t *testing.T) {
	f := newFixture(sunday)
	ctx := context.Background()

	req := essayRequest()
	req.Title = ""
	_, err := f.svc.AddAssignment(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = essayRequest()
	req.Priority = "Urgent"
	_, err = f.svc.AddAssignment(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = essayRequest()
	req.DueDate = "2025-12-15"
	_, err = f.svc.AddAssignment(ctx, req)
	assert.ErrorIs(t, err, wallclock.ErrMalformedInput)

	assert.Empty(t, f.scheduler.pending)
	all, _ := f.assignments.ListAll(ctx)
	assert.Empty(t, all)
}

func TestAddAssignmentStoreFailureCancelsReminders(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	f.assignments.createErr = errors.New("connection reset")

	_, err := f.svc.AddAssignment(context.Background(), essayRequest())
	require.Error(t, err)
	assert.Empty(t, f.scheduler.pending)
	assert.Len(t, f.scheduler.cancelled, 7)
}

func TestToggleAssignmentCompleted(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	a, err := f.svc.AddAssignment(ctx, essayRequest())
	require.NoError(t, err)
	before := a.NotificationIDs

	done, err := f.svc.ToggleAssignmentCompleted(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Empty(t, done.NotificationIDs)
	assert.ElementsMatch(t, before, f.scheduler.cancelled)
	assert.Empty(t, f.scheduler.pending)

	f.now = time.Date(2025, 12, 15, 22, 0, 0, 0, time.UTC)
	reopened, err := f.svc.ToggleAssignmentCompleted(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Len(t, reopened.NotificationIDs, 3)

	stored, err := f.assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, reopened.NotificationIDs, stored.NotificationIDs)
}

func TestToggleUnknownAssignment(t *testing.T) {
	f := newFixture(sunday)
	_, err := f.svc.ToggleAssignmentCompleted(context.Background(), "nope")
	assert.ErrorIs(t, err, idb.ErrAssignmentNotFound)
}

func TestDeleteAssignmentCancelsReminders(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	a, err := f.svc.AddAssignment(ctx, essayRequest())
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteAssignment(ctx, a.ID))

	assert.Empty(t, f.scheduler.pending)
	_, err = f.assignments.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, idb.ErrAssignmentNotFound)
}

func TestAddClassSchedulesNextMeeting(t *testing.T) {
	f := newFixture(sunday)
	ctx := context.Background()

	c, err := f.svc.AddClass(ctx, calculusRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Wed"}, c.DaysOfWeek)
	require.Len(t, c.NotificationIDs, 1)

	id := c.NotificationIDs[0]
	assert.Equal(t, time.Date(2025, 1, 13, 8, 45, 0, 0, time.UTC), f.scheduler.fireAt[id])
	assert.Equal(t, "🎓 MATH101 starting soon", f.scheduler.pending[id].Title)
	assert.Equal(t, "Calculus I in Science Hall 204", f.scheduler.pending[id].Body)
}

func TestAddClassValidation(t *testing.T) {
	f := newFixture(sunday)
	ctx := context.Background()

	req := calculusRequest()
	req.EndDate = "01/01/2025"
	_, err := f.svc.AddClass(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = calculusRequest()
	req.DaysOfWeek = nil
	_, err = f.svc.AddClass(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = calculusRequest()
	req.DaysOfWeek = []string{"Mon", "Funday"}
	_, err = f.svc.AddClass(ctx, req)
	assert.ErrorIs(t, err, wallclock.ErrMalformedInput)

	req = calculusRequest()
	req.StartTime = "9 AM"
	_, err = f.svc.AddClass(ctx, req)
	assert.ErrorIs(t, err, wallclock.ErrMalformedInput)

	req = calculusRequest()
	req.StartTime = "2:00 PM"
	req.EndTime = "1:15 PM"
	_, err = f.svc.AddClass(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	all, _ := f.classes.ListAll(ctx)
	assert.Empty(t, all)
}

func TestDeleteClass(t *testing.T) {
	f := newFixture(sunday)
	ctx := context.Background()

	c, err := f.svc.AddClass(ctx, calculusRequest())
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteClass(ctx, c.ID))
	assert.Equal(t, c.NotificationIDs, f.scheduler.cancelled)

	assert.ErrorIs(t, f.svc.DeleteClass(ctx, c.ID), idb.ErrClassNotFound)
}

func TestRearmClassReminders(t *testing.T) {
	f := newFixture(sunday)
	ctx := context.Background()

	active, err := f.svc.AddClass(ctx, calculusRequest())
	require.NoError(t, err)
	firstID := active.NotificationIDs[0]

	f.scheduler.pending["stale"] = reminder.Payload{}
	ended := &schedule.Class{
		ID: "old", Name: "Intro", CourseCode: "CS100", StartTime: "1:00 PM", EndTime: "2:00 PM",
		DaysOfWeek: []string{"Tue"}, StartDate: "09/01/2024", EndDate: "12/20/2024",
		NotificationIDs: []string{"stale"},
	}
	require.NoError(t, f.classes.Create(ctx, ended))

	f.now = time.Date(2025, 1, 14, 6, 0, 0, 0, time.UTC) // Tuesday
	require.NoError(t, f.svc.RearmClassReminders(ctx))

	assert.Contains(t, f.scheduler.cancelled, firstID)
	assert.Contains(t, f.scheduler.cancelled, "stale")

	got, err := f.classes.GetByID(ctx, active.ID)
	require.NoError(t, err)
	require.Len(t, got.NotificationIDs, 1)
	assert.Equal(t, time.Date(2025, 1, 15, 8, 45, 0, 0, time.UTC), f.scheduler.fireAt[got.NotificationIDs[0]])

	gone, err := f.classes.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, gone.NotificationIDs)
}

func TestRearmAssignmentRemindersAfterRestart(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	open, err := f.svc.AddAssignment(ctx, essayRequest())
	require.NoError(t, err)
	done, err := f.svc.AddAssignment(ctx, essayRequest())
	require.NoError(t, err)
	_, err = f.svc.ToggleAssignmentCompleted(ctx, done.ID)
	require.NoError(t, err)

	// a restarted in-memory queue knows none of the stored ids
	restarted := newFakeScheduler(func() time.Time { return f.now })
	restarted.next = 100
	f.svc.ledger = reminder.NewLedger(restarted, f.logger)
	f.now = time.Date(2025, 12, 15, 20, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.RearmAssignmentReminders(ctx))

	got, err := f.assignments.GetByID(ctx, open.ID)
	require.NoError(t, err)
	// High tier from 8 PM on the due day: 3h, 2h, 1h, 30m and 15m before 11:59 PM
	require.Len(t, got.NotificationIDs, 5)
	for _, id := range got.NotificationIDs {
		assert.Contains(t, restarted.pending, id)
		assert.NotContains(t, open.NotificationIDs, id)
	}
	assert.Equal(t, time.Date(2025, 12, 15, 23, 44, 0, 0, time.UTC), restarted.fireAt[got.NotificationIDs[4]])

	closed, err := f.assignments.GetByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Empty(t, closed.NotificationIDs)
	assert.Len(t, restarted.pending, 5)
}

func TestUpcomingAssignments(t *testing.T) {
	f := newFixture(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	late := essayRequest()
	late.Title = "Late"
	late.DueDate = "12/20/2025"
	soon := essayRequest()
	soon.Title = "Soon"
	soon.DueDate = "12/05/2025"
	mid := essayRequest()
	mid.Title = "Mid"
	mid.DueDate = "12/10/2025"

	for _, req := range []AddAssignmentRequest{late, soon, mid} {
		_, err := f.svc.AddAssignment(ctx, req)
		require.NoError(t, err)
	}
	all, err := f.svc.ListAssignments(ctx)
	require.NoError(t, err)
	_, err = f.svc.ToggleAssignmentCompleted(ctx, all[2].ID) // Mid
	require.NoError(t, err)

	upcoming, err := f.svc.UpcomingAssignments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Soon", upcoming[0].Assignment.Title)
	assert.Equal(t, "Late", upcoming[1].Assignment.Title)

	limited, err := f.svc.UpcomingAssignments(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestWeek(t *testing.T) {
	f := newFixture(sunday)
	ctx := context.Background()

	_, err := f.svc.AddClass(ctx, calculusRequest())
	require.NoError(t, err)

	in := essayRequest()
	in.DueDate = "01/14/2025"
	in.DueTime = "5:00 PM"
	out := essayRequest()
	out.DueDate = "01/19/2025"
	out.DueTime = "12:00 AM"
	for _, req := range []AddAssignmentRequest{in, out} {
		_, err := f.svc.AddAssignment(ctx, req)
		require.NoError(t, err)
	}

	week, err := f.svc.Week(ctx, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), week.From)
	require.Len(t, week.Meetings, 2)
	assert.Equal(t, time.Monday, week.Meetings[0].Start.Weekday())
	assert.Equal(t, time.Wednesday, week.Meetings[1].Start.Weekday())
	require.Len(t, week.Assignments, 1)
	assert.Equal(t, "01/14/2025", week.Assignments[0].Assignment.DueDate)
}

func TestExportThenImport(t *testing.T) {
	src := newFixture(sunday)
	ctx := context.Background()

	_, err := src.svc.AddClass(ctx, calculusRequest())
	require.NoError(t, err)
	_, err = src.svc.AddAssignment(ctx, essayRequest())
	require.NoError(t, err)

	doc, err := src.svc.ExportDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.recorder.exports)
	assert.Less(t, strings.Index(doc, "UID:class-"), strings.Index(doc, "UID:assignment-"))

	dst := newFixture(sunday)
	res, err := dst.svc.ImportDocument(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{ClassesCreated: 1, AssignmentsCreated: 1}, res)
	assert.Equal(t, 1, dst.recorder.classes)

	classes, err := dst.svc.ListClasses(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, []string{"Mon", "Wed"}, classes[0].DaysOfWeek)
	assert.Len(t, classes[0].NotificationIDs, 1)

	assignments, err := dst.svc.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, schedule.PriorityHigh, assignments[0].Priority)
	assert.Len(t, assignments[0].NotificationIDs, 7)

	again, err := dst.svc.ImportDocument(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)
	assert.Zero(t, again.ClassesCreated)
}
