// internal/app/schedule_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
	"student_schedule_bot/internal/infra/calendar"
	idb "student_schedule_bot/internal/infra/database"
)

// Recorder receives export and import counts. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordExport()
	RecordImport(classes, assignments int)
}

type nopRecorder struct{}

func (nopRecorder) RecordExport()         {}
func (nopRecorder) RecordImport(int, int) {}

// ScheduleService owns the class and assignment lifecycle: every change to a
// record goes through here so its reminders stay in step with it.
type ScheduleService struct {
	classes     schedule.ClassRepository
	assignments schedule.AssignmentRepository
	ledger      *reminder.Ledger
	encoder     *calendar.Encoder
	recorder    Recorder
	validate    *validator.Validate
	logger      *logrus.Entry
	loc         *time.Location
	now         func() time.Time
}

func NewScheduleService(
	cr schedule.ClassRepository,
	ar schedule.AssignmentRepository,
	ledger *reminder.Ledger,
	encoder *calendar.Encoder,
	recorder Recorder,
	loc *time.Location,
	logger *logrus.Entry,
) *ScheduleService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ScheduleService{
		classes:     cr,
		assignments: ar,
		ledger:      ledger,
		encoder:     encoder,
		recorder:    recorder,
		validate:    validator.New(),
		logger:      logger.WithField("component", "schedule_service"),
		loc:         loc,
		now:         time.Now,
	}
}

// SetClock replaces the service clock.
func (s *ScheduleService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ScheduleService) localNow() time.Time {
	return s.now().In(s.loc)
}

// AddAssignment validates the form, schedules the assignment's reminders
// and stores it with their ids.
func (s *ScheduleService) AddAssignment(ctx context.Context, req AddAssignmentRequest) (*schedule.Assignment, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	a := req.toAssignment()
	a.ID = uuid.NewString()
	if err := s.createAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ScheduleService) createAssignment(ctx context.Context, a *schedule.Assignment) error {
	if err := checkAssignment(a); err != nil {
		return err
	}
	logCtx := s.logger.WithField("assignment_id", a.ID)

	a.NotificationIDs = nil
	if !a.Completed {
		plan, err := reminder.AssignmentPlan(a, s.localNow(), s.loc)
		if err != nil {
			return err
		}
		a.NotificationIDs = s.ledger.Schedule(ctx, plan)
	}

	if err := s.assignments.Create(ctx, a); err != nil {
		s.ledger.Cancel(ctx, a.NotificationIDs)
		return fmt.Errorf("failed to store assignment: %w", err)
	}
	logCtx.WithField("reminders", len(a.NotificationIDs)).Info("Assignment added")
	return nil
}

// AddClass validates the form, schedules the reminder for the next meeting
// and stores the class.
func (s *ScheduleService) AddClass(ctx context.Context, req AddClassRequest) (*schedule.Class, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	c := req.toClass()
	c.ID = uuid.NewString()
	if err := s.createClass(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ScheduleService) createClass(ctx context.Context, c *schedule.Class) error {
	if err := checkClass(c); err != nil {
		return err
	}
	ids, err := s.scheduleClass(ctx, c)
	if err != nil {
		return err
	}
	c.NotificationIDs = ids

	if err := s.classes.Create(ctx, c); err != nil {
		s.ledger.Cancel(ctx, ids)
		return fmt.Errorf("failed to store class: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"class_id":  c.ID,
		"reminders": len(ids),
	}).Info("Class added")
	return nil
}

// scheduleClass plans and schedules the next-meeting reminder. Classes past
// their end date get none.
func (s *ScheduleService) scheduleClass(ctx context.Context, c *schedule.Class) ([]string, error) {
	now := s.localNow()
	end, err := wallclock.ParseDate(c.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(wallclock.DateOf(now)) {
		return nil, nil
	}
	plan, err := reminder.ClassPlan(c, now)
	if err != nil {
		return nil, err
	}
	return s.ledger.Schedule(ctx, plan), nil
}

// ToggleAssignmentCompleted flips the completion flag. Completing cancels
// every pending reminder; reopening plans a fresh set from now.
func (s *ScheduleService) ToggleAssignmentCompleted(ctx context.Context, id string) (*schedule.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var scheduled []string
	if a.Completed {
		plan, err := reminder.AssignmentPlan(a, s.localNow(), s.loc)
		if err != nil {
			return nil, err
		}
		scheduled = s.ledger.Schedule(ctx, plan)
		a.Completed = false
		a.NotificationIDs = scheduled
	} else {
		s.ledger.Cancel(ctx, a.NotificationIDs)
		a.Completed = true
		a.NotificationIDs = nil
	}

	if err := s.assignments.Update(ctx, a); err != nil {
		s.ledger.Cancel(ctx, scheduled)
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"assignment_id": a.ID,
		"completed":     a.Completed,
	}).Info("Assignment completion toggled")
	return a, nil
}

func (s *ScheduleService) DeleteAssignment(ctx context.Context, id string) error {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.ledger.Cancel(ctx, a.NotificationIDs)
	if err := s.assignments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	s.logger.WithField("assignment_id", id).Info("Assignment deleted")
	return nil
}

func (s *ScheduleService) DeleteClass(ctx context.Context, id string) error {
	c, err := s.classes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.ledger.Cancel(ctx, c.NotificationIDs)
	if err := s.classes.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	s.logger.WithField("class_id", id).Info("Class deleted")
	return nil
}

// RearmClassReminders replaces every class's reminder with one for its next
// meeting. A failing class is logged and the rest still run.
func (s *ScheduleService) RearmClassReminders(ctx context.Context) error {
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list classes: %w", err)
	}

	var errs []error
	armed := 0
	for _, c := range classes {
		logCtx := s.logger.WithField("class_id", c.ID)
		s.ledger.Cancel(ctx, c.NotificationIDs)

		ids, err := s.scheduleClass(ctx, c)
		if err != nil {
			logCtx.WithError(err).Error("Failed to plan class reminder")
			ids = nil
			errs = append(errs, err)
		}
		c.NotificationIDs = ids
		if err := s.classes.Update(ctx, c); err != nil {
			logCtx.WithError(err).Error("Failed to store class reminders")
			s.ledger.Cancel(ctx, ids)
			errs = append(errs, err)
			continue
		}
		armed += len(ids)
	}
	s.logger.WithFields(logrus.Fields{
		"classes":   len(classes),
		"reminders": armed,
	}).Info("Class reminders re-armed")
	return errors.Join(errs...)
}

// RearmAssignmentReminders replans every open assignment from now. It runs
// at boot so reminders lost with a non-persistent queue come back.
func (s *ScheduleService) RearmAssignmentReminders(ctx context.Context) error {
	all, err := s.assignments.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list assignments: %w", err)
	}

	var errs []error
	armed := 0
	for _, a := range all {
		if a.Completed {
			continue
		}
		logCtx := s.logger.WithField("assignment_id", a.ID)
		s.ledger.Cancel(ctx, a.NotificationIDs)

		plan, err := reminder.AssignmentPlan(a, s.localNow(), s.loc)
		var ids []string
		if err != nil {
			logCtx.WithError(err).Error("Failed to plan assignment reminders")
			errs = append(errs, err)
		} else {
			ids = s.ledger.Schedule(ctx, plan)
		}
		a.NotificationIDs = ids
		if err := s.assignments.Update(ctx, a); err != nil {
			logCtx.WithError(err).Error("Failed to store assignment reminders")
			s.ledger.Cancel(ctx, ids)
			errs = append(errs, err)
			continue
		}
		armed += len(ids)
	}
	s.logger.WithFields(logrus.Fields{
		"assignments": len(all),
		"reminders":   armed,
	}).Info("Assignment reminders re-armed")
	return errors.Join(errs...)
}

func (s *ScheduleService) ListClasses(ctx context.Context) ([]*schedule.Class, error) {
	return s.classes.ListAll(ctx)
}

func (s *ScheduleService) ListAssignments(ctx context.Context) ([]*schedule.Assignment, error) {
	return s.assignments.ListAll(ctx)
}

// DueAssignment pairs an assignment with its parsed due instant.
type DueAssignment struct {
	Assignment *schedule.Assignment
	Due        time.Time
}

// UpcomingAssignments returns incomplete assignments ordered by due instant,
// at most limit of them when limit > 0.
func (s *ScheduleService) UpcomingAssignments(ctx context.Context, limit int) ([]DueAssignment, error) {
	all, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	out := s.withDue(all, func(a *schedule.Assignment, _ time.Time) bool { return !a.Completed })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ScheduleService) withDue(all []*schedule.Assignment, keep func(*schedule.Assignment, time.Time) bool) []DueAssignment {
	out := make([]DueAssignment, 0, len(all))
	for _, a := range all {
		due, err := wallclock.ParseDateTime(a.DueDate, a.DueTime, s.loc)
		if err != nil {
			s.logger.WithField("assignment_id", a.ID).WithError(err).Warn("Skipping assignment with malformed due date")
			continue
		}
		if keep(a, due) {
			out = append(out, DueAssignment{Assignment: a, Due: due})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}

// WeekView is a seven-day window of class meetings and due assignments.
type WeekView struct {
	From        time.Time
	To          time.Time
	Meetings    []calendar.Meeting
	Assignments []DueAssignment
}

// Week collects class meetings and assignments due in [from, from+7d),
// where from is truncated to the start of its local day.
func (s *ScheduleService) Week(ctx context.Context, from time.Time) (*WeekView, error) {
	start := wallclock.DateOf(from.In(s.loc)).At(wallclock.WallTime{}, s.loc)
	end := start.AddDate(0, 0, 7)

	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	meetings, err := calendar.ExpandMeetings(classes, start, end, s.loc)
	if err != nil {
		return nil, err
	}

	all, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	due := s.withDue(all, func(_ *schedule.Assignment, d time.Time) bool {
		return !d.Before(start) && d.Before(end)
	})

	return &WeekView{From: start, To: end, Meetings: meetings, Assignments: due}, nil
}

// ExportDocument encodes all classes then all assignments in store order.
func (s *ScheduleService) ExportDocument(ctx context.Context) (string, error) {
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list classes: %w", err)
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list assignments: %w", err)
	}
	doc, err := s.encoder.EncodeDocument(classes, assignments)
	if err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	s.recorder.RecordExport()
	s.logger.WithFields(logrus.Fields{
		"classes":     len(classes),
		"assignments": len(assignments),
	}).Info("Calendar exported")
	return doc, nil
}

// ImportResult counts what an import created and what it left alone.
type ImportResult struct {
	ClassesCreated     int
	AssignmentsCreated int
	Skipped            int
}

// ImportDocument creates the records of an exported document whose ids are
// not stored yet and schedules their reminders.
func (s *ScheduleService) ImportDocument(ctx context.Context, r io.Reader) (*ImportResult, error) {
	doc, err := calendar.Decode(r, s.logger)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for _, c := range doc.Classes {
		_, err := s.classes.GetByID(ctx, c.ID)
		switch {
		case err == nil:
			res.Skipped++
			continue
		case !errors.Is(err, idb.ErrClassNotFound):
			return res, fmt.Errorf("failed to look up class %s: %w", c.ID, err)
		}
		if err := s.createClass(ctx, c); err != nil {
			s.logger.WithField("class_id", c.ID).WithError(err).Warn("Skipping imported class")
			res.Skipped++
			continue
		}
		res.ClassesCreated++
	}
	for _, a := range doc.Assignments {
		_, err := s.assignments.GetByID(ctx, a.ID)
		switch {
		case err == nil:
			res.Skipped++
			continue
		case !errors.Is(err, idb.ErrAssignmentNotFound):
			return res, fmt.Errorf("failed to look up assignment %s: %w", a.ID, err)
		}
		if err := s.createAssignment(ctx, a); err != nil {
			s.logger.WithField("assignment_id", a.ID).WithError(err).Warn("Skipping imported assignment")
			res.Skipped++
			continue
		}
		res.AssignmentsCreated++
	}

	s.recorder.RecordImport(res.ClassesCreated, res.AssignmentsCreated)
	return res, nil
}
