// internal/infra/telegram/schedule_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"student_schedule_bot/internal/app"
	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
	idb "student_schedule_bot/internal/infra/database"
)

const (
	upcomingLimit  = 20
	maxImportBytes = 1 << 20
)

// RegisterScheduleHandlers wires the owner's schedule commands to svc.
func RegisterScheduleHandlers(ctx context.Context, b *telebot.Bot, svc *app.ScheduleService, baseLogger *logrus.Entry) {
	b.Handle("/add_assignment", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/add_assignment")

		req, err := parseAssignmentArgs(c.Message().Payload)
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send("Use: /add_assignment <title> | <course> | <MM/DD/YYYY> | <H:MM AM> [| Low|Medium|High [| description]]")
		}

		a, err := svc.AddAssignment(ctx, req)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to add assignment"))
		}
		handlerLogger.WithField("assignment_id", a.ID).Info("Assignment added")
		return c.Send(fmt.Sprintf("Added %s (%s), due %s at %s. [%s]", a.Title, a.CourseCode, a.DueDate, a.DueTime, shortID(a.ID)))
	})

	b.Handle("/add_class", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/add_class")

		req, err := parseClassArgs(c.Message().Payload)
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send("Use: /add_class <name> | <course> | <building> | <room> | <H:MM AM> | <H:MM AM> | <Mon,Wed> | <MM/DD/YYYY> | <MM/DD/YYYY> [| instructor [| notes]]")
		}

		cl, err := svc.AddClass(ctx, req)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to add class"))
		}
		handlerLogger.WithField("class_id", cl.ID).Info("Class added")
		return c.Send(fmt.Sprintf("Added %s %s on %s, %s-%s. [%s]", cl.CourseCode, cl.Name,
			strings.Join(cl.DaysOfWeek, "/"), cl.StartTime, cl.EndTime, shortID(cl.ID)))
	})

	b.Handle("/list", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/list")

		classes, err := svc.ListClasses(ctx)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to list classes"))
		}
		upcoming, err := svc.UpcomingAssignments(ctx, upcomingLimit)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to list assignments"))
		}
		return c.Send(renderList(classes, upcoming))
	})

	b.Handle("/week", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/week")

		week, err := svc.Week(ctx, time.Now())
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to build week view"))
		}
		return c.Send(renderWeek(week))
	})

	b.Handle("/done", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/done")
		if len(c.Args()) != 1 {
			return c.Send("Use: /done <id>")
		}

		id, err := resolveAssignmentID(ctx, svc, c.Args()[0])
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to resolve assignment"))
		}
		a, err := svc.ToggleAssignmentCompleted(ctx, id)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to toggle assignment"))
		}
		handlerLogger.WithFields(logrus.Fields{
			"assignment_id": a.ID,
			"completed":     a.Completed,
		}).Info("Assignment toggled")
		return c.Send(toggledText(a))
	})

	b.Handle("/delete_assignment", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/delete_assignment")
		if len(c.Args()) != 1 {
			return c.Send("Use: /delete_assignment <id>")
		}

		id, err := resolveAssignmentID(ctx, svc, c.Args()[0])
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to resolve assignment"))
		}
		if err := svc.DeleteAssignment(ctx, id); err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to delete assignment"))
		}
		handlerLogger.WithField("assignment_id", id).Info("Assignment deleted")
		return c.Send(fmt.Sprintf("Assignment [%s] deleted.", shortID(id)))
	})

	b.Handle("/delete_class", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/delete_class")
		if len(c.Args()) != 1 {
			return c.Send("Use: /delete_class <id>")
		}

		classes, err := svc.ListClasses(ctx)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to list classes"))
		}
		ids := make([]string, 0, len(classes))
		for _, cl := range classes {
			ids = append(ids, cl.ID)
		}
		id, err := matchID(ids, c.Args()[0])
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to resolve class"))
		}
		if err := svc.DeleteClass(ctx, id); err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to delete class"))
		}
		handlerLogger.WithField("class_id", id).Info("Class deleted")
		return c.Send(fmt.Sprintf("Class [%s] deleted.", shortID(id)))
	})

	b.Handle("/export", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "/export")

		doc, err := svc.ExportDocument(ctx)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to export calendar"))
		}
		return c.Send(&telebot.Document{
			File:     telebot.FromReader(strings.NewReader(doc)),
			FileName: calendarFileName,
			MIME:     "text/calendar",
			Caption:  "Your schedule. Import it into any calendar app.",
		})
	})

	b.Handle(telebot.OnDocument, func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, c, "document_upload")
		doc := c.Message().Document
		if doc == nil || !strings.HasSuffix(strings.ToLower(doc.FileName), ".ics") {
			return c.Send("Send an .ics file to import it.")
		}
		if doc.FileSize > maxImportBytes {
			handlerLogger.WithField("file_size", doc.FileSize).Warn("Calendar upload too large")
			return c.Send("That file is too large to import.")
		}

		rc, err := c.Bot().File(&doc.File)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to download calendar"))
		}
		defer rc.Close()

		res, err := svc.ImportDocument(ctx, rc)
		if err != nil {
			return c.Send(failureText(handlerLogger, err, "Failed to import calendar"))
		}
		handlerLogger.WithFields(logrus.Fields{
			"classes_created":     res.ClassesCreated,
			"assignments_created": res.AssignmentsCreated,
			"skipped":             res.Skipped,
		}).Info("Calendar imported")
		return c.Send(fmt.Sprintf("Imported %d classes and %d assignments. Skipped %d.",
			res.ClassesCreated, res.AssignmentsCreated, res.Skipped))
	})
}

func commandLogger(base *logrus.Entry, c telebot.Context, handler string) *logrus.Entry {
	l := base.WithField("handler", handler)
	if c.Sender() != nil {
		l = l.WithField("sender_id", c.Sender().ID)
	}
	l.Info("Command received")
	return l
}

func resolveAssignmentID(ctx context.Context, svc *app.ScheduleService, ref string) (string, error) {
	all, err := svc.ListAssignments(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	return matchID(ids, ref)
}

// failureText logs err at a level matching its cause and returns the reply.
func failureText(l *logrus.Entry, err error, msg string) string {
	l = l.WithError(err)
	switch {
	case errors.Is(err, app.ErrInvalidRequest), errors.Is(err, wallclock.ErrMalformedInput):
		l.Warn(msg)
		return "Invalid input: " + err.Error()
	case errors.Is(err, errNoMatch), errors.Is(err, idb.ErrClassNotFound), errors.Is(err, idb.ErrAssignmentNotFound):
		l.Warn(msg)
		return "Nothing found with that id."
	case errors.Is(err, errAmbiguousID):
		l.Warn(msg)
		return "That id prefix matches several records. Type more of it."
	default:
		l.Error(msg)
		return "Something went wrong. Please try again later."
	}
}

func toggledText(a *schedule.Assignment) string {
	if a.Completed {
		return fmt.Sprintf("✅ %s marked done. Its reminders are cancelled.", a.Title)
	}
	return fmt.Sprintf("↩️ %s reopened. Reminders are back on.", a.Title)
}
