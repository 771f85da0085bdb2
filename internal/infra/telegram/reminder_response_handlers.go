// internal/infra/telegram/reminder_response_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"student_schedule_bot/internal/app"
)

// RegisterReminderResponseHandlers handles the "Mark done" button attached to
// assignment reminders.
func RegisterReminderResponseHandlers(ctx context.Context, b *telebot.Bot, svc *app.ScheduleService, baseLogger *logrus.Entry) {
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := strings.TrimSpace(c.Callback().Data)

		if !strings.HasPrefix(data, doneCallbackPrefix) {
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
		}

		id := strings.TrimPrefix(data, doneCallbackPrefix)
		cbLogger := baseLogger.WithFields(logrus.Fields{
			"handler":       "done_callback",
			"assignment_id": id,
		})
		if id == "" {
			c.Bot().OnError(fmt.Errorf("invalid callback data format for done: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Could not read the assignment id."})
		}

		a, err := svc.ToggleAssignmentCompleted(ctx, id)
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: failureText(cbLogger, err, "Failed to toggle assignment from reminder")})
		}
		cbLogger.WithField("completed", a.Completed).Info("Assignment toggled from reminder")

		if err := c.Respond(&telebot.CallbackResponse{Text: "Done!"}); err != nil {
			return err
		}
		return c.Send(toggledText(a))
	})
}
