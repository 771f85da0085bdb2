// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"io"

	"gopkg.in/telebot.v3"

	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/infra/notifyqueue"
)

const calendarFileName = "schedule.ics"

// TelebotAdapter sends messages and documents to the bot owner.
type TelebotAdapter struct {
	bot     *telebot.Bot
	ownerID int64
}

func NewTelebotAdapter(b *telebot.Bot, ownerID int64) *TelebotAdapter {
	return &TelebotAdapter{bot: b, ownerID: ownerID}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	_, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, text, options)
	return err
}

// SendDocument uploads r as a file to the recipient.
func (tba *TelebotAdapter) SendDocument(recipientChatID int64, r io.Reader, fileName, mime, caption string) error {
	doc := &telebot.Document{
		File:     telebot.FromReader(r),
		FileName: fileName,
		MIME:     mime,
		Caption:  caption,
	}
	_, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, doc)
	return err
}

// Deliver sends a due reminder to the owner. Assignment reminders carry a
// button that marks the assignment done.
func (tba *TelebotAdapter) Deliver(_ context.Context, n notifyqueue.Notification) error {
	opts := &telebot.SendOptions{}
	if n.Payload.Kind == reminder.KindAssignment && n.Payload.CorrelationID != "" {
		opts.ReplyMarkup = &telebot.ReplyMarkup{
			InlineKeyboard: [][]telebot.InlineButton{{
				{Text: "✅ Mark done", Data: doneCallbackPrefix + n.Payload.CorrelationID},
			}},
		}
	}
	return tba.SendMessage(tba.ownerID, reminderText(n.Payload), opts)
}
