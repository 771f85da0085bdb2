// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// OwnerOnly drops updates from anyone but the configured owner.
func OwnerOnly(ownerID int64, baseLogger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if c.Sender() == nil || c.Sender().ID != ownerID {
				fields := logrus.Fields{}
				if c.Sender() != nil {
					fields["sender_id"] = c.Sender().ID
				}
				baseLogger.WithFields(fields).Warn("Unauthorized access attempt")
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: "Not allowed."})
				}
				return c.Send("Sorry, this bot only answers its owner.")
			}
			return next(c)
		}
	}
}

func RegisterBotCommands(b *telebot.Bot, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		startHelpLogger.WithFields(logrus.Fields{
			"command":   "/start",
			"sender_id": c.Sender().ID,
		}).Info("Processing /start command")
		return c.Send(fmt.Sprintf("Hi %s! I keep track of your classes and assignments and remind you before they start or fall due. Use /help to see the commands.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		startHelpLogger.WithFields(logrus.Fields{
			"command":   "/help",
			"sender_id": c.Sender().ID,
		}).Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		helpText.WriteString("/add_assignment <title> | <course> | <MM/DD/YYYY> | <H:MM AM> [| Low|Medium|High [| description]]\n - Add an assignment and schedule its reminders.\n\n")
		helpText.WriteString("/add_class <name> | <course> | <building> | <room> | <start H:MM AM> | <end H:MM AM> | <Mon,Wed> | <start MM/DD/YYYY> | <end MM/DD/YYYY> [| instructor [| notes]]\n - Add a weekly class.\n\n")
		helpText.WriteString("/list\n - Show classes and open assignments.\n\n")
		helpText.WriteString("/week\n - Show the next seven days.\n\n")
		helpText.WriteString("/done <id>\n - Toggle an assignment between done and open.\n\n")
		helpText.WriteString("/delete_assignment <id>, /delete_class <id>\n - Remove a record and its reminders.\n\n")
		helpText.WriteString("/export\n - Get your schedule as an .ics calendar file.\n\n")
		helpText.WriteString("Send an .ics file exported by this bot to import it.\n\n")
		helpText.WriteString("Ids can be shortened to their first few characters.")
		return c.Send(helpText.String())
	})
}
