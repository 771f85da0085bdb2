// internal/infra/notifyqueue/queue.go
package notifyqueue

import (
	"context"
	"errors"
	"time"

	"student_schedule_bot/internal/domain/reminder"
)

var (
	ErrUnknownReminder    = errors.New("unknown reminder id")
	ErrInstantNotInFuture = errors.New("reminder instant is not in the future")
)

// Notification is a reminder that has come due.
type Notification struct {
	ID      string
	FireAt  time.Time
	Payload reminder.Payload
}

// Queue is a platform notification scheduler whose due reminders are
// drained by the dispatch job.
type Queue interface {
	reminder.Scheduler
	// Due removes and returns every reminder whose instant is not after now,
	// earliest first.
	Due(ctx context.Context, now time.Time) ([]Notification, error)
	Pending(ctx context.Context) (int64, error)
}
