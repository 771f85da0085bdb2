// internal/domain/reminder/ledger.go
package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrSchedulingRejected marks a reminder the platform scheduler declined.
// The ledger recovers from it locally.
var ErrSchedulingRejected = errors.New("reminder scheduling rejected")

// Ledger submits plans to the platform scheduler and cancels the
// identifiers it handed out. Collaborator failures never escape it.
type Ledger struct {
	scheduler Scheduler
	logger    *logrus.Entry
}

func NewLedger(s Scheduler, logger *logrus.Entry) *Ledger {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ledger{scheduler: s, logger: logger.WithField("component", "reminder_ledger")}
}

// Schedule submits every entry in plan order and returns the identifiers of
// the accepted ones. Rejected entries are logged and skipped.
func (l *Ledger) Schedule(ctx context.Context, plan Plan) []string {
	ids := make([]string, 0, len(plan))
	for _, e := range plan {
		id, err := l.scheduler.ScheduleAt(ctx, e.Payload, e.FireAt)
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"correlation_id": e.Payload.CorrelationID,
				"kind":           e.Payload.Kind,
				"fire_at":        e.FireAt,
			}).WithError(fmt.Errorf("%w: %w", ErrSchedulingRejected, err)).Warn("Reminder not scheduled")
			continue
		}
		ids = append(ids, id)
	}
	if len(plan) > 0 {
		l.logger.WithFields(logrus.Fields{
			"planned":   len(plan),
			"scheduled": len(ids),
		}).Debug("Reminder plan submitted")
	}
	return ids
}

// Cancel requests cancellation of every id. A failure on one id does not stop
// the others. It returns the ids that were cancelled.
func (l *Ledger) Cancel(ctx context.Context, ids []string) []string {
	cancelled := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := l.scheduler.Cancel(ctx, id); err != nil {
			l.logger.WithField("reminder_id", id).WithError(err).Warn("Reminder cancel failed")
			continue
		}
		cancelled = append(cancelled, id)
	}
	return cancelled
}
