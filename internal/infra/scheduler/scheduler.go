package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/infra/notifyqueue"
)

const (
	dispatchTimeout = 1 * time.Minute
	rearmTimeout    = 5 * time.Minute
)

// Deliverer hands a due reminder to the owner.
type Deliverer interface {
	Deliver(ctx context.Context, n notifyqueue.Notification) error
}

// ClassRearmer re-plans class reminders for their next meeting.
type ClassRearmer interface {
	RearmClassReminders(ctx context.Context) error
}

// DeliveryRecorder counts delivery outcomes and the queue backlog.
// *metrics.Metrics satisfies it.
type DeliveryRecorder interface {
	RecordDelivery(kind reminder.Kind, err error)
	SetPending(n int64)
}

type ReminderScheduler struct {
	cronEngine       *cron.Cron
	queue            notifyqueue.Queue
	deliverer        Deliverer
	rearmer          ClassRearmer
	recorder         DeliveryRecorder
	logger           *logrus.Entry
	now              func() time.Time
	cronSpecDispatch string
	cronSpecRearm    string
}

func NewReminderScheduler(
	queue notifyqueue.Queue,
	deliverer Deliverer,
	rearmer ClassRearmer,
	recorder DeliveryRecorder,
	loc *time.Location,
	logger *logrus.Entry,
	cronSpecDispatch string, // e.g. "@every 15s"
	cronSpecRearm string, // e.g. "0 6 * * *" (6 AM daily)
) *ReminderScheduler {
	logger = logger.WithField("component", "reminder_scheduler")
	cl := cronLogger{logger}
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		queue:            queue,
		deliverer:        deliverer,
		rearmer:          rearmer,
		recorder:         recorder,
		logger:           logger,
		now:              time.Now,
		cronSpecDispatch: cronSpecDispatch,
		cronSpecRearm:    cronSpecRearm,
	}
}

// Start registers the dispatch and re-arm jobs and starts the engine.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDispatch, func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		s.Dispatch(ctx)
	})
	if err != nil {
		return fmt.Errorf("could not add dispatch cron job: %w", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecRearm, func() {
		s.logger.Info("Cron job triggered for class reminder re-arm.")
		ctx, cancel := context.WithTimeout(context.Background(), rearmTimeout)
		defer cancel()
		if err := s.rearmer.RearmClassReminders(ctx); err != nil {
			s.logger.WithError(err).Error("Error during class reminder re-arm")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add class re-arm cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Reminder scheduler started with jobs.")
	return nil
}

// Dispatch delivers every reminder that is due. A failed delivery is logged
// and counted, never retried.
func (s *ReminderScheduler) Dispatch(ctx context.Context) int {
	due, err := s.queue.Due(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to read due reminders")
	}

	delivered := 0
	for _, n := range due {
		err := s.deliverer.Deliver(ctx, n)
		if s.recorder != nil {
			s.recorder.RecordDelivery(n.Payload.Kind, err)
		}
		logCtx := s.logger.WithFields(logrus.Fields{
			"reminder_id":    n.ID,
			"kind":           n.Payload.Kind,
			"correlation_id": n.Payload.CorrelationID,
			"fire_at":        n.FireAt,
		})
		if err != nil {
			logCtx.WithError(err).Error("Reminder delivery failed")
			continue
		}
		logCtx.Debug("Reminder delivered")
		delivered++
	}

	if s.recorder != nil {
		if pending, err := s.queue.Pending(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to count pending reminders")
		} else {
			s.recorder.SetPending(pending)
		}
	}
	return delivered
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}

// cronLogger routes cron's own logging into logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
