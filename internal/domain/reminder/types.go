// internal/domain/reminder/types.go
package reminder

import (
	"context"
	"time"
)

// Kind tells the receiver which kind of record a reminder belongs to.
type Kind string

const (
	KindAssignment Kind = "assignment"
	KindClass      Kind = "class"
)

// Payload is the notification content handed to the platform scheduler.
type Payload struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	CorrelationID string `json:"correlation_id"` // ID of the owning class or assignment
	Kind          Kind   `json:"kind"`
}

// Entry is one planned reminder.
type Entry struct {
	FireAt  time.Time
	Lead    time.Duration // how long before the due/start instant it fires
	Payload Payload
}

// Plan is an ordered list of future reminders, latest lead first.
type Plan []Entry

// Scheduler is the platform notification service. Implementations return an
// opaque identifier for every accepted reminder.
type Scheduler interface {
	ScheduleAt(ctx context.Context, payload Payload, fireAt time.Time) (string, error)
	Cancel(ctx context.Context, id string) error
}
