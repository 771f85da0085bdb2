// internal/infra/notifyqueue/memory.go
package notifyqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"student_schedule_bot/internal/domain/reminder"
)

// MemoryQueue keeps reminders in process memory. Pending reminders are lost
// on restart; the daily class re-arm recovers class reminders only.
type MemoryQueue struct {
	mu    sync.Mutex
	items map[string]Notification
	now   func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{items: make(map[string]Notification), now: time.Now}
}

func (q *MemoryQueue) ScheduleAt(_ context.Context, payload reminder.Payload, fireAt time.Time) (string, error) {
	if !fireAt.After(q.now()) {
		return "", fmt.Errorf("%w: %s", ErrInstantNotInFuture, fireAt.Format(time.RFC3339))
	}
	id := uuid.NewString()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[id] = Notification{ID: id, FireAt: fireAt, Payload: payload}
	return id, nil
}

func (q *MemoryQueue) Cancel(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReminder, id)
	}
	delete(q.items, id)
	return nil
}

func (q *MemoryQueue) Due(_ context.Context, now time.Time) ([]Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Notification
	for id, n := range q.items {
		if !n.FireAt.After(now) {
			due = append(due, n)
			delete(q.items, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	return due, nil
}

func (q *MemoryQueue) Pending(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}
