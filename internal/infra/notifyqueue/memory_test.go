package notifyqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student_schedule_bot/internal/domain/reminder"
)

func newTestQueue(now time.Time) *MemoryQueue {
	q := NewMemoryQueue()
	q.now = func() time.Time { return now }
	return q
}

func TestMemoryQueueRejectsPastInstants(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(now)

	_, err := q.ScheduleAt(context.Background(), reminder.Payload{}, now)
	assert.ErrorIs(t, err, ErrInstantNotInFuture)
	_, err = q.ScheduleAt(context.Background(), reminder.Payload{}, now.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInstantNotInFuture)
}

func TestMemoryQueueDueInFiringOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(now)

	late, err := q.ScheduleAt(ctx, reminder.Payload{Title: "late"}, now.Add(2*time.Hour))
	require.NoError(t, err)
	early, err := q.ScheduleAt(ctx, reminder.Payload{Title: "early"}, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = q.ScheduleAt(ctx, reminder.Payload{Title: "later"}, now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, late, early)

	due, err := q.Due(ctx, now.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early, due[0].ID)
	assert.Equal(t, "late", due[1].Payload.Title)

	again, err := q.Due(ctx, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, again)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestMemoryQueueCancel(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(now)

	id, err := q.ScheduleAt(ctx, reminder.Payload{}, now.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, q.Cancel(ctx, id))
	assert.ErrorIs(t, q.Cancel(ctx, id), ErrUnknownReminder)

	due, err := q.Due(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMemoryQueueWithLedger(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newTestQueue(now)
	ledger := reminder.NewLedger(q, nil)

	plan := reminder.Plan{
		{FireAt: now.Add(-time.Minute)},
		{FireAt: now.Add(time.Hour)},
	}
	ids := ledger.Schedule(ctx, plan)
	require.Len(t, ids, 1)

	cancelled := ledger.Cancel(ctx, []string{"missing", ids[0]})
	assert.Equal(t, ids, cancelled)
}
