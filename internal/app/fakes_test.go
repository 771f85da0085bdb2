package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/infra/calendar"
	idb "student_schedule_bot/internal/infra/database"
)

type memClassRepo struct {
	mu        sync.Mutex
	order     []string
	items     map[string]schedule.Class
	createErr error
}

func newMemClassRepo() *memClassRepo {
	return &memClassRepo{items: map[string]schedule.Class{}}
}

func (r *memClassRepo) Create(_ context.Context, c *schedule.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.items[c.ID]; ok {
		return idb.ErrDuplicateID
	}
	r.items[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *memClassRepo) GetByID(_ context.Context, id string) (*schedule.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, idb.ErrClassNotFound
	}
	return &c, nil
}

func (r *memClassRepo) Update(_ context.Context, c *schedule.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return idb.ErrClassNotFound
	}
	r.items[c.ID] = *c
	return nil
}

func (r *memClassRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return idb.ErrClassNotFound
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *memClassRepo) ListAll(_ context.Context) ([]*schedule.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*schedule.Class, 0, len(r.order))
	for _, id := range r.order {
		c := r.items[id]
		out = append(out, &c)
	}
	return out, nil
}

type memAssignmentRepo struct {
	mu        sync.Mutex
	order     []string
	items     map[string]schedule.Assignment
	createErr error
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{items: map[string]schedule.Assignment{}}
}

func (r *memAssignmentRepo) Create(_ context.Context, a *schedule.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.items[a.ID]; ok {
		return idb.ErrDuplicateID
	}
	r.items[a.ID] = *a
	r.order = append(r.order, a.ID)
	return nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, id string) (*schedule.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, idb.ErrAssignmentNotFound
	}
	return &a, nil
}

func (r *memAssignmentRepo) Update(_ context.Context, a *schedule.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return idb.ErrAssignmentNotFound
	}
	r.items[a.ID] = *a
	return nil
}

func (r *memAssignmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return idb.ErrAssignmentNotFound
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *memAssignmentRepo) ListAll(_ context.Context) ([]*schedule.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*schedule.Assignment, 0, len(r.order))
	for _, id := range r.order {
		a := r.items[id]
		out = append(out, &a)
	}
	return out, nil
}

// fakeScheduler accepts any instant after its clock and remembers what is pending.
type fakeScheduler struct {
	now       func() time.Time
	next      int
	pending   map[string]reminder.Payload
	fireAt    map[string]time.Time
	cancelled []string
}

func newFakeScheduler(now func() time.Time) *fakeScheduler {
	return &fakeScheduler{now: now, pending: map[string]reminder.Payload{}, fireAt: map[string]time.Time{}}
}

func (f *fakeScheduler) ScheduleAt(_ context.Context, p reminder.Payload, at time.Time) (string, error) {
	if !at.After(f.now()) {
		return "", fmt.Errorf("instant %s already passed", at)
	}
	f.next++
	id := fmt.Sprintf("r%d", f.next)
	f.pending[id] = p
	f.fireAt[id] = at
	return id, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, id string) error {
	if _, ok := f.pending[id]; !ok {
		return fmt.Errorf("unknown reminder %s", id)
	}
	delete(f.pending, id)
	f.cancelled = append(f.cancelled, id)
	return nil
}

type countingRecorder struct {
	exports             int
	classes, assignment int
}

func (c *countingRecorder) RecordExport() { c.exports++ }
func (c *countingRecorder) RecordImport(classes, assignments int) {
	c.classes += classes
	c.assignment += assignments
}

type fixture struct {
	now         time.Time
	svc         *ScheduleService
	classes     *memClassRepo
	assignments *memAssignmentRepo
	scheduler   *fakeScheduler
	recorder    *countingRecorder
	logger      *logrus.Entry
}

func newFixture(now time.Time) *fixture {
	l := logrus.New()
	l.SetOutput(io.Discard)
	logger := logrus.NewEntry(l)

	f := &fixture{
		now:         now,
		classes:     newMemClassRepo(),
		assignments: newMemAssignmentRepo(),
		scheduler:   newFakeScheduler(nil),
		recorder:    &countingRecorder{},
		logger:      logger,
	}
	clock := func() time.Time { return f.now }
	f.scheduler.now = clock
	encoder := calendar.NewEncoder("Test", time.UTC).WithClock(clock)
	f.svc = NewScheduleService(f.classes, f.assignments, reminder.NewLedger(f.scheduler, logger), encoder, f.recorder, time.UTC, logger)
	f.svc.SetClock(clock)
	return f
}
