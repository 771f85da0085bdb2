// internal/infra/notifyqueue/redis.go
package notifyqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"student_schedule_bot/internal/domain/reminder"
)

const (
	defaultKeyPrefix = "schedule:reminders"
	pingTimeout      = 5 * time.Second
)

type payloadRecord struct {
	FireAt  time.Time        `json:"fire_at"`
	Payload reminder.Payload `json:"payload"`
}

// RedisQueue stores reminder ids in a sorted set scored by firing instant
// and their payloads in a hash, so pending reminders survive restarts.
type RedisQueue struct {
	client     *redis.Client
	dueKey     string
	payloadKey string
	now        func() time.Time
	logger     *logrus.Entry
}

// NewRedisClient connects to url and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisQueue(client *redis.Client, keyPrefix string, logger *logrus.Entry) *RedisQueue {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RedisQueue{
		client:     client,
		dueKey:     keyPrefix + ":due",
		payloadKey: keyPrefix + ":payload",
		now:        time.Now,
		logger:     logger.WithField("component", "redis_queue"),
	}
}

func (q *RedisQueue) ScheduleAt(ctx context.Context, payload reminder.Payload, fireAt time.Time) (string, error) {
	if !fireAt.After(q.now()) {
		return "", fmt.Errorf("%w: %s", ErrInstantNotInFuture, fireAt.Format(time.RFC3339))
	}
	data, err := json.Marshal(payloadRecord{FireAt: fireAt, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("encode reminder: %w", err)
	}

	id := uuid.NewString()
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.payloadKey, id, data)
		pipe.ZAdd(ctx, q.dueKey, redis.Z{Score: float64(fireAt.Unix()), Member: id})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store reminder: %w", err)
	}
	return id, nil
}

func (q *RedisQueue) Cancel(ctx context.Context, id string) error {
	removed, err := q.client.ZRem(ctx, q.dueKey, id).Result()
	if err != nil {
		return fmt.Errorf("cancel reminder %s: %w", id, err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownReminder, id)
	}
	if err := q.client.HDel(ctx, q.payloadKey, id).Err(); err != nil {
		return fmt.Errorf("drop reminder payload %s: %w", id, err)
	}
	return nil
}

// Due claims each due id with ZREM so concurrent dispatchers never deliver
// the same reminder twice.
func (q *RedisQueue) Due(ctx context.Context, now time.Time) ([]Notification, error) {
	ids, err := q.client.ZRangeByScore(ctx, q.dueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}

	due := make([]Notification, 0, len(ids))
	for _, id := range ids {
		claimed, err := q.client.ZRem(ctx, q.dueKey, id).Result()
		if err != nil {
			return due, fmt.Errorf("claim reminder %s: %w", id, err)
		}
		if claimed == 0 {
			continue
		}

		data, err := q.client.HGet(ctx, q.payloadKey, id).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				q.logger.WithField("reminder_id", id).Warn("Due reminder has no payload")
				continue
			}
			return due, fmt.Errorf("load reminder %s: %w", id, err)
		}
		q.dropPayload(ctx, id)

		var rec payloadRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			q.logger.WithField("reminder_id", id).WithError(err).Warn("Dropping undecodable reminder")
			continue
		}
		due = append(due, Notification{ID: id, FireAt: rec.FireAt, Payload: rec.Payload})
	}
	return due, nil
}

// dropPayload removes a claimed reminder's payload. A failure leaves an
// orphan hash field and is only logged.
func (q *RedisQueue) dropPayload(ctx context.Context, id string) {
	if err := q.client.HDel(ctx, q.payloadKey, id).Err(); err != nil {
		q.logger.WithField("reminder_id", id).WithError(err).Warn("Failed to drop delivered reminder payload")
	}
}

func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.dueKey).Result()
}
