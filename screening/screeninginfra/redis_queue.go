package screeninginfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/Abraxas-365/screener/screening"
	"github.com/redis/go-redis/v9"
)

// RedisQueue implements screening.JobQueue on Redis. Ready jobs live in
// a list; retry jobs wait in a sorted set scored by their ready time.
type RedisQueue struct {
	client    *redis.Client
	queueName string
}

// NewRedisQueue creates a Redis-backed screening job queue.
func NewRedisQueue(client *redis.Client, queueName string) screening.JobQueue {
	return &RedisQueue{
		client:    client,
		queueName: queueName,
	}
}

func (q *RedisQueue) delayedQueue() string {
	return q.queueName + ":delayed"
}

// Enqueue adds a job to the ready queue.
func (q *RedisQueue) Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for job %s: %w", jobID, err)
	}

	if err := q.client.LPush(ctx, q.queueName, data).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}

	return nil
}

// Dequeue blocks up to timeout waiting for a job. A nil result with nil
// error means the timeout elapsed with nothing ready.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue job: %w", err)
	}

	// BRPop returns [key, value]
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BRPop result length %d", len(result))
	}

	return []byte(result[1]), nil
}

// EnqueueDelayed schedules a job to become ready after delay.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, jobID kernel.JobID, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal delayed payload for job %s: %w", jobID, err)
	}

	readyAt := float64(time.Now().Add(delay).Unix())
	if err := q.client.ZAdd(ctx, q.delayedQueue(), redis.Z{
		Score:  readyAt,
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue delayed job %s: %w", jobID, err)
	}

	return nil
}

// MoveDelayedToReady promotes delayed jobs whose ready time has passed.
func (q *RedisQueue) MoveDelayedToReady(ctx context.Context) (int, error) {
	now := float64(time.Now().Unix())

	jobs, err := q.client.ZRangeByScore(ctx, q.delayedQueue(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("get delayed jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	pipe := q.client.Pipeline()
	for _, job := range jobs {
		pipe.LPush(ctx, q.queueName, job)
		pipe.ZRem(ctx, q.delayedQueue(), job)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("promote delayed jobs: %w", err)
	}

	return len(jobs), nil
}

// GetQueueSize returns the number of ready jobs.
func (q *RedisQueue) GetQueueSize(ctx context.Context) (int64, error) {
	size, err := q.client.LLen(ctx, q.queueName).Result()
	if err != nil {
		return 0, fmt.Errorf("get queue size: %w", err)
	}
	return size, nil
}

// GetDelayedQueueSize returns the number of jobs waiting on a retry delay.
func (q *RedisQueue) GetDelayedQueueSize(ctx context.Context) (int64, error) {
	size, err := q.client.ZCard(ctx, q.delayedQueue()).Result()
	if err != nil {
		return 0, fmt.Errorf("get delayed queue size: %w", err)
	}
	return size, nil
}

// Clear drops both queues. Intended for tests and maintenance only.
func (q *RedisQueue) Clear(ctx context.Context) error {
	if err := q.client.Del(ctx, q.queueName, q.delayedQueue()).Err(); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}
