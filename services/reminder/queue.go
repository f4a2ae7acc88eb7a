package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeReminderSend is the task type the worker handles.
const TypeReminderSend = "reminder:send"

// Queue abstracts the delayed-job backend: submit a job under a stable key
// with a delay, or cancel a queued job by key.
type Queue interface {
	Submit(ctx context.Context, key string, payload []byte, delay time.Duration) (string, error)
	Cancel(ctx context.Context, key string) error
}

// JobKey derives the stable queue key for one reminder on one booking.
func JobKey(bookingID string, idx int) string {
	return fmt.Sprintf("reminder:%s:%d", bookingID, idx)
}

// AsynqQueue is the Redis-backed production queue.
type AsynqQueue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	QueueName string
}

func NewAsynqQueue(redisOpt asynq.RedisClientOpt, queueName string) *AsynqQueue {
	return &AsynqQueue{
		Client:    asynq.NewClient(redisOpt),
		Inspector: asynq.NewInspector(redisOpt),
		QueueName: queueName,
	}
}

func (q *AsynqQueue) Submit(ctx context.Context, key string, payload []byte, delay time.Duration) (string, error) {
	task := asynq.NewTask(TypeReminderSend, payload)
	info, err := q.Client.EnqueueContext(ctx, task,
		asynq.TaskID(key),
		asynq.Queue(q.QueueName),
		asynq.ProcessIn(delay),
	)
	if err != nil {
		// A duplicate key means the job is already queued; treat as submitted.
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return key, nil
		}
		return "", fmt.Errorf("enqueue reminder task %s: %w", key, err)
	}
	return info.ID, nil
}

func (q *AsynqQueue) Cancel(ctx context.Context, key string) error {
	err := q.Inspector.DeleteTask(q.QueueName, key)
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return fmt.Errorf("cancel reminder task %s: %w", key, err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return q.Client.Close()
}
