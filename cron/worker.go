package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"schedly/config"
	"schedly/models"
	"schedly/services/reminder"
	"schedly/utils"
)

// InitReminderWorker runs the asynq worker in the background. Delayed
// reminder jobs enqueued at booking time land here and go through the
// shared delivery path on the scheduler.
func InitReminderWorker(sched reminder.Scheduler) {
	logger := utils.GetLogger()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(reminder.TypeReminderSend, handleReminderTask(sched))

	go func() {
		logger.Info("starting reminder worker")
		const maxAttempts = 5

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("reminder worker failed to start",
				zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempt == maxAttempts {
				logger.Fatal("reminder worker gave up after max attempts")
			}
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
	}()
}

func handleReminderTask(sched reminder.Scheduler) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			// Malformed payloads never become valid; do not retry.
			return nil
		}

		logger.Info("reminder job fired",
			zap.String("bookingId", p.BookingID), zap.Int("reminder", p.ReminderIndex))

		if err := sched.DeliverReminder(ctx, p.BookingID, p.ReminderIndex); err != nil {
			logger.Error("reminder delivery failed",
				zap.String("bookingId", p.BookingID), zap.Int("reminder", p.ReminderIndex), zap.Error(err))
			return err
		}
		return nil
	}
}

// StartSweepJob runs the backup reconciliation sweep on a fixed interval.
// The sweep catches reminders whose queue job was lost or never submitted.
func StartSweepJob(sweep *reminder.Sweep) *cron.Cron {
	logger := utils.GetLogger()

	c := cron.New()
	spec := fmt.Sprintf("@every %s", config.SweepInterval())
	if _, err := c.AddFunc(spec, func() {
		sweep.Run(context.Background())
	}); err != nil {
		logger.Fatal("failed to register sweep job", zap.Error(err))
	}
	c.Start()

	logger.Info("reminder sweep scheduled", zap.String("interval", config.SweepInterval().String()))
	return c
}
