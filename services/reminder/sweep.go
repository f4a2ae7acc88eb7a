package reminder

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "schedly/database/repository/booking"
	"schedly/models"
	"schedly/utils"
)

const sweepLockKey = "reminder:sweep:lock"

// RunLock serializes sweep passes across processes.
type RunLock interface {
	// Acquire attempts to take the lock for at most ttl. The returned token
	// identifies this holder for Release.
	Acquire(ctx context.Context, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, token string)
}

// RedisRunLock implements RunLock with a SETNX token lock. Release is
// token-checked so a pass whose TTL expired cannot drop a later pass's lock.
type RedisRunLock struct {
	Client *redis.Client
}

func (l *RedisRunLock) Acquire(ctx context.Context, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.Client.SetNX(ctx, sweepLockKey, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *RedisRunLock) Release(ctx context.Context, token string) {
	if val, err := l.Client.Get(ctx, sweepLockKey).Result(); err == nil && val == token {
		l.Client.Del(ctx, sweepLockKey)
	}
}

// Sweep is the backup reconciliation pass. It re-delivers any reminder whose
// persisted fire time has passed but which the primary queue path never
// marked sent. Overlapping runs are prevented by the run-lock so a reminder
// is never raced by two sweeps.
type Sweep struct {
	Scheduler *DefaultScheduler
	Bookings  bookingRepo.BookingRepository
	Lock      RunLock
	Clock     utils.Clock
	Logger    *zap.Logger

	// Horizon bounds how far ahead of the slot start the sweep looks.
	Horizon time.Duration
	// LockTTL caps how long a crashed run can hold the lock.
	LockTTL time.Duration
}

// Run executes one sweep pass. It is safe to call on a timer; a pass that
// fails to acquire the run-lock returns immediately.
func (s *Sweep) Run(ctx context.Context) {
	token, ok, err := s.Lock.Acquire(ctx, s.LockTTL)
	if err != nil {
		s.Logger.Warn("sweep lock acquisition failed", zap.Error(err))
		return
	}
	if !ok {
		s.Logger.Debug("sweep already running, skipping")
		return
	}
	defer s.Lock.Release(ctx, token)

	now := s.Clock.Now()
	statuses := []models.BookingStatus{models.StatusPending, models.StatusConfirmed}

	bookings, err := s.Bookings.ListWithUnsentReminders(ctx, statuses, now, now.Add(s.Horizon))
	if err != nil {
		s.Logger.Error("sweep query failed", zap.Error(err))
		return
	}

	delivered := 0
	for i := range bookings {
		b := &bookings[i]
		for idx := range b.Reminders {
			r := b.Reminders[idx]
			if r.Sent || r.ScheduledFor == nil {
				continue
			}
			if r.ScheduledFor.After(now) {
				continue
			}
			if err := s.Scheduler.DeliverReminder(ctx, b.ID, idx); err != nil {
				s.Logger.Warn("sweep delivery failed",
					zap.String("bookingId", b.ID), zap.Int("reminder", idx), zap.Error(err))
				continue
			}
			delivered++
		}
	}

	if delivered > 0 {
		s.Logger.Info("sweep re-delivered reminders", zap.Int("count", delivered))
	}
}
