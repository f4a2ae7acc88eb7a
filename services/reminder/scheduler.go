package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	bookingRepo "schedly/database/repository/booking"
	"schedly/models"
	"schedly/services/notification"
	"schedly/utils"
)

// Scheduler owns reminder fire-time computation, queue submission and
// cancellation for a booking's reminders.
type Scheduler interface {
	ScheduleForBooking(ctx context.Context, b *models.Booking)
	CancelForBooking(ctx context.Context, b *models.Booking) error
	DeliverReminder(ctx context.Context, bookingID string, idx int) error
}

// DefaultScheduler is the production implementation.
type DefaultScheduler struct {
	Bookings bookingRepo.BookingRepository
	Queue    Queue
	Sender   notification.Sender
	Clock    utils.Clock
	Logger   *zap.Logger
}

// FireTime computes when a reminder should fire. Slot instants are stored in
// UTC but were authored as the client's wall clock; when the booking carries
// the client's UTC offset, the instant is reinterpreted by subtracting that
// offset before applying the reminder lead time.
func FireTime(slotStart time.Time, clientOffsetMinutes *int, r models.Reminder) time.Time {
	reinterpreted := slotStart
	if clientOffsetMinutes != nil {
		reinterpreted = slotStart.Add(-time.Duration(*clientOffsetMinutes) * time.Minute)
	}
	return reinterpreted.Add(-r.Offset())
}

// ScheduleForBooking computes and persists scheduledFor for every reminder,
// then either fires it immediately (already due) or submits a delayed job.
// Failures are logged per reminder and never propagate: reminder scheduling
// is best-effort relative to the booking operation that triggered it.
func (s *DefaultScheduler) ScheduleForBooking(ctx context.Context, b *models.Booking) {
	now := s.Clock.Now()

	for idx := range b.Reminders {
		r := &b.Reminders[idx]
		if r.Sent {
			continue
		}

		scheduledFor := FireTime(b.SlotStart, b.ClientUTCOffsetMinutes, *r)
		r.ScheduledFor = &scheduledFor

		if err := s.Bookings.SetReminderScheduledFor(ctx, b.ID, idx, scheduledFor); err != nil {
			s.Logger.Warn("failed to persist reminder fire time",
				zap.String("bookingId", b.ID), zap.Int("reminder", idx), zap.Error(err))
		}

		if !scheduledFor.After(now) {
			// Already due: fire synchronously instead of enqueueing.
			if err := s.DeliverReminder(ctx, b.ID, idx); err != nil {
				s.Logger.Warn("immediate reminder delivery failed",
					zap.String("bookingId", b.ID), zap.Int("reminder", idx), zap.Error(err))
			}
			continue
		}

		payload, err := json.Marshal(models.ReminderPayload{BookingID: b.ID, ReminderIndex: idx})
		if err != nil {
			s.Logger.Warn("failed to encode reminder payload",
				zap.String("bookingId", b.ID), zap.Int("reminder", idx), zap.Error(err))
			continue
		}

		if _, err := s.Queue.Submit(ctx, JobKey(b.ID, idx), payload, scheduledFor.Sub(now)); err != nil {
			// The backup sweep will pick this reminder up from its persisted
			// scheduledFor.
			s.Logger.Warn("failed to submit reminder job",
				zap.String("bookingId", b.ID), zap.Int("reminder", idx), zap.Error(err))
		}
	}
}

// CancelForBooking removes queued jobs for every unsent reminder and marks
// them sent so the backup sweep never fires them for a cancelled booking.
func (s *DefaultScheduler) CancelForBooking(ctx context.Context, b *models.Booking) error {
	var firstErr error

	for idx := range b.Reminders {
		if b.Reminders[idx].Sent {
			continue
		}
		if err := s.Queue.Cancel(ctx, JobKey(b.ID, idx)); err != nil {
			s.Logger.Warn("failed to cancel reminder job",
				zap.String("bookingId", b.ID), zap.Int("reminder", idx), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := s.Bookings.MarkAllUnsentRemindersSent(ctx, b.ID, s.Clock.Now()); err != nil {
		s.Logger.Warn("failed to suppress reminders on cancelled booking",
			zap.String("bookingId", b.ID), zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeliverReminder is the single delivery path shared by the queue worker and
// the backup sweep. The sent flag is checked immediately before delivery and
// set immediately after; the conditional store update keeps the flip
// single-winner even if both paths race into delivery.
func (s *DefaultScheduler) DeliverReminder(ctx context.Context, bookingID string, idx int) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			s.Logger.Warn("reminder for missing booking dropped", zap.String("bookingId", bookingID))
			return nil
		}
		return err
	}

	if b.Status != models.StatusPending && b.Status != models.StatusConfirmed {
		return nil
	}
	if idx < 0 || idx >= len(b.Reminders) {
		s.Logger.Warn("reminder index out of range",
			zap.String("bookingId", bookingID), zap.Int("reminder", idx))
		return nil
	}
	if b.Reminders[idx].Sent {
		return nil
	}

	identity := b.NotifiableIdentity()
	if identity == "" {
		// Nothing to deliver to; suppress so the sweep stops retrying.
		_, _ = s.Bookings.MarkReminderSent(ctx, bookingID, idx, s.Clock.Now())
		return nil
	}

	if err := s.Sender.Deliver(ctx, identity, notification.RenderReminder(b)); err != nil {
		return err
	}

	won, err := s.Bookings.MarkReminderSent(ctx, bookingID, idx, s.Clock.Now())
	if err != nil {
		return err
	}
	if !won {
		s.Logger.Debug("reminder already marked sent by concurrent path",
			zap.String("bookingId", bookingID), zap.Int("reminder", idx))
	}
	return nil
}
