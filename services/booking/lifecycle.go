package booking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	bookingRepo "schedly/database/repository/booking"
	"schedly/models"
	"schedly/services/events"
)

func (e *DefaultEngine) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := e.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, models.NewNotFound("booking %s not found", id)
		}
		return nil, err
	}
	return b, nil
}

// ConfirmBooking moves a pending booking to confirmed when the presented
// code matches and has not expired. The code is cleared on success, so a
// second confirmation attempt fails with invalid_state.
func (e *DefaultEngine) ConfirmBooking(ctx context.Context, code string) (*models.Booking, error) {
	if code == "" {
		return nil, models.NewValidation("confirmation code is required")
	}

	b, err := e.Bookings.GetByConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, models.NewInvalidState("confirmation code is not valid")
		}
		return nil, err
	}

	if b.Status != models.StatusPending {
		return nil, models.NewInvalidState("booking %s cannot be confirmed from status %s", b.ID, b.Status)
	}

	now := e.Clock.Now()
	if b.ConfirmationCodeExpiresAt == nil || now.After(*b.ConfirmationCodeExpiresAt) {
		return nil, models.NewInvalidState("confirmation code has expired")
	}

	b.Status = models.StatusConfirmed
	b.ConfirmedAt = &now
	b.ConfirmationCode = nil
	b.ConfirmationCodeExpiresAt = nil
	if err := e.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	e.Logger.Info("booking confirmed", zap.String("bookingId", b.ID))
	e.Bus.Publish(ctx, events.Event{Type: events.BookingConfirmed, Booking: *b, At: now})
	return b, nil
}

// CancelBooking cancels a booking, releases every constituent slot and
// suppresses pending reminders. Clients are held to the cancellation cutoff;
// the provider may cancel at any time. Slot release and reminder
// cancellation are isolated sub-steps: a failure in one is logged and never
// undoes the other.
func (e *DefaultEngine) CancelBooking(ctx context.Context, bookingID, reason string, actor Actor) (*models.Booking, error) {
	b, err := e.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.Status == models.StatusCancelled || b.Status == models.StatusCompleted {
		return nil, models.NewInvalidState("booking %s cannot be cancelled from status %s", b.ID, b.Status)
	}

	now := e.Clock.Now()
	if actor != ActorProvider && b.SlotStart.Sub(now) < e.Policy.CancellationCutoff {
		return nil, models.NewInvalidState("booking %s can no longer be cancelled this close to the slot", b.ID)
	}

	b.Status = models.StatusCancelled
	b.CancellationReason = reason
	b.ConfirmationCode = nil
	b.ConfirmationCodeExpiresAt = nil
	if err := e.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	e.releaseSlots(ctx, b.OccupiedSlotIDs())
	e.invalidateDayCache(ctx, b.SpecialistID, b.SlotStart)

	if err := e.Reminders.CancelForBooking(ctx, b); err != nil {
		e.Logger.Warn("reminder cancellation incomplete",
			zap.String("bookingId", b.ID), zap.Error(err))
	}

	e.Logger.Info("booking cancelled",
		zap.String("bookingId", b.ID),
		zap.String("actor", string(actor)))
	e.Bus.Publish(ctx, events.Event{Type: events.BookingCancelled, Booking: *b, At: now})
	return b, nil
}

// CompleteBooking marks a confirmed booking as completed.
func (e *DefaultEngine) CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := e.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.Status != models.StatusConfirmed {
		return nil, models.NewInvalidState("booking %s cannot be completed from status %s", b.ID, b.Status)
	}

	b.Status = models.StatusCompleted
	if err := e.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	e.Logger.Info("booking completed", zap.String("bookingId", b.ID))
	return b, nil
}

// MarkNoShow records that the client did not turn up for a confirmed booking.
func (e *DefaultEngine) MarkNoShow(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := e.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.Status != models.StatusConfirmed {
		return nil, models.NewInvalidState("booking %s cannot be marked no-show from status %s", b.ID, b.Status)
	}

	b.Status = models.StatusNoShow
	if err := e.Bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	e.Logger.Info("booking marked no-show", zap.String("bookingId", b.ID))
	return b, nil
}
