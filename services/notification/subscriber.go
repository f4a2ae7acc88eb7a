package notification

import (
	"context"

	"go.uber.org/zap"

	"schedly/services/events"
)

// NewBookingSubscriber returns an event handler that turns booking lifecycle
// events into client notifications. Delivery failures are logged and
// swallowed; the domain operation already succeeded.
func NewBookingSubscriber(sender Sender, logger *zap.Logger) events.Handler {
	return func(ctx context.Context, e events.Event) {
		b := e.Booking
		identity := b.NotifiableIdentity()
		if identity == "" {
			return
		}

		var msg Message
		switch e.Type {
		case events.BookingCreated:
			if b.ConfirmationCode != nil {
				msg = RenderConfirmationCode(&b)
			} else {
				msg = RenderConfirmed(&b)
			}
		case events.BookingConfirmed:
			msg = RenderConfirmed(&b)
		case events.BookingCancelled:
			if b.CancellationReason == "" {
				return
			}
			msg = RenderCancellation(&b)
		default:
			return
		}

		if err := sender.Deliver(ctx, identity, msg); err != nil {
			logger.Warn("notification delivery failed",
				zap.String("event", string(e.Type)),
				zap.String("bookingId", b.ID),
				zap.Error(err))
		}
	}
}
