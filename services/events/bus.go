package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"schedly/models"
)

// EventType names a domain event.
type EventType string

const (
	BookingCreated   EventType = "booking.created"
	BookingConfirmed EventType = "booking.confirmed"
	BookingCancelled EventType = "booking.cancelled"
)

// Event carries a snapshot of the booking at emission time.
type Event struct {
	Type    EventType
	Booking models.Booking
	At      time.Time
}

// Handler consumes one event. Handlers must not assume ordering across
// bookings.
type Handler func(ctx context.Context, e Event)

// Bus is a small in-process dispatcher. Publishing never blocks the domain
// operation: handlers run on their own goroutine and panics are contained.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a handler for all event types.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish dispatches the event to every subscriber asynchronously.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	// Handlers outlive the operation that published the event. Detach from
	// the caller's cancellation so a finished HTTP request cannot kill an
	// in-flight delivery; values (trace ids) are preserved.
	ctx = context.WithoutCancel(ctx)

	for _, h := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panic",
						zap.String("event", string(e.Type)),
						zap.String("bookingId", e.Booking.ID),
						zap.Any("recover", r))
				}
			}()
			h(ctx, e)
		}(h)
	}
}
