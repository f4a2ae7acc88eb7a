package bookingRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"schedly/database"
	"schedly/models"
)

// BookingRepository provides keyed and range access to booking rows plus the
// reminder-flag primitives the scheduler and sweep rely on.
type BookingRepository interface {
	Insert(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByConfirmationCode(ctx context.Context, code string) (*models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	ListBySpecialistAndRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error)

	// SetReminderScheduledFor persists the computed fire time once so the
	// backup sweep never recomputes drifting values.
	SetReminderScheduledFor(ctx context.Context, bookingID string, idx int, at time.Time) error

	// MarkReminderSent flips sent only if it is still false; the bool result
	// reports whether this caller won the flip.
	MarkReminderSent(ctx context.Context, bookingID string, idx int, at time.Time) (bool, error)

	// MarkAllUnsentRemindersSent suppresses future delivery for every
	// not-yet-sent reminder on the booking (used on cancellation).
	MarkAllUnsentRemindersSent(ctx context.Context, bookingID string, at time.Time) error

	// ListWithUnsentReminders returns bookings in the given statuses whose
	// slot starts inside [from, to) and which still carry unsent reminders.
	ListWithUnsentReminders(ctx context.Context, statuses []models.BookingStatus, from, to time.Time) ([]models.Booking, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	return &mongoBookingRepo{
		coll: database.DB().Collection("bookings"),
	}
}
