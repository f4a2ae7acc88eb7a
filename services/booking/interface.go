package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"schedly/config"
	bookingRepo "schedly/database/repository/booking"
	serviceRepo "schedly/database/repository/service"
	specialistRepo "schedly/database/repository/specialist"
	timeslotRepo "schedly/database/repository/timeslot"
	"schedly/models"
	"schedly/services/events"
	"schedly/services/reminder"
	"schedly/services/scheduling"
	"schedly/utils"
)

// Actor identifies who is driving an operation; some guards (the
// cancellation cutoff) apply only to clients.
type Actor string

const (
	ActorClient   Actor = "client"
	ActorProvider Actor = "provider"
)

// Policy carries the tenant-level booking rules.
type Policy struct {
	// RequireConfirmation forces every booking through the code path.
	RequireConfirmation bool
	// AutoConfirm starts bookings as confirmed when confirmation is not
	// required. When both flags are false, bookings still start pending and
	// confirm through the code path.
	AutoConfirm        bool
	CancellationCutoff time.Duration
	CodeTTL            time.Duration
}

// PolicyFromConfig reads the policy from AppConfig.
func PolicyFromConfig() Policy {
	return Policy{
		RequireConfirmation: config.AppConfig.BookingRequireConfirmation,
		AutoConfirm:         config.AppConfig.BookingAutoConfirm,
		CancellationCutoff:  config.CancellationCutoff(),
		CodeTTL:             config.ConfirmationCodeTTL(),
	}
}

// CreateRequest is the input to CreateBooking. SlotID accepts the external
// id of a physical, virtual or merged slot.
type CreateRequest struct {
	SpecialistID           string            `json:"specialistId"`
	ServiceID              string            `json:"serviceId"`
	SlotID                 string            `json:"slotId"`
	ClientName             string            `json:"clientName"`
	ClientPhone            string            `json:"clientPhone,omitempty"`
	ClientEmail            string            `json:"clientEmail,omitempty"`
	Source                 string            `json:"source,omitempty"`
	ClientUTCOffsetMinutes *int              `json:"clientUtcOffsetMinutes,omitempty"`
	Reminders              []models.Reminder `json:"reminders,omitempty"`
	ClientData             map[string]string `json:"clientData,omitempty"`
}

// Engine owns the booking lifecycle.
type Engine interface {
	CreateBooking(ctx context.Context, req CreateRequest) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, code string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, reason string, actor Actor) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	MarkNoShow(ctx context.Context, bookingID string) (*models.Booking, error)
	ListForDay(ctx context.Context, specialistID string, date time.Time) ([]models.Booking, error)
}

// DefaultEngine is the production implementation.
type DefaultEngine struct {
	Specialists specialistRepo.SpecialistRepository
	Services    serviceRepo.ServiceRepository
	Slots       timeslotRepo.TimeSlotRepository
	Bookings    bookingRepo.BookingRepository
	Reminders   reminder.Scheduler
	Bus         *events.Bus
	// SlotCache is invalidated when occupancy changes; nil disables it.
	SlotCache scheduling.SlotCache
	Clock     utils.Clock
	Policy    Policy
	Logger    *zap.Logger
}
