package models

import "time"

// BookingStatus is the booking lifecycle state.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusNoShow    BookingStatus = "no_show"
)

// Terminal reports whether a status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusNoShow
}

// ReminderUnit is the unit of a reminder offset.
type ReminderUnit string

const (
	UnitMinutes ReminderUnit = "minutes"
	UnitHours   ReminderUnit = "hours"
	UnitDays    ReminderUnit = "days"
)

// Reminder is a scheduled notification embedded in a booking, fired once
// relative to the slot's local wall-clock time.
type Reminder struct {
	TimeValue    int          `bson:"timeValue" json:"timeValue"`
	TimeUnit     ReminderUnit `bson:"timeUnit" json:"timeUnit"`
	Sent         bool         `bson:"sent" json:"sent"`
	SentAt       *time.Time   `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	ScheduledFor *time.Time   `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
}

// Offset returns the reminder lead time before the slot start.
func (r Reminder) Offset() time.Duration {
	switch r.TimeUnit {
	case UnitDays:
		return time.Duration(r.TimeValue) * 24 * time.Hour
	case UnitHours:
		return time.Duration(r.TimeValue) * time.Hour
	default:
		return time.Duration(r.TimeValue) * time.Minute
	}
}

// Booking is a client's reservation against one or more slots.
//
// SlotStart/SlotEnd are denormalized from the primary slot so the
// reconciliation sweep can range-query bookings by upcoming slot start
// without joining the slot collection.
type Booking struct {
	ID           string `bson:"id" json:"id"`
	SpecialistID string `bson:"specialistId" json:"specialistId"`
	ServiceID    string `bson:"serviceId" json:"serviceId"`

	// TimeSlotID is the primary slot (first of a merged group).
	TimeSlotID    string    `bson:"timeSlotId" json:"timeSlotId"`
	MergedSlotIDs []string  `bson:"mergedSlotIds,omitempty" json:"mergedSlotIds,omitempty"`
	SlotStart     time.Time `bson:"slotStart" json:"slotStart"`
	SlotEnd       time.Time `bson:"slotEnd" json:"slotEnd"`

	ClientName  string `bson:"clientName" json:"clientName"`
	ClientPhone string `bson:"clientPhone,omitempty" json:"clientPhone,omitempty"`
	ClientEmail string `bson:"clientEmail,omitempty" json:"clientEmail,omitempty"`
	Source      string `bson:"source" json:"source"` // e.g. "bot", "miniapp", "web"

	// ClientUTCOffsetMinutes captures the client's UTC offset at booking
	// time. The reminder scheduler uses it to reinterpret the stored slot
	// instant in the client's wall clock.
	ClientUTCOffsetMinutes *int              `bson:"clientUtcOffsetMinutes,omitempty" json:"clientUtcOffsetMinutes,omitempty"`
	ClientData             map[string]string `bson:"clientData,omitempty" json:"clientData,omitempty"`

	Status                    BookingStatus `bson:"status" json:"status"`
	ConfirmationCode          *string       `bson:"confirmationCode,omitempty" json:"confirmationCode,omitempty"`
	ConfirmationCodeExpiresAt *time.Time    `bson:"confirmationCodeExpiresAt,omitempty" json:"confirmationCodeExpiresAt,omitempty"`
	ConfirmedAt               *time.Time    `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancellationReason        string        `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`

	Reminders []Reminder `bson:"reminders,omitempty" json:"reminders,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OccupiedSlotIDs returns every slot id the booking holds, in order.
func (b *Booking) OccupiedSlotIDs() []string {
	if len(b.MergedSlotIDs) > 0 {
		return b.MergedSlotIDs
	}
	return []string{b.TimeSlotID}
}

// NotifiableIdentity returns the client contact the notification sender can
// deliver to, or empty when the booking carries none.
func (b *Booking) NotifiableIdentity() string {
	if b.ClientEmail != "" {
		return b.ClientEmail
	}
	return b.ClientPhone
}

// ReminderPayload is the task-queue payload for a single reminder job.
type ReminderPayload struct {
	BookingID     string `json:"bookingId"`
	ReminderIndex int    `json:"reminderIndex"`
}
