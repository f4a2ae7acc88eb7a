package notification

import (
	"fmt"
	"time"

	"schedly/models"
)

const timeLayout = "2006-01-02 15:04 MST"

// formatSlotTime renders the slot instant in the client's wall clock when an
// offset was captured at booking time.
func formatSlotTime(b *models.Booking) string {
	t := b.SlotStart
	if b.ClientUTCOffsetMinutes != nil {
		loc := time.FixedZone("client", *b.ClientUTCOffsetMinutes*60)
		t = t.In(loc)
		return t.Format("2006-01-02 15:04")
	}
	return t.Format(timeLayout)
}

// RenderReminder builds the upcoming-appointment reminder message.
func RenderReminder(b *models.Booking) Message {
	return Message{
		Subject: "Reminder: upcoming appointment",
		Body: fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>This is a reminder for your upcoming appointment.</p>
			<p><strong>Start:</strong> %s</p>
			<p>If you need to reschedule or cancel, please contact us as soon as possible.</p>
		`, b.ClientName, formatSlotTime(b)),
	}
}

// RenderConfirmationCode builds the message carrying the code a client must
// present to confirm a pending booking.
func RenderConfirmationCode(b *models.Booking) Message {
	code := ""
	if b.ConfirmationCode != nil {
		code = *b.ConfirmationCode
	}
	return Message{
		Subject: "Confirm your booking",
		Body: fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>Your booking for %s is reserved.</p>
			<p>Use confirmation code <strong>%s</strong> to confirm it.</p>
		`, b.ClientName, formatSlotTime(b), code),
	}
}

// RenderConfirmed builds the booking-confirmed message.
func RenderConfirmed(b *models.Booking) Message {
	return Message{
		Subject: "Booking confirmed",
		Body: fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>Your appointment on %s is confirmed. See you there!</p>
		`, b.ClientName, formatSlotTime(b)),
	}
}

// RenderCancellation builds the booking-cancelled message.
func RenderCancellation(b *models.Booking) Message {
	reason := b.CancellationReason
	if reason == "" {
		reason = "no reason given"
	}
	return Message{
		Subject: "Booking cancelled",
		Body: fmt.Sprintf(`
			<p>Dear %s,</p>
			<p>Your appointment on %s was cancelled.</p>
			<p><strong>Reason:</strong> %s</p>
		`, b.ClientName, formatSlotTime(b), reason),
	}
}
