package notification

import "context"

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// Sender delivers a rendered message to a client identity. The engine is
// agnostic to the channel behind it; implementations decide what the
// identity string means (email address, phone number, chat id).
type Sender interface {
	Deliver(ctx context.Context, identity string, msg Message) error
}
