package notification

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"schedly/config"
)

// MailSender delivers messages over SMTP. Identities that do not look like
// email addresses are rejected as undeliverable on this channel.
type MailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailSender builds a sender from the SMTP settings in AppConfig.
func NewMailSender() *MailSender {
	cfg := config.AppConfig
	return &MailSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (s *MailSender) Deliver(ctx context.Context, identity string, msg Message) error {
	if !strings.Contains(identity, "@") {
		return fmt.Errorf("identity %q is not deliverable over mail", identity)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", identity)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	// gomail has no context support; honor cancellation before dialing.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return s.dialer.DialAndSend(m)
}
