package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/paradisefm/facilities-api/pkg/config"
)

// Message is a plain-text outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers messages over a configured SMTP transport.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends via net/smtp. Delivery runs on the jobs queue so a slow
// or failing server never touches the request path.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer constructs a mailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers a single message.
func (m *SMTPMailer) Send(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, msg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
