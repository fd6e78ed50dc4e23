package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Channel delivers a single message to its recipient.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPChannel delivers messages over plain SMTP with optional AUTH.
type SMTPChannel struct {
	addr string
	auth smtp.Auth
	from string
}

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPChannel creates a channel for the given mail server. AUTH is
// used only when a username is configured.
func NewSMTPChannel(cfg SMTPConfig) *SMTPChannel {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPChannel{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

// Send delivers one message. The context is accepted for interface
// symmetry; net/smtp does not support cancellation mid-session.
func (c *SMTPChannel) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: GWPL Security GSOC <%s>\r\n", c.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	if err := smtp.SendMail(c.addr, c.auth, c.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
