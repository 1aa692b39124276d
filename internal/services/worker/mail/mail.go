// Package mail sends email over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/louisbranch/storefront/internal/platform/timeouts"
)

// DefaultPort is the SMTP submission port.
const DefaultPort = 587

// Message is one outgoing email.
type Message struct {
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From string
	// Insecure disables STARTTLS, for local relays such as MailHog.
	// Otherwise STARTTLS is used when the server offers it.
	Insecure bool
}

// ErrInvalidAddress wraps address errors, which retrying cannot fix.
var ErrInvalidAddress = errors.New("invalid email address")

// SMTPSender delivers through one SMTP server.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender validates cfg and builds a sender. No connection is opened
// until Send.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("missing SMTP_HOST")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = strings.TrimSpace(cfg.Username)
	}
	if from == "" {
		return nil, errors.New("missing SMTP_USER")
	}
	port := cfg.Port
	if port <= 0 {
		port = DefaultPort
	}
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTimeout(timeouts.MailSend),
	}
	if cfg.Insecure {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.NoTLS))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("new smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: from}, nil
}

// Send delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := Build(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Build assembles a MIME message with an HTML body and a plain-text
// alternative.
func Build(from string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("%w: from %q: %v", ErrInvalidAddress, from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: to %q: %v", ErrInvalidAddress, msg.To, err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to %q: %v", ErrInvalidAddress, msg.ReplyTo, err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	if msg.TextBody != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}
