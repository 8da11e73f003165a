package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	mail "github.com/go-mail/mail/v2"

	"github.com/noah-isme/opr-api/pkg/config"
)

// ErrDisabled is returned by Send when SMTP is not configured.
var ErrDisabled = errors.New("mailer disabled: SMTP_HOST/SMTP_FROM not set")

// Message is a single outgoing e-mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPMailer delivers messages through an SMTP relay with mandatory STARTTLS.
type SMTPMailer struct {
	from   string
	dialer sender
}

// New builds a mailer from configuration. A missing host yields a disabled mailer.
func New(cfg config.MailConfig) *SMTPMailer {
	if cfg.Host == "" || cfg.From == "" {
		return &SMTPMailer{}
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(cfg.Host, port, cfg.User, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec // dev relays only
	}
	return &SMTPMailer{from: cfg.From, dialer: d}
}

// Enabled reports whether Send will attempt delivery.
func (m *SMTPMailer) Enabled() bool {
	return m != nil && m.dialer != nil
}

// Send delivers msg. Context cancellation is checked before dialing only.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) *mail.Message {
	out := mail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To...)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/html", msg.HTML)
	return out
}
