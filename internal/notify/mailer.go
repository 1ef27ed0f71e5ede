// Package notify renders and sends transactional email.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

//go:embed templates/*
var templateFS embed.FS

// Template names.
const (
	TemplateVerification     = "verification"
	TemplateOrderPlaced      = "order_placed"
	TemplatePaymentConfirmed = "payment_confirmed"
)

// Message is one email to send.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     any
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the dialer settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	SSL      bool
}

// dialer is the subset of *gomail.Dialer used by SMTPMailer.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer renders the embedded templates and delivers them over SMTP.
type SMTPMailer struct {
	from   string
	dialer dialer
	html   *htmltemplate.Template
	text   *texttemplate.Template
	logger zerolog.Logger
}

// NewSMTPMailer parses the embedded templates and configures the SMTP dialer.
func NewSMTPMailer(cfg SMTPConfig, logger zerolog.Logger) (*SMTPMailer, error) {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.SSL
	return newSMTPMailer(cfg.From, d, logger)
}

func newSMTPMailer(from string, d dialer, logger zerolog.Logger) (*SMTPMailer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	return &SMTPMailer{
		from:   from,
		dialer: d,
		html:   html,
		text:   text,
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// Send renders msg and delivers it. The gomail dialer has no context support,
// so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	plain, html, err := m.render(msg)
	if err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", plain)
	gm.AddAlternative("text/html", html)

	if err := m.dialer.DialAndSend(gm); err != nil {
		m.logger.Error().Err(err).Str("to", msg.To).Str("template", msg.Template).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info().Str("to", msg.To).Str("template", msg.Template).Msg("email sent")
	return nil
}

func (m *SMTPMailer) render(msg Message) (string, string, error) {
	var plain, html bytes.Buffer
	if err := m.text.ExecuteTemplate(&plain, msg.Template+".txt", msg.Data); err != nil {
		return "", "", fmt.Errorf("failed to render %s text: %w", msg.Template, err)
	}
	if err := m.html.ExecuteTemplate(&html, msg.Template+".html", msg.Data); err != nil {
		return "", "", fmt.Errorf("failed to render %s html: %w", msg.Template, err)
	}
	return plain.String(), html.String(), nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer for environments without SMTP.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log-mailer").Logger()}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("template", msg.Template).
		Interface("data", msg.Data).
		Msg("email not sent, SMTP disabled")
	return nil
}
