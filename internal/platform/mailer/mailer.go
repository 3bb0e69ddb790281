// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tasksync/tasksync-api/internal/config"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// SMTPMailer composes messages with gomail and hands them to a Sender.
type SMTPMailer struct {
	sender Sender
	from   string
	logger *slog.Logger
}

// New creates an SMTP mailer from configuration.
func New(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	return NewWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, logger)
}

// NewWithSender creates a mailer delivering through sender.
func NewWithSender(sender Sender, from string, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		sender: sender,
		from:   from,
		logger: logger.With(slog.String("component", "mailer")),
	}
}

// Send delivers msg. The context is checked before dialing since gomail
// does not accept one.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		gm.SetBody("text/plain", msg.Text)
		gm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		gm.SetBody("text/html", msg.HTML)
	default:
		gm.SetBody("text/plain", msg.Text)
	}

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}

	logger.FromContextOrDefault(ctx, m.logger).Debug("mail sent", slog.String("subject", msg.Subject))
	return nil
}
