// Package mail delivers the verification and password-reset emails. Without
// SMTP configuration delivery degrades to logging the message instead of
// failing the triggering request.
package mail

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"navio/api/internal/config"
)

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

func New(cfg config.MailConfig, log zerolog.Logger) Mailer {
	if cfg.Host == "" {
		return &logMailer{log: log}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg config.MailConfig
}

func (m *smtpMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// logMailer is the dev delivery path: the message body, including the
// one-time link, shows up in the server log.
type logMailer struct {
	log zerolog.Logger
}

func (m *logMailer) Send(to, subject, htmlBody string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", htmlBody).
		Msg("mail delivery not configured, logging message")
	return nil
}
