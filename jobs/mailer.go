package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers through a plain SMTP relay (Mailpit locally).
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer wires a mailer against host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// Send delivers one message. Local relays need no auth.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

// LogMailer records mail instead of sending it. Used when SMTP is not
// configured and in tests.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message envelope.
func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Logger.Info("mail suppressed", slog.String("to", to), slog.String("subject", subject))
	return nil
}
