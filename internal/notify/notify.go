// Package notify sends import feedback to operators.
package notify

import (
	"context"
	"fmt"
	"strings"

	"csvimport/csv-import/internal/logging"

	"gopkg.in/gomail.v2"
)

// Subjects of the feedback messages.
const (
	SubjectSuccess = "Successful Import"
	SubjectFailure = "Import CSV failed"
)

// Notifier delivers a feedback message.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Sender delivers composed messages; *gomail.Dialer implements it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends feedback by e-mail.
type Mailer struct {
	cfg    SMTPConfig
	sender Sender
	logger logging.Logger
}

// NewMailer creates a Mailer delivering through the configured SMTP server.
func NewMailer(cfg SMTPConfig, logger logging.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("notify: smtp host is not set")
	}
	return NewMailerWithSender(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), logger)
}

// NewMailerWithSender creates a Mailer delivering through sender.
func NewMailerWithSender(cfg SMTPConfig, sender Sender, logger logging.Logger) (*Mailer, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("notify: sender address is not set")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("notify: no recipients configured")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Mailer{cfg: cfg, sender: sender, logger: logger}, nil
}

// Notify sends one plain text mail to all recipients.
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("notify: send %q: %w", subject, err)
	}
	m.logger.Info("Sent import feedback",
		logging.F("subject", subject),
		logging.F("recipients", strings.Join(m.cfg.To, ",")))
	return nil
}

// LogNotifier writes feedback to the log instead of sending it.
type LogNotifier struct {
	logger logging.Logger
}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier(logger logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, subject, body string) error {
	n.logger.Info("Import feedback", logging.F("subject", subject), logging.F("body", body))
	return nil
}
