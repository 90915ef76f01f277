package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/pkg/config"
	"github.com/noah-isme/persona-chat-api/pkg/mailer/templates"
)

// ErrMissingRecipient is returned for jobs without a destination address.
var ErrMissingRecipient = errors.New("email job has no recipient")

// ErrRender marks jobs whose template could not be rendered. Retrying them never helps.
var ErrRender = errors.New("render email")

// Sender delivers a fully rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// LogSender writes messages to the log instead of delivering them. Used when
// no provider is configured.
type LogSender struct {
	Logger *zap.Logger
}

// NewLogSender returns a sender that only logs.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{Logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, to, subject, text, _ string) error {
	s.Logger.Info("email not delivered (no provider configured)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("text_bytes", len(text)),
	)
	return nil
}

// Deliver renders job when it names a template and hands the result to sender.
func Deliver(ctx context.Context, sender Sender, job EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return ErrMissingRecipient
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w %s: %w", ErrRender, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	return sender.Send(ctx, job.To, subject, text, html)
}

// NewSender picks Mailgun when it is configured and the log sender otherwise.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) Sender {
	if cfg.MailgunConfigured() {
		return NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.Sender())
	}
	return NewLogSender(logger)
}
