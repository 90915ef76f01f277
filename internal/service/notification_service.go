package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/pkg/jobs"
	"github.com/noah-isme/persona-chat-api/pkg/mailer"
	"github.com/noah-isme/persona-chat-api/pkg/mailer/templates"
)

// EmailJobType is the jobs.Job type carrying a mailer.EmailJob payload.
const EmailJobType = "email"

// EmailDispatcher hands an email job to a transport.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, job mailer.EmailJob) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueDispatcher enqueues email jobs onto an in-process worker queue.
type QueueDispatcher struct {
	queue jobEnqueuer
}

// NewQueueDispatcher wraps queue.
func NewQueueDispatcher(queue jobEnqueuer) *QueueDispatcher {
	return &QueueDispatcher{queue: queue}
}

// Dispatch implements EmailDispatcher.
func (d *QueueDispatcher) Dispatch(_ context.Context, job mailer.EmailJob) error {
	return d.queue.Enqueue(jobs.Job{Type: EmailJobType, Payload: job})
}

// EmailJobHandler returns the queue handler that renders and delivers email jobs.
func EmailJobHandler(sender mailer.Sender) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		email, ok := job.Payload.(mailer.EmailJob)
		if !ok {
			return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
		}
		return mailer.Deliver(ctx, sender, email)
	}
}

// BrokerDispatcher publishes email jobs to a message broker queue.
type BrokerDispatcher struct {
	publisher jsonPublisher
	timeout   time.Duration
}

// NewBrokerDispatcher wraps publisher.
func NewBrokerDispatcher(publisher jsonPublisher) *BrokerDispatcher {
	return &BrokerDispatcher{publisher: publisher, timeout: 5 * time.Second}
}

// Dispatch implements EmailDispatcher.
func (d *BrokerDispatcher) Dispatch(ctx context.Context, job mailer.EmailJob) error {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	return d.publisher.PublishJSON(c, job)
}

// NotificationConfig holds values rendered into emails.
type NotificationConfig struct {
	Enabled     bool
	AppName     string
	FrontendURL string
}

// NotificationService composes account emails and hands them to a dispatcher.
// Failures are logged and never returned: delivery is best effort.
type NotificationService struct {
	dispatcher EmailDispatcher
	logger     *zap.Logger
	metrics    *MetricsService
	config     NotificationConfig
	now        func() time.Time
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(dispatcher EmailDispatcher, logger *zap.Logger, metrics *MetricsService, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AppName == "" {
		cfg.AppName = "ChatZPT"
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &NotificationService{dispatcher: dispatcher, logger: logger, metrics: metrics, config: cfg, now: time.Now}
}

// SendWelcome greets a new account.
func (s *NotificationService) SendWelcome(ctx context.Context, user models.User) {
	s.send(ctx, user, templates.Welcome, templates.EmailData{AppURL: s.config.FrontendURL})
}

// SendEmailVerification sends the verification link.
func (s *NotificationService) SendEmailVerification(ctx context.Context, user models.User, token string, expiresAt time.Time) {
	s.send(ctx, user, templates.VerifyEmail, templates.EmailData{
		ActionURL: s.link("/verify-email", token),
		ExpiresAt: expiresAt,
	})
}

// SendPasswordReset sends the reset link.
func (s *NotificationService) SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) {
	s.send(ctx, user, templates.ResetPassword, templates.EmailData{
		ActionURL: s.link("/reset-password", token),
		ExpiresAt: expiresAt,
	})
}

// SendPasswordChanged confirms a password change.
func (s *NotificationService) SendPasswordChanged(ctx context.Context, user models.User) {
	s.send(ctx, user, templates.PasswordChanged, templates.EmailData{})
}

// SendAccountLocked warns that the account was locked until the given time.
func (s *NotificationService) SendAccountLocked(ctx context.Context, user models.User, until time.Time, ip string) {
	s.send(ctx, user, templates.AccountLocked, templates.EmailData{
		ActionURL: s.config.FrontendURL + "/forgot-password",
		ExpiresAt: until,
		IP:        ip,
	})
}

func (s *NotificationService) link(path, token string) string {
	return s.config.FrontendURL + path + "?token=" + token
}

func (s *NotificationService) send(ctx context.Context, user models.User, template string, data templates.EmailData) {
	if !s.config.Enabled || s.dispatcher == nil {
		s.logger.Debug("email delivery disabled", zap.String("template", template), zap.String("user_id", user.ID))
		return
	}

	data.Name = user.Profile.Name
	data.Email = user.Email
	data.AppName = s.config.AppName
	if data.AppURL == "" {
		data.AppURL = s.config.FrontendURL
	}
	data.Time = s.now().UTC().Format("2006-01-02 15:04 MST")

	err := s.dispatcher.Dispatch(ctx, mailer.EmailJob{
		To:       user.Email,
		Template: template,
		Data:     templates.ToMap(data),
	})
	s.metrics.RecordEmailDispatch(template, err)
	if err != nil {
		level := s.logger.Warn
		if errors.Is(err, jobs.ErrQueueClosed) {
			level = s.logger.Error
		}
		level("failed to dispatch email", zap.String("template", template), zap.String("user_id", user.ID), zap.Error(err))
	}
}
