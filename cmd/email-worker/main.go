package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/pkg/broker"
	"github.com/noah-isme/persona-chat-api/pkg/config"
	"github.com/noah-isme/persona-chat-api/pkg/logger"
	"github.com/noah-isme/persona-chat-api/pkg/mailer"
)

const reconnectDelay = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Broker.URL == "" {
		logr.Fatal("RABBITMQ_URL is required for the email worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := mailer.NewSender(cfg.Email, logr.Named("sender"))
	handler := deliveryHandler(sender, logr)
	consumer := broker.ConsumerConfig{
		URL:      cfg.Broker.URL,
		Queue:    cfg.Broker.EmailQueue,
		Prefetch: cfg.Email.Workers,
		Logger:   logr,
	}

	for {
		err := broker.Consume(ctx, consumer, handler)
		if ctx.Err() != nil {
			logr.Info("email worker stopped")
			return
		}
		logr.Warn("consumer exited, reconnecting", zap.Error(err), zap.Duration("delay", reconnectDelay))
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// deliveryHandler decodes an EmailJob and delivers it. Malformed jobs are
// discarded; provider failures are requeued.
func deliveryHandler(sender mailer.Sender, logr *zap.Logger) broker.MessageHandler {
	return func(ctx context.Context, body []byte) broker.Outcome {
		var job mailer.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			logr.Warn("discarding malformed email job", zap.Error(err))
			return broker.Discard
		}

		err := mailer.Deliver(ctx, sender, job)
		switch {
		case err == nil:
			logr.Info("email delivered", zap.String("template", job.Template))
			return broker.Ack
		case errors.Is(err, mailer.ErrMissingRecipient), errors.Is(err, mailer.ErrRender):
			logr.Warn("discarding undeliverable email job", zap.String("template", job.Template), zap.Error(err))
			return broker.Discard
		default:
			logr.Warn("email delivery failed, requeueing", zap.String("template", job.Template), zap.Error(err))
			return broker.Requeue
		}
	}
}
