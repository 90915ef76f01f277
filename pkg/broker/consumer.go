package broker

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Outcome tells the consumer how to settle a delivery.
type Outcome int

const (
	// Ack removes the message from the queue.
	Ack Outcome = iota
	// Requeue returns the message for another attempt.
	Requeue
	// Discard drops the message without redelivery.
	Discard
)

// MessageHandler processes one delivery body.
type MessageHandler func(ctx context.Context, body []byte) Outcome

// Acknowledger is the subset of amqp.Delivery used to settle messages.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// ConsumerConfig controls a queue consumer.
type ConsumerConfig struct {
	URL      string
	Queue    string
	Prefetch int
	Logger   *zap.Logger
}

// Consume dials the broker and dispatches deliveries to handler until ctx is done
// or the delivery channel closes.
func Consume(ctx context.Context, cfg ConsumerConfig, handler MessageHandler) error {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 16
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("amqp qos: %w", err)
	}
	if err := DeclareQueue(ch, cfg.Queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}

	logger.Info("consumer listening", zap.String("queue", cfg.Queue), zap.Int("prefetch", cfg.Prefetch))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := Settle(&msg, handler(ctx, msg.Body)); err != nil {
				logger.Warn("settle delivery failed", zap.Error(err))
			}
		}
	}
}

// Settle acks or nacks a delivery according to outcome.
func Settle(d Acknowledger, outcome Outcome) error {
	switch outcome {
	case Requeue:
		return d.Nack(false, true)
	case Discard:
		return d.Nack(false, false)
	default:
		return d.Ack(false)
	}
}
