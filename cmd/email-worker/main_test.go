package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/pkg/broker"
)

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, string, string, string, string) error {
	s.calls++
	return s.err
}

func TestDeliveryHandlerOutcomes(t *testing.T) {
	ctx := context.Background()

	ok := &stubSender{}
	h := deliveryHandler(ok, zap.NewNop())
	assert.Equal(t, broker.Ack, h(ctx, []byte(`{"to":"a@example.com","subject":"hi","text":"hello"}`)))
	assert.Equal(t, 1, ok.calls)

	assert.Equal(t, broker.Discard, h(ctx, []byte(`not json`)))
	assert.Equal(t, broker.Discard, h(ctx, []byte(`{"subject":"no recipient"}`)))
	assert.Equal(t, broker.Discard, h(ctx, []byte(`{"to":"a@example.com","template":"unknown"}`)))

	failing := &stubSender{err: errors.New("provider down")}
	h = deliveryHandler(failing, zap.NewNop())
	assert.Equal(t, broker.Requeue, h(ctx, []byte(`{"to":"a@example.com","subject":"hi","text":"hello"}`)))
}
