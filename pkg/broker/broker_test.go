package broker

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDelivery struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeDelivery) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeDelivery) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestSettle(t *testing.T) {
	d := &fakeDelivery{}
	require.NoError(t, Settle(d, Ack))
	assert.True(t, d.acked)

	d = &fakeDelivery{}
	require.NoError(t, Settle(d, Requeue))
	assert.True(t, d.nacked)
	assert.True(t, d.requeued)

	d = &fakeDelivery{}
	require.NoError(t, Settle(d, Discard))
	assert.True(t, d.nacked)
	assert.False(t, d.requeued)
}

func TestNewJSONPublishing(t *testing.T) {
	msg, err := NewJSONPublishing(map[string]string{"to": "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.False(t, msg.Timestamp.IsZero())

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "a@b.c", body["to"])
}

func TestNewJSONPublishingRejectsUnmarshalable(t *testing.T) {
	_, err := NewJSONPublishing(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestClosedPublisher(t *testing.T) {
	var nilPub *RabbitPublisher
	nilPub.Close()

	p := &RabbitPublisher{closed: true}
	p.Close()
	err := p.PublishJSON(context.Background(), map[string]string{"a": "b"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
