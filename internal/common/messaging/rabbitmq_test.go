package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"voice-agent-workers/internal/common/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declares   int
	published  []amqp.Publishing
	exchanges  []string
	publishErr error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declares++
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisherWithChannel(ch, "human-handoff", logger.NewTestLogger(t))

	for i := 0; i < 2; i++ {
		require.NoError(t, p.Publish(context.Background(), "handoff.requested", map[string]string{"transfer_id": "TRF-1"}))
	}

	assert.Equal(t, 1, ch.declares)
	assert.Equal(t, []string{"human-handoff:fanout"}, ch.exchanges)
	require.Len(t, ch.published, 2)

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "handoff.requested", msg.Type)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "TRF-1", body["transfer_id"])
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p := NewPublisherWithChannel(ch, "human-handoff", logger.NewNoOpLogger())

	err := p.Publish(context.Background(), "handoff.requested", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}
