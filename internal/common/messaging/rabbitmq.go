package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"voice-agent-workers/internal/common/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes JSON events to a durable fanout exchange.
type Publisher struct {
	conn     *amqp.Connection
	channel  Channel
	exchange string
	log      logger.Logger

	mu       sync.Mutex
	declared bool
}

func NewPublisher(url, exchange string, log logger.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	log.Info("connected to RabbitMQ", map[string]interface{}{"exchange": exchange})
	return &Publisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// NewPublisherWithChannel builds a publisher over an existing channel.
func NewPublisherWithChannel(ch Channel, exchange string, log logger.Logger) *Publisher {
	return &Publisher{channel: ch, exchange: exchange, log: log}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode %s: %w", eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared {
		if err := p.channel.ExchangeDeclare(p.exchange, "fanout", true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq: declare exchange: %w", err)
		}
		p.declared = true
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		Body:         body,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	p.log.Debug("event published", map[string]interface{}{
		"exchange":  p.exchange,
		"eventType": eventType,
	})
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
