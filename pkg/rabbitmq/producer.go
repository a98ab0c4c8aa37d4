/**
 * @description
 * RabbitMQ event producer used by the transition ledger to raise operational
 * alert events. Publishing is best-effort: when the broker is unavailable at
 * startup the engine falls back to a no-op publisher that logs instead of
 * failing hard.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// EventProducer publishes events to a RabbitMQ topic exchange.
type EventProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is
// unavailable at startup. It logs events instead of delivering them.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq msg=\"fallback publisher dropping event\" exchange=%s routing_key=%s", exchange, routingKey)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates a producer with an established connection and
// channel. Dialing is bounded so startup does not hang indefinitely.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish sends a message to a durable topic exchange with a routing key.
// On a channel-level failure it reopens the channel once and retries.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if err := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		if reopenErr := p.reopenChannel(exchange); reopenErr != nil {
			return reopenErr
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	publishing := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	if err := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing); err != nil {
		if reopenErr := p.reopenChannel(exchange); reopenErr != nil {
			return err
		}
		return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	}
	return nil
}

func (p *EventProducer) reopenChannel(exchange string) error {
	if p.conn == nil {
		return errors.New("rabbitmq connection not established")
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	return p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// Close closes the RabbitMQ connection and channel.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
