package observability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher sinks websocket lifecycle envelopes onto the message bus.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload any, headers map[string]string) error
}

// AMQPPublisher publishes JSON envelopes on a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange. An empty URL
// means lifecycle publishing is switched off for this deployment.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, routingKey string, payload any, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      toAMQPTable(headers),
	})
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func toAMQPTable(headers map[string]string) amqp.Table {
	table := make(amqp.Table, len(headers))
	for key, value := range headers {
		table[key] = value
	}
	return table
}

var defaultPublisher EventPublisher

// SetPublisher installs the process-wide sink used by PublishEvent.
func SetPublisher(publisher EventPublisher) {
	defaultPublisher = publisher
}

// PublishEvent hands the envelope to the installed sink; with no sink the
// event is dropped without error. Publish failures count against the AMQP
// error metric.
func PublishEvent(ctx context.Context, routingKey string, payload any, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.PublishJSON(ctx, routingKey, payload, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
