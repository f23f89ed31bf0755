// Package queue publishes timeline events to RabbitMQ for dashboard
// consumers. Publishing is strictly best-effort: errors are logged and
// returned so callers can ignore them without interrupting the request flow.
package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"benchtrack.org/internal/obs"
	"benchtrack.org/internal/timeline"
)

const productEventQueue = "product.events"

// Publisher pushes product events to the broker. A nil Publisher is valid
// and publishes nothing.
type Publisher struct {
	url string
}

var _ timeline.Publisher = (*Publisher)(nil)

// NewPublisher returns a Publisher for the given AMQP URL, or nil when the
// URL is empty (broker disabled).
func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url}
}

// PublishProductEvent delivers one event to the product.events queue.
// Messages are persistent; the queue is declared idempotently on every
// publish so consumers and producers can start in any order.
func (p *Publisher) PublishProductEvent(ctx context.Context, e timeline.ProductEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		obs.LogEvent("queue.dial.failed", map[string]any{"error": err.Error()})
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		obs.LogEvent("queue.channel.failed", map[string]any{"error": err.Error()})
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		productEventQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		obs.LogEvent("queue.declare.failed", map[string]any{"error": err.Error()})
		return err
	}

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", productEventQueue, false, false, pub); err != nil {
		obs.LogEvent("queue.publish.failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}
