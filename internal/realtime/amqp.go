package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ridehail/internal/domain"
)

// DefaultExchange is the topic exchange lifecycle events are mirrored to.
const DefaultExchange = "ride.events"

// Publisher is the subset of *amqp.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier mirrors every lifecycle event to a RabbitMQ topic exchange,
// routed as ride.<event>.
type AMQPNotifier struct {
	mu       sync.Mutex
	ch       Publisher
	exchange string
	now      func() time.Time
}

// NewAMQPNotifier creates a new AMQPNotifier.
func NewAMQPNotifier(ch Publisher, exchange string) *AMQPNotifier {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &AMQPNotifier{ch: ch, exchange: exchange, now: time.Now}
}

// DeclareExchange declares the durable topic exchange.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// Deliver publishes the event envelope.
func (n *AMQPNotifier) Deliver(ctx context.Context, address, event string, payload any) error {
	body, err := json.Marshal(domain.Event{
		Name:       event,
		Address:    address,
		Payload:    payload,
		OccurredAt: n.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.ch.PublishWithContext(ctx,
		n.exchange,    // exchange
		"ride."+event, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    n.now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	return nil
}
