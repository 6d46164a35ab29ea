package app

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ridehail/internal/config"
	"ridehail/internal/realtime"
)

const amqpDialAttempts = 5

// NewAMQPChannel dials RabbitMQ with retries, opens a channel and declares
// the event exchange.
func NewAMQPChannel(ctx context.Context, cfg config.AMQPConfig) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < amqpDialAttempts; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		log.Printf("RabbitMQ not ready, retrying... (%d/%d)", i+1, amqpDialAttempts)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := realtime.DeclareExchange(ch, cfg.Exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}

	return conn, ch, nil
}
