package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"roomsync-service/internal/models"
)

// Consumer bridges message-created events from the exchange to a local
// handler, typically the websocket hub. Every instance consumes from its own
// exclusive queue so each one fans out to its own subscribers.
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	handler func(models.Message)
	log     zerolog.Logger
}

// NewConsumer declares an exclusive, auto-deleted queue bound to the exchange
// and returns a consumer delivering into handler.
func NewConsumer(amqpURL, exchange string, handler func(models.Message), logger zerolog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := ch.QueueBind(q.Name, RoutingKeyMessageCreated, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch, queue: q.Name, handler: handler, log: logger}, nil
}

// Run consumes deliveries until the context is cancelled or the channel drops.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", true, true, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var msg models.Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				c.log.Warn().Err(err).Msg("drop malformed room event")
				continue
			}
			c.handler(msg)
		}
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
