package messaging

import (
	"context"
	"fmt"

	"build-a-bite/internal/logger"
)

// MessageHandler defines the interface for processing messages
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer handles message consumption from RabbitMQ
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
}

// NewConsumer creates a new message consumer
func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
	}
}

// StartConsuming starts consuming messages from the queue. Blocks until the
// context is cancelled or the delivery channel closes.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	// Check if connection is alive
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	// Set QoS for prefetch
	err := c.conn.Channel().Qos(
		c.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.conn.Channel().Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from %s: %w", c.queueName, err)
	}

	c.logger.Info("consumer_started", fmt.Sprintf("Consuming from queue %s", c.queueName), "", map[string]interface{}{
		"queue":    c.queueName,
		"prefetch": c.prefetch,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", c.queueName)
			}

			if err := handler(ctx, delivery.Body); err != nil {
				c.logger.Error("message_processing_failed",
					fmt.Sprintf("Failed to process message from %s", c.queueName),
					"", err, nil)
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					c.logger.Error("message_nack_failed", "Failed to nack message", "", nackErr, nil)
				}
				continue
			}

			if ackErr := delivery.Ack(false); ackErr != nil {
				c.logger.Error("message_ack_failed", "Failed to ack message", "", ackErr, nil)
			}
		}
	}
}

// Close cancels the consumer
func (c *Consumer) Close() error {
	if c.conn.channel != nil {
		return c.conn.channel.Cancel(c.consumerTag, false)
	}
	return nil
}
