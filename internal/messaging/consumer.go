package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"restaurant-system/internal/logger"
)

const handleTimeout = 30 * time.Second

// MessageHandler processes one message body. A nil error acknowledges the
// message; any error requeues it.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer reads one queue with manual acknowledgements
type Consumer struct {
	conn     *Connection
	logger   *logger.Logger
	queue    string
	tag      string
	prefetch int
}

// NewConsumer creates a consumer of queue identified by tag
func NewConsumer(conn *Connection, log *logger.Logger, queue, tag string, prefetch int) *Consumer {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Consumer{
		conn:     conn,
		logger:   log,
		queue:    queue,
		tag:      tag,
		prefetch: prefetch,
	}
}

// Run delivers messages to handler until ctx is done. A dropped broker
// connection is re-established and consumption resumes.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			return err
		}

		if done := c.drain(ctx, deliveries, handler); done {
			return ctx.Err()
		}
		c.logger.Error("consumer_channel_closed", fmt.Sprintf("Deliveries from %s stopped", c.queue), "", nil, nil)
	}
}

func (c *Consumer) subscribe() (<-chan amqp091.Delivery, error) {
	if err := c.conn.ensure(); err != nil {
		return nil, err
	}
	ch := c.conn.Channel()
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch on %s: %w", c.queue, err)
	}
	deliveries, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Info("consumer_started", fmt.Sprintf("Consuming from %s", c.queue), "", map[string]interface{}{
		"queue":    c.queue,
		"consumer": c.tag,
		"prefetch": c.prefetch,
	})
	return deliveries, nil
}

// drain reports true when it stopped because ctx is done
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp091.Delivery, handler MessageHandler) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case d, ok := <-deliveries:
			if !ok {
				return ctx.Err() != nil
			}
			c.settle(d, c.handle(ctx, d, handler))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp091.Delivery, handler MessageHandler) error {
	requestID := d.CorrelationId
	if requestID == "" {
		requestID = logger.GenerateRequestID()
	}

	hctx, cancel := context.WithTimeout(logger.WithRequestID(ctx, requestID), handleTimeout)
	defer cancel()

	start := time.Now()
	err := handler(hctx, d.Body)

	fields := map[string]interface{}{
		"queue":       c.queue,
		"routing_key": d.RoutingKey,
		"redelivered": d.Redelivered,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		c.logger.Error("message_processing_failed", "Message handler failed, requeueing", requestID, err, fields)
		return err
	}
	c.logger.Debug("message_processed", "Message handled", requestID, fields)
	return nil
}

func (c *Consumer) settle(d amqp091.Delivery, handlerErr error) {
	var err error
	if handlerErr != nil {
		err = d.Nack(false, true)
	} else {
		err = d.Ack(false)
	}
	if err != nil {
		c.logger.Error("message_settle_failed", "Failed to ack or nack message", d.CorrelationId, err, map[string]interface{}{
			"queue": c.queue,
		})
	}
}

// Close cancels the subscription and closes the connection
func (c *Consumer) Close() error {
	if c.conn == nil || !c.conn.Healthy() {
		return nil
	}
	if ch := c.conn.Channel(); ch != nil {
		if err := ch.Cancel(c.tag, false); err != nil && !errors.Is(err, amqp091.ErrClosed) {
			c.logger.Error("consumer_cancel_failed", "Failed to cancel consumer", "", err, nil)
		}
	}
	return c.conn.Close()
}

// ParseMessage decodes a JSON message body into v
func ParseMessage(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
