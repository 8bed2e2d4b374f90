// Package messaging carries order announcements and status events over RabbitMQ.
package messaging

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"restaurant-system/internal/config"
	"restaurant-system/internal/logger"
)

const (
	OrdersExchange        = "orders_topic"
	NotificationsExchange = "notifications_fanout"

	KitchenQueue       = "kitchen_queue"
	NotificationsQueue = "notifications_queue"
)

const (
	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

type exchangeSpec struct {
	name string
	kind string
}

type queueSpec struct {
	name       string
	exchange   string
	bindingKey string
	args       amqp091.Table
}

// New orders are routed to the kitchen by order type; order and reservation
// status events fan out to every subscriber.
var (
	exchanges = []exchangeSpec{
		{name: OrdersExchange, kind: amqp091.ExchangeTopic},
		{name: NotificationsExchange, kind: amqp091.ExchangeFanout},
	}
	queues = []queueSpec{
		{name: KitchenQueue, exchange: OrdersExchange, bindingKey: "order.*", args: amqp091.Table{"x-message-ttl": int32(5 * time.Minute / time.Millisecond)}},
		{name: NotificationsQueue, exchange: NotificationsExchange},
	}
)

// Connection is a RabbitMQ connection and channel that can be re-established
type Connection struct {
	mu      sync.Mutex
	url     string
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *logger.Logger
}

// New dials RabbitMQ and declares the exchanges and queues
func New(cfg *config.Config, log *logger.Logger) (*Connection, error) {
	c := &Connection{
		url:    cfg.RabbitMQURL(),
		logger: log,
	}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

// dial retries with a linear backoff. The caller holds mu or owns c exclusively.
func (c *Connection) dial() error {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		if lastErr = c.open(); lastErr == nil {
			return nil
		}
		if attempt == dialAttempts {
			break
		}
		wait := time.Duration(attempt) * dialBackoff
		c.logger.Error("rabbitmq_connection_failed", fmt.Sprintf("RabbitMQ unavailable, attempt %d/%d, retrying in %v", attempt, dialAttempts, wait), "", lastErr, nil)
		time.Sleep(wait)
	}
	return fmt.Errorf("connect to rabbitmq after %d attempts: %w", dialAttempts, lastErr)
}

func (c *Connection) open() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	c.conn, c.channel = conn, ch
	return nil
}

func declare(ch *amqp091.Channel) error {
	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
		if err := ch.QueueBind(q.name, q.bindingKey, q.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", q.name, q.exchange, err)
		}
	}
	return nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// ensure re-dials when the broker connection or channel has dropped
func (c *Connection) ensure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed() {
		return nil
	}
	c.closeLocked()
	c.logger.Info("rabbitmq_reconnecting", "RabbitMQ connection lost, reconnecting", "", nil)
	return c.dial()
}

// Close closes the channel and the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if errors.Is(err, amqp091.ErrClosed) {
		return nil
	}
	return err
}

// Healthy reports whether the broker connection is up
func (c *Connection) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.conn.IsClosed()
}
