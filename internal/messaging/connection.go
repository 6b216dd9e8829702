package messaging

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bento-order/internal/logger"
)

const (
	// ConfirmationsExchange fans confirmations out to every bound subscriber
	ConfirmationsExchange = "order_confirmations"
	// ConfirmationsQueue is the durable queue the notification subscriber reads
	ConfirmationsQueue = "order_confirmations_queue"

	confirmationTTL = int32(time.Hour / time.Millisecond)
	maxDialAttempts = 5
)

// Connection wraps a RabbitMQ connection and channel with the confirmation topology declared
type Connection struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	logger   *logger.Logger
	url      string
	attempts int
	backoff  time.Duration
}

// New dials url up to attempts times with a linear backoff; attempts <= 0 uses the default
func New(url string, log *logger.Logger, attempts int) (*Connection, error) {
	if log == nil {
		log = logger.Discard()
	}
	if attempts <= 0 {
		attempts = maxDialAttempts
	}
	conn := &Connection{
		logger:   log,
		url:      url,
		attempts: attempts,
		backoff:  2 * time.Second,
	}

	if err := conn.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return conn, nil
}

func (c *Connection) connect() error {
	var err error

	for i := 0; i < c.attempts; i++ {
		if err = c.dial(); err == nil {
			c.logger.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
				"exchange": ConfirmationsExchange,
				"queue":    ConfirmationsQueue,
			})
			return nil
		}

		if i < c.attempts-1 {
			wait := time.Duration(i+1) * c.backoff
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", wait),
				"startup", err, map[string]interface{}{"attempt": i + 1})
			time.Sleep(wait)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", c.attempts, err)
}

func (c *Connection) dial() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := setupTopology(channel); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return err
	}
	c.conn = conn
	c.channel = channel
	return nil
}

// setupTopology declares the confirmations exchange and its queue
func setupTopology(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		ConfirmationsExchange, // name
		"fanout",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", ConfirmationsExchange, err)
	}

	_, err = ch.QueueDeclare(
		ConfirmationsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		amqp091.Table{
			"x-message-ttl": confirmationTTL,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", ConfirmationsQueue, err)
	}

	err = ch.QueueBind(
		ConfirmationsQueue,    // queue name
		"",                    // routing key (ignored for fanout)
		ConfirmationsExchange, // exchange
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", ConfirmationsQueue, err)
	}
	return nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

// Close closes the channel and the connection
func (c *Connection) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsClosed checks if the connection is closed
func (c *Connection) IsClosed() bool {
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect drops the current connection and dials again
func (c *Connection) Reconnect() error {
	_ = c.Close()
	return c.connect()
}
