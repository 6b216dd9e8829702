package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bento-order/internal/logger"
	"bento-order/internal/models"
)

const publishTimeout = 10 * time.Second

// Publisher publishes order confirmations to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
	mu     sync.Mutex
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Discard()
	}
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishConfirmation publishes msg to the confirmations fanout exchange.
// The order id is used as the AMQP message id so subscribers can drop redeliveries.
func (p *Publisher) PublishConfirmation(ctx context.Context, msg *models.ConfirmationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}

	return p.publish(ctx, ConfirmationsExchange, "", amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.OrderID,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, publishing amqp091.Publishing) error {
	// amqp091 channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.conn.Channel().PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			"", err, map[string]interface{}{
				"exchange":   exchange,
				"message_id": publishing.MessageId,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		"", map[string]interface{}{
			"exchange":     exchange,
			"message_id":   publishing.MessageId,
			"message_size": len(publishing.Body),
		})
	return nil
}

// Close closes the underlying connection
func (p *Publisher) Close() error {
	return p.conn.Close()
}
