package notification

import (
	"context"
	"errors"

	"bento-order/internal/models"
)

// ConfirmationPublisher is the transport the notifier publishes through
type ConfirmationPublisher interface {
	PublishConfirmation(ctx context.Context, msg *models.ConfirmationMessage) error
}

// AMQPNotifier sends order confirmations to the confirmations exchange.
// It satisfies checkout.Notifier.
type AMQPNotifier struct {
	publisher ConfirmationPublisher
}

// NewAMQPNotifier creates a notifier; a nil publisher makes it unavailable
func NewAMQPNotifier(publisher ConfirmationPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

// Available reports whether a publisher is wired
func (n *AMQPNotifier) Available() bool {
	return n != nil && n.publisher != nil
}

// Notify publishes msg
func (n *AMQPNotifier) Notify(ctx context.Context, msg *models.ConfirmationMessage) error {
	if !n.Available() {
		return errors.New("notification channel unavailable")
	}
	if msg == nil {
		return errors.New("nil confirmation")
	}
	return n.publisher.PublishConfirmation(ctx, msg)
}
