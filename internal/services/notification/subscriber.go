package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"bento-order/internal/logger"
	"bento-order/internal/messaging"
	"bento-order/internal/models"
)

const seenLimit = 1024

// Consumer is the message source the subscriber reads from
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber prints order confirmations as they arrive
type Subscriber struct {
	consumer Consumer
	logger   *logger.Logger
	out      io.Writer

	mu   sync.Mutex
	seen map[string]struct{}
	ring []string
}

// NewSubscriber creates a subscriber printing to stdout
func NewSubscriber(consumer Consumer, log *logger.Logger) *Subscriber {
	return NewSubscriberWithWriter(consumer, log, os.Stdout)
}

// NewSubscriberWithWriter creates a subscriber printing to out
func NewSubscriberWithWriter(consumer Consumer, log *logger.Logger, out io.Writer) *Subscriber {
	if log == nil {
		log = logger.Discard()
	}
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		out:      out,
		seen:     make(map[string]struct{}),
	}
}

// Start consumes until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.HandleConfirmation)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	s.logger.Info("graceful_shutdown", "Stopping notification subscriber", requestID, nil)
	if closeErr := s.consumer.Close(); closeErr != nil {
		s.logger.Error("graceful_shutdown", "Failed to close consumer", requestID, closeErr, nil)
	}
	return err
}

// HandleConfirmation decodes and prints one confirmation. Redelivered orders are printed once.
func (s *Subscriber) HandleConfirmation(_ context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.ConfirmationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return messaging.Permanent(fmt.Errorf("failed to parse confirmation: %w", err))
	}
	if msg.OrderID == "" {
		return messaging.Permanent(errors.New("confirmation has no order id"))
	}

	if !s.markSeen(msg.OrderID) {
		s.logger.Debug("confirmation_duplicate", "Confirmation already displayed", requestID, map[string]interface{}{
			"order_id": msg.OrderID,
		})
		return nil
	}

	if _, err := fmt.Fprintln(s.out, Format(&msg)); err != nil {
		return fmt.Errorf("failed to print confirmation: %w", err)
	}

	s.logger.Info("confirmation_displayed", "Confirmation displayed", requestID, map[string]interface{}{
		"order_id":    msg.OrderID,
		"user_id":     msg.UserID,
		"total_price": msg.Receipt.Total,
		"timestamp":   msg.Timestamp.Format("2006-01-02 15:04:05"),
	})
	return nil
}

// Format renders a confirmation for the console, preferring the structured receipt
func Format(msg *models.ConfirmationMessage) string {
	header := fmt.Sprintf("[%s] %s (%s)", msg.Timestamp.Format("2006-01-02 15:04:05"), msg.OrderID, msg.DisplayName)
	if len(msg.Receipt.Lines) > 0 {
		return header + "\n" + models.FormatReceipt(msg.Receipt)
	}
	return header + "\n" + msg.Text
}

// markSeen records id and reports whether it was new. Only the most recent ids are remembered.
func (s *Subscriber) markSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.ring = append(s.ring, id)
	if len(s.ring) > seenLimit {
		delete(s.seen, s.ring[0])
		s.ring = s.ring[1:]
	}
	return true
}
