package checkout

import (
	"context"

	"bento-order/internal/models"
)

// Notifier sends the best-effort confirmation after an order succeeds.
type Notifier interface {
	// Available reports whether the channel exists in the current client context.
	Available() bool
	Notify(ctx context.Context, msg *models.ConfirmationMessage) error
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) Available() bool { return false }

func (NopNotifier) Notify(context.Context, *models.ConfirmationMessage) error { return nil }
