package order

import (
	"context"
	"errors"

	"bento-order/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// Repository stores orders and serves the menu
type Repository interface {
	// InsertOrder stores req; inserted is false when the order id was already recorded
	InsertOrder(ctx context.Context, req *models.OrderRequest) (inserted bool, err error)
	GetOrder(ctx context.Context, orderID string) (*models.RecordedOrder, error)
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
	Ping(ctx context.Context) error
}
