package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bento-order/internal/database"
	"bento-order/internal/models"
)

// PostgresRepository is the pgx-backed Repository
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a repository on db
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertOrder writes the order and its lines in one transaction
func (r *PostgresRepository) InsertOrder(ctx context.Context, req *models.OrderRequest) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var receivedAt time.Time
	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		req.OrderID, req.UserID, req.DisplayName, req.OrderDetails, req.TotalPrice, req.CreatedAt,
	).Scan(&receivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT DO NOTHING returns no row for a duplicate order id
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, line := range req.Lines {
		batch.Queue(database.InsertOrderLineSQL,
			req.OrderID, i+1, line.ItemID, line.Name, string(line.Option), line.OptionName,
			line.Quantity, line.UnitPrice, line.LineTotal)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return false, fmt.Errorf("insert order lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit order: %w", err)
	}
	return true, nil
}

// GetOrder loads a recorded order with its lines
func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (*models.RecordedOrder, error) {
	var order models.RecordedOrder
	err := r.db.QueryRow(ctx, database.GetOrderByIDSQL, orderID).Scan(
		&order.OrderID, &order.UserID, &order.DisplayName, &order.OrderDetails,
		&order.TotalPrice, &order.CreatedAt, &order.ReceivedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.Query(ctx, database.GetOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line   models.OrderLine
			option string
		)
		if err := rows.Scan(&line.ItemID, &line.Name, &option, &line.OptionName,
			&line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		line.Option = models.OptionKey(option)
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order lines: %w", err)
	}
	return &order, nil
}

// ListMenu returns available menu items in display order
func (r *PostgresRepository) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.db.Query(ctx, database.GetMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var (
			item                            models.MenuItem
			regular, large, small, sideOnly int64
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.ImageURL,
			&regular, &large, &small, &sideOnly); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		item.Prices = map[models.OptionKey]int64{
			models.OptionRegular:  regular,
			models.OptionLarge:    large,
			models.OptionSmall:    small,
			models.OptionSideOnly: sideOnly,
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Ping checks the database
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
