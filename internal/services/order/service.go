package order

import (
	"context"
	"errors"
	"fmt"

	"bento-order/internal/logger"
	"bento-order/internal/models"
)

var ErrBusy = errors.New("order sink is at capacity")

// Service records orders with bounded concurrency
type Service struct {
	repo   Repository
	logger *logger.Logger
	sem    chan struct{}
}

// NewService creates a service allowing maxConcurrent simultaneous writes
func NewService(repo Repository, log *logger.Logger, maxConcurrent int) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Service{
		repo:   repo,
		logger: log,
		sem:    make(chan struct{}, maxConcurrent),
	}
}

// RecordOrder validates and stores req. Replays of a recorded order id succeed with Duplicate set.
// Validation failures are returned as *models.ValidationError.
func (s *Service) RecordOrder(ctx context.Context, req *models.OrderRequest, requestID string) (*models.OrderResult, error) {
	if err := models.ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	}

	inserted, err := s.repo.InsertOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}

	fields := map[string]interface{}{
		"order_id":    req.OrderID,
		"user_id":     req.UserID,
		"lines":       len(req.Lines),
		"total_price": req.TotalPrice,
	}
	if !inserted {
		s.logger.Info("order_duplicate", "Order id already recorded", requestID, fields)
	} else {
		s.logger.Info("order_recorded", "Order recorded", requestID, fields)
	}

	return &models.OrderResult{
		Status:    models.StatusSuccess,
		OrderID:   req.OrderID,
		Duplicate: !inserted,
	}, nil
}

// GetOrder returns a recorded order or ErrOrderNotFound
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.RecordedOrder, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// Menu returns the orderable menu items
func (s *Service) Menu(ctx context.Context) ([]models.MenuItem, error) {
	items, err := s.repo.ListMenu(ctx)
	if err != nil {
		return nil, err
	}
	orderable := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if item.Orderable() {
			orderable = append(orderable, item)
		}
	}
	return orderable, nil
}

// HealthCheck reports whether storage is reachable
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.repo.Ping(ctx) == nil
}
