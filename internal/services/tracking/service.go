package tracking

import (
	"context"
	"fmt"

	"restaurant-system/internal/core"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

// Service provides tracking functionality
type Service struct {
	repo   StatusRepo
	logger *logger.Logger
}

// NewService creates a new tracking service
func NewService(repo StatusRepo, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
	}
}

// GetOrderStatus retrieves the current status of an order
func (s *Service) GetOrderStatus(ctx context.Context, actor identity.Actor, orderNumber string) (*models.OrderTrackingResponse, error) {
	order, err := s.load(ctx, actor, orderNumber)
	if err != nil {
		return nil, err
	}

	return &models.OrderTrackingResponse{
		OrderNumber:   order.OrderNumber,
		CurrentStatus: order.Status,
		PaymentStatus: order.PaymentStatus,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}

// GetOrderHistory retrieves the complete status history of an order
func (s *Service) GetOrderHistory(ctx context.Context, actor identity.Actor, orderNumber string) ([]models.OrderStatusHistory, error) {
	if _, err := s.load(ctx, actor, orderNumber); err != nil {
		return nil, err
	}

	history, err := s.repo.History(ctx, orderNumber)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to query order history", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return nil, fmt.Errorf("order history: %w", err)
	}
	return history, nil
}

func (s *Service) load(ctx context.Context, actor identity.Actor, orderNumber string) (*models.Order, error) {
	if actor.Anonymous() {
		return nil, core.ErrUnauthorized
	}

	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	// someone else's order number reads as unknown
	if !actor.CanView(order.CustomerID) {
		return nil, fmt.Errorf("order %s: %w", orderNumber, core.ErrNotFound)
	}
	return order, nil
}
