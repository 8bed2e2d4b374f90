// Package checkout turns a customer's cart into a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"restaurant-system/internal/core"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/metrics"
	"restaurant-system/internal/models"
	"restaurant-system/internal/services/cart"
	"restaurant-system/internal/services/order"
)

// CartSource returns the current cart of a customer
type CartSource interface {
	Get(ctx context.Context, customerID string) (cart.Cart, error)
}

// ReservationFinder returns the reservation a dine-in order attaches to
type ReservationFinder interface {
	GetActiveReservation(ctx context.Context, customerID string) (*models.Reservation, error)
}

// OrderPlacer stores an assembled order and clears the cart behind it
type OrderPlacer interface {
	Create(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error)
}

// Service coordinates the cart, the active reservation and order creation
type Service struct {
	carts        CartSource
	reservations ReservationFinder
	orders       OrderPlacer
	logger       *logger.Logger
}

// NewService creates a checkout service
func NewService(carts CartSource, reservations ReservationFinder, orders OrderPlacer, log *logger.Logger) *Service {
	return &Service{
		carts:        carts,
		reservations: reservations,
		orders:       orders,
		logger:       log,
	}
}

// Checkout places an order from the customer's cart. Nothing is written and
// the cart stays as it was when assembly fails.
func (s *Service) Checkout(ctx context.Context, customerID string, octx order.Context) (*models.Order, error) {
	requestID := logger.RequestIDFromContext(ctx)

	if customerID == "" {
		return nil, core.ErrUnauthorized
	}

	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var active *models.Reservation
	if octx.OrderType == models.DineIn && !c.Empty() {
		active, err = s.reservations.GetActiveReservation(ctx, customerID)
		if err != nil && !errors.Is(err, core.ErrNoActiveReservation) {
			return nil, fmt.Errorf("find active reservation: %w", err)
		}
	}

	req, err := order.Assemble(c.Lines(), octx, active)
	if err != nil {
		s.logger.Debug("checkout_rejected", "Cart could not be assembled into an order", requestID, map[string]interface{}{
			"customer_id": customerID,
			"order_type":  octx.OrderType,
			"reason":      core.Code(err),
		})
		metrics.RecordCheckoutRejected(core.Code(err))
		return nil, err
	}

	placed, err := s.orders.Create(ctx, customerID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout_completed", "Cart checked out", requestID, map[string]interface{}{
		"customer_id":  customerID,
		"order_number": placed.OrderNumber,
		"items":        len(placed.Items),
		"total_amount": placed.TotalAmount,
	})
	return placed, nil
}
