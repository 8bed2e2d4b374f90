package order

import (
	"context"
	"fmt"
	"time"

	"restaurant-system/internal/core"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/metrics"
	"restaurant-system/internal/models"
)

// Repository persists orders
type Repository interface {
	// Create stores the order with its lines and the initial status log entry
	// in one transaction and assigns the daily order number for placedAt.
	Create(ctx context.Context, order *models.Order, placedAt time.Time) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	// UpdateStatus fails with core.ErrInvalidTransition when the stored status
	// is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to models.OrderStatus, changedBy string) error
	UpdatePaymentStatus(ctx context.Context, id int64, from, to models.PaymentStatus) error
	Delete(ctx context.Context, id int64) error
	History(ctx context.Context, number string) ([]models.OrderStatusHistory, error)
}

// CartClearer empties a customer's cart once their order is stored
type CartClearer interface {
	Clear(ctx context.Context, customerID string) error
}

// Publisher announces new orders and status changes
type Publisher interface {
	PublishOrder(ctx context.Context, msg *models.OrderMessage) error
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}

// Service is the order lifecycle manager
type Service struct {
	repo      Repository
	carts     CartClearer
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
	loc       *time.Location
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the restaurant time zone used for order number days
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService creates a new order service
func NewService(repo Repository, carts CartClearer, publisher Publisher, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		carts:     carts,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create places an order for customerID. The payload is validated again and
// the total is always computed here from the line snapshots.
func (s *Service) Create(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error) {
	requestID := logger.RequestIDFromContext(ctx)

	if customerID == "" {
		return nil, core.ErrUnauthorized
	}
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:          customerID,
		OrderType:           req.OrderType,
		PaymentMethod:       req.PaymentMethod,
		PaymentStatus:       models.PaymentPending,
		Status:              models.StatusPending,
		SpecialInstructions: req.SpecialInstructions,
		Items:               append([]models.OrderLine(nil), req.Items...),
		TotalAmount:         req.CalculateTotalAmount(),
	}
	switch req.OrderType {
	case models.DineIn:
		order.ReservationID = req.ReservationID
		order.TableID = req.TableID
	case models.Delivery:
		order.DeliveryAddress = req.DeliveryAddress
	}

	created, err := s.repo.Create(ctx, order, s.now().In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	metrics.RecordOrderPlaced(string(created.OrderType), created.TotalAmount)

	s.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_number": created.OrderNumber,
		"customer_id":  created.CustomerID,
		"order_type":   created.OrderType,
		"total_amount": created.TotalAmount,
	})

	// the order is stored; a cart that fails to clear is only logged
	if err := s.carts.Clear(ctx, customerID); err != nil {
		s.logger.Error("cart_clear_failed", "Failed to clear cart after order", requestID, err, map[string]interface{}{
			"order_number": created.OrderNumber,
			"customer_id":  customerID,
		})
	}

	if err := s.publisher.PublishOrder(ctx, models.NewOrderMessage(created)); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order", requestID, err, map[string]interface{}{
			"order_number": created.OrderNumber,
		})
	}

	return created, nil
}

// Get returns an order the actor may see
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (*models.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(order.CustomerID) {
		return nil, core.ErrUnauthorized
	}
	return order, nil
}

// GetByNumber returns an order by its public number
func (s *Service) GetByNumber(ctx context.Context, actor identity.Actor, number string) (*models.Order, error) {
	order, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(order.CustomerID) {
		return nil, core.ErrUnauthorized
	}
	return order, nil
}

// List returns orders matching filter. Customers only see their own.
func (s *Service) List(ctx context.Context, actor identity.Actor, filter models.OrderFilter) ([]models.Order, error) {
	if !actor.IsStaff() {
		if actor.Anonymous() {
			return nil, core.ErrUnauthorized
		}
		filter.CustomerID = actor.CustomerID
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus moves an order along the state machine. Staff only.
func (s *Service) UpdateStatus(ctx context.Context, actor identity.Actor, id int64, status models.OrderStatus) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, core.ErrUnauthorized
	}
	if !status.Valid() {
		return nil, core.Invalid(core.ErrInvalidRequest, "status", "unknown order status %q", status)
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCancelled {
		return nil, fmt.Errorf("order %s is cancelled: %w", order.OrderNumber, core.ErrOrderClosed)
	}
	// completed has no outgoing edges, so it falls through to InvalidTransition
	if !CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, status, core.ErrInvalidTransition)
	}
	return s.transition(ctx, actor, order, status)
}

// UpdatePaymentStatus changes the payment status. Staff only; a cancelled
// order no longer accepts payment changes.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor identity.Actor, id int64, status models.PaymentStatus) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, core.ErrUnauthorized
	}
	if !status.Valid() {
		return nil, core.Invalid(core.ErrInvalidRequest, "payment_status", "unknown payment status %q", status)
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCancelled {
		return nil, fmt.Errorf("order %s is cancelled: %w", order.OrderNumber, core.ErrOrderClosed)
	}
	if !CanTransitionPayment(order.PaymentStatus, status) {
		return nil, fmt.Errorf("payment %s -> %s: %w", order.PaymentStatus, status, core.ErrInvalidTransition)
	}

	if err := s.repo.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, status); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment_status_changed", "Payment status changed", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"order_number": updated.OrderNumber,
		"old_status":   order.PaymentStatus,
		"new_status":   updated.PaymentStatus,
		"changed_by":   actor.CustomerID,
	})
	metrics.RecordTransition(models.KindOrder, "payment_status", string(updated.PaymentStatus))
	s.publish(ctx, models.NewPaymentStatusMessage(updated.OrderNumber, order.PaymentStatus, updated.PaymentStatus, actor.CustomerID))

	return updated, nil
}

// Cancel cancels an order. The owner may cancel while it is pending or
// confirmed, staff follow the state machine and admins may cancel any order
// that has not finished.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id int64) (*models.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.Owns(order.CustomerID) {
		return nil, core.ErrUnauthorized
	}
	switch {
	case order.Status == models.StatusCancelled:
		return nil, fmt.Errorf("order %s is cancelled: %w", order.OrderNumber, core.ErrOrderClosed)
	case order.Status.Terminal():
		return nil, fmt.Errorf("order %s is already %s: %w", order.OrderNumber, order.Status, core.ErrInvalidTransition)
	}
	if !actor.IsAdmin() && !CanTransition(order.Status, models.StatusCancelled) {
		return nil, fmt.Errorf("order %s is already %s: %w", order.OrderNumber, order.Status, core.ErrInvalidTransition)
	}
	return s.transition(ctx, actor, order, models.StatusCancelled)
}

// Delete removes an order. Admin only.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, id int64) error {
	if !actor.IsAdmin() {
		return core.ErrUnauthorized
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.Info("order_deleted", "Order deleted", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"order_number": order.OrderNumber,
		"deleted_by":   actor.CustomerID,
	})
	return nil
}

func (s *Service) transition(ctx context.Context, actor identity.Actor, order *models.Order, to models.OrderStatus) (*models.Order, error) {
	if err := s.repo.UpdateStatus(ctx, order.ID, order.Status, to, actor.CustomerID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_status_changed", "Order status changed", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"order_number": updated.OrderNumber,
		"old_status":   order.Status,
		"new_status":   updated.Status,
		"changed_by":   actor.CustomerID,
	})
	metrics.RecordTransition(models.KindOrder, "status", string(updated.Status))
	s.publish(ctx, models.NewOrderStatusMessage(updated.OrderNumber, order.Status, updated.Status, actor.CustomerID))

	return updated, nil
}

func (s *Service) publish(ctx context.Context, msg *models.StatusUpdateMessage) {
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish order status update", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"reference": msg.Reference,
		})
	}
}
