package kitchen

import (
	"context"
	"errors"
	"fmt"

	"restaurant-system/internal/core"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/messaging"
	"restaurant-system/internal/models"
)

// Orders is the part of the order service the kitchen needs
type Orders interface {
	GetByNumber(ctx context.Context, actor identity.Actor, number string) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor identity.Actor, id int64, status models.OrderStatus) (*models.Order, error)
}

// Worker takes new orders off the kitchen queue and confirms them
type Worker struct {
	name       string
	orderTypes []models.OrderType
	orders     Orders
	consumer   *messaging.Consumer
	logger     *logger.Logger
}

// NewWorker creates a new kitchen worker. An empty orderTypes accepts every type.
func NewWorker(name string, orderTypes []models.OrderType, orders Orders, consumer *messaging.Consumer, log *logger.Logger) *Worker {
	return &Worker{
		name:       name,
		orderTypes: orderTypes,
		orders:     orders,
		consumer:   consumer,
		logger:     log,
	}
}

// Start consumes order messages until ctx is cancelled or the consumer stops
func (w *Worker) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	w.logger.Info("worker_started", fmt.Sprintf("Kitchen worker %s started", w.name), requestID, map[string]interface{}{
		"worker_name": w.name,
		"order_types": w.orderTypes,
	})

	done := make(chan error, 1)
	go func() {
		done <- w.consumer.Run(ctx, w.HandleMessage)
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("graceful_shutdown", "Stopping kitchen worker", requestID, nil)
		if err := w.consumer.Close(); err != nil {
			w.logger.Error("consumer_close_failed", "Failed to close consumer", requestID, err, nil)
		}
		return nil
	case err := <-done:
		if err != nil {
			w.logger.Error("consumer_failed", "Message consumer failed", requestID, err, nil)
		}
		return err
	}
}

// HandleMessage confirms one newly placed order. Returning an error requeues
// the message for another worker.
func (w *Worker) HandleMessage(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var msg models.OrderMessage
	if err := messaging.ParseMessage(body, &msg); err != nil {
		w.logger.Error("message_parsing_failed", "Discarding malformed order message", requestID, err, nil)
		return nil
	}

	if !w.canHandleOrderType(msg.OrderType) {
		w.logger.Debug("order_rejected", fmt.Sprintf("Worker %s cannot handle order type %s", w.name, msg.OrderType), requestID, map[string]interface{}{
			"order_number":           msg.OrderNumber,
			"order_type":             msg.OrderType,
			"worker_specializations": w.orderTypes,
		})
		return fmt.Errorf("worker %s cannot handle order type %s", w.name, msg.OrderType)
	}

	actor := identity.Staff(w.name)

	order, err := w.orders.GetByNumber(ctx, actor, msg.OrderNumber)
	if errors.Is(err, core.ErrNotFound) {
		// deleted before the kitchen saw it
		w.logger.Info("order_skipped", "Order no longer exists", requestID, map[string]interface{}{
			"order_number": msg.OrderNumber,
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order %s: %w", msg.OrderNumber, err)
	}

	if order.Status != models.StatusPending {
		w.logger.Debug("order_skipped", "Order already left pending", requestID, map[string]interface{}{
			"order_number": order.OrderNumber,
			"status":       order.Status,
		})
		return nil
	}

	_, err = w.orders.UpdateStatus(ctx, actor, order.ID, models.StatusConfirmed)
	switch {
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, core.ErrOrderClosed):
		// someone else moved it first
		w.logger.Debug("order_skipped", "Order changed before confirmation", requestID, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return nil
	case err != nil:
		return fmt.Errorf("confirm order %s: %w", order.OrderNumber, err)
	}

	w.logger.Info("order_confirmed", fmt.Sprintf("Order %s confirmed by %s", order.OrderNumber, w.name), requestID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"order_type":   order.OrderType,
		"items":        len(msg.Items),
	})
	return nil
}

func (w *Worker) canHandleOrderType(orderType models.OrderType) bool {
	if len(w.orderTypes) == 0 {
		return true
	}
	for _, specialization := range w.orderTypes {
		if specialization == orderType {
			return true
		}
	}
	return false
}
