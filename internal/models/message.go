package models

import (
	"fmt"
	"time"
)

const (
	KindOrder       = "order"
	KindReservation = "reservation"
)

// OrderMessage announces a newly placed order to the kitchen exchange
type OrderMessage struct {
	OrderNumber     string      `json:"order_number"`
	CustomerID      string      `json:"customer_id"`
	OrderType       OrderType   `json:"order_type"`
	TableID         *int64      `json:"table_id,omitempty"`
	DeliveryAddress *string     `json:"delivery_address,omitempty"`
	Items           []OrderLine `json:"items"`
	TotalAmount     float64     `json:"total_amount"`
}

// StatusUpdateMessage represents a status change of an order or reservation
type StatusUpdateMessage struct {
	Kind      string    `json:"kind"`
	Reference string    `json:"reference"`
	Field     string    `json:"field"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderMessage builds the kitchen announcement for a created order
func NewOrderMessage(order *Order) *OrderMessage {
	return &OrderMessage{
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		OrderType:       order.OrderType,
		TableID:         order.TableID,
		DeliveryAddress: order.DeliveryAddress,
		Items:           order.Items,
		TotalAmount:     order.TotalAmount,
	}
}

// NewOrderStatusMessage creates a StatusUpdateMessage for an order status change
func NewOrderStatusMessage(orderNumber string, oldStatus, newStatus OrderStatus, changedBy string) *StatusUpdateMessage {
	return newStatusMessage(KindOrder, orderNumber, "status", string(oldStatus), string(newStatus), changedBy)
}

// NewPaymentStatusMessage creates a StatusUpdateMessage for a payment status change
func NewPaymentStatusMessage(orderNumber string, oldStatus, newStatus PaymentStatus, changedBy string) *StatusUpdateMessage {
	return newStatusMessage(KindOrder, orderNumber, "payment_status", string(oldStatus), string(newStatus), changedBy)
}

// NewReservationStatusMessage creates a StatusUpdateMessage for a reservation status change
func NewReservationStatusMessage(reservationID int64, oldStatus, newStatus ReservationStatus, changedBy string) *StatusUpdateMessage {
	return newStatusMessage(KindReservation, fmt.Sprintf("RES_%d", reservationID), "status", string(oldStatus), string(newStatus), changedBy)
}

func newStatusMessage(kind, reference, field, oldStatus, newStatus, changedBy string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		Kind:      kind,
		Reference: reference,
		Field:     field,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
	}
}

// GenerateRoutingKey generates a routing key for order messages
func GenerateRoutingKey(orderType OrderType) string {
	return fmt.Sprintf("order.%s", orderType)
}
