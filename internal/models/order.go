package models

import (
	"fmt"
	"math"
	"time"
)

// OrderType represents the type of an order
type OrderType string

const (
	DineIn   OrderType = "dine-in"
	Takeout  OrderType = "takeout"
	Delivery OrderType = "delivery"
)

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	switch t {
	case DineIn, Takeout, Delivery:
		return true
	}
	return false
}

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is permitted
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus is independent of OrderStatus
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// OrderLine is one item of an order. The unit price is a snapshot taken when
// the order was placed and never follows later menu edits.
type OrderLine struct {
	MenuItemID int64   `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// Subtotal returns unit price times quantity
func (l OrderLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Order represents a customer order
type Order struct {
	ID                  int64         `json:"id"`
	OrderNumber         string        `json:"order_number"`
	CustomerID          string        `json:"customer_id"`
	OrderType           OrderType     `json:"order_type"`
	ReservationID       *int64        `json:"reservation_id,omitempty"`
	TableID             *int64        `json:"table_id,omitempty"`
	DeliveryAddress     *string       `json:"delivery_address,omitempty"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	Status              OrderStatus   `json:"status"`
	SpecialInstructions *string       `json:"special_instructions,omitempty"`
	Items               []OrderLine   `json:"items"`
	TotalAmount         float64       `json:"total_amount"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// CreateOrderRequest is the normalized order-creation payload
type CreateOrderRequest struct {
	OrderType           OrderType     `json:"order_type"`
	ReservationID       *int64        `json:"reservation_id"`
	TableID             *int64        `json:"table_id"`
	DeliveryAddress     *string       `json:"delivery_address"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
	SpecialInstructions *string       `json:"special_instructions"`
	Items               []OrderLine   `json:"items"`
}

// CalculateTotalAmount sums the line subtotals of the request
func (req *CreateOrderRequest) CalculateTotalAmount() float64 {
	return CalculateTotal(req.Items)
}

// CalculateTotal sums unit price times quantity over lines, rounded to cents
func CalculateTotal(lines []OrderLine) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.Subtotal()
	}
	return RoundMoney(total)
}

// RoundMoney rounds an amount to currency precision
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// OrderFilter narrows order listings. Zero values are ignored.
type OrderFilter struct {
	CustomerID    string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	// Date is a YYYY-MM-DD creation date
	Date string
}

// UpdateOrderStatusRequest is the body of a status change
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// UpdatePaymentStatusRequest is the body of a payment status change
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// OrderStatusHistory represents an entry in the order status log
type OrderStatusHistory struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"timestamp"`
	Notes     *string   `json:"notes,omitempty"`
}

// OrderTrackingResponse represents the response for order tracking
type OrderTrackingResponse struct {
	OrderNumber   string        `json:"order_number"`
	CurrentStatus OrderStatus   `json:"current_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// GenerateOrderNumber generates an order number in format ORD_YYYYMMDD_NNN
func GenerateOrderNumber(date time.Time, sequence int) string {
	dateStr := date.Format("20060102")
	return fmt.Sprintf("ORD_%s_%03d", dateStr, sequence)
}
