package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrReservationRequired = errors.New("an active reservation for today is required for dine-in orders")
	ErrAddressRequired     = errors.New("delivery address is required for delivery orders")
	ErrInvalidTransition   = errors.New("status transition is not allowed")
	ErrOrderClosed         = errors.New("order is closed")
	ErrNoActiveReservation = errors.New("no active reservation")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("not allowed for this user")

	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidItem          = errors.New("invalid order item")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidOrderType     = errors.New("order type must be one of: dine-in, takeout, delivery")
	ErrInvalidPaymentMethod = errors.New("payment method must be one of: cash, card, online")
	ErrItemUnavailable      = errors.New("menu item is not available")

	ErrReservationClosed        = errors.New("reservation is closed")
	ErrReservationInPast        = errors.New("reservation must be in the future")
	ErrCancellationWindowClosed = errors.New("reservation time has passed and can no longer be cancelled")
	ErrTableUnavailable         = errors.New("table is not available")
	ErrInvalidReservation       = errors.New("invalid reservation")
)

// ValidationError describes which field failed and why. It unwraps to the
// sentinel error so callers can match with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for field wrapping err
func Invalid(err error, field, format string, args ...interface{}) error {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Code returns a short machine-readable code for err, used in API responses
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal_error"
}

var codes = []struct {
	err  error
	code string
}{
	{ErrEmptyCart, "empty_cart"},
	{ErrReservationRequired, "reservation_required"},
	{ErrAddressRequired, "address_required"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrOrderClosed, "order_closed"},
	{ErrNoActiveReservation, "no_active_reservation"},
	{ErrNotFound, "not_found"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidRequest, "invalid_request"},
	{ErrInvalidItem, "invalid_item"},
	{ErrInvalidQuantity, "invalid_quantity"},
	{ErrInvalidOrderType, "invalid_order_type"},
	{ErrInvalidPaymentMethod, "invalid_payment_method"},
	{ErrItemUnavailable, "item_unavailable"},
	{ErrReservationClosed, "reservation_closed"},
	{ErrReservationInPast, "reservation_in_past"},
	{ErrCancellationWindowClosed, "cancellation_window_closed"},
	{ErrTableUnavailable, "table_unavailable"},
	{ErrInvalidReservation, "invalid_reservation"},
}
