package order

import (
	"fmt"
	"math"
	"strings"

	"restaurant-system/internal/core"
	"restaurant-system/internal/models"
)

// Context is what the customer chose at checkout besides the cart itself
type Context struct {
	OrderType           models.OrderType     `json:"order_type"`
	PaymentMethod       models.PaymentMethod `json:"payment_method"`
	DeliveryAddress     string               `json:"delivery_address,omitempty"`
	SpecialInstructions string               `json:"special_instructions,omitempty"`
}

// Assemble validates a cart and its checkout context and produces the
// order-creation payload. Rules are checked in order and the first failure
// wins: empty cart, dine-in reservation, delivery address, line items.
// Reservation and table ids come only from active, never from user input.
func Assemble(lines []models.CartLine, octx Context, active *models.Reservation) (*models.CreateOrderRequest, error) {
	if len(lines) == 0 {
		return nil, core.ErrEmptyCart
	}

	req := &models.CreateOrderRequest{
		OrderType:     octx.OrderType,
		PaymentMethod: octx.PaymentMethod,
		Items:         make([]models.OrderLine, 0, len(lines)),
	}

	switch octx.OrderType {
	case models.DineIn:
		if active == nil {
			return nil, core.ErrReservationRequired
		}
		reservationID, tableID := active.ID, active.TableID
		req.ReservationID = &reservationID
		req.TableID = &tableID
	case models.Delivery:
		address := strings.TrimSpace(octx.DeliveryAddress)
		if address == "" {
			return nil, core.ErrAddressRequired
		}
		req.DeliveryAddress = &address
	}

	for i, line := range lines {
		orderLine := models.OrderLine{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		}
		if err := validateLine(orderLine, i); err != nil {
			return nil, err
		}
		req.Items = append(req.Items, orderLine)
	}

	if err := validateChoices(req.OrderType, req.PaymentMethod); err != nil {
		return nil, err
	}

	if notes := strings.TrimSpace(octx.SpecialInstructions); notes != "" {
		req.SpecialInstructions = &notes
	}

	return req, nil
}

// ValidateCreateRequest re-checks a payload on the authoritative side, in the
// same order as Assemble.
func ValidateCreateRequest(req *models.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return core.ErrEmptyCart
	}

	switch req.OrderType {
	case models.DineIn:
		if req.ReservationID == nil || req.TableID == nil {
			return core.ErrReservationRequired
		}
	case models.Delivery:
		if req.DeliveryAddress == nil || strings.TrimSpace(*req.DeliveryAddress) == "" {
			return core.ErrAddressRequired
		}
	}

	for i, item := range req.Items {
		if err := validateLine(item, i); err != nil {
			return err
		}
	}

	return validateChoices(req.OrderType, req.PaymentMethod)
}

func validateLine(line models.OrderLine, index int) error {
	prefix := fmt.Sprintf("items[%d]", index)

	if line.MenuItemID <= 0 {
		return core.Invalid(core.ErrInvalidItem, prefix+".menu_item_id", "menu item id is required")
	}
	if line.Quantity <= 0 {
		return core.Invalid(core.ErrInvalidItem, prefix+".quantity", "quantity must be greater than 0")
	}
	if math.IsNaN(line.UnitPrice) || math.IsInf(line.UnitPrice, 0) || line.UnitPrice < 0 {
		return core.Invalid(core.ErrInvalidItem, prefix+".unit_price", "unit price must be a finite non-negative number")
	}
	return nil
}

func validateChoices(orderType models.OrderType, method models.PaymentMethod) error {
	if !orderType.Valid() {
		return core.Invalid(core.ErrInvalidOrderType, "order_type", "invalid order type %q", orderType)
	}
	if !method.Valid() {
		return core.Invalid(core.ErrInvalidPaymentMethod, "payment_method", "invalid payment method %q", method)
	}
	return nil
}
