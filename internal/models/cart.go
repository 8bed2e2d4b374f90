package models

// CartLine is one menu item held in a customer's cart. UnitPrice is captured
// when the item is added and is what gets submitted at checkout.
type CartLine struct {
	MenuItemID int64   `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
}

// Subtotal returns unit price times quantity
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// MenuItem is the read-only catalog entry a cart line is resolved from
type MenuItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// AddCartItemRequest is the body of an add-to-cart call
type AddCartItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

// UpdateCartItemRequest is the body of a quantity change
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the API view of a cart
type CartResponse struct {
	CustomerID string     `json:"customer_id"`
	Items      []CartLine `json:"items"`
	Total      float64    `json:"total"`
}
