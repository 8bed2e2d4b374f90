package cart

import (
	"restaurant-system/internal/models"
)

// Cart is a customer's not-yet-submitted selection. It is a value: every
// mutation returns a new Cart and leaves the receiver untouched. Lines are
// unique by menu item id and kept in insertion order.
type Cart struct {
	lines []models.CartLine
}

// New builds a cart from persisted lines, merging duplicates and dropping
// lines with a non-positive quantity.
func New(lines []models.CartLine) Cart {
	var c Cart
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		c = c.Add(line, line.Quantity)
	}
	return c
}

// Add increments the quantity of an existing line or appends a new one.
// qty must be positive; the caller validates it.
func (c Cart) Add(item models.CartLine, qty int) Cart {
	lines := c.Lines()
	for i := range lines {
		if lines[i].MenuItemID == item.MenuItemID {
			lines[i].Quantity += qty
			return Cart{lines: lines}
		}
	}

	item.Quantity = qty
	return Cart{lines: append(lines, item)}
}

// Remove deletes the line for menuItemID, if any
func (c Cart) Remove(menuItemID int64) Cart {
	lines := make([]models.CartLine, 0, len(c.lines))
	for _, line := range c.lines {
		if line.MenuItemID != menuItemID {
			lines = append(lines, line)
		}
	}
	return Cart{lines: lines}
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. Unknown items are ignored.
func (c Cart) UpdateQuantity(menuItemID int64, qty int) Cart {
	if qty <= 0 {
		return c.Remove(menuItemID)
	}

	lines := c.Lines()
	for i := range lines {
		if lines[i].MenuItemID == menuItemID {
			lines[i].Quantity = qty
		}
	}
	return Cart{lines: lines}
}

// Lines returns a copy of the cart lines
func (c Cart) Lines() []models.CartLine {
	lines := make([]models.CartLine, len(c.lines))
	copy(lines, c.lines)
	return lines
}

// Line returns the line for menuItemID
func (c Cart) Line(menuItemID int64) (models.CartLine, bool) {
	for _, line := range c.lines {
		if line.MenuItemID == menuItemID {
			return line, true
		}
	}
	return models.CartLine{}, false
}

func (c Cart) Len() int {
	return len(c.lines)
}

func (c Cart) Empty() bool {
	return len(c.lines) == 0
}

// Total returns the sum of unit price times quantity, rounded to cents
func (c Cart) Total() float64 {
	total := 0.0
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return models.RoundMoney(total)
}

// OrderLines converts the cart into order lines carrying the captured prices
func (c Cart) OrderLines() []models.OrderLine {
	lines := make([]models.OrderLine, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, models.OrderLine{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		})
	}
	return lines
}
