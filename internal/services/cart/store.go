package cart

import (
	"context"
	"fmt"
	"sync"

	"restaurant-system/internal/core"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

// Persistence is a key-value store of carts scoped by customer id
type Persistence interface {
	Get(ctx context.Context, customerID string) ([]models.CartLine, error)
	Set(ctx context.Context, customerID string, lines []models.CartLine) error
	Clear(ctx context.Context, customerID string) error
}

// Store holds the working cart of every active customer session and mirrors
// each change into Persistence. A failed write is logged and the in-memory
// cart stays authoritative for the session.
//
// Writes for one customer are serialized by a per-customer lock held across
// the session update and the persistence write, so the persisted cart always
// matches the last session state.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]Cart
	customers   sync.Map // customer id -> *sync.Mutex
	persistence Persistence
	logger      *logger.Logger
}

// NewStore creates a cart store backed by p
func NewStore(p Persistence, log *logger.Logger) *Store {
	return &Store{
		sessions:    make(map[string]Cart),
		persistence: p,
		logger:      log,
	}
}

// Get returns the customer's cart, loading the persisted one on first access.
// Anonymous sessions always get an empty cart.
func (s *Store) Get(ctx context.Context, customerID string) (Cart, error) {
	if customerID == "" {
		return Cart{}, nil
	}

	s.mu.RLock()
	c, ok := s.sessions[customerID]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	lines, err := s.persistence.Get(ctx, customerID)
	if err != nil {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have loaded it meanwhile
	if c, ok := s.sessions[customerID]; ok {
		return c, nil
	}
	c = New(lines)
	s.sessions[customerID] = c
	return c, nil
}

// AddItem adds qty of item, merging with an existing line for the same menu item
func (s *Store) AddItem(ctx context.Context, customerID string, item models.CartLine, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, core.Invalid(core.ErrInvalidQuantity, "quantity", "must be a positive integer, got %d", qty)
	}
	return s.mutate(ctx, customerID, func(c Cart) Cart {
		return c.Add(item, qty)
	})
}

// RemoveItem deletes the line for menuItemID
func (s *Store) RemoveItem(ctx context.Context, customerID string, menuItemID int64) (Cart, error) {
	return s.mutate(ctx, customerID, func(c Cart) Cart {
		return c.Remove(menuItemID)
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (s *Store) UpdateQuantity(ctx context.Context, customerID string, menuItemID int64, qty int) (Cart, error) {
	return s.mutate(ctx, customerID, func(c Cart) Cart {
		return c.UpdateQuantity(menuItemID, qty)
	})
}

// Clear empties the customer's cart and erases the persisted copy. The
// session is emptied even when the erase fails; that error is returned.
func (s *Store) Clear(ctx context.Context, customerID string) error {
	if customerID == "" {
		return core.ErrUnauthorized
	}

	unlock := s.lockCustomer(customerID)
	defer unlock()

	s.mu.Lock()
	s.sessions[customerID] = Cart{}
	s.mu.Unlock()

	if err := s.persistence.Clear(ctx, customerID); err != nil {
		s.logger.Error("cart_clear_failed", "Failed to erase persisted cart", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"customer_id": customerID,
		})
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Forget drops the in-memory session cart, e.g. on logout. The persisted cart
// is kept and reloaded at the customer's next access.
func (s *Store) Forget(customerID string) {
	unlock := s.lockCustomer(customerID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, customerID)
}

func (s *Store) mutate(ctx context.Context, customerID string, fn func(Cart) Cart) (Cart, error) {
	if customerID == "" {
		return Cart{}, core.ErrUnauthorized
	}

	unlock := s.lockCustomer(customerID)
	defer unlock()

	loaded, err := s.Get(ctx, customerID)
	if err != nil {
		return Cart{}, err
	}

	s.mu.Lock()
	current, ok := s.sessions[customerID]
	if !ok {
		current = loaded
	}
	next := fn(current)
	s.sessions[customerID] = next
	s.mu.Unlock()

	s.persist(ctx, customerID, next)
	return next, nil
}

// lockCustomer acquires the write lock of one customer and returns its release
func (s *Store) lockCustomer(customerID string) func() {
	v, _ := s.customers.LoadOrStore(customerID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *Store) persist(ctx context.Context, customerID string, c Cart) {
	var err error
	if c.Empty() {
		err = s.persistence.Clear(ctx, customerID)
	} else {
		err = s.persistence.Set(ctx, customerID, c.Lines())
	}
	if err != nil {
		s.logger.Error("cart_persist_failed", "Failed to persist cart", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"customer_id": customerID,
			"lines":       c.Len(),
		})
	}
}
