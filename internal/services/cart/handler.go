package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"restaurant-system/internal/core"
	"restaurant-system/internal/httputil"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

// MenuCatalog resolves the display name and current price of a menu item
type MenuCatalog interface {
	GetItem(ctx context.Context, id int64) (*models.MenuItem, error)
}

// Handler handles HTTP requests for the customer's cart
type Handler struct {
	store   *Store
	catalog MenuCatalog
	logger  *logger.Logger
}

// NewHandler creates a new cart handler
func NewHandler(store *Store, catalog MenuCatalog, log *logger.Logger) *Handler {
	return &Handler{
		store:   store,
		catalog: catalog,
		logger:  log,
	}
}

// RegisterRoutes mounts the cart routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/cart/items", h.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id}", h.UpdateItem).Methods(http.MethodPatch)
	r.HandleFunc("/cart/items/{id}", h.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/session/logout", h.Logout).Methods(http.MethodPost)
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())

	c, err := h.store.Get(r.Context(), actor.CustomerID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	h.writeCart(w, actor.CustomerID, c)
}

// AddItem handles POST /cart/items. The price is taken from the catalog now
// and stays frozen on the cart line until checkout.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if actor.Anonymous() {
		httputil.WriteError(w, r, h.logger, core.ErrUnauthorized)
		return
	}

	var req models.AddCartItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.catalog.GetItem(r.Context(), req.MenuItemID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if !item.IsAvailable {
		httputil.WriteError(w, r, h.logger, fmt.Errorf("%s: %w", item.Name, core.ErrItemUnavailable))
		return
	}

	line := models.CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
	}
	c, err := h.store.AddItem(r.Context(), actor.CustomerID, line, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Debug("cart_item_added", "Item added to cart", logger.RequestIDFromContext(r.Context()), map[string]interface{}{
		"customer_id":  actor.CustomerID,
		"menu_item_id": item.ID,
		"quantity":     req.Quantity,
	})
	h.writeCart(w, actor.CustomerID, c)
}

// UpdateItem handles PATCH /cart/items/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())

	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req models.UpdateCartItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	c, err := h.store.UpdateQuantity(r.Context(), actor.CustomerID, id, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	h.writeCart(w, actor.CustomerID, c)
}

// RemoveItem handles DELETE /cart/items/{id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())

	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	c, err := h.store.RemoveItem(r.Context(), actor.CustomerID, id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	h.writeCart(w, actor.CustomerID, c)
}

// ClearCart handles DELETE /cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())

	if err := h.store.Clear(r.Context(), actor.CustomerID); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	h.writeCart(w, actor.CustomerID, Cart{})
}

// Logout handles POST /session/logout by dropping the session cart
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if !actor.Anonymous() {
		h.store.Forget(actor.CustomerID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCart(w http.ResponseWriter, customerID string, c Cart) {
	httputil.WriteJSON(w, http.StatusOK, models.CartResponse{
		CustomerID: customerID,
		Items:      c.Lines(),
		Total:      c.Total(),
	})
}
