package checkout

import (
	"net/http"

	"github.com/gorilla/mux"
	"restaurant-system/internal/httputil"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/services/order"
)

// Handler handles HTTP requests for checkout
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new checkout handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes mounts the checkout route on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
}

// Checkout handles POST /checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req order.Context
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	actor := identity.FromContext(r.Context())
	placed, err := h.service.Checkout(r.Context(), actor.CustomerID, req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, placed)
}
