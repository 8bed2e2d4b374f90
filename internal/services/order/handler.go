package order

import (
	"net/http"

	"github.com/gorilla/mux"
	"restaurant-system/internal/httputil"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

// Handler handles HTTP requests for the order service. Orders are placed
// through checkout, so there is no create route here.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes mounts the order routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/orders", h.List).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/orders/{id:[0-9]+}/status", h.UpdateStatus).Methods(http.MethodPatch)
	r.HandleFunc("/orders/{id:[0-9]+}/payment-status", h.UpdatePaymentStatus).Methods(http.MethodPatch)
	r.HandleFunc("/orders/{id:[0-9]+}/cancel", h.Cancel).Methods(http.MethodPost)
}

// List handles GET /orders?status=&payment_status=&date=&customer_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.OrderFilter{
		CustomerID:    q.Get("customer_id"),
		Status:        models.OrderStatus(q.Get("status")),
		PaymentStatus: models.PaymentStatus(q.Get("payment_status")),
		Date:          q.Get("date"),
	}

	orders, err := h.service.List(r.Context(), identity.FromContext(r.Context()), filter)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

// Get handles GET /orders/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.Get(r.Context(), identity.FromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /orders/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), identity.FromContext(r.Context()), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// UpdatePaymentStatus handles PATCH /orders/{id}/payment-status
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req models.UpdatePaymentStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), identity.FromContext(r.Context()), id, req.PaymentStatus)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// Cancel handles POST /orders/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.Cancel(r.Context(), identity.FromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /orders/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), identity.FromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
