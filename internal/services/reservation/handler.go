package reservation

import (
	"net/http"

	"github.com/gorilla/mux"
	"restaurant-system/internal/httputil"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

// Handler handles HTTP requests for reservations
type Handler struct {
	service *Service
	lookup  *Lookup
	logger  *logger.Logger
}

// NewHandler creates a new reservation handler
func NewHandler(service *Service, lookup *Lookup, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		lookup:  lookup,
		logger:  log,
	}
}

// RegisterRoutes mounts the reservation routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/reservations", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/reservations", h.List).Methods(http.MethodGet)
	r.HandleFunc("/reservations/active", h.Active).Methods(http.MethodGet)
	r.HandleFunc("/reservations/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/reservations/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/reservations/{id:[0-9]+}/status", h.UpdateStatus).Methods(http.MethodPatch)
	r.HandleFunc("/reservations/{id:[0-9]+}/cancel", h.Cancel).Methods(http.MethodPost)
}

// Create handles POST /reservations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.Create(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// List handles GET /reservations?status=&date=&customer_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ReservationFilter{
		CustomerID: q.Get("customer_id"),
		Status:     models.ReservationStatus(q.Get("status")),
		Date:       q.Get("date"),
	}

	reservations, err := h.service.List(r.Context(), identity.FromContext(r.Context()), filter)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reservations)
}

// Active handles GET /reservations/active
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())

	res, err := h.lookup.GetActiveReservation(r.Context(), actor.CustomerID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Get handles GET /reservations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.Get(r.Context(), identity.FromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// UpdateStatus handles PATCH /reservations/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req models.UpdateReservationStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.UpdateStatus(r.Context(), identity.FromContext(r.Context()), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Cancel handles POST /reservations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.Cancel(r.Context(), identity.FromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// Delete handles DELETE /reservations/{id}
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
