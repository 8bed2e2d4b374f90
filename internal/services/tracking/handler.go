package tracking

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"restaurant-system/internal/core"
	"restaurant-system/internal/httputil"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
)

var orderNumberPattern = regexp.MustCompile(`^ORD_[0-9]{8}_[0-9]{3,}$`)

// Handler handles HTTP requests for the tracking service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new tracking handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes mounts the tracking routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/orders/number/{number}/status", h.GetOrderStatus).Methods(http.MethodGet)
	r.HandleFunc("/orders/number/{number}/history", h.GetOrderHistory).Methods(http.MethodGet)
}

// GetOrderStatus handles GET /orders/number/{number}/status
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	number, err := orderNumber(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	status, err := h.service.GetOrderStatus(r.Context(), identity.FromContext(r.Context()), number)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// GetOrderHistory handles GET /orders/number/{number}/history
func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	number, err := orderNumber(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	history, err := h.service.GetOrderHistory(r.Context(), identity.FromContext(r.Context()), number)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

// orderNumber extracts and checks the ORD_YYYYMMDD_NNN path segment
func orderNumber(r *http.Request) (string, error) {
	number := mux.Vars(r)["number"]
	if !orderNumberPattern.MatchString(number) {
		return "", core.Invalid(core.ErrInvalidRequest, "number", "invalid order number %q", number)
	}
	return number, nil
}
