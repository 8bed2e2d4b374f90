// Package httputil holds the JSON request/response helpers shared by the service handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"restaurant-system/internal/core"
	"restaurant-system/internal/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// WriteJSON writes v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto an HTTP status and writes the error envelope.
// Unexpected errors are logged and hidden behind a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	requestID := logger.RequestIDFromContext(r.Context())
	statusCode := StatusCode(err)

	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		log.Error("request_failed", fmt.Sprintf("%s %s failed", r.Method, r.URL.Path), requestID, err, nil)
		message = "Internal server error"
	}

	WriteJSON(w, statusCode, ErrorResponse{
		Error:     message,
		Code:      core.Code(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	})
}

// StatusCode returns the HTTP status for a core error
func StatusCode(err error) int {
	var validationErr core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrOrderClosed),
		errors.Is(err, core.ErrReservationClosed),
		errors.Is(err, core.ErrCancellationWindowClosed),
		errors.Is(err, core.ErrTableUnavailable),
		errors.Is(err, core.ErrItemUnavailable):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptyCart),
		errors.Is(err, core.ErrReservationRequired),
		errors.Is(err, core.ErrAddressRequired),
		errors.Is(err, core.ErrNoActiveReservation),
		errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidItem),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInvalidOrderType),
		errors.Is(err, core.ErrInvalidPaymentMethod),
		errors.Is(err, core.ErrReservationInPast),
		errors.Is(err, core.ErrInvalidReservation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a JSON request body into v, rejecting unknown fields
func DecodeJSON(r *http.Request, v interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return core.Invalid(core.ErrInvalidRequest, "Content-Type", "must be application/json")
		}
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return core.Invalid(core.ErrInvalidRequest, "body", "invalid JSON format: %v", err)
	}
	return nil
}

// PathID parses a positive integer route variable
func PathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(core.ErrInvalidRequest, name, "invalid id %q", raw)
	}
	return id, nil
}
