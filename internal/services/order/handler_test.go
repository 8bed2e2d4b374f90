package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

func (f *fixture) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(identity.Middleware)
	NewHandler(f.service, logger.Discard()).RegisterRoutes(r)
	return r
}

func call(r http.Handler, method, path, customerID, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if customerID != "" {
		req.Header.Set(identity.HeaderCustomerID, customerID)
	}
	if role != "" {
		req.Header.Set(identity.HeaderRole, role)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_StatusFlow(t *testing.T) {
	f := newFixture()
	f.place(t, "cust-1")
	r := f.router()

	rec := call(r, http.MethodPatch, "/orders/1/status", "cust-1", "", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(r, http.MethodPatch, "/orders/1/status", "host", "staff", `{"status":"ready"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_transition")

	rec = call(r, http.MethodPatch, "/orders/1/status", "host", "staff", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.StatusConfirmed, order.Status)

	rec = call(r, http.MethodPatch, "/orders/1/payment-status", "host", "staff", `{"payment_status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(r, http.MethodPost, "/orders/1/cancel", "cust-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(r, http.MethodPost, "/orders/1/cancel", "cust-1", "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "order_closed")
}

func TestHandler_ListAndGet(t *testing.T) {
	f := newFixture()
	f.place(t, "cust-1")
	f.place(t, "cust-2")
	r := f.router()

	rec := call(r, http.MethodGet, "/orders", "cust-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "cust-1", mine[0].CustomerID)

	rec = call(r, http.MethodGet, "/orders", "host", "staff", "")
	var all []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/orders/2", "cust-1", "", "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/orders/9", "host", "staff", "").Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/orders", "", "", "").Code)
}

func TestHandler_Delete(t *testing.T) {
	f := newFixture()
	f.place(t, "cust-1")
	r := f.router()

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodDelete, "/orders/1", "host", "staff", "").Code)
	assert.Equal(t, http.StatusNoContent, call(r, http.MethodDelete, "/orders/1", "boss", "admin", "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/orders/1", "boss", "admin", "").Code)
}

func TestHandler_RejectsUnknownFields(t *testing.T) {
	f := newFixture()
	f.place(t, "cust-1")

	rec := call(f.router(), http.MethodPatch, "/orders/1/status", "host", "staff", `{"status":"confirmed","total_amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
