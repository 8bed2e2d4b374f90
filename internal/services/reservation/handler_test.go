package reservation

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

func (f *serviceFixture) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(identity.Middleware)
	NewHandler(f.service, NewLookup(f.repo, fixedClock()), logger.Discard()).RegisterRoutes(r)
	return r
}

func send(r http.Handler, method, path, customerID, role, body string) *httptest.ResponseRecorder {
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

func TestHandler_BookAndCancel(t *testing.T) {
	f := newServiceFixture()
	r := f.router()

	rec := send(r, http.MethodPost, "/reservations", "cust-1", "",
		`{"zone_id":2,"table_id":5,"date":"2026-10-20","time":"19:30","guest_count":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, models.ReservationPending, res.Status)

	rec = send(r, http.MethodPost, "/reservations", "cust-2", "",
		`{"zone_id":2,"table_id":5,"date":"2026-10-20","time":"19:30","guest_count":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "table_unavailable")

	rec = send(r, http.MethodPost, "/reservations/1/cancel", "cust-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, models.ReservationCancelled, res.Status)
}

func TestHandler_PastSlotIsBadRequest(t *testing.T) {
	rec := send(newServiceFixture().router(), http.MethodPost, "/reservations", "cust-1", "",
		`{"zone_id":2,"table_id":5,"date":"2026-10-19","time":"12:00","guest_count":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "reservation_in_past")
}

func TestHandler_Active(t *testing.T) {
	f := newServiceFixture(models.Reservation{ID: 3, CustomerID: "cust-1", TableID: 5, ZoneID: 2, Date: "2026-10-19", Time: "18:00", Status: models.ReservationConfirmed})
	r := f.router()

	rec := send(r, http.MethodGet, "/reservations/active", "cust-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(3), res.ID)

	rec = send(r, http.MethodGet, "/reservations/active", "cust-2", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_active_reservation")

	assert.Equal(t, http.StatusForbidden, send(r, http.MethodGet, "/reservations/active", "", "", "").Code)
}

func TestHandler_StaffStatusAndAdminDelete(t *testing.T) {
	f := newServiceFixture(models.Reservation{ID: 1, CustomerID: "cust-1", TableID: 5, ZoneID: 2, Date: "2026-10-20", Time: "12:00", Status: models.ReservationPending})
	r := f.router()

	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPatch, "/reservations/1/status", "cust-1", "", `{"status":"confirmed"}`).Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodPatch, "/reservations/1/status", "host", "staff", `{"status":"confirmed"}`).Code)
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodDelete, "/reservations/1", "host", "staff", "").Code)
	assert.Equal(t, http.StatusNoContent, send(r, http.MethodDelete, "/reservations/1", "boss", "admin", "").Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/reservations/1", "boss", "admin", "").Code)
}
