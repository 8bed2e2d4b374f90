package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"restaurant-system/internal/core"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

type serviceFixture struct {
	repo      *memRepo
	publisher *recordingPublisher
	service   *Service
}

func newServiceFixture(seed ...models.Reservation) *serviceFixture {
	repo := newMemRepo(seed...)
	tables := tableMap{
		repo: repo,
		tables: map[int64]models.Table{
			5: {ID: 5, ZoneID: 2, Number: 5, Capacity: 4},
			6: {ID: 6, ZoneID: 3, Number: 6, Capacity: 2},
		},
	}
	publisher := &recordingPublisher{}
	return &serviceFixture{
		repo:      repo,
		publisher: publisher,
		service:   NewService(repo, tables, publisher, logger.Discard(), fixedClock()),
	}
}

func booking() models.CreateReservationRequest {
	return models.CreateReservationRequest{ZoneID: 2, TableID: 5, Date: "2026-10-20", Time: "19:30", GuestCount: 4}
}

func TestService_Create(t *testing.T) {
	f := newServiceFixture()

	res, err := f.service.Create(context.Background(), identity.Customer("cust-1"), booking())
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, res.Status)
	assert.Equal(t, "cust-1", res.CustomerID)

	require.Len(t, f.publisher.updates, 1)
	assert.Equal(t, models.KindReservation, f.publisher.updates[0].Kind)
	assert.Equal(t, "pending", f.publisher.updates[0].NewStatus)
}

func TestService_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		actor   identity.Actor
		mutate  func(*models.CreateReservationRequest)
		wantErr error
	}{
		{name: "anonymous", actor: identity.Actor{}, wantErr: core.ErrUnauthorized},
		{name: "missing zone", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.ZoneID = 0 }, wantErr: core.ErrInvalidReservation},
		{name: "no guests", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.GuestCount = 0 }, wantErr: core.ErrInvalidReservation},
		{name: "bad time", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.Time = "7pm" }, wantErr: core.ErrInvalidReservation},
		{name: "earlier today", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.Date = "2026-10-19"; r.Time = "18:00" }, wantErr: core.ErrReservationInPast},
		{name: "right now", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.Date = "2026-10-19"; r.Time = "19:00" }, wantErr: core.ErrReservationInPast},
		{name: "wrong zone", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.ZoneID = 3 }, wantErr: core.ErrTableUnavailable},
		{name: "too many guests", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.GuestCount = 6 }, wantErr: core.ErrTableUnavailable},
		{name: "unknown table", actor: identity.Customer("cust-1"), mutate: func(r *models.CreateReservationRequest) { r.TableID = 99 }, wantErr: core.ErrTableUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			req := booking()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := f.service.Create(context.Background(), tt.actor, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.repo.items)
		})
	}
}

func TestService_CreateRejectsDoubleBooking(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.service.Create(ctx, identity.Customer("cust-1"), booking())
	require.NoError(t, err)

	_, err = f.service.Create(ctx, identity.Customer("cust-2"), booking())
	assert.ErrorIs(t, err, core.ErrTableUnavailable)
}

func TestService_CreateConcurrentBookingsOfOneSlot(t *testing.T) {
	repo := newMemRepo()
	publisher := &recordingPublisher{}
	service := NewService(repo, alwaysAvailable{}, publisher, logger.Discard(), fixedClock())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Create(ctx, identity.Customer(fmt.Sprintf("cust-%d", i)), booking())
		}(i)
	}
	wg.Wait()

	booked := 0
	for _, err := range errs {
		if err == nil {
			booked++
			continue
		}
		assert.ErrorIs(t, err, core.ErrTableUnavailable)
	}
	assert.Equal(t, 1, booked)
	assert.Len(t, publisher.updates, 1)
}

func TestService_CancelTomorrow(t *testing.T) {
	f := newServiceFixture(models.Reservation{ID: 1, CustomerID: "cust-1", TableID: 5, ZoneID: 2, Date: "2026-10-20", Time: "12:00", Status: models.ReservationConfirmed})

	res, err := f.service.Cancel(context.Background(), identity.Customer("cust-1"), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, res.Status)

	require.Len(t, f.publisher.updates, 1)
	assert.Equal(t, "RES_1", f.publisher.updates[0].Reference)
	assert.Equal(t, "confirmed", f.publisher.updates[0].OldStatus)
}

func TestService_CancelRules(t *testing.T) {
	started := models.Reservation{ID: 1, CustomerID: "cust-1", TableID: 5, ZoneID: 2, Date: "2026-10-19", Time: "18:00", Status: models.ReservationConfirmed}

	tests := []struct {
		name    string
		seed    models.Reservation
		actor   identity.Actor
		wantErr error
	}{
		{name: "owner after the slot started", seed: started, actor: identity.Customer("cust-1"), wantErr: core.ErrCancellationWindowClosed},
		{name: "staff after the slot started", seed: started, actor: identity.Staff("host"), wantErr: core.ErrCancellationWindowClosed},
		{name: "admin after the slot started", seed: started, actor: identity.Admin("boss")},
		{name: "someone else", seed: started, actor: identity.Customer("cust-2"), wantErr: core.ErrUnauthorized},
		{
			name:    "already cancelled",
			seed:    models.Reservation{ID: 1, CustomerID: "cust-1", Date: "2026-10-21", Time: "12:00", Status: models.ReservationCancelled},
			actor:   identity.Admin("boss"),
			wantErr: core.ErrReservationClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(tt.seed)
			res, err := f.service.Cancel(context.Background(), tt.actor, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ReservationCancelled, res.Status)
		})
	}
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	seed := models.Reservation{ID: 1, CustomerID: "cust-1", Date: "2026-10-19", Time: "18:00", Status: models.ReservationPending}

	t.Run("staff walk the state machine", func(t *testing.T) {
		f := newServiceFixture(seed)
		res, err := f.service.UpdateStatus(ctx, identity.Staff("host"), 1, models.ReservationConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationConfirmed, res.Status)

		res, err = f.service.UpdateStatus(ctx, identity.Staff("host"), 1, models.ReservationCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationCompleted, res.Status)

		_, err = f.service.UpdateStatus(ctx, identity.Staff("host"), 1, models.ReservationCancelled)
		assert.ErrorIs(t, err, core.ErrReservationClosed)
	})

	t.Run("pending cannot complete directly", func(t *testing.T) {
		f := newServiceFixture(seed)
		_, err := f.service.UpdateStatus(ctx, identity.Staff("host"), 1, models.ReservationCompleted)
		assert.ErrorIs(t, err, core.ErrInvalidTransition)
	})

	t.Run("customers cannot confirm", func(t *testing.T) {
		f := newServiceFixture(seed)
		_, err := f.service.UpdateStatus(ctx, identity.Customer("cust-1"), 1, models.ReservationConfirmed)
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newServiceFixture(seed)
		_, err := f.service.UpdateStatus(ctx, identity.Staff("host"), 1, "seated")
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
	})
}

func TestService_DeleteAndVisibility(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(
		models.Reservation{ID: 1, CustomerID: "cust-1", Date: "2026-10-20", Time: "12:00", Status: models.ReservationPending},
		models.Reservation{ID: 2, CustomerID: "cust-2", Date: "2026-10-20", Time: "13:00", Status: models.ReservationPending},
	)

	_, err := f.service.Get(ctx, identity.Customer("cust-2"), 1)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	mine, err := f.service.List(ctx, identity.Customer("cust-1"), models.ReservationFilter{CustomerID: "cust-2"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].ID)

	all, err := f.service.List(ctx, identity.Staff("host"), models.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, f.service.Delete(ctx, identity.Staff("host"), 1), core.ErrUnauthorized)
	require.NoError(t, f.service.Delete(ctx, identity.Admin("boss"), 1))
	assert.ErrorIs(t, f.service.Delete(ctx, identity.Admin("boss"), 1), core.ErrNotFound)
}
