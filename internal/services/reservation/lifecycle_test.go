package reservation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"restaurant-system/internal/core"
	"restaurant-system/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.ReservationStatus
		want     bool
	}{
		{models.ReservationPending, models.ReservationConfirmed, true},
		{models.ReservationPending, models.ReservationCancelled, true},
		{models.ReservationPending, models.ReservationCompleted, false},
		{models.ReservationConfirmed, models.ReservationCompleted, true},
		{models.ReservationConfirmed, models.ReservationCancelled, true},
		{models.ReservationConfirmed, models.ReservationPending, false},
		{models.ReservationCompleted, models.ReservationCancelled, false},
		{models.ReservationCancelled, models.ReservationPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCheckTable(t *testing.T) {
	table := models.Table{ID: 5, ZoneID: 2, Number: 5, Capacity: 4}
	req := models.CreateReservationRequest{ZoneID: 2, TableID: 5, Date: "2026-10-20", Time: "19:30", GuestCount: 4}
	free := func() (int, error) { return 0, nil }

	assert.NoError(t, CheckTable(table, req, free))

	other := req
	other.ZoneID = 3
	assert.ErrorIs(t, CheckTable(table, other, free), core.ErrTableUnavailable)

	crowd := req
	crowd.GuestCount = 5
	assert.ErrorIs(t, CheckTable(table, crowd, free), core.ErrTableUnavailable)

	assert.ErrorIs(t, CheckTable(table, req, func() (int, error) { return 1, nil }), core.ErrTableUnavailable)

	dbErr := errors.New("connection reset")
	err := CheckTable(table, req, func() (int, error) { return 0, dbErr })
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, core.ErrTableUnavailable)
}
