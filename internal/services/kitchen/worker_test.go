package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"restaurant-system/internal/core"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

type fakeOrders struct {
	orders    map[string]models.Order
	updateErr error
	confirmed []int64
	actors    []identity.Actor
}

func (f *fakeOrders) GetByNumber(_ context.Context, _ identity.Actor, number string) (*models.Order, error) {
	o, ok := f.orders[number]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", number, core.ErrNotFound)
	}
	return &o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, actor identity.Actor, id int64, status models.OrderStatus) (*models.Order, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.confirmed = append(f.confirmed, id)
	f.actors = append(f.actors, actor)
	return &models.Order{ID: id, Status: status}, nil
}

func orderMessage(t *testing.T, number string, orderType models.OrderType) []byte {
	t.Helper()
	body, err := json.Marshal(models.OrderMessage{
		OrderNumber: number,
		CustomerID:  "cust-1",
		OrderType:   orderType,
		Items:       []models.OrderLine{{MenuItemID: 1, Quantity: 2, UnitPrice: 8.50}},
		TotalAmount: 17.00,
	})
	require.NoError(t, err)
	return body
}

func newWorker(orders Orders, types ...models.OrderType) *Worker {
	return NewWorker("chef-1", types, orders, nil, logger.Discard())
}

func TestHandleMessage_ConfirmsPendingOrder(t *testing.T) {
	orders := &fakeOrders{orders: map[string]models.Order{
		"ORD_20261019_001": {ID: 1, OrderNumber: "ORD_20261019_001", OrderType: models.Takeout, Status: models.StatusPending},
	}}

	err := newWorker(orders).HandleMessage(context.Background(), orderMessage(t, "ORD_20261019_001", models.Takeout))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, orders.confirmed)
	require.Len(t, orders.actors, 1)
	assert.True(t, orders.actors[0].IsStaff())
	assert.Equal(t, "chef-1", orders.actors[0].CustomerID)
}

func TestHandleMessage_Skips(t *testing.T) {
	tests := []struct {
		name      string
		order     *models.Order
		updateErr error
	}{
		{name: "deleted order"},
		{name: "already confirmed", order: &models.Order{ID: 1, OrderNumber: "ORD_20261019_001", Status: models.StatusConfirmed}},
		{name: "cancelled meanwhile", order: &models.Order{ID: 1, OrderNumber: "ORD_20261019_001", Status: models.StatusPending}, updateErr: core.ErrOrderClosed},
		{name: "lost the race", order: &models.Order{ID: 1, OrderNumber: "ORD_20261019_001", Status: models.StatusPending}, updateErr: core.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{orders: map[string]models.Order{}, updateErr: tt.updateErr}
			if tt.order != nil {
				orders.orders[tt.order.OrderNumber] = *tt.order
			}
			err := newWorker(orders).HandleMessage(context.Background(), orderMessage(t, "ORD_20261019_001", models.Delivery))
			assert.NoError(t, err)
			assert.Empty(t, orders.confirmed)
		})
	}
}

func TestHandleMessage_Requeues(t *testing.T) {
	t.Run("other specialization", func(t *testing.T) {
		orders := &fakeOrders{orders: map[string]models.Order{}}
		err := newWorker(orders, models.DineIn).HandleMessage(context.Background(), orderMessage(t, "ORD_20261019_001", models.Delivery))
		assert.Error(t, err)
	})

	t.Run("database failure", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		orders := &fakeOrders{
			orders:    map[string]models.Order{"ORD_20261019_001": {ID: 1, OrderNumber: "ORD_20261019_001", Status: models.StatusPending}},
			updateErr: dbErr,
		}
		err := newWorker(orders).HandleMessage(context.Background(), orderMessage(t, "ORD_20261019_001", models.Takeout))
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestHandleMessage_MalformedIsAcked(t *testing.T) {
	orders := &fakeOrders{orders: map[string]models.Order{}}
	assert.NoError(t, newWorker(orders).HandleMessage(context.Background(), []byte("not json")))
}
