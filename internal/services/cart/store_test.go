package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"restaurant-system/internal/core"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/models"
)

// failingPersistence rejects every call with err
type failingPersistence struct {
	err error
}

func (p failingPersistence) Get(context.Context, string) ([]models.CartLine, error) {
	return nil, p.err
}

func (p failingPersistence) Set(context.Context, string, []models.CartLine) error { return p.err }

func (p failingPersistence) Clear(context.Context, string) error { return p.err }

// writeFailingPersistence loads fine but fails to store
type writeFailingPersistence struct {
	*MemoryPersistence
}

func (p writeFailingPersistence) Set(context.Context, string, []models.CartLine) error {
	return errors.New("disk full")
}

func (p writeFailingPersistence) Clear(context.Context, string) error {
	return errors.New("disk full")
}

// fakeRedis implements the three commands RedisPersistence issues
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.([]byte)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestStore_AddAndReload(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersistence()
	store := NewStore(p, logger.Discard())

	_, err := store.AddItem(ctx, "cust-1", margherita, 2)
	require.NoError(t, err)
	c, err := store.AddItem(ctx, "cust-1", tiramisu, 1)
	require.NoError(t, err)
	assert.Equal(t, 21.25, c.Total())

	// a fresh store sees the persisted cart
	reloaded, err := NewStore(p, logger.Discard()).Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, c.Lines(), reloaded.Lines())
}

func TestStore_AddItemRejectsBadQuantity(t *testing.T) {
	store := NewStore(NewMemoryPersistence(), logger.Discard())

	for _, qty := range []int{0, -1} {
		_, err := store.AddItem(context.Background(), "cust-1", margherita, qty)
		assert.ErrorIs(t, err, core.ErrInvalidQuantity)
	}
}

func TestStore_Anonymous(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryPersistence(), logger.Discard())

	c, err := store.Get(ctx, "")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	_, err = store.AddItem(ctx, "", margherita, 1)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	assert.ErrorIs(t, store.Clear(ctx, ""), core.ErrUnauthorized)
}

func TestStore_CartsAreScopedByCustomer(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryPersistence(), logger.Discard())

	_, err := store.AddItem(ctx, "alice", margherita, 1)
	require.NoError(t, err)

	bob, err := store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, bob.Empty())
}

func TestStore_UpdateToZeroClearsPersistedCart(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersistence()
	store := NewStore(p, logger.Discard())

	_, err := store.AddItem(ctx, "cust-1", margherita, 1)
	require.NoError(t, err)

	c, err := store.UpdateQuantity(ctx, "cust-1", margherita.MenuItemID, 0)
	require.NoError(t, err)
	assert.True(t, c.Empty())

	lines, err := p.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_LoadErrorPropagates(t *testing.T) {
	store := NewStore(failingPersistence{err: errors.New("connection refused")}, logger.Discard())

	_, err := store.Get(context.Background(), "cust-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cart")
}

func TestStore_WriteErrorKeepsSessionCart(t *testing.T) {
	ctx := context.Background()
	store := NewStore(writeFailingPersistence{NewMemoryPersistence()}, logger.Discard())

	c, err := store.AddItem(ctx, "cust-1", margherita, 2)
	require.NoError(t, err)
	assert.Equal(t, 17.0, c.Total())

	got, err := store.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, c.Lines(), got.Lines())
}

func TestStore_ClearReturnsEraseErrorButEmptiesSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore(writeFailingPersistence{NewMemoryPersistence()}, logger.Discard())

	_, err := store.AddItem(ctx, "cust-1", margherita, 1)
	require.NoError(t, err)

	assert.Error(t, store.Clear(ctx, "cust-1"))

	c, err := store.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestStore_ForgetReloadsFromPersistence(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryPersistence(), logger.Discard())

	_, err := store.AddItem(ctx, "cust-1", margherita, 1)
	require.NoError(t, err)

	store.Forget("cust-1")

	c, err := store.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryPersistence(), logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.AddItem(ctx, "cust-1", margherita, 1)
		}()
	}
	wg.Wait()

	c, err := store.Get(ctx, "cust-1")
	require.NoError(t, err)
	line, _ := c.Line(margherita.MenuItemID)
	assert.Equal(t, 50, line.Quantity)
}

// slowPersistence delays every write by a random few hundred microseconds so
// concurrent writers reach the backend out of order unless serialized.
type slowPersistence struct {
	*MemoryPersistence
}

func (p slowPersistence) Set(ctx context.Context, customerID string, lines []models.CartLine) error {
	time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
	return p.MemoryPersistence.Set(ctx, customerID, lines)
}

func (p slowPersistence) Clear(ctx context.Context, customerID string) error {
	time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
	return p.MemoryPersistence.Clear(ctx, customerID)
}

func TestStore_ConcurrentAddsPersistLatestCart(t *testing.T) {
	ctx := context.Background()

	for run := 0; run < 20; run++ {
		store := NewStore(slowPersistence{NewMemoryPersistence()}, logger.Discard())

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = store.AddItem(ctx, "cust-1", margherita, 1)
			}()
		}
		wg.Wait()

		store.Forget("cust-1")

		c, err := store.Get(ctx, "cust-1")
		require.NoError(t, err)
		line, ok := c.Line(margherita.MenuItemID)
		require.True(t, ok, "run %d", run)
		require.Equal(t, 20, line.Quantity, "run %d: reloaded cart is stale", run)
	}
}

func TestStore_AddRacingClearPersistsSessionState(t *testing.T) {
	ctx := context.Background()

	for run := 0; run < 20; run++ {
		store := NewStore(slowPersistence{NewMemoryPersistence()}, logger.Discard())
		_, err := store.AddItem(ctx, "cust-1", margherita, 1)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.AddItem(ctx, "cust-1", tiramisu, 1)
		}()
		go func() {
			defer wg.Done()
			_ = store.Clear(ctx, "cust-1")
		}()
		wg.Wait()

		session, err := store.Get(ctx, "cust-1")
		require.NoError(t, err)

		store.Forget("cust-1")

		reloaded, err := store.Get(ctx, "cust-1")
		require.NoError(t, err)
		assert.Equal(t, session.Lines(), reloaded.Lines(), "run %d", run)
	}
}

func TestStore_ClearThenForgetStaysEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewStore(slowPersistence{NewMemoryPersistence()}, logger.Discard())

	_, err := store.AddItem(ctx, "cust-1", margherita, 2)
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "cust-1"))

	store.Forget("cust-1")

	c, err := store.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestRedisPersistence(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	p := NewRedisPersistence(client, 48*time.Hour)

	lines, err := p.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Nil(t, lines)

	want := []models.CartLine{{MenuItemID: 1, Name: "Margherita", UnitPrice: 8.50, Quantity: 3}}
	require.NoError(t, p.Set(ctx, "cust-1", want))
	assert.Equal(t, 48*time.Hour, client.ttl["cart:cust-1"])

	got, err := p.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, p.Clear(ctx, "cust-1"))
	got, err = p.Get(ctx, "cust-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisPersistence_CorruptValue(t *testing.T) {
	client := newFakeRedis()
	client.data[Key("cust-1")] = []byte("not json")

	_, err := NewRedisPersistence(client, 0).Get(context.Background(), "cust-1")
	assert.Error(t, err)
}
