package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"restaurant-system/internal/models"
)

const keyPrefix = "cart:"

// Key returns the storage key of a customer's cart
func Key(customerID string) string {
	return keyPrefix + customerID
}

// RedisPersistence stores each cart as a JSON list under cart:<customer_id>
type RedisPersistence struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisPersistence creates a Redis-backed cart persistence. A zero ttl keeps carts forever.
func NewRedisPersistence(client redis.Cmdable, ttl time.Duration) *RedisPersistence {
	return &RedisPersistence{
		client: client,
		ttl:    ttl,
	}
}

func (p *RedisPersistence) Get(ctx context.Context, customerID string) ([]models.CartLine, error) {
	data, err := p.client.Get(ctx, Key(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return lines, nil
}

func (p *RedisPersistence) Set(ctx context.Context, customerID string, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := p.client.Set(ctx, Key(customerID), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (p *RedisPersistence) Clear(ctx context.Context, customerID string) error {
	if err := p.client.Del(ctx, Key(customerID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// MemoryPersistence keeps carts in process memory. Used when no Redis is configured.
type MemoryPersistence struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{carts: make(map[string][]byte)}
}

func (p *MemoryPersistence) Get(_ context.Context, customerID string) ([]models.CartLine, error) {
	p.mu.Lock()
	data, ok := p.carts[customerID]
	p.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return lines, nil
}

func (p *MemoryPersistence) Set(_ context.Context, customerID string, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carts[customerID] = data
	return nil
}

func (p *MemoryPersistence) Clear(_ context.Context, customerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.carts, customerID)
	return nil
}
