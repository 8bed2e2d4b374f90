package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"restaurant-system/internal/core"
	"restaurant-system/internal/models"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]models.Reservation
}

func newMemRepo(seed ...models.Reservation) *memRepo {
	r := &memRepo{items: map[int64]models.Reservation{}}
	for _, res := range seed {
		if res.ID > r.nextID {
			r.nextID = res.ID
		}
		r.items[res.ID] = res
	}
	return r
}

// Create rejects a second open booking of a slot the way the open slot index does
func (r *memRepo) Create(_ context.Context, res *models.Reservation) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.TableID == res.TableID && existing.Date == res.Date && existing.Time == res.Time && existing.Status.Open() {
			return nil, insertError(res, &pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_reservations_open_slot"})
		}
	}
	r.nextID++
	created := *res
	created.ID = r.nextID
	r.items[created.ID] = created
	return &created, nil
}

func (r *memRepo) Get(_ context.Context, id int64) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("reservation %d: %w", id, core.ErrNotFound)
	}
	return &res, nil
}

func (r *memRepo) List(_ context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Reservation{}
	for _, res := range r.items {
		if filter.CustomerID != "" && res.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && res.Status != filter.Status {
			continue
		}
		if filter.Date != "" && res.Date != filter.Date {
			continue
		}
		out = append(out, res)
	}
	// newest first, so callers have to do their own ordering
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id int64, from, to models.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok || res.Status != from {
		return fmt.Errorf("reservation %d changed concurrently: %w", id, core.ErrInvalidTransition)
	}
	res.Status = to
	r.items[id] = res
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("reservation %d: %w", id, core.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// tableMap answers availability from fixed tables and the repo's open reservations
type tableMap struct {
	tables map[int64]models.Table
	repo   *memRepo
}

func (m tableMap) CheckAvailability(ctx context.Context, req models.CreateReservationRequest) error {
	table, ok := m.tables[req.TableID]
	if !ok {
		return fmt.Errorf("table %d does not exist: %w", req.TableID, core.ErrTableUnavailable)
	}
	return CheckTable(table, req, func() (int, error) {
		taken := 0
		existing, _ := m.repo.List(ctx, models.ReservationFilter{Date: req.Date})
		for _, res := range existing {
			if res.TableID == req.TableID && res.Time == req.Time && res.Status.Open() {
				taken++
			}
		}
		return taken, nil
	})
}

// alwaysAvailable passes every availability check, like a check that ran
// before a concurrent booking of the same slot committed
type alwaysAvailable struct{}

func (alwaysAvailable) CheckAvailability(context.Context, models.CreateReservationRequest) error {
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []*models.StatusUpdateMessage
}

func (p *recordingPublisher) PublishStatusUpdate(_ context.Context, msg *models.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, msg)
	return nil
}

// 2026-10-19 19:00 in the restaurant's zone
var now = time.Date(2026, 10, 19, 19, 0, 0, 0, time.UTC)

func fixedClock() Option {
	return WithClock(func() time.Time { return now })
}
