package reservation

import (
	"context"
	"fmt"
	"sort"

	"restaurant-system/internal/core"
	"restaurant-system/internal/models"
)

// Lookup answers whether a customer holds a reservation usable for a dine-in order right now
type Lookup struct {
	repo  Repository
	clock clock
}

// NewLookup creates a reservation lookup over repo
func NewLookup(repo Repository, opts ...Option) *Lookup {
	return &Lookup{
		repo:  repo,
		clock: newClock(opts),
	}
}

// GetActiveReservation returns the customer's pending or confirmed reservation
// dated today. The time of day is not checked: a reservation whose slot has
// already started still qualifies for the rest of the day. When several
// qualify, the earliest time wins, then the lowest id.
func (l *Lookup) GetActiveReservation(ctx context.Context, customerID string) (*models.Reservation, error) {
	if customerID == "" {
		return nil, core.ErrUnauthorized
	}

	today := l.clock.Today()
	reservations, err := l.repo.List(ctx, models.ReservationFilter{
		CustomerID: customerID,
		Date:       today,
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	var candidates []models.Reservation
	for _, r := range reservations {
		if r.CustomerID == customerID && r.Date == today && r.Status.Open() {
			candidates = append(candidates, r)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no pending or confirmed reservation for %s", core.ErrNoActiveReservation, today)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Time != candidates[j].Time {
			return candidates[i].Time < candidates[j].Time
		}
		return candidates[i].ID < candidates[j].ID
	})

	active := candidates[0]
	return &active, nil
}
