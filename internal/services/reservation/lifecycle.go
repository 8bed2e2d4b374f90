package reservation

import (
	"time"

	"restaurant-system/internal/models"
)

// transitions is the allowed edge set of the reservation state machine.
// completed and cancelled have no outgoing edges.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationPending:   {models.ReservationConfirmed, models.ReservationCancelled},
	models.ReservationConfirmed: {models.ReservationCompleted, models.ReservationCancelled},
}

// CanTransition reports whether a reservation may move from one status to another
func CanTransition(from, to models.ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Option configures the clock used by Service and Lookup
type Option func(*clock)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *clock) {
		c.now = now
	}
}

// WithLocation sets the restaurant time zone reservation dates and times are read in
func WithLocation(loc *time.Location) Option {
	return func(c *clock) {
		if loc != nil {
			c.loc = loc
		}
	}
}

type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Now returns the current time in the restaurant time zone
func (c clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current date as YYYY-MM-DD in the restaurant time zone
func (c clock) Today() string {
	return c.Now().Format(models.DateLayout)
}
