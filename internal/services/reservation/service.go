package reservation

import (
	"context"
	"fmt"
	"strings"

	"restaurant-system/internal/core"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/metrics"
	"restaurant-system/internal/models"
)

// Repository persists reservations
type Repository interface {
	Create(ctx context.Context, r *models.Reservation) (*models.Reservation, error)
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	// UpdateStatus moves id from one status to another. It fails with
	// core.ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to models.ReservationStatus) error
	Delete(ctx context.Context, id int64) error
}

// TableAvailability checks that a table belongs to the zone, seats the party
// and is free for the requested slot
type TableAvailability interface {
	CheckAvailability(ctx context.Context, req models.CreateReservationRequest) error
}

// Publisher announces reservation status changes
type Publisher interface {
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}

// Service is the reservation lifecycle manager
type Service struct {
	repo      Repository
	tables    TableAvailability
	publisher Publisher
	logger    *logger.Logger
	clock     clock
}

// NewService creates a new reservation service
func NewService(repo Repository, tables TableAvailability, publisher Publisher, log *logger.Logger, opts ...Option) *Service {
	return &Service{
		repo:      repo,
		tables:    tables,
		publisher: publisher,
		logger:    log,
		clock:     newClock(opts),
	}
}

// Create books a table for the actor. The slot must be strictly in the future.
func (s *Service) Create(ctx context.Context, actor identity.Actor, req models.CreateReservationRequest) (*models.Reservation, error) {
	if actor.Anonymous() {
		return nil, core.ErrUnauthorized
	}

	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	slot, err := models.ParseSlot(req.Date, req.Time, s.clock.loc)
	if err != nil {
		return nil, core.Invalid(core.ErrInvalidReservation, "date", "invalid date or time")
	}
	if !slot.After(s.clock.Now()) {
		return nil, core.Invalid(core.ErrReservationInPast, "date", "%s %s has already passed", req.Date, req.Time)
	}

	if err := s.tables.CheckAvailability(ctx, req); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &models.Reservation{
		CustomerID: actor.CustomerID,
		TableID:    req.TableID,
		ZoneID:     req.ZoneID,
		Date:       req.Date,
		Time:       req.Time,
		GuestCount: req.GuestCount,
		Status:     models.ReservationPending,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("reservation_created", "Reservation created", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"reservation_id": created.ID,
		"customer_id":    created.CustomerID,
		"table_id":       created.TableID,
		"date":           created.Date,
		"time":           created.Time,
	})
	s.publish(ctx, models.NewReservationStatusMessage(created.ID, "", created.Status, actor.CustomerID))

	return created, nil
}

// Get returns a reservation the actor may see
func (s *Service) Get(ctx context.Context, actor identity.Actor, id int64) (*models.Reservation, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(r.CustomerID) {
		return nil, core.ErrUnauthorized
	}
	return r, nil
}

// List returns reservations matching filter. Customers only see their own.
func (s *Service) List(ctx context.Context, actor identity.Actor, filter models.ReservationFilter) ([]models.Reservation, error) {
	if !actor.IsStaff() {
		if actor.Anonymous() {
			return nil, core.ErrUnauthorized
		}
		filter.CustomerID = actor.CustomerID
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus moves a reservation along the state machine. Staff only.
func (s *Service) UpdateStatus(ctx context.Context, actor identity.Actor, id int64, status models.ReservationStatus) (*models.Reservation, error) {
	if !actor.IsStaff() {
		return nil, core.ErrUnauthorized
	}
	if !status.Valid() {
		return nil, core.Invalid(core.ErrInvalidRequest, "status", "unknown reservation status %q", status)
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, r, status)
}

// Cancel cancels a reservation. Owners and staff may cancel while the slot is
// still ahead; admins may cancel at any time.
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id int64) (*models.Reservation, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.Owns(r.CustomerID) {
		return nil, core.ErrUnauthorized
	}
	if r.Status.Terminal() {
		return nil, fmt.Errorf("reservation %d is %s: %w", r.ID, r.Status, core.ErrReservationClosed)
	}

	if !actor.IsAdmin() {
		slot, err := r.StartsAt(s.clock.loc)
		if err != nil {
			return nil, err
		}
		if !slot.After(s.clock.Now()) {
			return nil, core.ErrCancellationWindowClosed
		}
	}

	return s.transition(ctx, actor, r, models.ReservationCancelled)
}

// Delete removes a reservation regardless of status. Admin only.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, id int64) error {
	if !actor.IsAdmin() {
		return core.ErrUnauthorized
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	s.logger.Info("reservation_deleted", "Reservation deleted", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"reservation_id": id,
		"deleted_by":     actor.CustomerID,
	})
	return nil
}

func (s *Service) transition(ctx context.Context, actor identity.Actor, r *models.Reservation, to models.ReservationStatus) (*models.Reservation, error) {
	if r.Status.Terminal() {
		return nil, fmt.Errorf("reservation %d is %s: %w", r.ID, r.Status, core.ErrReservationClosed)
	}
	if !CanTransition(r.Status, to) {
		return nil, fmt.Errorf("%s -> %s: %w", r.Status, to, core.ErrInvalidTransition)
	}

	if err := s.repo.UpdateStatus(ctx, r.ID, r.Status, to); err != nil {
		return nil, err
	}

	// read back the stored record instead of patching the local copy
	updated, err := s.repo.Get(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation_status_changed", "Reservation status changed", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"reservation_id": r.ID,
		"old_status":     r.Status,
		"new_status":     updated.Status,
		"changed_by":     actor.CustomerID,
	})
	metrics.RecordTransition(models.KindReservation, "status", string(updated.Status))
	s.publish(ctx, models.NewReservationStatusMessage(r.ID, r.Status, updated.Status, actor.CustomerID))

	return updated, nil
}

func (s *Service) publish(ctx context.Context, msg *models.StatusUpdateMessage) {
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish reservation status update", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"reference": msg.Reference,
		})
	}
}

func validateCreate(req *models.CreateReservationRequest) error {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	switch {
	case req.ZoneID <= 0:
		return core.Invalid(core.ErrInvalidReservation, "zone_id", "zone is required")
	case req.TableID <= 0:
		return core.Invalid(core.ErrInvalidReservation, "table_id", "table is required")
	case req.Date == "":
		return core.Invalid(core.ErrInvalidReservation, "date", "date is required")
	case req.Time == "":
		return core.Invalid(core.ErrInvalidReservation, "time", "time is required")
	case req.GuestCount <= 0:
		return core.Invalid(core.ErrInvalidReservation, "guest_count", "must be at least 1")
	}
	return nil
}

