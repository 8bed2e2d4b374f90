package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"restaurant-system/internal/core"
	"restaurant-system/internal/database"
	"restaurant-system/internal/models"
)

const uniqueViolation = "23505"

// PostgresRepository stores reservations in PostgreSQL
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a reservation repository
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	row := r.db.QueryRow(ctx, database.InsertReservationSQL,
		res.CustomerID, res.TableID, res.ZoneID, res.Date, res.Time, res.GuestCount, res.Notes)
	created, err := scanReservation(row)
	if err != nil {
		return nil, insertError(res, err)
	}
	return created, nil
}

// insertError maps a violation of the open slot index to ErrTableUnavailable
func insertError(res *models.Reservation, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("table %d at %s %s: %w", res.TableID, res.Date, res.Time, core.ErrTableUnavailable)
	}
	return fmt.Errorf("insert reservation: %w", err)
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, database.GetReservationByIDSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservation %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return res, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	rows, err := r.db.Query(ctx, database.ListReservationsSQL, filter.CustomerID, string(filter.Status), filter.Date)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, from, to models.ReservationStatus) error {
	affected, err := r.db.Exec(ctx, database.UpdateReservationStatusSQL, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("reservation %d changed concurrently: %w", id, core.ErrInvalidTransition)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.Exec(ctx, database.DeleteReservationSQL, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("reservation %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// CheckAvailability implements TableAvailability against restaurant_tables
// and the open reservations of the requested slot.
func (r *PostgresRepository) CheckAvailability(ctx context.Context, req models.CreateReservationRequest) error {
	var table models.Table
	err := r.db.QueryRow(ctx, database.GetTableSQL, req.TableID).Scan(&table.ID, &table.ZoneID, &table.Number, &table.Capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("table %d does not exist: %w", req.TableID, core.ErrTableUnavailable)
	}
	if err != nil {
		return fmt.Errorf("query table: %w", err)
	}

	return CheckTable(table, req, func() (int, error) {
		var taken int
		err := r.db.QueryRow(ctx, database.CountOpenReservationsForSlotSQL, req.TableID, req.Date, req.Time).Scan(&taken)
		return taken, err
	})
}

// CheckTable applies the availability rules to a loaded table. countTaken
// returns the number of open reservations already holding the slot.
func CheckTable(table models.Table, req models.CreateReservationRequest, countTaken func() (int, error)) error {
	if table.ZoneID != req.ZoneID {
		return fmt.Errorf("table %d is not in zone %d: %w", table.ID, req.ZoneID, core.ErrTableUnavailable)
	}
	if table.Capacity < req.GuestCount {
		return fmt.Errorf("table %d seats %d, requested %d: %w", table.ID, table.Capacity, req.GuestCount, core.ErrTableUnavailable)
	}

	taken, err := countTaken()
	if err != nil {
		return fmt.Errorf("count reservations: %w", err)
	}
	if taken > 0 {
		return fmt.Errorf("table %d is booked at %s %s: %w", table.ID, req.Date, req.Time, core.ErrTableUnavailable)
	}
	return nil
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var res models.Reservation
	var status string
	err := row.Scan(
		&res.ID,
		&res.CustomerID,
		&res.TableID,
		&res.ZoneID,
		&res.Date,
		&res.Time,
		&res.GuestCount,
		&status,
		&res.Notes,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Status = models.ReservationStatus(status)
	return &res, nil
}
