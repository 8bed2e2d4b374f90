package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"restaurant-system/internal/core"
	"restaurant-system/internal/database"
	"restaurant-system/internal/models"
)

// PostgresRepository stores orders in PostgreSQL
type PostgresRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewPostgresRepository creates an order repository. loc is the restaurant
// time zone that list date filters are evaluated in; nil means UTC.
func NewPostgresRepository(db *database.DB, loc *time.Location) *PostgresRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresRepository{db: db, loc: loc}
}

func (r *PostgresRepository) Create(ctx context.Context, order *models.Order, placedAt time.Time) (*models.Order, error) {
	created := *order
	created.Items = append([]models.OrderLine(nil), order.Items...)

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		day := placedAt.Format("20060102")
		if _, err := tx.Exec(ctx, database.LockOrderNumberSQL, "order_number_"+day); err != nil {
			return fmt.Errorf("lock order number: %w", err)
		}

		var seq int
		if err := tx.QueryRow(ctx, database.GetNextOrderNumberSQL, "ORD_"+day+"_%").Scan(&seq); err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		created.OrderNumber = models.GenerateOrderNumber(placedAt, seq)

		var status, paymentStatus string
		err := tx.QueryRow(ctx, database.InsertOrderSQL,
			created.OrderNumber,
			created.CustomerID,
			string(created.OrderType),
			created.ReservationID,
			created.TableID,
			created.DeliveryAddress,
			string(created.PaymentMethod),
			created.SpecialInstructions,
			created.TotalAmount,
		).Scan(&created.ID, &status, &paymentStatus, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		created.Status = models.OrderStatus(status)
		created.PaymentStatus = models.PaymentStatus(paymentStatus)

		for _, item := range created.Items {
			if _, err := tx.Exec(ctx, database.InsertOrderItemSQL, created.ID, item.MenuItemID, item.Quantity, item.UnitPrice); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		notes := "order placed"
		if _, err := tx.Exec(ctx, database.InsertOrderStatusLogSQL, created.ID, status, created.CustomerID, notes); err != nil {
			return fmt.Errorf("insert status log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Order, error) {
	return r.getOne(ctx, database.GetOrderByIDSQL, id, fmt.Sprintf("order %d", id))
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.getOne(ctx, database.GetOrderByNumberSQL, number, "order "+number)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, key interface{}, label string) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", label, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if order.Items, err = r.items(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, database.ListOrdersSQL, listArgs(filter, r.loc)...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// lines are loaded after the cursor is released so the pool connection is free
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// listArgs binds the ListOrdersSQL parameters
func listArgs(filter models.OrderFilter, loc *time.Location) []interface{} {
	return []interface{}{filter.CustomerID, string(filter.Status), string(filter.PaymentStatus), filter.Date, loc.String()}
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, from, to models.OrderStatus, changedBy string) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, database.UpdateOrderStatusSQL, string(to), id, string(from))
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("order %d changed concurrently: %w", id, core.ErrInvalidTransition)
		}

		notes := fmt.Sprintf("%s -> %s", from, to)
		if _, err := tx.Exec(ctx, database.InsertOrderStatusLogSQL, id, string(to), changedBy, notes); err != nil {
			return fmt.Errorf("insert status log: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, id int64, from, to models.PaymentStatus) error {
	affected, err := r.db.Exec(ctx, database.UpdateOrderPaymentStatusSQL, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %d changed concurrently: %w", id, core.ErrInvalidTransition)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.Exec(ctx, database.DeleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, number string) ([]models.OrderStatusHistory, error) {
	rows, err := r.db.Query(ctx, database.GetOrderStatusHistorySQL, number)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	history := []models.OrderStatusHistory{}
	for rows.Next() {
		var h models.OrderStatusHistory
		if err := rows.Scan(&h.Status, &h.ChangedBy, &h.ChangedAt, &h.Notes); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *PostgresRepository) items(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderLine{}
	for rows.Next() {
		var item models.OrderLine
		if err := rows.Scan(&item.MenuItemID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var orderType, paymentMethod, paymentStatus, status string
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&orderType,
		&order.ReservationID,
		&order.TableID,
		&order.DeliveryAddress,
		&paymentMethod,
		&paymentStatus,
		&status,
		&order.SpecialInstructions,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.OrderType = models.OrderType(orderType)
	order.PaymentMethod = models.PaymentMethod(paymentMethod)
	order.PaymentStatus = models.PaymentStatus(paymentStatus)
	order.Status = models.OrderStatus(status)
	return &order, nil
}
