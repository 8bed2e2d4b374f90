package database

// Order queries
const (
	orderColumns = `
		o.id, o.number, o.customer_id, o.type, o.reservation_id, o.table_id, o.delivery_address,
		o.payment_method, o.payment_status, o.status, o.special_instructions,
		o.total_amount::float8, o.created_at, o.updated_at`

	InsertOrderSQL = `
		INSERT INTO orders (number, customer_id, type, reservation_id, table_id, delivery_address,
			payment_method, special_instructions, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, status, payment_status, created_at, updated_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	// The expected current value guards against a concurrent change slipping in
	// between the read and the write.
	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	UpdateOrderPaymentStatusSQL = `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = $3 AND status <> 'cancelled'`

	DeleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	GetOrderByIDSQL = `SELECT` + orderColumns + ` FROM orders o WHERE o.id = $1`

	GetOrderByNumberSQL = `SELECT` + orderColumns + ` FROM orders o WHERE o.number = $1`

	// Filters are optional: an empty string disables the condition. The date
	// filter is a calendar day in the restaurant time zone ($5).
	ListOrdersSQL = `SELECT` + orderColumns + `
		FROM orders o
		WHERE ($1 = '' OR o.customer_id = $1)
		  AND ($2 = '' OR o.status = $2)
		  AND ($3 = '' OR o.payment_status = $3)
		  AND ($4 = '' OR (o.created_at AT TIME ZONE $5)::date = NULLIF($4, '')::date)
		ORDER BY o.created_at DESC, o.id DESC`

	GetOrderItemsSQL = `
		SELECT menu_item_id, quantity, unit_price::float8
		FROM order_items WHERE order_id = $1 ORDER BY id ASC`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = (SELECT id FROM orders WHERE number = $1)
		ORDER BY changed_at ASC, id ASC`

	GetNextOrderNumberSQL = `
		SELECT COALESCE(MAX(CAST(SUBSTRING(number FROM 'ORD_[0-9]{8}_([0-9]+)') AS INTEGER)), 0) + 1
		FROM orders
		WHERE number LIKE $1`

	// Serializes order number assignment per day inside the creating transaction.
	LockOrderNumberSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

// Reservation queries
const (
	reservationColumns = `
		id, customer_id, table_id, zone_id, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
		guest_count, status, notes, created_at, updated_at`

	InsertReservationSQL = `
		INSERT INTO reservations (customer_id, table_id, zone_id, date, time, guest_count, notes)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7)
		RETURNING ` + reservationColumns

	UpdateReservationStatusSQL = `
		UPDATE reservations SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	DeleteReservationSQL = `DELETE FROM reservations WHERE id = $1`

	GetReservationByIDSQL = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	ListReservationsSQL = `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR date = NULLIF($3, '')::date)
		ORDER BY date ASC, time ASC, id ASC`

	CountOpenReservationsForSlotSQL = `
		SELECT COUNT(*) FROM reservations
		WHERE table_id = $1 AND date = $2::date AND time = $3::time
		  AND status IN ('pending', 'confirmed')`
)

// Table and menu queries
const (
	GetTableSQL = `SELECT id, zone_id, number, capacity FROM restaurant_tables WHERE id = $1`

	GetMenuItemSQL = `SELECT id, name, price::float8, is_available FROM menu_items WHERE id = $1`
)
