package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/obs"
)

// Statuses of orders that still need a manager's attention.
var openStatuses = []string{string(domain.StatusUnprocessed), string(domain.StatusCooking)}

// Postgres-backed implementation of the OrderRepository port.
type PostgresOrderRepository struct{ DB *sql.DB }

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// Return unprocessed and cooking orders with their lines, ordered by
// status descending then id.
func (s *PostgresOrderRepository) ListOpenOrders(ctx context.Context) (_ []*domain.Order, err error) {
	defer obs.Time(ctx, "orders.ListOpen")(&err)

	if s.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	query := `
	SELECT
		id,
		first_name,
		last_name,
		phone,
		address,
		status,
		payment,
		comment,
		restaurant_id,
		registered_at,
		called_at,
		delivered_at
	FROM orders
	WHERE status = ANY($1::text[])
	ORDER BY status DESC, id;
	`
	rows, err := s.DB.QueryContext(ctx, query, openStatuses)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 32)
	byID := make(map[int64]*domain.Order)
	ids := make([]int64, 0, 32)
	for rows.Next() {
		var (
			o            domain.Order
			status       string
			payment      string
			restaurantID sql.NullInt64
			calledAt     sql.NullTime
			deliveredAt  sql.NullTime
		)
		if err := rows.Scan(
			&o.ID, &o.FirstName, &o.LastName, &o.Phone, &o.Address,
			&status, &payment, &o.Comment, &restaurantID,
			&o.RegisteredAt, &calledAt, &deliveredAt,
		); err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}

		o.Status = domain.OrderStatus(status)
		o.Payment = domain.PaymentMethod(payment)
		if restaurantID.Valid {
			id := restaurantID.Int64
			o.AssignedRestaurantID = &id
		}
		o.CalledAt = nullTime(calledAt)
		o.DeliveredAt = nullTime(deliveredAt)

		orders = append(orders, &o)
		byID[o.ID] = &o
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	linesQuery := `
	SELECT
		order_id,
		product_id,
		quantity,
		price_cents
	FROM order_elements
	WHERE order_id = ANY($1::bigint[])
	ORDER BY order_id, id;
	`
	lineRows, err := s.DB.QueryContext(ctx, linesQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("list orders: query order elements: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var orderID int64
		var l domain.OrderLine
		if err := lineRows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.PriceCents); err != nil {
			return nil, fmt.Errorf("list orders: scan order element: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: order element iteration: %w", err)
	}

	return orders, nil
}

// Persist a new order together with its lines.
func (s *PostgresOrderRepository) CreateOrder(ctx context.Context, o *domain.Order) (_ int64, err error) {
	defer obs.Time(ctx, "orders.Create")(&err)

	if s.DB == nil {
		return 0, errors.New("order repository: DB is nil")
	}
	if o == nil {
		return 0, errors.New("create order: order is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create order: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	registeredAt := o.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
	INSERT INTO orders (first_name, last_name, phone, address, status, payment, comment, registered_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id;
	`, o.FirstName, o.LastName, o.Phone, o.Address, string(o.Status), string(o.Payment), o.Comment, registeredAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create order: insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO order_elements (order_id, product_id, quantity, price_cents)
	VALUES ($1, $2, $3, $4);
	`)
	if err != nil {
		return 0, fmt.Errorf("create order: prepare elements: %w", err)
	}
	defer stmt.Close()

	for _, l := range o.Lines {
		if _, err := stmt.ExecContext(ctx, id, l.ProductID, l.Quantity, l.PriceCents); err != nil {
			return 0, fmt.Errorf("create order: insert element product_id=%d: %w", l.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create order: commit tx: %w", err)
	}

	return id, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
