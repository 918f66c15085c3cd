package postgres

import (
	"context"
	"fmt"
	"strings"

	"greencart/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

const orderColumns = `o.id, o.order_id, o.value_rs, o.route_id, o.delivery_time,
	o.assigned_driver_id, o.created_at, o.updated_at`

// OrderRepository implements order.Repository using sqlx
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order and fills in its ID and timestamps
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (order_id, value_rs, route_id, delivery_time, assigned_driver_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, o.OrderID, o.ValueRs, o.RouteID, o.DeliveryTime, o.AssignedDriverID)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return mapError(err, "order")
	}
	return nil
}

// CreateBatch inserts orders in order
func (r *OrderRepository) CreateBatch(ctx context.Context, orders []*order.Order) error {
	for _, o := range orders {
		if err := r.Create(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves an order by row ID
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id); err != nil {
		return nil, mapError(err, "order")
	}
	return &o, nil
}

// List returns orders ordered by order_id
func (r *OrderRepository) List(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	orders := []*order.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN routes r ON r.id = o.route_id`

	var (
		where []string
		args  []interface{}
	)
	if filter.RouteID != nil {
		args = append(args, *filter.RouteID)
		where = append(where, fmt.Sprintf("r.route_id = $%d", len(args)))
	}
	if filter.DriverID != nil {
		args = append(args, *filter.DriverID)
		where = append(where, fmt.Sprintf("o.assigned_driver_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY o.order_id`

	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, mapError(err, "order")
	}
	return orders, nil
}

// Update persists an order's editable fields
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders
		SET order_id = $2, value_rs = $3, route_id = $4, delivery_time = $5,
			assigned_driver_id = $6, updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, o.ID, o.OrderID, o.ValueRs, o.RouteID, o.DeliveryTime, o.AssignedDriverID)
	if err != nil {
		return mapError(err, "order")
	}
	return affectedOrNotFound(res, "order")
}

// Delete removes an order
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "order")
	}
	return affectedOrNotFound(res, "order")
}

// DeleteAll removes every order
func (r *OrderRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, mapError(err, "order")
	}
	return res.RowsAffected()
}

// Count returns the number of orders
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, mapError(err, "order")
	}
	return n, nil
}

// CountByRoute returns order counts keyed by route row id
func (r *OrderRepository) CountByRoute(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		RouteID int64 `db:"route_id"`
		Count   int   `db:"count"`
	}
	query := `SELECT route_id, COUNT(*) AS count FROM orders GROUP BY route_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, mapError(err, "order")
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.RouteID] = row.Count
	}
	return counts, nil
}
