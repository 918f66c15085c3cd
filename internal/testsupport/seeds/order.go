package seeds

import (
	"context"
	"fmt"

	"greencart/internal/domain/order"
	"greencart/internal/testsupport"
)

// OrderBuilder provides a fluent API for creating Order entities
type OrderBuilder struct {
	db     DBTX
	ctx    context.Context
	entity *order.Order
}

// NewOrderBuilder creates an order worth 500 delivered in 30 minutes.
// The route must be set before inserting.
func NewOrderBuilder(db DBTX, ctx context.Context) *OrderBuilder {
	return &OrderBuilder{
		db:  db,
		ctx: ctx,
		entity: &order.Order{
			OrderID:      testsupport.UniqueOrderID(),
			ValueRs:      500,
			DeliveryTime: "00:30",
		},
	}
}

// WithOrderID sets the business order identifier
func (b *OrderBuilder) WithOrderID(id int) *OrderBuilder {
	b.entity.OrderID = id
	return b
}

// WithValue sets the order value in rupees
func (b *OrderBuilder) WithValue(rs int) *OrderBuilder {
	b.entity.ValueRs = rs
	return b
}

// WithRoute sets the route row id (required)
func (b *OrderBuilder) WithRoute(routeID int64) *OrderBuilder {
	b.entity.RouteID = routeID
	return b
}

// WithDeliveryTime sets the HH:MM delivery duration
func (b *OrderBuilder) WithDeliveryTime(hhmm string) *OrderBuilder {
	b.entity.DeliveryTime = hhmm
	return b
}

// AssignedTo sets the delivering driver
func (b *OrderBuilder) AssignedTo(driverID int64) *OrderBuilder {
	b.entity.AssignedDriverID = &driverID
	return b
}

// Build returns the built entity without inserting to DB
func (b *OrderBuilder) Build() *order.Order {
	return b.entity
}

// Insert inserts the order and fills in the generated columns
func (b *OrderBuilder) Insert() (*order.Order, error) {
	if b.entity.RouteID == 0 {
		return nil, fmt.Errorf("failed to insert order %d: route not set", b.entity.OrderID)
	}

	query := `
		INSERT INTO orders (order_id, value_rs, route_id, delivery_time, assigned_driver_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := b.db.QueryRowContext(
		b.ctx,
		query,
		b.entity.OrderID,
		b.entity.ValueRs,
		b.entity.RouteID,
		b.entity.DeliveryTime,
		b.entity.AssignedDriverID,
	).Scan(&b.entity.ID, &b.entity.CreatedAt, &b.entity.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return b.entity, nil
}

// MustInsert inserts the order and panics on error
func (b *OrderBuilder) MustInsert() *order.Order {
	entity, err := b.Insert()
	if err != nil {
		panic(err)
	}
	return entity
}
