package order

import "context"

// Filter narrows order listings
type Filter struct {
	// RouteID matches the business route_id, not the row id
	RouteID *int
	// DriverID matches the assigned driver's row id
	DriverID *int64
}

// Repository defines the interface for order data access
type Repository interface {
	Create(ctx context.Context, o *Order) error
	CreateBatch(ctx context.Context, orders []*Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)

	// List returns orders ordered by order_id
	List(ctx context.Context, filter Filter) ([]*Order, error)

	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)

	// CountByRoute returns order counts keyed by route row id
	CountByRoute(ctx context.Context) (map[int64]int, error)
}
