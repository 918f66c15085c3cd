package route

import "context"

// Filter narrows route listings
type Filter struct {
	TrafficLevel TrafficLevel
}

// Repository defines the interface for route data access
type Repository interface {
	Create(ctx context.Context, r *Route) error
	CreateBatch(ctx context.Context, routes []*Route) error
	GetByID(ctx context.Context, id int64) (*Route, error)
	GetByRouteID(ctx context.Context, routeID int) (*Route, error)

	// List returns routes ordered by route_id
	List(ctx context.Context, filter Filter) ([]*Route, error)

	Update(ctx context.Context, r *Route) error
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every route; orders cascade
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByTraffic(ctx context.Context, level TrafficLevel) (int, error)
}
