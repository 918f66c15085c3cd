package driver

import "context"

// Filter narrows driver listings
type Filter struct {
	// Search matches names case-insensitively
	Search string
}

// Repository defines the interface for driver data access
type Repository interface {
	Create(ctx context.Context, d *Driver) error
	CreateBatch(ctx context.Context, drivers []*Driver) error
	GetByID(ctx context.Context, id int64) (*Driver, error)

	// List returns drivers ordered by name
	List(ctx context.Context, filter Filter) ([]*Driver, error)

	// ListForSimulation returns drivers ordered by id
	ListForSimulation(ctx context.Context) ([]*Driver, error)

	Update(ctx context.Context, d *Driver) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}
