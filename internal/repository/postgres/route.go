package postgres

import (
	"context"

	"greencart/internal/domain/route"
)

var _ route.Repository = (*RouteRepository)(nil)

const routeColumns = `id, route_id, distance_km, traffic_level, base_time_min, created_at, updated_at`

// RouteRepository implements route.Repository using sqlx
type RouteRepository struct {
	db DBTX
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db DBTX) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create inserts a route and fills in its ID and timestamps
func (r *RouteRepository) Create(ctx context.Context, rt *route.Route) error {
	query := `
		INSERT INTO routes (route_id, distance_km, traffic_level, base_time_min)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, rt.RouteID, rt.DistanceKM, rt.TrafficLevel, rt.BaseTimeMin)
	if err := row.Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return mapError(err, "route")
	}
	return nil
}

// CreateBatch inserts routes in order
func (r *RouteRepository) CreateBatch(ctx context.Context, routes []*route.Route) error {
	for _, rt := range routes {
		if err := r.Create(ctx, rt); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a route by row ID
func (r *RouteRepository) GetByID(ctx context.Context, id int64) (*route.Route, error) {
	var rt route.Route
	if err := r.db.GetContext(ctx, &rt, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "route")
	}
	return &rt, nil
}

// GetByRouteID retrieves a route by its business identifier
func (r *RouteRepository) GetByRouteID(ctx context.Context, routeID int) (*route.Route, error) {
	var rt route.Route
	if err := r.db.GetContext(ctx, &rt, `SELECT `+routeColumns+` FROM routes WHERE route_id = $1`, routeID); err != nil {
		return nil, mapError(err, "route")
	}
	return &rt, nil
}

// List returns routes ordered by route_id
func (r *RouteRepository) List(ctx context.Context, filter route.Filter) ([]*route.Route, error) {
	routes := []*route.Route{}
	query := `SELECT ` + routeColumns + ` FROM routes`
	args := []interface{}{}
	if filter.TrafficLevel != "" {
		query += ` WHERE traffic_level = $1`
		args = append(args, filter.TrafficLevel)
	}
	query += ` ORDER BY route_id`

	if err := r.db.SelectContext(ctx, &routes, query, args...); err != nil {
		return nil, mapError(err, "route")
	}
	return routes, nil
}

// Update persists a route's editable fields
func (r *RouteRepository) Update(ctx context.Context, rt *route.Route) error {
	query := `
		UPDATE routes
		SET route_id = $2, distance_km = $3, traffic_level = $4, base_time_min = $5, updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, rt.ID, rt.RouteID, rt.DistanceKM, rt.TrafficLevel, rt.BaseTimeMin)
	if err != nil {
		return mapError(err, "route")
	}
	return affectedOrNotFound(res, "route")
}

// Delete removes a route and, through the foreign key, its orders
func (r *RouteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "route")
	}
	return affectedOrNotFound(res, "route")
}

// DeleteAll removes every route
func (r *RouteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routes`)
	if err != nil {
		return 0, mapError(err, "route")
	}
	return res.RowsAffected()
}

// Count returns the number of routes
func (r *RouteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM routes`); err != nil {
		return 0, mapError(err, "route")
	}
	return n, nil
}

// CountByTraffic returns the number of routes with the given traffic level
func (r *RouteRepository) CountByTraffic(ctx context.Context, level route.TrafficLevel) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM routes WHERE traffic_level = $1`, level); err != nil {
		return 0, mapError(err, "route")
	}
	return n, nil
}
