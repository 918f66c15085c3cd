package seeds

import (
	"context"
	"fmt"

	"greencart/internal/domain/route"
	"greencart/internal/testsupport"
)

// RouteBuilder provides a fluent API for creating Route entities
type RouteBuilder struct {
	db     DBTX
	ctx    context.Context
	entity *route.Route
}

// NewRouteBuilder creates a 10 km low-traffic route with a 30 minute base time
func NewRouteBuilder(db DBTX, ctx context.Context) *RouteBuilder {
	return &RouteBuilder{
		db:  db,
		ctx: ctx,
		entity: &route.Route{
			RouteID:      testsupport.UniqueRouteID(),
			DistanceKM:   10,
			TrafficLevel: route.TrafficLow,
			BaseTimeMin:  30,
		},
	}
}

// WithRouteID sets the business route identifier
func (b *RouteBuilder) WithRouteID(id int) *RouteBuilder {
	b.entity.RouteID = id
	return b
}

// WithDistance sets the distance in kilometres
func (b *RouteBuilder) WithDistance(km int) *RouteBuilder {
	b.entity.DistanceKM = km
	return b
}

// WithTraffic sets the traffic level
func (b *RouteBuilder) WithTraffic(level route.TrafficLevel) *RouteBuilder {
	b.entity.TrafficLevel = level
	return b
}

// WithBaseTime sets the expected duration in minutes
func (b *RouteBuilder) WithBaseTime(minutes int) *RouteBuilder {
	b.entity.BaseTimeMin = minutes
	return b
}

// Build returns the built entity without inserting to DB
func (b *RouteBuilder) Build() *route.Route {
	return b.entity
}

// Insert inserts the route and fills in the generated columns
func (b *RouteBuilder) Insert() (*route.Route, error) {
	query := `
		INSERT INTO routes (route_id, distance_km, traffic_level, base_time_min)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := b.db.QueryRowContext(
		b.ctx,
		query,
		b.entity.RouteID,
		b.entity.DistanceKM,
		b.entity.TrafficLevel,
		b.entity.BaseTimeMin,
	).Scan(&b.entity.ID, &b.entity.CreatedAt, &b.entity.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert route: %w", err)
	}

	return b.entity, nil
}

// MustInsert inserts the route and panics on error
func (b *RouteBuilder) MustInsert() *route.Route {
	entity, err := b.Insert()
	if err != nil {
		panic(err)
	}
	return entity
}
