package test

import (
	"context"

	"greencart/internal/testsupport/seeds"
)

// SeedFleet creates route 8001 with two drivers and three on-time orders (idempotent)
func SeedFleet(ctx context.Context, s *seeds.Seeder) error {
	seq := 0
	_, err := s.Fleet().
		CustomizeRoute(func(b *seeds.RouteBuilder) *seeds.RouteBuilder {
			return b.WithRouteID(8001)
		}).
		CustomizeOrder(func(b *seeds.OrderBuilder) *seeds.OrderBuilder {
			seq++
			return b.WithOrderID(80000 + seq).WithValue(800)
		}).
		Build()
	if err != nil {
		if seeds.IsDuplicate(err) {
			s.Log().Infow("Test fleet already exists, skipping", "route_id", 8001)
			return nil
		}
		return err
	}

	s.Log().Infow("Created test fleet", "route_id", 8001)
	return nil
}
