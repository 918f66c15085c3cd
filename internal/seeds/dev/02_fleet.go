package dev

import (
	"context"

	"greencart/internal/domain/route"
	"greencart/internal/testsupport/seeds"
)

// Route ids above the bundled CSV range so dev data never clashes with loaddata
var devRoutes = []struct {
	id       int
	km       int
	traffic  route.TrafficLevel
	baseTime int
	orders   int
}{
	{id: 9001, km: 8, traffic: route.TrafficLow, baseTime: 25, orders: 4},
	{id: 9002, km: 14, traffic: route.TrafficMedium, baseTime: 45, orders: 3},
	{id: 9003, km: 22, traffic: route.TrafficHigh, baseTime: 70, orders: 3},
}

// SeedFleet creates one fleet per traffic level (idempotent per route)
func SeedFleet(ctx context.Context, s *seeds.Seeder) error {
	log := s.Log()

	orderID := 90000
	for _, r := range devRoutes {
		r := r
		baseOrder := orderID
		orderID += r.orders

		seq := 0
		fleet, err := s.Fleet().
			WithDrivers(2).
			WithOrders(r.orders).
			CustomizeRoute(func(b *seeds.RouteBuilder) *seeds.RouteBuilder {
				return b.WithRouteID(r.id).WithDistance(r.km).WithTraffic(r.traffic).WithBaseTime(r.baseTime)
			}).
			CustomizeOrder(func(b *seeds.OrderBuilder) *seeds.OrderBuilder {
				seq++
				// Every other order is high value so bonuses show up
				value := 450
				if seq%2 == 0 {
					value = 1500
				}
				return b.WithOrderID(baseOrder + seq).WithValue(value)
			}).
			Build()
		if err != nil {
			if seeds.IsDuplicate(err) {
				log.Infow("Route already exists, skipping", "route_id", r.id)
				continue
			}
			return err
		}

		log.Infow("Created fleet",
			"route_id", fleet.Route.RouteID,
			"drivers", len(fleet.Drivers),
			"orders", len(fleet.Orders),
		)
	}

	return nil
}
