package seeds

import (
	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
)

// FleetBuilder creates a route with a set of drivers and orders on it in one go
type FleetBuilder struct {
	seeder *Seeder

	drivers int
	orders  int

	routeCustomizer  func(*RouteBuilder) *RouteBuilder
	driverCustomizer func(*DriverBuilder) *DriverBuilder
	orderCustomizer  func(*OrderBuilder) *OrderBuilder
}

// Fleet holds the entities a FleetBuilder created
type Fleet struct {
	Route   *route.Route
	Drivers []*driver.Driver
	Orders  []*order.Order
}

// NewFleetBuilder creates a builder for one route, two drivers and three orders
func NewFleetBuilder(seeder *Seeder) *FleetBuilder {
	return &FleetBuilder{seeder: seeder, drivers: 2, orders: 3}
}

// WithDrivers sets how many drivers to create
func (fb *FleetBuilder) WithDrivers(n int) *FleetBuilder {
	fb.drivers = n
	return fb
}

// WithOrders sets how many orders to create on the route
func (fb *FleetBuilder) WithOrders(n int) *FleetBuilder {
	fb.orders = n
	return fb
}

// CustomizeRoute allows customizing the route before creation
func (fb *FleetBuilder) CustomizeRoute(fn func(*RouteBuilder) *RouteBuilder) *FleetBuilder {
	fb.routeCustomizer = fn
	return fb
}

// CustomizeDriver is applied to every driver before creation
func (fb *FleetBuilder) CustomizeDriver(fn func(*DriverBuilder) *DriverBuilder) *FleetBuilder {
	fb.driverCustomizer = fn
	return fb
}

// CustomizeOrder is applied to every order before creation
func (fb *FleetBuilder) CustomizeOrder(fn func(*OrderBuilder) *OrderBuilder) *FleetBuilder {
	fb.orderCustomizer = fn
	return fb
}

// Build creates the route first, then drivers, then orders on the route
func (fb *FleetBuilder) Build() (*Fleet, error) {
	routeBuilder := fb.seeder.Route()
	if fb.routeCustomizer != nil {
		routeBuilder = fb.routeCustomizer(routeBuilder)
	}
	rt, err := routeBuilder.Insert()
	if err != nil {
		return nil, err
	}

	fleet := &Fleet{Route: rt}
	for i := 0; i < fb.drivers; i++ {
		driverBuilder := fb.seeder.Driver()
		if fb.driverCustomizer != nil {
			driverBuilder = fb.driverCustomizer(driverBuilder)
		}
		d, err := driverBuilder.Insert()
		if err != nil {
			return nil, err
		}
		fleet.Drivers = append(fleet.Drivers, d)
	}

	for i := 0; i < fb.orders; i++ {
		orderBuilder := fb.seeder.Order().WithRoute(rt.ID)
		if fb.orderCustomizer != nil {
			orderBuilder = fb.orderCustomizer(orderBuilder)
		}
		o, err := orderBuilder.Insert()
		if err != nil {
			return nil, err
		}
		fleet.Orders = append(fleet.Orders, o)
	}

	return fleet, nil
}

// MustBuild creates the fleet and panics on error
func (fb *FleetBuilder) MustBuild() *Fleet {
	fleet, err := fb.Build()
	if err != nil {
		panic(err)
	}
	return fleet
}
