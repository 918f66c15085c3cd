package simulation

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

func fixtureRoutes() map[int64]*route.Route {
	return map[int64]*route.Route{
		10: {ID: 10, RouteID: 1, DistanceKM: 10, TrafficLevel: route.TrafficLow, BaseTimeMin: 60},
		20: {ID: 20, RouteID: 2, DistanceKM: 10, TrafficLevel: route.TrafficHigh, BaseTimeMin: 30},
	}
}

func fixtureDrivers() []*driver.Driver {
	return []*driver.Driver{
		{ID: 1, Name: "Amit", ShiftHours: 8, PastWeekHours: driver.Hours{6, 7, 8}},
		{ID: 2, Name: "Priya", ShiftHours: 8, PastWeekHours: driver.Hours{7, 9}},
	}
}

func fixtureOrders() []*order.Order {
	return []*order.Order{
		// high value, on time on a low traffic route
		{OrderID: 1, ValueRs: 2000, RouteID: 10, DeliveryTime: "01:00"},
		// late on a high traffic route
		{OrderID: 2, ValueRs: 500, RouteID: 20, DeliveryTime: "00:45"},
		// high value, on time, driven by the fatigued driver
		{OrderID: 3, ValueRs: 1500, RouteID: 20, DeliveryTime: "00:35"},
	}
}

func TestRun_AppliesCompanyRules(t *testing.T) {
	in := Input{AvailableDrivers: 2, RouteStartTime: "09:00", MaxHoursPerDay: 8}

	out, err := Run(in, fixtureDrivers(), fixtureOrders(), fixtureRoutes())
	require.NoError(t, err)

	// 2150 + 380 + 1601
	assert.Equal(t, "4131.00", out.TotalProfit.StringFixed(2))
	assert.Equal(t, 2, out.OnTime)
	assert.Equal(t, 1, out.Late)
	assert.Equal(t, "66.67", out.EfficiencyScore.StringFixed(2))

	assert.Equal(t, "50.00", out.FuelBreakdown[route.TrafficLow].StringFixed(2))
	assert.Equal(t, "0.00", out.FuelBreakdown[route.TrafficMedium].StringFixed(2))
	assert.Equal(t, "119.00", out.FuelBreakdown[route.TrafficHigh].StringFixed(2))

	require.Len(t, out.Assignments, 2)

	first := out.Assignments[0]
	assert.Equal(t, int64(1), first.DriverID)
	assert.Equal(t, []int{1, 2}, first.OrderIDs)
	assert.Equal(t, 2, first.AssignedOrders)
	assert.Equal(t, "1.00", first.EstimatedHours.StringFixed(2))
	assert.Equal(t, "10:00", first.ShiftEnd)
	assert.False(t, first.Overworked)
	assert.Equal(t, "2530.00", first.Profit.StringFixed(2))
	assert.Equal(t, 1, first.OnTime)
	assert.Equal(t, 1, first.Late)

	second := out.Assignments[1]
	assert.Equal(t, []int{3}, second.OrderIDs)
	assert.True(t, second.Overworked)
	assert.Equal(t, "09:30", second.ShiftEnd)
	assert.Equal(t, "1601.00", second.Profit.StringFixed(2))

	sum := out.Summary
	assert.Equal(t, 3, sum.TotalOrders)
	assert.Equal(t, 2, sum.DriversUsed)
	assert.Equal(t, 1, sum.OverworkedDrivers)
	assert.Equal(t, 2, sum.HighValueOrders)
	assert.Equal(t, "4000.00", sum.TotalValue.StringFixed(2))
	assert.Equal(t, "350.00", sum.TotalBonuses.StringFixed(2))
	assert.Equal(t, "50.00", sum.TotalPenalties.StringFixed(2))
	assert.Equal(t, "169.00", sum.TotalFuelCost.StringFixed(2))
	assert.Equal(t, "1.50", sum.AverageOrdersPerDriver.StringFixed(2))
}

func TestRun_SplitsOrdersEvenly(t *testing.T) {
	routes := fixtureRoutes()
	orders := make([]*order.Order, 0, 5)
	for i := 1; i <= 5; i++ {
		orders = append(orders, &order.Order{OrderID: i, ValueRs: 100, RouteID: 10, DeliveryTime: "00:30"})
	}

	tests := []struct {
		name      string
		available int
		maxHours  int
		wantSizes []int
		wantHours []string
	}{
		{"one driver takes everything", 1, 8, []int{5}, []string{"2.50"}},
		{"first driver takes the extra order", 2, 8, []int{3, 2}, []string{"1.50", "1.00"}},
		{"hours are capped", 2, 1, []int{3, 2}, []string{"1.00", "1.00"}},
		{"available beyond roster is capped", 5, 8, []int{3, 2}, []string{"1.50", "1.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{AvailableDrivers: tt.available, RouteStartTime: "08:00", MaxHoursPerDay: tt.maxHours}
			out, err := Run(in, fixtureDrivers(), orders, routes)
			require.NoError(t, err)
			require.Len(t, out.Assignments, len(tt.wantSizes))
			for i, a := range out.Assignments {
				assert.Len(t, a.OrderIDs, tt.wantSizes[i], "driver %d", i)
				assert.Equal(t, tt.wantHours[i], a.EstimatedHours.StringFixed(2), "driver %d", i)
			}
			assert.Equal(t, "100.00", out.EfficiencyScore.StringFixed(2))
		})
	}
}

func TestRun_Errors(t *testing.T) {
	in := Input{AvailableDrivers: 1, RouteStartTime: "08:00", MaxHoursPerDay: 8}

	_, err := Run(in, nil, fixtureOrders(), fixtureRoutes())
	assert.ErrorIs(t, err, errors.ErrNoDrivers)

	_, err = Run(in, fixtureDrivers(), nil, fixtureRoutes())
	assert.ErrorIs(t, err, errors.ErrNoOrders)

	_, err = Run(in, fixtureDrivers(), fixtureOrders(), map[int64]*route.Route{})
	assert.ErrorIs(t, err, errors.ErrNoOrders)

	bad := in
	bad.RouteStartTime = "soon"
	_, err = Run(bad, fixtureDrivers(), fixtureOrders(), fixtureRoutes())
	assert.Error(t, err)
}

func TestRun_SkipsOrdersWithoutRoute(t *testing.T) {
	orders := append(fixtureOrders(), &order.Order{OrderID: 4, ValueRs: 100, RouteID: 99, DeliveryTime: "00:10"})
	in := Input{AvailableDrivers: 1, RouteStartTime: "08:00", MaxHoursPerDay: 8}

	out, err := Run(in, fixtureDrivers(), orders, fixtureRoutes())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.SkippedOrders)
	assert.Equal(t, 3, out.Summary.TotalOrders)
	assert.Equal(t, 4, out.Assignments[0].AssignedOrders)
	assert.Len(t, out.Assignments[0].OrderIDs, 3)
}

func TestShiftEnd(t *testing.T) {
	assert.Equal(t, "10:30", shiftEnd(8*60, decimal.RequireFromString("2.5")))
	assert.Equal(t, "01:30", shiftEnd(23*60+30, decimal.NewFromInt(2)))
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		in      Input
		wantErr bool
	}{
		{Input{AvailableDrivers: 3, RouteStartTime: "9:05", MaxHoursPerDay: 8}, false},
		{Input{AvailableDrivers: 0, RouteStartTime: "09:00", MaxHoursPerDay: 8}, true},
		{Input{AvailableDrivers: 4, RouteStartTime: "09:00", MaxHoursPerDay: 8}, true},
		{Input{AvailableDrivers: 1, RouteStartTime: "24:00", MaxHoursPerDay: 8}, true},
		{Input{AvailableDrivers: 1, RouteStartTime: "09:00", MaxHoursPerDay: 25}, true},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			err := tt.in.Validate(3)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "09:05", tt.in.RouteStartTime)
		})
	}
}

func TestNewSimulationID(t *testing.T) {
	a, b := NewSimulationID(), NewSimulationID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestFuelBreakdownRoundTrip(t *testing.T) {
	fb := NewFuelBreakdown()
	fb[route.TrafficHigh] = decimal.RequireFromString("12.5")

	raw, err := fb.Value()
	require.NoError(t, err)

	var back FuelBreakdown
	require.NoError(t, back.Scan(raw))
	assert.True(t, back[route.TrafficHigh].Equal(decimal.RequireFromString("12.5")))
	assert.True(t, back.Total().Equal(decimal.RequireFromString("12.5")))
}
