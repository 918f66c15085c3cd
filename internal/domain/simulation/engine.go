package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Run applies the company rules to a set of drivers and orders.
//
// Drivers are expected in id order and orders in order_id order. The first
// in.AvailableDrivers drivers share the orders evenly; the first len%n
// drivers take one extra. routes is keyed by route row id. Orders whose
// route is missing are counted in Summary.SkippedOrders and otherwise ignored.
func Run(in Input, drivers []*driver.Driver, orders []*order.Order, routes map[int64]*route.Route) (*Outcome, error) {
	if len(drivers) == 0 {
		return nil, errors.ErrNoDrivers
	}
	if len(orders) == 0 {
		return nil, errors.ErrNoOrders
	}

	n := in.AvailableDrivers
	if n < 1 {
		return nil, errors.NewValidationError("available_drivers", "must be at least 1", n)
	}
	if n > len(drivers) {
		n = len(drivers)
	}
	active := drivers[:n]

	startMinutes, err := order.ClockMinutes(in.RouteStartTime)
	if err != nil {
		return nil, errors.NewValidationError("route_start_time", err.Error(), in.RouteStartTime)
	}
	maxHours := decimal.NewFromInt(int64(in.MaxHoursPerDay))

	out := &Outcome{
		TotalProfit:     decimal.Zero,
		EfficiencyScore: decimal.Zero,
		FuelBreakdown:   NewFuelBreakdown(),
		Assignments:     make(Assignments, 0, n),
	}
	sum := Summary{
		DriversUsed:    n,
		TotalValue:     decimal.Zero,
		TotalBonuses:   decimal.Zero,
		TotalPenalties: decimal.Zero,
		TotalFuelCost:  decimal.Zero,
	}

	perDriver, extra := len(orders)/n, len(orders)%n
	next := 0
	for i, d := range active {
		count := perDriver
		if i < extra {
			count++
		}
		batch := orders[next : next+count]
		next += count

		hours := decimal.Min(HoursPerOrder.Mul(decimal.NewFromInt(int64(count))), maxHours)
		a := DriverAssignment{
			DriverID:       d.ID,
			DriverName:     d.Name,
			AssignedOrders: count,
			OrderIDs:       make([]int, 0, count),
			EstimatedHours: hours,
			ShiftEnd:       shiftEnd(startMinutes, hours),
			Overworked:     d.IsOverworked(),
			Profit:         decimal.Zero,
		}
		if a.Overworked {
			sum.OverworkedDrivers++
		}

		for _, o := range batch {
			r, ok := routes[o.RouteID]
			if !ok {
				sum.SkippedOrders++
				continue
			}
			a.OrderIDs = append(a.OrderIDs, o.OrderID)

			fuel := decimal.NewFromInt(int64(r.TotalFuelCost()))
			if a.Overworked {
				fuel = fuel.Mul(FatigueFuelFactor)
			}
			value := decimal.NewFromInt(int64(o.ValueRs))
			penalty := o.Penalty(r)
			bonus := o.Bonus(r)
			profit := value.Add(bonus).Sub(penalty).Sub(fuel)

			if o.IsLate(r) {
				a.Late++
				out.Late++
			} else {
				a.OnTime++
				out.OnTime++
			}
			if o.IsHighValue() {
				sum.HighValueOrders++
			}

			a.Profit = a.Profit.Add(profit)
			out.TotalProfit = out.TotalProfit.Add(profit)
			out.FuelBreakdown[r.TrafficLevel] = out.FuelBreakdown[r.TrafficLevel].Add(fuel)

			sum.TotalOrders++
			sum.TotalValue = sum.TotalValue.Add(value)
			sum.TotalBonuses = sum.TotalBonuses.Add(bonus)
			sum.TotalPenalties = sum.TotalPenalties.Add(penalty)
			sum.TotalFuelCost = sum.TotalFuelCost.Add(fuel)
		}

		a.Profit = a.Profit.Round(2)
		out.Assignments = append(out.Assignments, a)
	}

	if sum.TotalOrders == 0 {
		return nil, errors.Wrap(errors.ErrNoOrders, "no order has a known route")
	}

	out.TotalProfit = out.TotalProfit.Round(2)
	out.EfficiencyScore = decimal.NewFromInt(int64(out.OnTime)).
		Div(decimal.NewFromInt(int64(sum.TotalOrders))).
		Mul(hundred).
		Round(2)
	for level, v := range out.FuelBreakdown {
		out.FuelBreakdown[level] = v.Round(2)
	}
	sum.TotalFuelCost = sum.TotalFuelCost.Round(2)
	sum.AverageOrdersPerDriver = decimal.NewFromInt(int64(len(orders))).
		Div(decimal.NewFromInt(int64(n))).
		Round(2)
	out.Summary = sum

	return out, nil
}

// shiftEnd formats start plus the estimated hours as a clock time, wrapping
// past midnight.
func shiftEnd(startMinutes int, hours decimal.Decimal) string {
	end := startMinutes + int(hours.Mul(decimal.NewFromInt(60)).IntPart())
	end %= 24 * 60
	return fmt.Sprintf("%02d:%02d", end/60, end%60)
}
