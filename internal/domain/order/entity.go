package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

// Company rules
const (
	LatePenalty         = 50
	HighValueThreshold  = 1000
	HighValueBonusRatio = "0.1"
)

var bonusRatio = decimal.RequireFromString(HighValueBonusRatio)

// Order is a single delivery along a route
type Order struct {
	ID               int64     `db:"id" json:"id"`
	OrderID          int       `db:"order_id" json:"order_id"`
	ValueRs          int       `db:"value_rs" json:"value_rs"`
	RouteID          int64     `db:"route_id" json:"route"`
	DeliveryTime     string    `db:"delivery_time" json:"delivery_time"`
	AssignedDriverID *int64    `db:"assigned_driver_id" json:"assigned_driver,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DeliveryMinutes converts the HH:MM delivery time to minutes. Malformed
// values count as zero.
func (o *Order) DeliveryMinutes() int {
	m, err := ClockMinutes(o.DeliveryTime)
	if err != nil {
		return 0
	}
	return m
}

// IsLate reports whether delivery exceeded the route's base time plus tolerance
func (o *Order) IsLate(r *route.Route) bool {
	if r == nil {
		return false
	}
	return o.DeliveryMinutes() > r.AllowedMinutes()
}

// IsHighValue reports whether the order is worth more than ₹1000
func (o *Order) IsHighValue() bool {
	return o.ValueRs > HighValueThreshold
}

// Penalty is charged for late deliveries
func (o *Order) Penalty(r *route.Route) decimal.Decimal {
	if o.IsLate(r) {
		return decimal.NewFromInt(LatePenalty)
	}
	return decimal.Zero
}

// Bonus is earned on high value orders delivered on time
func (o *Order) Bonus(r *route.Route) decimal.Decimal {
	if o.IsHighValue() && !o.IsLate(r) {
		return decimal.NewFromInt(int64(o.ValueRs)).Mul(bonusRatio)
	}
	return decimal.Zero
}

// NetProfit is value plus bonus minus penalty and the route's fuel cost
func (o *Order) NetProfit(r *route.Route) decimal.Decimal {
	fuel := decimal.Zero
	if r != nil {
		fuel = decimal.NewFromInt(int64(r.TotalFuelCost()))
	}
	return decimal.NewFromInt(int64(o.ValueRs)).
		Add(o.Bonus(r)).
		Sub(o.Penalty(r)).
		Sub(fuel)
}

// Validate checks field ranges and normalizes the delivery time
func (o *Order) Validate() error {
	var errs errors.MultiError
	if o.OrderID < 1 {
		errs.Add(errors.NewValidationError("order_id", "must be positive", o.OrderID))
	}
	if o.ValueRs < 1 {
		errs.Add(errors.NewValidationError("value_rs", "must be at least 1", o.ValueRs))
	}
	if o.RouteID == 0 {
		errs.Add(errors.NewValidationError("route", "route is required", o.RouteID))
	}
	normalized, err := NormalizeClock(o.DeliveryTime)
	if err != nil {
		errs.Add(errors.NewValidationError("delivery_time", "must be in HH:MM format (24-hour)", o.DeliveryTime))
	} else {
		o.DeliveryTime = normalized
	}
	return errs.ToError()
}

// ClockMinutes parses "H:MM" or "HH:MM" into minutes. Hours are not capped
// at 23 because delivery durations may exceed a day's clock.
func ClockMinutes(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q", raw)
	}
	if h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return h*60 + m, nil
}

// NormalizeClock validates a 24-hour time of day and zero-pads it to HH:MM
func NormalizeClock(raw string) (string, error) {
	minutes, err := ClockMinutes(raw)
	if err != nil {
		return "", err
	}
	h, m := minutes/60, minutes%60
	if h > 23 {
		return "", fmt.Errorf("clock value %q out of range", raw)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}
