package route

import (
	"fmt"
	"strings"
	"time"

	"greencart/pkg/errors"
)

// TrafficLevel classifies congestion along a route
type TrafficLevel string

const (
	TrafficLow    TrafficLevel = "Low"
	TrafficMedium TrafficLevel = "Medium"
	TrafficHigh   TrafficLevel = "High"
)

// TrafficLevels lists the levels in display order
var TrafficLevels = []TrafficLevel{TrafficLow, TrafficMedium, TrafficHigh}

// ParseTrafficLevel accepts any casing and surrounding whitespace
func ParseTrafficLevel(raw string) (TrafficLevel, error) {
	for _, l := range TrafficLevels {
		if strings.EqualFold(strings.TrimSpace(raw), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown traffic level %q", raw)
}

// Fuel pricing in rupees per kilometre
const (
	BaseFuelCostPerKM    = 5
	HighTrafficSurcharge = 2
	LateToleranceMinutes = 10
)

// Route is a delivery route with its expected duration
type Route struct {
	ID           int64        `db:"id" json:"id"`
	RouteID      int          `db:"route_id" json:"route_id"`
	DistanceKM   int          `db:"distance_km" json:"distance_km"`
	TrafficLevel TrafficLevel `db:"traffic_level" json:"traffic_level"`
	BaseTimeMin  int          `db:"base_time_min" json:"base_time_min"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// FuelCostPerKM is the base rate plus the high traffic surcharge
func (r *Route) FuelCostPerKM() int {
	if r.TrafficLevel == TrafficHigh {
		return BaseFuelCostPerKM + HighTrafficSurcharge
	}
	return BaseFuelCostPerKM
}

// TotalFuelCost is the fuel cost of driving the whole route once
func (r *Route) TotalFuelCost() int {
	return r.DistanceKM * r.FuelCostPerKM()
}

// AllowedMinutes is the latest on-time delivery duration
func (r *Route) AllowedMinutes() int {
	return r.BaseTimeMin + LateToleranceMinutes
}

// String implements fmt.Stringer
func (r *Route) String() string {
	return fmt.Sprintf("Route %d - %dkm (%s)", r.RouteID, r.DistanceKM, r.TrafficLevel)
}

// Validate checks field ranges
func (r *Route) Validate() error {
	var errs errors.MultiError
	if r.RouteID < 1 {
		errs.Add(errors.NewValidationError("route_id", "must be positive", r.RouteID))
	}
	if r.DistanceKM < 1 {
		errs.Add(errors.NewValidationError("distance_km", "must be at least 1", r.DistanceKM))
	}
	if _, err := ParseTrafficLevel(string(r.TrafficLevel)); err != nil {
		errs.Add(errors.NewValidationError("traffic_level", "must be Low, Medium or High", r.TrafficLevel))
	}
	if r.BaseTimeMin < 1 {
		errs.Add(errors.NewValidationError("base_time_min", "must be at least 1", r.BaseTimeMin))
	}
	return errs.ToError()
}
