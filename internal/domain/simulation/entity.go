package simulation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

// Input bounds
const (
	MinHoursPerDay = 1
	MaxHoursPerDay = 24
)

// HoursPerOrder is the estimated driving time spent on a single delivery
var HoursPerOrder = decimal.RequireFromString("0.5")

// FatigueFuelFactor scales fuel costs for drivers who worked more than eight hours yesterday
var FatigueFuelFactor = decimal.RequireFromString("0.7")

// Input holds the parameters a manager chooses for a run
type Input struct {
	AvailableDrivers int    `json:"available_drivers"`
	RouteStartTime   string `json:"route_start_time"`
	MaxHoursPerDay   int    `json:"max_hours_per_day"`
}

// Validate checks the input against the number of drivers on record and
// normalizes the start time to HH:MM.
func (in *Input) Validate(driverCount int) error {
	var errs errors.MultiError
	if in.AvailableDrivers < 1 {
		errs.Add(errors.NewValidationError("available_drivers", "must be at least 1", in.AvailableDrivers))
	} else if in.AvailableDrivers > driverCount {
		errs.Add(errors.NewValidationError(
			"available_drivers",
			fmt.Sprintf("cannot exceed total drivers (%d)", driverCount),
			in.AvailableDrivers,
		))
	}
	normalized, err := order.NormalizeClock(in.RouteStartTime)
	if err != nil {
		errs.Add(errors.NewValidationError("route_start_time", "must be in HH:MM format (24-hour)", in.RouteStartTime))
	} else {
		in.RouteStartTime = normalized
	}
	if in.MaxHoursPerDay < MinHoursPerDay || in.MaxHoursPerDay > MaxHoursPerDay {
		errs.Add(errors.NewValidationError("max_hours_per_day", "must be between 1 and 24", in.MaxHoursPerDay))
	}
	return errs.ToError()
}

// DriverAssignment describes the orders handed to one driver
type DriverAssignment struct {
	DriverID       int64           `json:"driver_id"`
	DriverName     string          `json:"driver_name"`
	AssignedOrders int             `json:"assigned_orders"`
	OrderIDs       []int           `json:"orders"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	ShiftEnd       string          `json:"estimated_shift_end"`
	Overworked     bool            `json:"overworked"`
	Profit         decimal.Decimal `json:"profit"`
	OnTime         int             `json:"on_time"`
	Late           int             `json:"late"`
}

// Assignments is stored as a JSONB array
type Assignments []DriverAssignment

// Value implements driver.Valuer
func (a Assignments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]DriverAssignment(a))
}

// Scan implements sql.Scanner
func (a *Assignments) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// FuelBreakdown is the fuel spend per traffic level, stored as JSONB
type FuelBreakdown map[route.TrafficLevel]decimal.Decimal

// NewFuelBreakdown returns a breakdown with every traffic level at zero
func NewFuelBreakdown() FuelBreakdown {
	fb := make(FuelBreakdown, len(route.TrafficLevels))
	for _, l := range route.TrafficLevels {
		fb[l] = decimal.Zero
	}
	return fb
}

// Total sums every level
func (fb FuelBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range fb {
		total = total.Add(v)
	}
	return total
}

// Value implements driver.Valuer
func (fb FuelBreakdown) Value() (driver.Value, error) {
	if fb == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[route.TrafficLevel]decimal.Decimal(fb))
}

// Scan implements sql.Scanner
func (fb *FuelBreakdown) Scan(src interface{}) error {
	return scanJSON(src, fb)
}

// Summary aggregates the money flows of a run
type Summary struct {
	TotalOrders       int             `json:"total_orders"`
	DriversUsed       int             `json:"drivers_used"`
	OverworkedDrivers int             `json:"overworked_drivers"`
	HighValueOrders   int             `json:"high_value_orders"`
	SkippedOrders     int             `json:"skipped_orders,omitempty"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalBonuses      decimal.Decimal `json:"total_bonuses"`
	TotalPenalties    decimal.Decimal `json:"total_penalties"`
	TotalFuelCost     decimal.Decimal `json:"total_fuel_cost"`

	AverageOrdersPerDriver decimal.Decimal `json:"average_orders_per_driver"`
}

// Value implements driver.Valuer
func (s Summary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *Summary) Scan(src interface{}) error {
	return scanJSON(src, s)
}

func scanJSON(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan json: unsupported type %T", src)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("scan json: %w", err)
	}
	return nil
}

// Outcome is what the engine computes for one run
type Outcome struct {
	TotalProfit     decimal.Decimal
	EfficiencyScore decimal.Decimal
	OnTime          int
	Late            int
	FuelBreakdown   FuelBreakdown
	Assignments     Assignments
	Summary         Summary
}

// Result is a stored simulation run
type Result struct {
	ID               int64           `db:"id" json:"id"`
	SimulationID     string          `db:"simulation_id" json:"simulation_id"`
	UserID           uuid.UUID       `db:"user_id" json:"user"`
	AvailableDrivers int             `db:"available_drivers" json:"available_drivers"`
	RouteStartTime   string          `db:"route_start_time" json:"route_start_time"`
	MaxHoursPerDay   int             `db:"max_hours_per_day" json:"max_hours_per_day"`
	TotalProfit      decimal.Decimal `db:"total_profit" json:"total_profit"`
	EfficiencyScore  decimal.Decimal `db:"efficiency_score" json:"efficiency_score"`
	OnTimeDeliveries int             `db:"on_time_deliveries" json:"on_time_deliveries"`
	LateDeliveries   int             `db:"late_deliveries" json:"late_deliveries"`
	FuelBreakdown    FuelBreakdown   `db:"fuel_cost_breakdown" json:"fuel_cost_breakdown"`
	Assignments      Assignments     `db:"driver_assignments" json:"driver_assignments"`
	Summary          Summary         `db:"summary" json:"summary"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// NewResult combines the input and outcome of a run into a storable record
func NewResult(userID uuid.UUID, in Input, out *Outcome) *Result {
	return &Result{
		SimulationID:     NewSimulationID(),
		UserID:           userID,
		AvailableDrivers: in.AvailableDrivers,
		RouteStartTime:   in.RouteStartTime,
		MaxHoursPerDay:   in.MaxHoursPerDay,
		TotalProfit:      out.TotalProfit,
		EfficiencyScore:  out.EfficiencyScore,
		OnTimeDeliveries: out.OnTime,
		LateDeliveries:   out.Late,
		FuelBreakdown:    out.FuelBreakdown,
		Assignments:      out.Assignments,
		Summary:          out.Summary,
	}
}

// TotalDeliveries is the number of simulated orders
func (r *Result) TotalDeliveries() int {
	return r.OnTimeDeliveries + r.LateDeliveries
}

// NewSimulationID returns a short random identifier
func NewSimulationID() string {
	return uuid.New().String()[:8]
}

// Totals aggregates every stored run
type Totals struct {
	Simulations       int             `db:"simulations"`
	AverageEfficiency decimal.Decimal `db:"average_efficiency"`
	TotalProfit       decimal.Decimal `db:"total_profit"`
	OnTime            int             `db:"on_time"`
	Late              int             `db:"late"`
}

// DailyPoint is the profit and mean efficiency of one calendar day
type DailyPoint struct {
	Day        time.Time       `db:"day"`
	Profit     decimal.Decimal `db:"profit"`
	Efficiency decimal.Decimal `db:"efficiency"`
}
