package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"greencart/internal/domain/simulation"
)

var _ simulation.Repository = (*SimulationRepository)(nil)

const simulationColumns = `id, simulation_id, user_id, available_drivers, route_start_time,
	max_hours_per_day, total_profit, efficiency_score, on_time_deliveries, late_deliveries,
	fuel_cost_breakdown, driver_assignments, summary, created_at`

// SimulationRepository implements simulation.Repository using sqlx
type SimulationRepository struct {
	db DBTX
}

// NewSimulationRepository creates a new simulation result repository
func NewSimulationRepository(db DBTX) *SimulationRepository {
	return &SimulationRepository{db: db}
}

// Create stores a simulation result and fills in its ID and creation time
func (r *SimulationRepository) Create(ctx context.Context, res *simulation.Result) error {
	query := `
		INSERT INTO simulation_results (
			simulation_id, user_id, available_drivers, route_start_time, max_hours_per_day,
			total_profit, efficiency_score, on_time_deliveries, late_deliveries,
			fuel_cost_breakdown, driver_assignments, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	row := r.db.QueryRowContext(ctx, query,
		res.SimulationID, res.UserID, res.AvailableDrivers, res.RouteStartTime, res.MaxHoursPerDay,
		res.TotalProfit, res.EfficiencyScore, res.OnTimeDeliveries, res.LateDeliveries,
		res.FuelBreakdown, res.Assignments, res.Summary,
	)
	if err := row.Scan(&res.ID, &res.CreatedAt); err != nil {
		return mapError(err, "simulation")
	}
	return nil
}

// GetBySimulationID returns a run owned by userID
func (r *SimulationRepository) GetBySimulationID(ctx context.Context, simulationID string, userID uuid.UUID) (*simulation.Result, error) {
	var res simulation.Result
	query := `SELECT ` + simulationColumns + ` FROM simulation_results WHERE simulation_id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &res, query, simulationID, userID); err != nil {
		return nil, mapError(err, "simulation")
	}
	return &res, nil
}

// ListByUser returns a user's runs newest first
func (r *SimulationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*simulation.Result, error) {
	results := []*simulation.Result{}
	query := `
		SELECT ` + simulationColumns + `
		FROM simulation_results
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &results, query, userID, limit, offset); err != nil {
		return nil, mapError(err, "simulation")
	}
	return results, nil
}

// CountByUser returns how many runs a user has stored
func (r *SimulationRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM simulation_results WHERE user_id = $1`, userID); err != nil {
		return 0, mapError(err, "simulation")
	}
	return n, nil
}

// Recent returns the newest runs across all users
func (r *SimulationRepository) Recent(ctx context.Context, limit int) ([]*simulation.Result, error) {
	results := []*simulation.Result{}
	query := `SELECT ` + simulationColumns + ` FROM simulation_results ORDER BY created_at DESC, id DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &results, query, limit); err != nil {
		return nil, mapError(err, "simulation")
	}
	return results, nil
}

// Totals aggregates every stored run
func (r *SimulationRepository) Totals(ctx context.Context) (*simulation.Totals, error) {
	var t simulation.Totals
	query := `
		SELECT
			COUNT(*) AS simulations,
			COALESCE(ROUND(AVG(efficiency_score), 2), 0) AS average_efficiency,
			COALESCE(SUM(total_profit), 0) AS total_profit,
			COALESCE(SUM(on_time_deliveries), 0) AS on_time,
			COALESCE(SUM(late_deliveries), 0) AS late
		FROM simulation_results`

	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return nil, mapError(err, "simulation")
	}
	return &t, nil
}

// DailySince returns per-day profit and mean efficiency, oldest day first
func (r *SimulationRepository) DailySince(ctx context.Context, since time.Time) ([]simulation.DailyPoint, error) {
	points := []simulation.DailyPoint{}
	query := `
		SELECT
			date_trunc('day', created_at) AS day,
			COALESCE(SUM(total_profit), 0) AS profit,
			COALESCE(ROUND(AVG(efficiency_score), 2), 0) AS efficiency
		FROM simulation_results
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1`

	if err := r.db.SelectContext(ctx, &points, query, since); err != nil {
		return nil, mapError(err, "simulation")
	}
	return points, nil
}
