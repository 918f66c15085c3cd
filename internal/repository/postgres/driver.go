package postgres

import (
	"context"

	"greencart/internal/domain/driver"
)

var _ driver.Repository = (*DriverRepository)(nil)

const driverColumns = `id, name, shift_hours, past_week_hours, created_at, updated_at`

// DriverRepository implements driver.Repository using sqlx
type DriverRepository struct {
	db DBTX
}

// NewDriverRepository creates a new driver repository
func NewDriverRepository(db DBTX) *DriverRepository {
	return &DriverRepository{db: db}
}

// Create inserts a driver and fills in its ID and timestamps
func (r *DriverRepository) Create(ctx context.Context, d *driver.Driver) error {
	query := `
		INSERT INTO drivers (name, shift_hours, past_week_hours)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, d.Name, d.ShiftHours, d.PastWeekHours)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return mapError(err, "driver")
	}
	return nil
}

// CreateBatch inserts drivers one by one so every entity gets its ID.
// Callers wanting atomicity pass a transaction as DBTX.
func (r *DriverRepository) CreateBatch(ctx context.Context, drivers []*driver.Driver) error {
	for _, d := range drivers {
		if err := r.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a driver by ID
func (r *DriverRepository) GetByID(ctx context.Context, id int64) (*driver.Driver, error) {
	var d driver.Driver
	if err := r.db.GetContext(ctx, &d, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "driver")
	}
	return &d, nil
}

// List returns drivers ordered by name, optionally filtered by a name search
func (r *DriverRepository) List(ctx context.Context, filter driver.Filter) ([]*driver.Driver, error) {
	drivers := []*driver.Driver{}
	query := `SELECT ` + driverColumns + ` FROM drivers`
	args := []interface{}{}
	if filter.Search != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, filter.Search)
	}
	query += ` ORDER BY name, id`

	if err := r.db.SelectContext(ctx, &drivers, query, args...); err != nil {
		return nil, mapError(err, "driver")
	}
	return drivers, nil
}

// ListForSimulation returns drivers in insertion order
func (r *DriverRepository) ListForSimulation(ctx context.Context) ([]*driver.Driver, error) {
	drivers := []*driver.Driver{}
	if err := r.db.SelectContext(ctx, &drivers, `SELECT `+driverColumns+` FROM drivers ORDER BY id`); err != nil {
		return nil, mapError(err, "driver")
	}
	return drivers, nil
}

// Update persists a driver's editable fields
func (r *DriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	query := `
		UPDATE drivers
		SET name = $2, shift_hours = $3, past_week_hours = $4, updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, d.ID, d.Name, d.ShiftHours, d.PastWeekHours)
	if err != nil {
		return mapError(err, "driver")
	}
	return affectedOrNotFound(res, "driver")
}

// Delete removes a driver; assigned orders keep existing unassigned
func (r *DriverRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "driver")
	}
	return affectedOrNotFound(res, "driver")
}

// DeleteAll removes every driver and returns how many were deleted
func (r *DriverRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drivers`)
	if err != nil {
		return 0, mapError(err, "driver")
	}
	return res.RowsAffected()
}

// Count returns the number of drivers
func (r *DriverRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM drivers`); err != nil {
		return 0, mapError(err, "driver")
	}
	return n, nil
}
