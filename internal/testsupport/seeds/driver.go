package seeds

import (
	"context"
	"fmt"

	"greencart/internal/domain/driver"
	"greencart/internal/testsupport"
)

// DriverBuilder provides a fluent API for creating Driver entities
type DriverBuilder struct {
	db     DBTX
	ctx    context.Context
	entity *driver.Driver
}

// NewDriverBuilder creates a driver on a 6 hour shift with a steady week
func NewDriverBuilder(db DBTX, ctx context.Context) *DriverBuilder {
	return &DriverBuilder{
		db:  db,
		ctx: ctx,
		entity: &driver.Driver{
			Name:          testsupport.UniqueDriverName(),
			ShiftHours:    6,
			PastWeekHours: driver.Hours{6, 6, 6, 6, 6, 6, 6},
		},
	}
}

// WithName sets the display name
func (b *DriverBuilder) WithName(name string) *DriverBuilder {
	b.entity.Name = name
	return b
}

// WithShiftHours sets today's shift length
func (b *DriverBuilder) WithShiftHours(hours int) *DriverBuilder {
	b.entity.ShiftHours = hours
	return b
}

// WithPastWeekHours sets the daily history, oldest first
func (b *DriverBuilder) WithPastWeekHours(hours ...int) *DriverBuilder {
	b.entity.PastWeekHours = driver.Hours(hours)
	return b
}

// Overworked records more than eight hours on the most recent day
func (b *DriverBuilder) Overworked() *DriverBuilder {
	b.entity.PastWeekHours = driver.Hours{8, 8, 8, 8, 8, 8, 10}
	return b
}

// Build returns the built entity without inserting to DB
func (b *DriverBuilder) Build() *driver.Driver {
	return b.entity
}

// Insert inserts the driver and fills in the generated columns
func (b *DriverBuilder) Insert() (*driver.Driver, error) {
	query := `
		INSERT INTO drivers (name, shift_hours, past_week_hours)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := b.db.QueryRowContext(b.ctx, query, b.entity.Name, b.entity.ShiftHours, b.entity.PastWeekHours).
		Scan(&b.entity.ID, &b.entity.CreatedAt, &b.entity.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert driver: %w", err)
	}

	return b.entity, nil
}

// MustInsert inserts the driver and panics on error
func (b *DriverBuilder) MustInsert() *driver.Driver {
	entity, err := b.Insert()
	if err != nil {
		panic(err)
	}
	return entity
}
