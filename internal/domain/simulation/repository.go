package simulation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for simulation result access
type Repository interface {
	Create(ctx context.Context, r *Result) error

	// GetBySimulationID returns a run owned by the given user
	GetBySimulationID(ctx context.Context, simulationID string, userID uuid.UUID) (*Result, error)

	// ListByUser returns a user's runs newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Result, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// Recent returns the newest runs of all users
	Recent(ctx context.Context, limit int) ([]*Result, error)
	Totals(ctx context.Context) (*Totals, error)

	// DailySince returns per-day aggregates for runs created at or after since
	DailySince(ctx context.Context, since time.Time) ([]DailyPoint, error)
}
