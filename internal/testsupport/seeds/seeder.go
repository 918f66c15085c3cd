package seeds

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// DBTX is satisfied by *sqlx.DB, *sqlx.Tx and their database/sql bases
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Seeder hands out builders bound to one connection or transaction.
// Environment seeds in internal/seeds and integration tests both use it.
type Seeder struct {
	db  DBTX
	ctx context.Context
	log *logger.Logger
}

// New creates a new Seeder instance
func New(db DBTX) *Seeder {
	return &Seeder{
		db:  db,
		ctx: context.Background(),
		log: logger.Get().With("component", "seeds"),
	}
}

// WithContext sets the context for database operations
func (s *Seeder) WithContext(ctx context.Context) *Seeder {
	s.ctx = ctx
	return s
}

// Log returns the logger instance
func (s *Seeder) Log() *logger.Logger {
	return s.log
}

// User starts building a User entity
func (s *Seeder) User() *UserBuilder {
	return NewUserBuilder(s.db, s.ctx)
}

// Driver starts building a Driver entity
func (s *Seeder) Driver() *DriverBuilder {
	return NewDriverBuilder(s.db, s.ctx)
}

// Route starts building a Route entity
func (s *Seeder) Route() *RouteBuilder {
	return NewRouteBuilder(s.db, s.ctx)
}

// Order starts building an Order entity
func (s *Seeder) Order() *OrderBuilder {
	return NewOrderBuilder(s.db, s.ctx)
}

// Fleet starts building a route with drivers and orders on it
func (s *Seeder) Fleet() *FleetBuilder {
	return NewFleetBuilder(s)
}

// IsDuplicate reports whether err is a unique violation, which seed
// functions treat as "already seeded"
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key")
}
