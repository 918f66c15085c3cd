// Package migrations holds the embedded SQL schema and a goose-backed runner.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/pressly/goose/v3"

	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

//go:embed *.sql
var migrationsFS embed.FS

// Runner applies and inspects schema migrations.
type Runner struct {
	provider *goose.Provider
	timeout  time.Duration
	log      *logger.Logger
}

// NewRunner returns a runner bound to db. A zero timeout means one minute.
func NewRunner(db *sql.DB, timeout time.Duration, log *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("nil database provided")
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	if log == nil {
		log = logger.Get()
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrationsFS)
	if err != nil {
		return nil, errors.Wrap(err, "configure goose")
	}

	return &Runner{provider: provider, timeout: timeout, log: log.With("component", "migrations")}, nil
}

// Up applies all pending migrations and returns how many ran.
func (r *Runner) Up(ctx context.Context) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.provider.Up(runCtx)
	if err != nil {
		return 0, errors.Wrap(err, "apply migrations")
	}

	for _, res := range results {
		r.log.Infow("Applied migration", "version", res.Source.Version, "duration", res.Duration)
	}
	return len(results), nil
}

// Status logs applied and pending migrations and returns the pending count.
func (r *Runner) Status(ctx context.Context) (int, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "migration status")
	}

	pending := 0
	for _, st := range statuses {
		if st.State == goose.StatePending {
			pending++
		}
		r.log.Infow("Migration", "version", st.Source.Version, "state", st.State, "applied_at", st.AppliedAt)
	}
	return pending, nil
}

// Down rolls back the latest migration, or down to target when target > 0.
func (r *Runner) Down(ctx context.Context, target int64) error {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if target > 0 {
		r.log.Infow("Rolling back migrations", "target", target)
		if _, err := r.provider.DownTo(runCtx, target); err != nil {
			return errors.Wrapf(err, "rollback to version %d", target)
		}
		return nil
	}

	r.log.Info("Rolling back latest migration")
	if _, err := r.provider.Down(runCtx); err != nil {
		return errors.Wrap(err, "rollback latest migration")
	}
	return nil
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	return r.provider.GetDBVersion(ctx)
}

// Sources lists the versions of the embedded migrations in order.
func Sources() ([]int64, error) {
	entries, err := migrationsFS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	versions := make([]int64, 0, len(entries))
	for _, e := range entries {
		v, err := goose.NumericComponent(e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "migration %s", e.Name())
		}
		versions = append(versions, v)
	}
	return versions, nil
}
