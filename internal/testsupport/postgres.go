package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"greencart/internal/adapters/config"
	"greencart/internal/adapters/postgres"
	"greencart/internal/migrations"
	"greencart/pkg/logger"
)

// Migrations run once per test binary; every later helper reuses the schema.
var (
	migrateOnce sync.Once
	migrateErr  error
)

// PostgresTestHelper holds one connection pool and a transaction that is
// rolled back when the test ends, so tests never see each other's rows.
type PostgresTestHelper struct {
	client     *postgres.Client
	tx         *sqlx.Tx
	rolledBack bool
}

// NewTestPostgres connects with the POSTGRES_* environment, brings the
// schema up to date and opens the test transaction. Skipped when the
// environment is not set or in -short mode.
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}
	return NewPostgresTestHelper(t, LoadDatabaseConfigsFromEnv(t).Postgres)
}

// NewPostgresTestHelper is NewTestPostgres for an explicit configuration
func NewPostgresTestHelper(t *testing.T, cfg config.PostgresConfig) *PostgresTestHelper {
	t.Helper()

	client, err := postgres.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	migrateOnce.Do(func() {
		var runner *migrations.Runner
		runner, migrateErr = migrations.NewRunner(client.DB().DB, time.Minute, logger.Nop())
		if migrateErr == nil {
			_, migrateErr = runner.Up(context.Background())
		}
	})
	if migrateErr != nil {
		t.Fatalf("failed to apply migrations: %v", migrateErr)
	}

	tx, err := client.DB().BeginTxx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to start transaction: %v", err)
	}

	helper := &PostgresTestHelper{client: client, tx: tx}
	// Cleanups run in reverse: roll back before the pool closes.
	t.Cleanup(helper.Rollback)
	return helper
}

// Tx returns the test transaction. Repositories and seed builders accept it
// directly.
func (h *PostgresTestHelper) Tx() *sqlx.Tx {
	return h.tx
}

// DB returns the pool, outside the test transaction
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// Rollback discards everything written through Tx. Safe to call twice.
func (h *PostgresTestHelper) Rollback() {
	if h.rolledBack {
		return
	}
	_ = h.tx.Rollback()
	h.rolledBack = true
}
