package main

import (
	"context"
	"flag"

	"greencart/internal/adapters/config"
	pgclient "greencart/internal/adapters/postgres"
	devseeds "greencart/internal/seeds/dev"
	stagingseeds "greencart/internal/seeds/staging"
	testseeds "greencart/internal/seeds/test"
	"greencart/internal/testsupport/seeds"
	"greencart/pkg/logger"
)

func main() {
	// Parse flags
	env := flag.String("env", "dev", "Environment: dev, staging, test")
	dryRun := flag.Bool("dry-run", false, "List seed functions without executing")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	log := logger.Get()

	log.Infow("Starting seeder",
		"environment", *env,
		"dry_run", *dryRun,
		"database", cfg.Postgres.Database,
	)

	// Get seed functions for environment
	seedFuncs := getSeedFunctions(*env)
	if len(seedFuncs) == 0 {
		log.Warnw("No seeds available for environment", "environment", *env)
		return
	}

	log.Infow("Found seed functions", "environment", *env, "count", len(seedFuncs))

	if *dryRun {
		log.Info("✅ Dry-run mode: seed functions validated")
		return
	}

	// Connect to database
	pg, err := pgclient.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	log.Info("Successfully connected to database")

	// Create seeder instance
	ctx := context.Background()
	seeder := seeds.New(pg.DB()).WithContext(ctx)

	// Execute each seed function in order
	for i, seedFunc := range seedFuncs {
		log.Infow("Executing seed", "step", i+1, "total", len(seedFuncs))

		if err := seedFunc(ctx, seeder); err != nil {
			log.Errorw("Failed to execute seed",
				"step", i+1,
				"error", err,
			)
			return
		}

		log.Infow("✅ Seed completed", "step", i+1)
	}

	log.Info("✅ All seeds applied successfully")
}

// getSeedFunctions returns seed functions for the given environment
// Order matters - dependencies should be seeded first
func getSeedFunctions(env string) []func(context.Context, *seeds.Seeder) error {
	switch env {
	case "dev":
		return []func(context.Context, *seeds.Seeder) error{
			devseeds.SeedUsers,
			devseeds.SeedFleet,
		}
	case "test":
		return []func(context.Context, *seeds.Seeder) error{
			testseeds.SeedUsers,
			testseeds.SeedFleet,
		}
	case "staging":
		return []func(context.Context, *seeds.Seeder) error{
			stagingseeds.SeedUsers,
		}
	default:
		return nil
	}
}
