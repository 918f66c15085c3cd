package main

import (
	"context"
	"flag"
	"os"

	"greencart/internal/adapters/config"
	pgclient "greencart/internal/adapters/postgres"
	"greencart/internal/migrations"
	"greencart/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, status, down")
	target := flag.Int64("target", 0, "Version to roll back to (down only; 0 rolls back one)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	pg, err := pgclient.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	runner, err := migrations.NewRunner(pg.DB().DB, cfg.Deploy.MigrateTimeout, log)
	if err != nil {
		log.Fatalf("Failed to configure migrations: %v", err)
	}

	ctx := context.Background()
	switch *command {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Infow("✅ Migrations applied", "count", applied)
	case "status":
		pending, err := runner.Status(ctx)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		version, err := runner.Version(ctx)
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		log.Infow("Migration status", "version", version, "pending", pending)
	case "down":
		if err := runner.Down(ctx, *target); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Info("✅ Rollback complete")
	default:
		log.Errorw("Unknown command", "command", *command)
		flag.Usage()
		os.Exit(2)
	}
}
