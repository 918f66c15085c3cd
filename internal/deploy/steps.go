package deploy

import (
	"context"
	"fmt"
	"io"

	"greencart/internal/dataload"
	"greencart/internal/domain/user"
)

// Migrator applies pending schema migrations. migrations.Runner satisfies it.
type Migrator interface {
	Up(ctx context.Context) (int, error)
}

// MigrateStep brings the schema up to date
type MigrateStep struct {
	migrator Migrator
}

func NewMigrateStep(m Migrator) *MigrateStep {
	return &MigrateStep{migrator: m}
}

func (s *MigrateStep) Name() string   { return "migrate" }
func (s *MigrateStep) Policy() Policy { return Fatal }

func (s *MigrateStep) Run(ctx context.Context, out io.Writer) error {
	applied, err := s.migrator.Up(ctx)
	if err != nil {
		return err
	}
	if applied == 0 {
		fmt.Fprintln(out, "No migrations to apply.")
		return nil
	}
	fmt.Fprintf(out, "Applied %d migrations.\n", applied)
	return nil
}

// SuperuserProvisioner creates the admin account when it is missing.
// user.Service satisfies it.
type SuperuserProvisioner interface {
	EnsureSuperuser(ctx context.Context, spec user.SuperuserSpec) (bool, error)
}

// SuperuserStep provisions the admin account exactly once
type SuperuserStep struct {
	users SuperuserProvisioner
	spec  user.SuperuserSpec
}

func NewSuperuserStep(users SuperuserProvisioner, spec user.SuperuserSpec) *SuperuserStep {
	return &SuperuserStep{users: users, spec: spec}
}

func (s *SuperuserStep) Name() string   { return "createsuperuser" }
func (s *SuperuserStep) Policy() Policy { return Fatal }

func (s *SuperuserStep) Run(ctx context.Context, out io.Writer) error {
	created, err := s.users.EnsureSuperuser(ctx, s.spec)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(out, "Superuser created")
	} else {
		fmt.Fprintln(out, "Superuser already exists")
	}
	return nil
}

// DataLoader loads the initial CSV data set. dataload.Loader satisfies it.
type DataLoader interface {
	Load(ctx context.Context) (*dataload.Result, error)
}

// LoadDataStep runs the initial data loader. Failures are contained unless
// strict is set.
type LoadDataStep struct {
	loader DataLoader
	strict bool
}

func NewLoadDataStep(loader DataLoader, strict bool) *LoadDataStep {
	return &LoadDataStep{loader: loader, strict: strict}
}

func (s *LoadDataStep) Name() string { return "loaddata" }

func (s *LoadDataStep) Policy() Policy {
	if s.strict {
		return Fatal
	}
	return BestEffort
}

func (s *LoadDataStep) Run(ctx context.Context, out io.Writer) error {
	res, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Loaded %d drivers, %d routes, %d orders.\n", res.DriversLoaded, res.RoutesLoaded, res.OrdersLoaded)
	if len(res.Errors) > 0 {
		fmt.Fprintf(out, "%d rows rejected:\n", len(res.Errors))
		for _, msg := range res.Errors {
			fmt.Fprintf(out, "  %s\n", msg)
		}
	}
	return nil
}

// FormatFailure implements FailureFormatter
func (s *LoadDataStep) FormatFailure(err error) string {
	return "Initial data load skipped: " + err.Error()
}
