package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"greencart/pkg/errors"
)

// InstallStep runs the dependency install command as a child process
type InstallStep struct {
	args []string
	dir  string
}

// NewInstallStep creates the install step. Empty args skip it.
func NewInstallStep(args []string, dir string) *InstallStep {
	return &InstallStep{args: args, dir: dir}
}

func (s *InstallStep) Name() string   { return "install" }
func (s *InstallStep) Policy() Policy { return Fatal }

// Run streams the child's stdout and stderr into out
func (s *InstallStep) Run(ctx context.Context, out io.Writer) error {
	if len(s.args) == 0 {
		return Skip("no install command configured")
	}

	fmt.Fprintf(out, "Running %s\n", strings.Join(s.args, " "))

	cmd := exec.CommandContext(ctx, s.args[0], s.args[1:]...)
	cmd.Dir = s.dir
	cmd.Env = os.Environ()
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Step: s.Name(), Code: exitErr.ExitCode(), Err: err}
		}
		return errors.Wrapf(err, "start %s", s.args[0])
	}
	return nil
}
