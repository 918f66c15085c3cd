package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"greencart/internal/bootstrap"
	"greencart/internal/deploy"
)

var (
	skipSteps []string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the GreenCart release pipeline",
	Long: `deploy prepares a release: it installs dependencies, collects static
files, applies database migrations, ensures the admin account exists and
loads the initial CSV data set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          run,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write drivers, routes and orders to CSV files",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.Flags().StringSliceVar(&skipSteps, "skip", nil,
		"steps to skip (install, collectstatic, migrate, createsuperuser, loaddata)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without running any step")
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	release, err := bootstrap.NewRelease()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		release.Close(closeCtx)
	}()

	pipeline, err := release.Pipeline(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	_, err = pipeline.Run(ctx, deploy.RunOptions{Skip: skipSteps, DryRun: dryRun})
	return err
}

func runExport(cmd *cobra.Command, _ []string) error {
	release, err := bootstrap.NewRelease()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		release.Close(closeCtx)
	}()

	files, err := release.Export(cmd.Context())
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "deploy failed:", err)
		os.Exit(deploy.ExitCode(err))
	}
}
