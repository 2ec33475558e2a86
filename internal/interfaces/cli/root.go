// Package cli is the bookinghub command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/bookinghub/internal/config"
	"github.com/example/bookinghub/internal/container"
	"github.com/example/bookinghub/internal/logger"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// app is shared by every subcommand. cfg is loaded in PersistentPreRunE.
type app struct {
	envFile   string
	logLevel  string
	logFormat string

	cfg config.Config
}

func NewRoot() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "bookinghub",
		Short:         "Booking aggregator for restaurants, salons, spas and fitness venues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newServerCmd(a),
		newFiltersCmd(a),
		newSearchCmd(a),
		newAvailabilityCmd(a),
		newBookCmd(a),
		newCancelCmd(a),
		newBookingCmd(a),
		newVenuesCmd(a),
		newPingCmd(a),
		newKeysCmd(),
		newVersionCmd(),
	)
	return root
}

func Execute() {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) error {
	if a.envFile != "" {
		// existing environment wins over the file
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) container(ctx context.Context) (*container.Container, error) {
	return container.New(ctx, a.cfg, logger.Root())
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
