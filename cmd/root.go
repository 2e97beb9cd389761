package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/facematch"
	"github.com/kozaktomas/attendance/internal/logger"
	"github.com/kozaktomas/attendance/internal/metrics"

	// storage backends
	_ "github.com/kozaktomas/attendance/internal/database/jsonfile"
	_ "github.com/kozaktomas/attendance/internal/database/postgres"
)

var (
	logLevel    string
	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Face recognition attendance register",
	Long: `Attendance keeps a registry of known faces and a once-per-day attendance
ledger. Faces are matched by Euclidean distance between embeddings produced
by an external face embedding service.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	closer, err := logger.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	closeLogger = closer
	return nil
}

// loadConfig loads and validates configuration from the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openEngine opens the configured storage backend and builds an engine on top of
// it. The caller must close the returned backend.
func openEngine(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*engine.Engine, *database.Backend, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	policy, err := facematch.ParsePolicy(cfg.Match.Policy)
	if err != nil {
		return nil, nil, err
	}

	backend, err := database.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(ctx, engine.Options{
		Registry:  backend.Registry,
		Ledger:    backend.Ledger,
		Threshold: cfg.Match.Threshold,
		Policy:    policy,
		Dim:       cfg.Embedding.Dim,
		Location:  loc,
		Metrics:   m,
	})
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return eng, backend, nil
}
