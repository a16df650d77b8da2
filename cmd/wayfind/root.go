package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wayfind-ai/wayfind/internal/config"
)

var (
	configPath string
	verbose    bool

	// cfg is populated by loadConfig before any command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wayfind",
	Short: "Wayfind - Heuristic planner for capability-based assistants",
	Long: `Wayfind searches the space of capability sequences for an ordered plan
that satisfies a natural-language goal. It combines best-first search with
a language-model cost estimator, near-duplicate pruning, and resource-bounded
termination. Wayfind produces plans; it never executes them.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig is called before any command runs to load configuration and
// initialize logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	loader := config.NewConfigLoader(config.NewValidator())

	path := configPath
	if path == "" {
		path = os.Getenv("WAYFIND_CONFIG")
	}

	var err error
	if path == "" {
		cfg = config.DefaultConfig()
	} else {
		cfg, err = loader.Load(path)
		if err != nil {
			return wrapExit(ExitConfigError, "failed to load configuration", err)
		}
	}

	setupLogging(cfg.Logging)
	return nil
}

// setupLogging configures the default slog logger from config. The --verbose
// flag overrides the configured level with debug.
func setupLogging(lc config.LoggingConfig) {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: $WAYFIND_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}
