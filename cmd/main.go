package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	app "github.com/okian/kabaddi/internal/app"
	"github.com/okian/kabaddi/internal/config"
	"github.com/okian/kabaddi/pkg/logger"
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A bare invocation runs every stage.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "kabaddi",
		Short: "Clean, standardize and derive features from kabaddi season statistics",
		Long: `kabaddi - season statistics pipeline
  - standardizes per-season player and team statistic exports
  - derives role success, contribution, synergy and skill tables
  - assembles and reduces the player feature matrix

Configuration is layered: defaults, then the YAML file given by --config or
KABADDI_CONFIG, then KABADDI_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd, configPath, "run", func(ctx context.Context, svc *app.Service) error {
				return svc.Run(ctx)
			})
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (overrides "+config.EnvConfigPath+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run every pipeline stage",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStages(cmd, configPath, "run", func(ctx context.Context, svc *app.Service) error {
					return svc.Run(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "standardize",
			Short: "Build the standardized player and team tables only",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStages(cmd, configPath, "standardize", func(ctx context.Context, svc *app.Service) error {
					_, err := svc.Standardize(ctx)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "features",
			Short: "Derive feature tables from previously standardized output",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStages(cmd, configPath, "features", func(ctx context.Context, svc *app.Service) error {
					return svc.Features(ctx, nil)
				})
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration as YAML",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(cmd.Context(), configPath)
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
	)
	return root
}

// runStages loads the configuration, starts a pipeline service, runs stages
// and always stops the service so the manifest is written.
func runStages(cmd *cobra.Command, configPath, name string, stages func(context.Context, *app.Service) error) error {
	ctx := cmd.Context()
	loggerInstance := logger.Named("cli")

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithConfig(cfg),
		app.WithLogger(logger.Get()),
		app.WithCommand(name),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start pipeline", logger.Error(err))
		return err
	}

	runErr := stages(ctx, svc)
	if runErr != nil {
		loggerInstance.Error(ctx, "pipeline finished with errors", logger.String("command", name), logger.Error(runErr))
	}
	return errors.Join(runErr, svc.Stop(ctx))
}
