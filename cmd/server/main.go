/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the travel engine. Serves the HTTP API and runs
  the same operations (calculate, recalculate, export, migrate) from the
  shell.

COMMANDS:
  serve        HTTP API plus the job scheduler
  calculate    Calculate travel for one shift
  recalculate  Re-run every calculation in a date range
  export       Write daily summaries or staff statements as Excel
  migrate      Create the database schema

CONFIGURATION:
  defaults -> --config YAML -> .env -> environment -> flags
  See config/config.go for keys and environment variables.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running job)
  2. Stop accepting new connections
  3. Wait for active requests (shutdown_timeout)
  4. Close the route cache and database

EXAMPLES:
  travel-engine serve --config travel.yaml
  travel-engine serve --db-driver postgres --db "postgres://travel@localhost/travel"
  travel-engine calculate --shift s-1 --from "1 George St, Parramatta NSW 2150" \
      --to "88 Pitt St, Sydney NSW 2000" --date 2025-03-10
  travel-engine export statements --from 2025-02-01 --to 2025-02-28

SEE ALSO:
  - app.go: Dependency wiring
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/api"
	"github.com/warp/travel-engine/config"
)

var (
	configPath string
	envFiles   []string
	port       int
	dbDriver   string
	dbDSN      string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "travel-engine",
	Short: "Provider travel billing and worker allowance calculator",
	Long: `travel-engine works out how much travel between client visits can be
billed to the funding scheme and paid to the support worker.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envFiles...)
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = cfg.Logging.NewLogger()
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job scheduler",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files (default .env)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "database driver: sqlite | postgres")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "database DSN or SQLite path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug | info | warn | error")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

// applyFlags lets explicitly set flags override the loaded config.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("db-driver") {
		cfg.Database.Driver = dbDriver
	}
	if flags.Changed("db") {
		cfg.Database.DSN = dbDSN
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// =============================================================================
// SERVE
// =============================================================================

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler := api.NewScheduler(app.store, app.loc, logger, api.WithTick(cfg.Scheduler.Tick))
	scheduler.Enabled = cfg.Scheduler.Enabled
	for _, job := range api.TravelJobs(app.svc, cfg.Scheduler.ExportDir) {
		if err := scheduler.Register(ctx, job); err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.Name, err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(app.svc, app.store, scheduler, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("timezone", cfg.Travel.Timezone),
			zap.String("router", app.routerName))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
