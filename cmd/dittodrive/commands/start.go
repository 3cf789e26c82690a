package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/controlplane/api"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/metrics"

	// Registers the Prometheus implementation of the drive metrics
	_ "github.com/marmos91/dittodrive/pkg/metrics/prometheus"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DittoDrive server",
	Long: `Start the DittoDrive server in the foreground.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/dittodrive/config.yaml.

On the first start an admin user is created. Its password is read from
DITTODRIVE_ADMIN_INITIAL_PASSWORD or generated and printed once.

Examples:
  # Start with the default config
  dittodrive start

  # Start with custom config file
  dittodrive start --config /etc/dittodrive/config.yaml

  # Start with environment variable overrides
  DITTODRIVE_LOGGING_LEVEL=DEBUG dittodrive start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the server PID to this file")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "dittodrive",
		ServiceVersion: build.Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("Telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "dittodrive",
		ServiceVersion: build.Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("Profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()),
		"level", cfg.Logging.Level, "format", cfg.Logging.Format)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// The registry must exist before the drive service asks for metrics.
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = st.Close() }()

	adminPassword, err := st.EnsureAdminUser(ctx, cfg.Admin.Username, cfg.Admin.Email)
	if err != nil {
		return fmt.Errorf("failed to ensure admin user: %w", err)
	}
	if adminPassword != "" {
		logger.Info("Admin user created", logger.Username(cfg.Admin.Username))
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "\n*** IMPORTANT: Admin user %q created with password: %s ***\n", cfg.Admin.Username, adminPassword)
		_, _ = fmt.Fprintln(out, "Please save this password. It will not be shown again.")
		_, _ = fmt.Fprintln(out)
	}

	if err := os.MkdirAll(cfg.Storage.Root, 0o750); err != nil {
		return fmt.Errorf("failed to create storage root: %w", err)
	}

	svc := drive.New(st, cfg.DriveConfig(), metrics.NewDriveMetrics())
	svc.Start(ctx)
	defer svc.Stop(cfg.ShutdownTimeout)
	logger.Info("Storage ready", logger.Location(cfg.Storage.Root),
		"max_upload_size", cfg.Storage.MaxUploadSize.String(),
		"hash_workers", cfg.Storage.HashWorkers)

	apiServer, err := api.NewServer(cfg.Server, svc, st)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, fmt.Appendf(nil, "%d", os.Getpid()), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 2)
	go func() { serverDone <- apiServer.Start(ctx) }()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error", logger.Err(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.", "port", cfg.Server.Port)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		cancel()
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
