package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/deskhive/deskhive/internal/api"
	"github.com/deskhive/deskhive/internal/audit"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/launch"
	"github.com/deskhive/deskhive/internal/lifecycle"
	"github.com/deskhive/deskhive/internal/logger"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/procmon"
	"github.com/deskhive/deskhive/internal/signals"
	"github.com/deskhive/deskhive/internal/tracing"
	"github.com/deskhive/deskhive/internal/watcher"
	"github.com/deskhive/deskhive/internal/window"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the launcher supervisor daemon",
	Long: `Start Deskhive in daemon mode to supervise application instances.

This is the default mode when no subcommand is specified. It loads the
application catalog, reconciles tracked instances against OS process and
window facts, and serves the observability and management endpoints.`,
	Run: runServe,
}

var (
	dryRun    bool
	watchMode bool
)

func init() {
	serveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration without starting the supervisor")
	serveCmd.Flags().BoolVar(&watchMode, "watch", false, "Reload the application catalog when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) {
	cfgPath := getConfigPath()

	cfg, err := config.LoadWithEnvExpansion(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if dryRun {
		fmt.Fprintf(os.Stderr, "🔍 DRY RUN MODE - configuration validated, not starting\n")
		fmt.Fprintf(os.Stderr, "✅ Configuration loaded: %s\n", cfgPath)
		fmt.Fprintf(os.Stderr, "✅ Applications: %d\n", len(cfg.Applications))
		return
	}

	log := logger.New(logger.Options{
		Level:      cfg.Global.LogLevel,
		Format:     cfg.Global.LogFormat,
		Timestamps: cfg.Global.LogTimestamps,
	})

	log.Info("Deskhive starting",
		"version", version,
		"pid", os.Getpid(),
		"config", cfgPath,
		"applications", len(cfg.Applications),
	)

	// Root context cancelled by SIGTERM/SIGINT.
	ctx, stop := signals.NotifyShutdown(context.Background())
	defer stop()

	if signals.IsPID1() {
		go signals.ReapZombies(ctx)
	}

	tracingProvider, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:     cfg.Global.TracingEnabled,
		Exporter:    cfg.Global.TracingExporter,
		Endpoint:    cfg.Global.TracingEndpoint,
		SampleRate:  cfg.Global.TracingSample,
		ServiceName: "deskhive",
		Version:     version,
	}, log)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown error", "error", err)
		}
	}()

	auditLogger := audit.NewLogger(log, cfg.Global.AuditEnabled)

	catalog := config.NewCatalog(cfg)
	registry := instance.NewRegistry(&instance.Notifier{})
	monitor := procmon.NewSystemMonitor(log)
	windows, enumerator := window.NewNative()

	selector := launch.NewSelector(
		launch.NewExecLauncher(monitor, enumerator, log),
		launch.NewWebLauncher(cfg.Global.Browser, cfg.Global.BrowserFamily, monitor, enumerator, log),
		launch.NewFolderLauncher(cfg.Global.FolderOpener, log),
	)

	engine := lifecycle.NewEngine(registry, selector, catalog, monitor, windows, auditLogger, log, &lifecycle.Options{
		ReconcileInterval: time.Duration(cfg.Global.ReconcileInterval) * time.Second,
		CleanupInterval:   time.Duration(cfg.Global.CleanupInterval) * time.Second,
		Retention:         time.Duration(cfg.Global.Retention) * time.Second,
		CloseTimeout:      time.Duration(cfg.Global.CloseTimeout) * time.Second,
		KillTimeout:       time.Duration(cfg.Global.KillTimeout) * time.Second,
	})
	engine.StartMonitoring()

	auditLogger.LogSystemStart(version)

	var metricsServer *metrics.Server
	if cfg.Global.MetricsEnabled {
		metricsServer = startMetricsServer(ctx, cfg, log)
	}

	var apiServer *api.Server
	if cfg.Global.APIEnabled {
		apiServer = startAPIServer(ctx, cfg, engine, catalog, log)
	}

	var catalogWatcher *watcher.Watcher
	if watchMode {
		log.Info("Watch mode enabled", "config", cfgPath)

		catalogWatcher, err = watcher.New(watcher.Config{
			Path: cfgPath,
			Handler: func() error {
				newCfg, err := config.LoadWithEnvExpansion(cfgPath)
				if err != nil {
					return fmt.Errorf("failed to reload config: %w", err)
				}
				catalog.Replace(newCfg)
				log.Info("Application catalog reloaded", "applications", len(newCfg.Applications))
				return nil
			},
			Logger:   log,
			Debounce: 2 * time.Second,
		})
		if err != nil {
			log.Error("Failed to create catalog watcher", "error", err)
			os.Exit(1)
		}

		if err := catalogWatcher.Start(ctx); err != nil {
			log.Error("Failed to start catalog watcher", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := catalogWatcher.Stop(); err != nil {
				log.Warn("Catalog watcher stop error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	log.Info("Received shutdown signal")

	performGracefulShutdown(cfg, engine, apiServer, metricsServer, auditLogger, log)
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(ctx context.Context, cfg *config.Config, log *slog.Logger) *metrics.Server {
	server := metrics.NewServer(cfg.Global.MetricsAddr, cfg.Global.MetricsPath, log)
	if err := server.Start(ctx); err != nil {
		log.Warn("Failed to start metrics server (continuing without metrics)", "error", err)
		return nil
	}

	log.Info("Metrics server started",
		"addr", cfg.Global.MetricsAddr,
		"path", cfg.Global.MetricsPath,
	)
	return server
}

// startAPIServer starts the management API server
func startAPIServer(ctx context.Context, cfg *config.Config, engine *lifecycle.Engine, catalog *config.Catalog, log *slog.Logger) *api.Server {
	server := api.NewServer(cfg.Global.APIAddr, cfg.Global.APIAuth, engine, catalog, cfg.Global, log)
	if err := server.Start(ctx); err != nil {
		log.Warn("Failed to start API server (remote control disabled)", "error", err)
		return nil
	}

	log.Info("API server started",
		"addr", cfg.Global.APIAddr,
		"auth", cfg.Global.APIAuth != "",
	)
	return server
}

// performGracefulShutdown closes every live instance, escalating to
// forced kill, and then stops the outer surfaces.
func performGracefulShutdown(cfg *config.Config, engine *lifecycle.Engine, apiServer *api.Server, metricsServer *metrics.Server, auditLogger *audit.Logger, log *slog.Logger) {
	graceful := time.Duration(cfg.Global.ShutdownTimeout) * time.Second
	final := time.Duration(cfg.Global.KillTimeout) * time.Second

	shutdownCtx, cancel := context.WithTimeout(context.Background(), graceful+final+10*time.Second)
	defer cancel()

	log.Info("Initiating graceful shutdown",
		"graceful_timeout", graceful,
		"final_timeout", final,
	)

	engine.StopMonitoring()
	result := engine.ShutdownAll(shutdownCtx, graceful, final)

	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Warn("API server shutdown error", "error", err)
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Warn("Metrics server shutdown error", "error", err)
		}
	}

	auditLogger.LogSystemShutdown("signal", result.Success)

	if !result.Success {
		log.Error("Shutdown completed with surviving instances", "duration", result.Duration)
		os.Exit(1)
	}
	log.Info("Deskhive shutdown complete", "duration", result.Duration)
}
