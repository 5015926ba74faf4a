// Package main provides the entry point for liquid-stored.
//
// liquid-stored is the LiquidStore server process: a hierarchical
// key-value store (persona -> app -> key) exposed over a
// newline-terminated TCP line protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/celerix-dev/liquidstore/internal/infra/confloader"
	"github.com/celerix-dev/liquidstore/internal/infra/shutdown"
	"github.com/celerix-dev/liquidstore/internal/server/config"
	"github.com/celerix-dev/liquidstore/internal/server/lineserver"
	"github.com/celerix-dev/liquidstore/internal/storage/memory"
	"github.com/celerix-dev/liquidstore/internal/storage/scopefile"
	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
)

// Build information, set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("liquid-stored %s (commit: %s, built: %s)\n", version, commit, buildTime)
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting liquid-stored",
		"version", version,
		"commit", commit,
		"config", *configFile)

	// Persistence layer: one JSON file per persona
	files, err := scopefile.New(cfg.Storage.DataDir, scopefile.WithLogger(log))
	if err != nil {
		return fmt.Errorf("init persistence: %w", err)
	}

	initial, err := files.LoadAll()
	if err != nil {
		return fmt.Errorf("load personas: %w", err)
	}
	log.Info("personas loaded", "count", len(initial), "dir", cfg.Storage.DataDir)

	engine := memory.New(initial, files, memory.WithLogger(log))

	srv := lineserver.New(&lineserver.Config{
		Addr:         cfg.Server.Addr,
		MaxConns:     cfg.Server.MaxConns,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
	}, engine, log)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info("line server listening", "addr", srv.Addr())

	shutdownHandler := shutdown.NewHandler(30*time.Second, log)

	// Hooks run in reverse order: stop accepting first, then flush writes
	shutdownHandler.OnShutdown("engine", func(ctx context.Context) error {
		log.Info("draining pending persistence writes")
		engine.Drain()
		return nil
	})
	shutdownHandler.OnShutdown("lineserver", func(ctx context.Context) error {
		log.Info("shutting down line server")
		return srv.Shutdown(ctx)
	})

	if cfg.Telemetry.MetricsEnabled {
		metricsSrv := startMetrics(cfg.Telemetry.MetricsAddr, log)
		shutdownHandler.OnShutdown("metrics", func(ctx context.Context) error {
			return metricsSrv.Shutdown(ctx)
		})
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and installs it as default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// startMetrics serves Prometheus metrics on a separate listener.
func startMetrics(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()

	return srv
}

// watchConfig reloads the log level when the config file changes.
// Only log.level is applied live; other settings need a restart.
func watchConfig(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg := config.Default()
		loader := confloader.NewLoader(confloader.WithConfigFile(configFile))
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})

	watcher.StartAsync()
	return watcher, nil
}
