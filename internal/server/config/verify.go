// Package config defines the server configuration structure.
package config

import (
	"errors"
	"net"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return errors.New("server.addr is not a valid host:port: " + err.Error())
	}
	if cfg.MaxConns < 1 {
		return errors.New("server.max_conns must be at least 1")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}

	return nil
}

func verifyTelemetry(cfg *TelemetrySection) error {
	if !cfg.MetricsEnabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
		return errors.New("telemetry.metrics_addr is not a valid host:port: " + err.Error())
	}
	return nil
}
