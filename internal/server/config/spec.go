// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for liquid-stored.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	Telemetry TelemetrySection `koanf:"telemetry"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures the line protocol listener.
type ServerSection struct {
	// Addr is the TCP bind address for the line protocol.
	Addr string `koanf:"addr"`

	// MaxConns is the maximum number of simultaneous client
	// connections. Connections beyond the limit are accepted and
	// immediately closed.
	MaxConns int `koanf:"max_conns"`

	// ReadTimeout bounds a single command read.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds a single response write.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout closes connections with no traffic.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the per-client commands-per-second budget.
	// Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// StorageSection configures the persistence layer.
type StorageSection struct {
	// DataDir is the directory holding one JSON file per persona.
	DataDir string `koanf:"data_dir"`
}

// TelemetrySection configures metrics exposure.
type TelemetrySection struct {
	// MetricsEnabled turns the Prometheus HTTP endpoint on.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsAddr is the bind address for the /metrics endpoint.
	MetricsAddr string `koanf:"metrics_addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
