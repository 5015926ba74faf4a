// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultAddr         = "0.0.0.0:7501"
	DefaultMaxConns     = 100
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute

	DefaultDataDir = "/var/lib/liquidstore/data"

	DefaultMetricsAddr = "127.0.0.1:7591"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:         DefaultAddr,
			MaxConns:     DefaultMaxConns,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		Storage: StorageSection{
			DataDir: DefaultDataDir,
		},
		Telemetry: TelemetrySection{
			MetricsEnabled: false,
			MetricsAddr:    DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
