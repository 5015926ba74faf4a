package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.MaxConns != DefaultMaxConns {
		t.Errorf("MaxConns = %d, want %d", cfg.Server.MaxConns, DefaultMaxConns)
	}
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.Storage.DataDir, DefaultDataDir)
	}
	if cfg.Telemetry.MetricsEnabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
}

func TestVerify_Valid(t *testing.T) {
	cfg := testConfig(t)
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_Server(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:    "empty addr",
			mutate:  func(c *ServerConfig) { c.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "addr without port",
			mutate:  func(c *ServerConfig) { c.Server.Addr = "localhost" },
			wantErr: "server.addr",
		},
		{
			name:    "zero max conns",
			mutate:  func(c *ServerConfig) { c.Server.MaxConns = 0 },
			wantErr: "server.max_conns",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *ServerConfig) { c.Server.RateLimit = -1 },
			wantErr: "server.rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_Storage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.DataDir = ""

	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "storage.data_dir") {
		t.Errorf("Verify() error = %v, want data_dir error", err)
	}
}

func TestVerify_CreatesDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "a", "b", "c")

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() should create missing data dir, got: %v", err)
	}
}

func TestVerify_Telemetry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsEnabled = true
	cfg.Telemetry.MetricsAddr = "no-port"

	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "telemetry.metrics_addr") {
		t.Errorf("Verify() error = %v, want metrics_addr error", err)
	}

	// Disabled metrics skip the addr check entirely
	cfg.Telemetry.MetricsEnabled = false
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v, disabled metrics must not validate addr", err)
	}
}
