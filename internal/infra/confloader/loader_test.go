package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		Addr     string `koanf:"addr"`
		MaxConns int    `koanf:"max_conns"`
	} `koanf:"server"`
	Storage struct {
		DataDir string `koanf:"data_dir"`
	} `koanf:"storage"`
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  addr: "0.0.0.0:7501"
  max_conns: 50
storage:
  data_dir: "/var/lib/liquidstore"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader()
	if err := l.LoadFile(configPath); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if addr := l.GetString("server.addr"); addr != "0.0.0.0:7501" {
		t.Errorf("server.addr = %q, want %q", addr, "0.0.0.0:7501")
	}

	if n := l.GetInt("server.max_conns"); n != 50 {
		t.Errorf("server.max_conns = %d, want %d", n, 50)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	err := l.LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	// Empty path should not error
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("LIQUIDSTORE_SERVER_ADDR", "127.0.0.1:7501")
	t.Setenv("LIQUIDSTORE_STORAGE_DATA__DIR", "/tmp/liquid")
	t.Setenv("LIQUIDSTORE_SERVER_MAX__CONNS", "42")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if addr := l.GetString("server.addr"); addr != "127.0.0.1:7501" {
		t.Errorf("server.addr = %q, want %q", addr, "127.0.0.1:7501")
	}
	// Double underscore escapes a literal underscore in a key segment
	if dir := l.GetString("storage.data_dir"); dir != "/tmp/liquid" {
		t.Errorf("storage.data_dir = %q, want %q", dir, "/tmp/liquid")
	}
	if n := l.GetInt("server.max_conns"); n != 42 {
		t.Errorf("server.max_conns = %d, want 42", n)
	}
}

func TestLoader_LoadEnv_UnmarshalUnderscoreKeys(t *testing.T) {
	t.Setenv("LIQUIDSTORE_STORAGE_DATA__DIR", "/srv/liquid")

	l := NewLoader()
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.DataDir != "/srv/liquid" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/srv/liquid")
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()

	data := map[string]any{
		"server.addr": "localhost:3000",
		"debug":       true,
	}

	if err := l.LoadMap(data); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if addr := l.GetString("server.addr"); addr != "localhost:3000" {
		t.Errorf("server.addr = %q, want %q", addr, "localhost:3000")
	}

	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  addr: "from-file:7501"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("LIQUIDSTORE_SERVER_ADDR", "from-env:7501")

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment should override file
	if cfg.Server.Addr != "from-env:7501" {
		t.Errorf("Addr = %q, want %q (env should override file)",
			cfg.Server.Addr, "from-env:7501")
	}
}

func TestLoader_Unmarshal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  addr: "0.0.0.0:7501"
  max_conns: 200
storage:
  data_dir: "/data"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	l := NewLoader(WithConfigFile(configPath))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:7501" {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, "0.0.0.0:7501")
	}
	if cfg.Server.MaxConns != 200 {
		t.Errorf("MaxConns = %d, want %d", cfg.Server.MaxConns, 200)
	}
	if cfg.Storage.DataDir != "/data" {
		t.Errorf("DataDir = %q, want %q", cfg.Storage.DataDir, "/data")
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()

	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_All(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	all := l.All()
	if len(all) < 2 {
		t.Errorf("All() returned %d keys, want at least 2", len(all))
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"key1": "value1",
		"key2": "value2",
	})

	keys := l.Keys()
	if len(keys) < 2 {
		t.Errorf("Keys() returned %d keys, want at least 2", len(keys))
	}
}

func TestLoader_GetInt(t *testing.T) {
	l := NewLoader()
	l.LoadMap(map[string]any{
		"port": 7501,
	})

	if port := l.GetInt("port"); port != 7501 {
		t.Errorf("GetInt(port) = %d, want %d", port, 7501)
	}
}
