package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default config", DefaultConfig()},
		{"text format", Config{Level: "debug", Format: "text"}},
		{"console format", Config{Level: "info", Format: "console"}},
		{"unknown format falls back to json", Config{Level: "info", Format: "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("test message", "component", "test-value")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log output is not JSON: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %v", entry["level"], tt.level)
			}
			if entry["msg"] != "test message" {
				t.Errorf("msg = %v, want %q", entry["msg"], "test message")
			}
			if entry["component"] != "test-value" {
				t.Errorf("component = %v, want %q", entry["component"], "test-value")
			}
		})
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Debug("should be dropped")
	l.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("below-level entries were written: %s", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn entry was dropped")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer SetLevel("info")

	l.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatal("debug should be filtered at info level")
	}

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}

	l.Debug("now visible")
	if buf.Len() == 0 {
		t.Error("debug entry missing after SetLevel(debug)")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.With("persona", "alice").Info("scoped")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["persona"] != "alice" {
		t.Errorf("persona = %v, want alice", entry["persona"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("vault access",
		"master_key", "deadbeefcafe",
		"passphrase", "hunter2hunter2",
		"user_password", "pw",
		"client_secret", "shhh",
		"persona", "alice",
	)

	out := buf.String()
	for _, leaked := range []string{"deadbeefcafe", "hunter2hunter2", `"pw"`, "shhh"} {
		if strings.Contains(out, leaked) {
			t.Errorf("sensitive value %q leaked into log output", leaked)
		}
	}
	if !strings.Contains(out, "***REDACTED***") {
		t.Error("redaction placeholder missing")
	}
	if !strings.Contains(out, "alice") {
		t.Error("non-sensitive value was redacted")
	}
}

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"master_key", "MASTER_KEY", "vault_passphrase", "db_password", "api_secret"}
	for _, k := range sensitive {
		if !IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = false, want true", k)
		}
	}
	for _, k := range []string{"persona", "app", "addr", "conn_id"} {
		if IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = true, want false", k)
		}
	}
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	SetDefault(l)
	Default().Info("through default")

	if !strings.Contains(buf.String(), "through default") {
		t.Error("Default() did not return the installed logger")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	if got := ConnIDFromContext(ctx); got != "" {
		t.Errorf("ConnIDFromContext(empty) = %q, want empty", got)
	}

	ctx = WithConnID(ctx, "01ARZ3NDEK")
	if got := ConnIDFromContext(ctx); got != "01ARZ3NDEK" {
		t.Errorf("ConnIDFromContext() = %q, want 01ARZ3NDEK", got)
	}

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx = WithLogger(ctx, l)

	if FromContext(ctx) != l {
		t.Error("FromContext() did not return the context logger")
	}

	// L() enriches with the conn id
	L(ctx).Info("hello")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["conn_id"] != "01ARZ3NDEK" {
		t.Errorf("conn_id = %v, want 01ARZ3NDEK", entry["conn_id"])
	}
}
