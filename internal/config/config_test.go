package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("Defaults() must validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"bad listen addr", func(c *AppConfig) { c.ListenAddr = "no-port" }},
		{"bad metrics addr", func(c *AppConfig) { c.MetricsAddr = "no-port" }},
		{"poll interval too small", func(c *AppConfig) { c.PollInterval = 100 * time.Microsecond }},
		{"poll interval too large", func(c *AppConfig) { c.PollInterval = 2 * time.Second }},
		{"zero snapshot rate", func(c *AppConfig) { c.SnapshotHz = 0 }},
		{"negative sim pads", func(c *AppConfig) { c.SimPads = -1 }},
		{"empty data dir", func(c *AppConfig) { c.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("listen: \":9999\"\npollInterval: 20ms\nredis:\n  addr: \"localhost:6379\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// ENV must win over the file.
	t.Setenv("KSURCT_LISTEN", ":7000")

	cfg, err := NewLoader(path, "test").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("env should win over file: listen = %q", cfg.ListenAddr)
	}
	if cfg.PollInterval != 20*time.Millisecond {
		t.Errorf("file should win over default: poll = %s", cfg.PollInterval)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.RedisAddr)
	}
	// Untouched fields keep defaults.
	if cfg.SnapshotHz != Defaults().SnapshotHz {
		t.Errorf("snapshot rate = %v, want default", cfg.SnapshotHz)
	}
}

func TestLoaderMissingFileIsOptional(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"), "test").Load()
	if err != nil {
		t.Fatalf("Load with absent file: %v", err)
	}
	if cfg.ListenAddr != Defaults().ListenAddr {
		t.Errorf("listen = %q, want default", cfg.ListenAddr)
	}
}

func TestLoaderRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(path, "test").Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnsureDataDir(t *testing.T) {
	cfg := Defaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "data")
	if err := EnsureDataDir(cfg); err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	info, err := os.Stat(cfg.DataDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("data dir not created: %v", err)
	}
}
