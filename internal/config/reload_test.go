package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pollInterval: 10ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path, "test")
	reloaded := make(chan AppConfig, 1)
	w := NewWatcher(loader, path, func(cfg AppConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to arm before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("pollInterval: 25ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.PollInterval != 25*time.Millisecond {
			t.Fatalf("reloaded poll interval = %s, want 25ms", cfg.PollInterval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestWatcherKeepsOldConfigOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pollInterval: 10ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path, "test")
	reloaded := make(chan AppConfig, 1)
	w := NewWatcher(loader, path, func(cfg AppConfig) { reloaded <- cfg })
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("pollInterval: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("broken file must not trigger reload, got %+v", cfg)
	case <-time.After(500 * time.Millisecond):
		// expected: no callback
	}
}
