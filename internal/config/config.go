// Package config loads daemon configuration with precedence
// ENV > YAML file > defaults, the same layering the rest of the
// KSURCT tooling expects.
package config

import (
	"fmt"
	"net"
	"os"
	"time"
)

// AppConfig is the resolved daemon configuration.
type AppConfig struct {
	// API
	ListenAddr string
	APIToken   string
	// AuthAnonymous opens mutating endpoints without a token. Mutating
	// requests fail closed when no token is set and this is false.
	AuthAnonymous bool
	// RateLimitRPM bounds API requests per client IP per minute.
	RateLimitRPM int

	// Metrics; empty disables the metrics listener.
	MetricsAddr string

	// Input
	DeviceGlob string
	// SimPads adds that many simulated controllers. Useful on dev
	// machines without hardware.
	SimPads      int
	PollInterval time.Duration
	// SnapshotHz caps the per-subscriber snapshot delivery rate.
	SnapshotHz float64

	// Storage
	DataDir string

	// Redis publisher; empty addr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// Tracing
	TraceEnabled  bool
	TraceExporter string
	TraceEndpoint string
	TraceSampling float64

	// Logging
	LogLevel   string
	LogService string

	Version string
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:    ":8787",
		RateLimitRPM:  600,
		MetricsAddr:   "",
		DeviceGlob:    "/dev/input/js*",
		SimPads:       0,
		PollInterval:  10 * time.Millisecond,
		SnapshotHz:    60,
		DataDir:       "data",
		RedisTTL:      5 * time.Second,
		TraceExporter: "grpc",
		TraceSampling: 1.0,
		LogLevel:      "info",
		LogService:    "padd",
	}
}

// FromEnv overlays environment variables onto cfg.
func FromEnv(cfg AppConfig) AppConfig {
	cfg.ListenAddr = ParseString("KSURCT_LISTEN", cfg.ListenAddr)
	cfg.APIToken = ParseString("KSURCT_API_TOKEN", cfg.APIToken)
	cfg.AuthAnonymous = ParseBool("KSURCT_AUTH_ANONYMOUS", cfg.AuthAnonymous)
	cfg.RateLimitRPM = ParseInt("KSURCT_RATE_LIMIT_RPM", cfg.RateLimitRPM)
	cfg.MetricsAddr = ParseString("KSURCT_METRICS_ADDR", cfg.MetricsAddr)
	cfg.DeviceGlob = ParseString("KSURCT_DEVICE_GLOB", cfg.DeviceGlob)
	cfg.SimPads = ParseInt("KSURCT_SIM_PADS", cfg.SimPads)
	cfg.PollInterval = ParseDuration("KSURCT_POLL_INTERVAL", cfg.PollInterval)
	cfg.SnapshotHz = ParseFloat("KSURCT_SNAPSHOT_HZ", cfg.SnapshotHz)
	cfg.DataDir = ParseString("KSURCT_DATA", cfg.DataDir)
	cfg.RedisAddr = ParseString("KSURCT_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = ParseString("KSURCT_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseInt("KSURCT_REDIS_DB", cfg.RedisDB)
	cfg.RedisTTL = ParseDuration("KSURCT_REDIS_TTL", cfg.RedisTTL)
	cfg.TraceEnabled = ParseBool("KSURCT_TRACE_ENABLED", cfg.TraceEnabled)
	cfg.TraceExporter = ParseString("KSURCT_TRACE_EXPORTER", cfg.TraceExporter)
	cfg.TraceEndpoint = ParseString("KSURCT_TRACE_ENDPOINT", cfg.TraceEndpoint)
	cfg.TraceSampling = ParseFloat("KSURCT_TRACE_SAMPLING", cfg.TraceSampling)
	cfg.LogLevel = ParseString("KSURCT_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("KSURCT_LOG_SERVICE", cfg.LogService)
	return cfg
}

// Validate rejects configurations the daemon cannot run with.
func Validate(cfg AppConfig) error {
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", cfg.ListenAddr, err)
	}
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", cfg.MetricsAddr, err)
		}
	}
	if cfg.PollInterval < time.Millisecond || cfg.PollInterval > time.Second {
		return fmt.Errorf("poll interval %s out of range [1ms, 1s]", cfg.PollInterval)
	}
	if cfg.SnapshotHz <= 0 || cfg.SnapshotHz > 1000 {
		return fmt.Errorf("snapshot rate %v out of range (0, 1000]", cfg.SnapshotHz)
	}
	if cfg.SimPads < 0 {
		return fmt.Errorf("sim pad count %d is negative", cfg.SimPads)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data dir is empty")
	}
	return nil
}

// EnsureDataDir creates the data directory if missing and verifies it
// is writable.
func EnsureDataDir(cfg AppConfig) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	probe, err := os.CreateTemp(cfg.DataDir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("data dir %s not writable: %w", cfg.DataDir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
