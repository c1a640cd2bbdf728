package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML schema. Pointer fields distinguish "absent"
// from zero so the file only overrides what it sets.
type fileConfig struct {
	Listen        *string  `yaml:"listen"`
	APIToken      *string  `yaml:"apiToken"`
	AuthAnonymous *bool    `yaml:"authAnonymous"`
	RateLimitRPM  *int     `yaml:"rateLimitRpm"`
	MetricsAddr   *string  `yaml:"metricsAddr"`
	DeviceGlob    *string  `yaml:"deviceGlob"`
	SimPads       *int     `yaml:"simPads"`
	PollInterval  *string  `yaml:"pollInterval"`
	SnapshotHz    *float64 `yaml:"snapshotHz"`
	DataDir       *string  `yaml:"dataDir"`

	Redis struct {
		Addr     *string `yaml:"addr"`
		Password *string `yaml:"password"`
		DB       *int    `yaml:"db"`
		TTL      *string `yaml:"ttl"`
	} `yaml:"redis"`

	Trace struct {
		Enabled  *bool    `yaml:"enabled"`
		Exporter *string  `yaml:"exporter"`
		Endpoint *string  `yaml:"endpoint"`
		Sampling *float64 `yaml:"sampling"`
	} `yaml:"trace"`

	Log struct {
		Level   *string `yaml:"level"`
		Service *string `yaml:"service"`
	} `yaml:"log"`
}

// mergeFile overlays a parsed file onto cfg.
func mergeFile(cfg AppConfig, fc fileConfig) (AppConfig, error) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&cfg.ListenAddr, fc.Listen)
	setStr(&cfg.APIToken, fc.APIToken)
	if fc.AuthAnonymous != nil {
		cfg.AuthAnonymous = *fc.AuthAnonymous
	}
	setInt(&cfg.RateLimitRPM, fc.RateLimitRPM)
	setStr(&cfg.MetricsAddr, fc.MetricsAddr)
	setStr(&cfg.DeviceGlob, fc.DeviceGlob)
	setInt(&cfg.SimPads, fc.SimPads)
	if fc.PollInterval != nil {
		d, err := time.ParseDuration(*fc.PollInterval)
		if err != nil {
			return cfg, fmt.Errorf("pollInterval: %w", err)
		}
		cfg.PollInterval = d
	}
	if fc.SnapshotHz != nil {
		cfg.SnapshotHz = *fc.SnapshotHz
	}
	setStr(&cfg.DataDir, fc.DataDir)

	setStr(&cfg.RedisAddr, fc.Redis.Addr)
	setStr(&cfg.RedisPassword, fc.Redis.Password)
	setInt(&cfg.RedisDB, fc.Redis.DB)
	if fc.Redis.TTL != nil {
		d, err := time.ParseDuration(*fc.Redis.TTL)
		if err != nil {
			return cfg, fmt.Errorf("redis.ttl: %w", err)
		}
		cfg.RedisTTL = d
	}

	if fc.Trace.Enabled != nil {
		cfg.TraceEnabled = *fc.Trace.Enabled
	}
	setStr(&cfg.TraceExporter, fc.Trace.Exporter)
	setStr(&cfg.TraceEndpoint, fc.Trace.Endpoint)
	if fc.Trace.Sampling != nil {
		cfg.TraceSampling = *fc.Trace.Sampling
	}

	setStr(&cfg.LogLevel, fc.Log.Level)
	setStr(&cfg.LogService, fc.Log.Service)
	return cfg, nil
}

// Loader resolves the effective configuration.
type Loader struct {
	path    string
	version string
}

// NewLoader returns a loader for the optional config file at path.
func NewLoader(path, version string) *Loader {
	return &Loader{path: path, version: version}
}

// Load resolves defaults, then the file (if present), then the
// environment, and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Optional file; fall through to env.
		case err != nil:
			return cfg, fmt.Errorf("read config file %s: %w", l.path, err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", l.path, err)
			}
			if cfg, err = mergeFile(cfg, fc); err != nil {
				return cfg, fmt.Errorf("config file %s: %w", l.path, err)
			}
		}
	}

	cfg = FromEnv(cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
