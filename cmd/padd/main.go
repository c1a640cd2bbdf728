// Command padd is the KSURCT pad daemon: it polls game controllers,
// serves their state over HTTP/SSE, records input sessions and
// publishes snapshots to Redis for other robot processes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ksurct/common/gamepad"
	"github.com/ksurct/common/gamepad/joydev"
	"github.com/ksurct/common/internal/api"
	"github.com/ksurct/common/internal/config"
	"github.com/ksurct/common/internal/daemon"
	"github.com/ksurct/common/internal/health"
	"github.com/ksurct/common/internal/hub"
	ksulog "github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/publish"
	"github.com/ksurct/common/internal/record"
	"github.com/ksurct/common/internal/telemetry"
)

var (
	version   = "v1.2.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	simPads := flag.Int("sim", 0, "add N simulated controllers (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	ksulog.Configure(ksulog.Config{
		Level:   "info",
		Service: "padd",
		Version: version,
	})
	logger := ksulog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config path: explicit via --config, otherwise auto-load
	// ${KSURCT_DATA}/config.yaml if present.
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		dataDir := strings.TrimSpace(config.ParseString("KSURCT_DATA", "data"))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
		}
	}

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(ksulog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}
	if *simPads > 0 {
		cfg.SimPads = *simPads
	}

	ksulog.Configure(ksulog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if effectiveConfigPath != "" {
		logger.Info().
			Str(ksulog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str(ksulog.FieldPath, effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(ksulog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := config.EnsureDataDir(cfg); err != nil {
		logger.Fatal().Err(err).Str(ksulog.FieldEvent, "startup.check_failed").Msg("data dir not usable")
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Msg("daemon stopped")
}

func run(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) error {
	// Tracing first so later components pick up the global provider.
	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TraceEnabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    config.ParseString("KSURCT_ENV", "bench"),
		ExporterType:   cfg.TraceExporter,
		Endpoint:       cfg.TraceEndpoint,
		SamplingRate:   cfg.TraceSampling,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Storage.
	frames, err := record.OpenFrameStore(filepath.Join(cfg.DataDir, "frames"))
	if err != nil {
		return fmt.Errorf("open frame store: %w", err)
	}
	catalog, err := record.NewCatalog(filepath.Join(cfg.DataDir, "recordings.db"))
	if err != nil {
		_ = frames.Close()
		return fmt.Errorf("open catalog: %w", err)
	}
	recorder := record.NewRecorder(frames, catalog)

	// Optional Redis publisher.
	var publisher *publish.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = publish.New(publish.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		}, ksulog.WithComponent("publish"))
		if err != nil {
			// The robot must drive without telemetry; degrade, don't die.
			logger.Warn().Err(err).Msg("redis unavailable, snapshot publishing disabled")
			publisher = nil
		}
	}

	var hubPublisher hub.Publisher
	if publisher != nil {
		hubPublisher = publisher
	}
	padHub := hub.New(hub.Options{
		PollInterval: cfg.PollInterval,
		SnapshotHz:   cfg.SnapshotHz,
	}, recorder, hubPublisher)

	attachControllers(cfg, padHub, logger)

	// Health and readiness.
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewDataDirChecker(cfg.DataDir))
	hm.RegisterChecker(health.NewControllerChecker(padHub.Connected, false))
	hm.RegisterChecker(health.NewLastPollChecker(padHub.LastPoll, 20*cfg.PollInterval))
	if publisher != nil {
		hm.RegisterChecker(health.NewPingChecker("redis", true, publisher.HealthCheck))
	}

	apiServer := api.NewServer(cfg, padHub, recorder, frames, catalog, hm)

	manager, err := daemon.NewManager(cfg.ListenAddr, cfg.MetricsAddr, apiServer.Router(), promhttp.Handler())
	if err != nil {
		// Shutdown hooks are not registered yet; close by hand.
		if publisher != nil {
			_ = publisher.Close()
		}
		_ = catalog.Close()
		_ = frames.Close()
		_ = tracer.Shutdown(ctx)
		return err
	}
	manager.RegisterRunner("hub", padHub.Run)
	if effective := effectiveWatchPath(cfg); effective != "" {
		loader := config.NewLoader(effective, cfg.Version)
		watcher := config.NewWatcher(loader, effective, func(next config.AppConfig) {
			logger.Info().
				Str(ksulog.FieldEvent, "config.reloaded").
				Msg("configuration file changed; most settings apply after restart")
		})
		manager.RegisterRunner("config-watcher", watcher.Run)
	}

	manager.RegisterShutdownHook("tracer", tracer.Shutdown)
	manager.RegisterShutdownHook("catalog", func(context.Context) error { return catalog.Close() })
	manager.RegisterShutdownHook("frame-store", func(context.Context) error { return frames.Close() })
	if publisher != nil {
		manager.RegisterShutdownHook("publisher", func(context.Context) error { return publisher.Close() })
	}
	manager.RegisterShutdownHook("recorder", func(ctx context.Context) error {
		if _, active := recorder.Active(); !active {
			return nil
		}
		_, err := recorder.Stop(ctx)
		return err
	})

	logger.Info().
		Str("listen", cfg.ListenAddr).
		Str("metrics", cfg.MetricsAddr).
		Int("controllers", padHub.Connected()).
		Str(ksulog.FieldEvent, "daemon.starting").
		Msg("padd starting")

	return manager.Start(ctx)
}

// effectiveWatchPath returns the config file to watch for reloads.
func effectiveWatchPath(cfg config.AppConfig) string {
	path := filepath.Join(cfg.DataDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// attachControllers opens every joystick matching the device glob and
// adds the configured number of simulated pads.
func attachControllers(cfg config.AppConfig, padHub *hub.Hub, logger zerolog.Logger) {
	paths, err := joydev.Discover(cfg.DeviceGlob)
	if err != nil {
		logger.Warn().Err(err).Str("glob", cfg.DeviceGlob).Msg("device discovery failed")
	}
	for i, path := range paths {
		dev, err := joydev.Open(path)
		if err != nil {
			logger.Warn().Err(err).Str(ksulog.FieldDevice, path).Msg("failed to open joystick")
			continue
		}
		id := fmt.Sprintf("pad%d", i)
		padHub.Add(id, gamepad.NewController(dev, gamepad.XboxMapping()))
	}

	for i := 0; i < cfg.SimPads; i++ {
		id := fmt.Sprintf("sim%d", i)
		padHub.Add(id, gamepad.NewController(gamepad.NewSim(id), gamepad.XboxMapping()))
	}

	if padHub.Connected() == 0 {
		logger.Warn().
			Str("glob", cfg.DeviceGlob).
			Msg("no controllers attached; daemon will serve an empty roster")
	}
}
