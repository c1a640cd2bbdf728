// Package publish pushes controller snapshots to Redis so other
// processes on the robot (vision, navigation, telemetry uplink) can
// consume input without talking to the daemon's HTTP API.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ksurct/common/gamepad"
	"github.com/ksurct/common/internal/metrics"
)

// Channel and key layout:
//   - PUBLISH ksurct:pad:<controller>      (JSON Snapshot, fan-out)
//   - SET ksurct:pad:<controller>:latest   (JSON Snapshot, TTL'd)
//
// The latest-key lets late joiners read current state without waiting
// for the next snapshot; the TTL makes a dead daemon visible.
const keyPrefix = "ksurct:pad:"

// Config holds Redis connection configuration.
type Config struct {
	Addr     string        // Redis server address (host:port)
	Password string        // Redis password (optional)
	DB       int           // Redis database number
	TTL      time.Duration // Lifetime of the latest-snapshot key
}

// Publisher is a Redis-backed snapshot publisher.
type Publisher struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	stats  struct {
		published atomic.Int64
		failed    atomic.Int64
	}
}

// New creates a snapshot publisher and verifies the connection.
func New(config Config, logger zerolog.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis")

	return &Publisher{client: client, ttl: config.TTL, logger: logger}, nil
}

// Publish pushes one snapshot. Failures are logged and counted but
// never returned as fatal: the robot must keep driving when the
// telemetry side is down.
func (p *Publisher) Publish(ctx context.Context, snap gamepad.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		p.logger.Warn().Err(err).Str("controller", snap.Controller).Msg("snapshot marshal failed")
		p.fail()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	key := keyPrefix + snap.Controller
	pipe := p.client.Pipeline()
	pipe.Publish(ctx, key, data)
	pipe.Set(ctx, key+":latest", data, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Warn().Err(err).Str("controller", snap.Controller).Msg("redis publish failed")
		p.fail()
		return
	}
	p.stats.published.Add(1)
}

// Latest reads the most recent snapshot for a controller, if present.
func (p *Publisher) Latest(ctx context.Context, controller string) (gamepad.Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := p.client.Get(ctx, keyPrefix+controller+":latest").Bytes()
	if err == redis.Nil {
		return gamepad.Snapshot{}, false, nil
	}
	if err != nil {
		return gamepad.Snapshot{}, false, err
	}

	var snap gamepad.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return gamepad.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (p *Publisher) fail() {
	p.stats.failed.Add(1)
	metrics.PublishFailures.Inc()
}

// Stats reports publish counters since startup.
func (p *Publisher) Stats() (published, failed int64) {
	return p.stats.published.Load(), p.stats.failed.Load()
}

// HealthCheck checks if Redis is available.
func (p *Publisher) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
