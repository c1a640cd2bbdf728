// Package daemon manages the process lifecycle: HTTP listeners,
// background runners and ordered shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ksurct/common/internal/log"
)

// ErrManagerNotStarted is returned by Shutdown before Start.
var ErrManagerNotStarted = errors.New("manager not started")

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 0 // long-lived SSE streams; handlers bound themselves
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// ShutdownHook performs cleanup during graceful shutdown. Hooks run in
// reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Runner is a long-running background task. Returning a non-context
// error brings the daemon down.
type Runner func(ctx context.Context) error

// Manager manages the daemon lifecycle.
type Manager struct {
	listenAddr     string
	metricsAddr    string
	apiHandler     http.Handler
	metricsHandler http.Handler

	apiServer     *http.Server
	metricsServer *http.Server

	runners       []namedRunner
	shutdownHooks []namedHook
	runnerCancel  context.CancelFunc

	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

type namedRunner struct {
	name string
	run  Runner
}

// NewManager creates a daemon manager serving the API handler on
// listenAddr and, when metricsAddr is non-empty, the metrics handler
// on its own listener.
func NewManager(listenAddr, metricsAddr string, apiHandler, metricsHandler http.Handler) (*Manager, error) {
	if apiHandler == nil {
		return nil, fmt.Errorf("api handler is nil")
	}
	if metricsAddr != "" && metricsHandler == nil {
		return nil, fmt.Errorf("metrics handler is nil")
	}
	return &Manager{
		listenAddr:     listenAddr,
		metricsAddr:    metricsAddr,
		apiHandler:     apiHandler,
		metricsHandler: metricsHandler,
		logger:         log.WithComponent("manager"),
	}, nil
}

// RegisterRunner adds a background task started with the servers.
func (m *Manager) RegisterRunner(name string, run Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners = append(m.runners, namedRunner{name: name, run: run})
}

// RegisterShutdownHook registers a cleanup function, executed LIFO.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

// Start brings up all servers and runners and blocks until ctx is
// cancelled or a component fails.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	runnerCtx, cancel := context.WithCancel(ctx)
	m.runnerCancel = cancel
	runners := m.runners
	m.mu.Unlock()

	m.logger.Info().
		Str("listen", m.listenAddr).
		Str("metrics", m.metricsAddr).
		Msg("starting daemon manager")

	errChan := make(chan error, len(runners)+2)

	if m.metricsAddr != "" {
		m.startMetricsServer(errChan)
	}
	for _, r := range runners {
		go func() {
			if err := r.run(runnerCtx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error().Err(err).Str("runner", r.name).Msg("runner failed")
				errChan <- fmt.Errorf("runner %s: %w", r.name, err)
			}
		}()
	}
	m.startAPIServer(errChan)

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("component error, initiating shutdown")
		// Detached but bounded so shutdown completes even if the
		// parent is already cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("component error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	}
}

func (m *Manager) startAPIServer(errChan chan<- error) {
	m.apiServer = &http.Server{
		Addr:              m.listenAddr,
		Handler:           m.apiHandler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout / 2,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		m.logger.Info().Str("addr", m.listenAddr).Msg("API server listening")
		if err := m.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str(log.FieldEvent, "api.server.failed").Msg("API server failed")
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()
}

func (m *Manager) startMetricsServer(errChan chan<- error) {
	m.metricsServer = &http.Server{
		Addr:              m.metricsAddr,
		Handler:           m.metricsHandler,
		ReadHeaderTimeout: readTimeout / 2,
	}

	go func() {
		m.logger.Info().Str("addr", m.metricsAddr).Msg("metrics server listening")
		if err := m.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str(log.FieldEvent, "metrics.server.failed").Msg("metrics server failed")
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
}

// Shutdown stops servers, cancels runners and executes hooks (LIFO).
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	cancel := m.runnerCancel
	m.mu.Unlock()

	m.logger.Info().Msg("shutting down daemon manager")

	shutdownCtx, cancelTimeout := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancelTimeout()

	var errs []error

	if m.apiServer != nil {
		if err := m.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}
	if m.metricsServer != nil {
		if err := m.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if cancel != nil {
		cancel()
	}

	m.logger.Debug().Int("hooks", len(m.shutdownHooks)).Msg("executing shutdown hooks")
	for i := len(m.shutdownHooks) - 1; i >= 0; i-- {
		hook := m.shutdownHooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook completed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}
