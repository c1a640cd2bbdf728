// Package health provides liveness and readiness checks for the
// daemon, suitable for Docker HEALTHCHECK and Kubernetes probes.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ksurct/common/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager manages health and readiness checks
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

func (m *Manager) run(ctx context.Context) (map[string]CheckResult, Status, bool) {
	checks := make(map[string]CheckResult, len(m.checkers))
	status := StatusHealthy
	ready := true
	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		checks[checker.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
			ready = false
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}
	return checks, status, ready
}

// Health performs a liveness check. The process being able to answer
// is the signal; component checks are included only when verbose.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if verbose && len(m.checkers) > 0 {
		checks, status, _ := m.run(ctx)
		resp.Checks = checks
		resp.Status = status
	}
	return resp
}

// Ready performs a readiness check across all registered checkers.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}
	if len(m.checkers) == 0 {
		return resp
	}
	checks, status, ready := m.run(ctx)
	resp.Checks = checks
	resp.Status = status
	resp.Ready = ready
	return resp
}

// ServeHealth handles HTTP liveness requests. Always 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "health")
	verbose := r.URL.Query().Get("verbose") == "true"

	resp := m.Health(r.Context(), verbose)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "health.encode_error").Msg("failed to encode health response")
	}
}

// ServeReady handles HTTP readiness requests. 503 when not ready.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "readiness")

	resp := m.Ready(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if resp.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "readiness.encode_error").Msg("failed to encode readiness response")
	}
}

// ControllerChecker reports on the number of connected controllers.
type ControllerChecker struct {
	count func() int
	// requireOne makes zero controllers unhealthy instead of degraded.
	requireOne bool
}

// NewControllerChecker creates a checker over a live controller count.
func NewControllerChecker(count func() int, requireOne bool) *ControllerChecker {
	return &ControllerChecker{count: count, requireOne: requireOne}
}

func (c *ControllerChecker) Name() string { return "controllers" }

func (c *ControllerChecker) Check(ctx context.Context) CheckResult {
	n := c.count()
	if n > 0 {
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d connected", n)}
	}
	if c.requireOne {
		return CheckResult{Status: StatusUnhealthy, Message: "no controllers connected"}
	}
	return CheckResult{Status: StatusDegraded, Message: "no controllers connected"}
}

// DataDirChecker checks that the data directory exists and is a directory.
type DataDirChecker struct {
	path string
}

// NewDataDirChecker creates a checker for the daemon data directory.
func NewDataDirChecker(path string) *DataDirChecker {
	return &DataDirChecker{path: path}
}

func (c *DataDirChecker) Name() string { return "data_dir" }

func (c *DataDirChecker) Check(ctx context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected directory"}
	}
	return CheckResult{Status: StatusHealthy, Message: "data dir present"}
}

// PingChecker wraps any ping-style dependency probe (Redis, stores).
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
	// optional marks ping failures degraded instead of unhealthy.
	optional bool
}

// NewPingChecker creates a checker around a ping function.
func NewPingChecker(name string, optional bool, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping, optional: optional}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		status := StatusUnhealthy
		if c.optional {
			status = StatusDegraded
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// LastPollChecker verifies the poll loop is alive.
type LastPollChecker struct {
	lastPoll func() time.Time
	maxAge   time.Duration
}

// NewLastPollChecker creates a checker over the hub's last poll time.
func NewLastPollChecker(lastPoll func() time.Time, maxAge time.Duration) *LastPollChecker {
	return &LastPollChecker{lastPoll: lastPoll, maxAge: maxAge}
}

func (c *LastPollChecker) Name() string { return "last_poll" }

func (c *LastPollChecker) Check(ctx context.Context) CheckResult {
	last := c.lastPoll()
	if last.IsZero() {
		return CheckResult{Status: StatusUnhealthy, Message: "no poll completed yet"}
	}
	if age := time.Since(last); age > c.maxAge {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("last poll %s ago", age.Round(time.Millisecond)),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "poll loop alive"}
}
