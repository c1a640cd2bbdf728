package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

type staticChecker struct {
	name   string
	result CheckResult
}

func (s staticChecker) Name() string                      { return s.name }
func (s staticChecker) Check(context.Context) CheckResult { return s.result }

func TestReadyAggregation(t *testing.T) {
	tests := []struct {
		name      string
		results   []CheckResult
		wantReady bool
		want      Status
	}{
		{
			name:      "no checkers",
			wantReady: true,
			want:      StatusHealthy,
		},
		{
			name:      "all healthy",
			results:   []CheckResult{{Status: StatusHealthy}, {Status: StatusHealthy}},
			wantReady: true,
			want:      StatusHealthy,
		},
		{
			name:      "degraded stays ready",
			results:   []CheckResult{{Status: StatusHealthy}, {Status: StatusDegraded}},
			wantReady: true,
			want:      StatusDegraded,
		},
		{
			name:      "unhealthy wins",
			results:   []CheckResult{{Status: StatusDegraded}, {Status: StatusUnhealthy}},
			wantReady: false,
			want:      StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test")
			for i, r := range tt.results {
				m.RegisterChecker(staticChecker{name: string(rune('a' + i)), result: r})
			}
			resp := m.Ready(context.Background())
			if resp.Ready != tt.wantReady {
				t.Errorf("Ready = %v, want %v", resp.Ready, tt.wantReady)
			}
			if resp.Status != tt.want {
				t.Errorf("Status = %s, want %s", resp.Status, tt.want)
			}
		})
	}
}

func TestServeHealthAlways200(t *testing.T) {
	m := NewManager("1.2.3")
	m.RegisterChecker(staticChecker{name: "broken", result: CheckResult{Status: StatusUnhealthy, Error: "down"}})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q", resp.Version)
	}
	if resp.Checks != nil {
		t.Error("non-verbose health must omit checks")
	}

	rec = httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest("GET", "/healthz?verbose=true", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusUnhealthy {
		t.Errorf("verbose status = %s, want unhealthy", resp.Status)
	}
	if _, ok := resp.Checks["broken"]; !ok {
		t.Error("verbose health must include checks")
	}
}

func TestServeReady503(t *testing.T) {
	m := NewManager("test")
	m.RegisterChecker(staticChecker{name: "dep", result: CheckResult{Status: StatusUnhealthy}})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestControllerChecker(t *testing.T) {
	n := 0
	c := NewControllerChecker(func() int { return n }, false)
	if got := c.Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("zero controllers optional = %s, want degraded", got)
	}
	n = 2
	if got := c.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("two controllers = %s, want healthy", got)
	}

	strict := NewControllerChecker(func() int { return 0 }, true)
	if got := strict.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("zero controllers required = %s, want unhealthy", got)
	}
}

func TestDataDirChecker(t *testing.T) {
	c := NewDataDirChecker(t.TempDir())
	if got := c.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("temp dir = %s, want healthy", got)
	}
	c = NewDataDirChecker("/definitely/not/a/dir")
	if got := c.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("missing dir = %s, want unhealthy", got)
	}
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("redis", false, func(context.Context) error { return nil })
	if got := ok.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("ping ok = %s", got)
	}

	fail := NewPingChecker("redis", false, func(context.Context) error { return errors.New("refused") })
	if got := fail.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("ping fail required = %s", got)
	}

	soft := NewPingChecker("redis", true, func(context.Context) error { return errors.New("refused") })
	if got := soft.Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("ping fail optional = %s", got)
	}
}

func TestLastPollChecker(t *testing.T) {
	last := time.Time{}
	c := NewLastPollChecker(func() time.Time { return last }, 100*time.Millisecond)
	if got := c.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("zero time = %s, want unhealthy", got)
	}
	last = time.Now()
	if got := c.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("fresh poll = %s, want healthy", got)
	}
	last = time.Now().Add(-time.Second)
	if got := c.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("stale poll = %s, want unhealthy", got)
	}
}
