// Package metrics exposes Prometheus instrumentation for the input
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts device events by controller and type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ksurct_pad_events_total",
		Help: "Total device events processed by controller and event type",
	}, []string{"controller", "type"})

	// PollDuration tracks one full poll cycle across all controllers.
	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ksurct_pad_poll_duration_seconds",
		Help:    "Duration of one poll cycle",
		Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	// ControllersConnected is the number of controllers currently polled.
	ControllersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ksurct_pad_controllers_connected",
		Help: "Number of connected controllers",
	})

	// SnapshotsTotal counts snapshot deliveries by outcome.
	SnapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ksurct_pad_snapshots_total",
		Help: "Snapshot fan-out deliveries by outcome (delivered, dropped)",
	}, []string{"outcome"})

	// PublishFailures counts failed Redis publishes.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ksurct_pad_publish_failures_total",
		Help: "Failed snapshot publishes to Redis",
	})

	// RecordingFrames counts frames appended to the active recording.
	RecordingFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ksurct_pad_recording_frames_total",
		Help: "Frames appended to recordings",
	})

	// PollErrors counts poll failures by controller.
	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ksurct_pad_poll_errors_total",
		Help: "Poll failures by controller",
	}, []string{"controller"})
)

// IncEvent records one processed device event.
func IncEvent(controller, eventType string) {
	EventsTotal.WithLabelValues(controller, eventType).Inc()
}

// ObservePoll records the duration of one poll cycle.
func ObservePoll(d time.Duration) {
	PollDuration.Observe(d.Seconds())
}

// IncSnapshot records a snapshot delivery outcome.
func IncSnapshot(delivered bool) {
	outcome := "dropped"
	if delivered {
		outcome = "delivered"
	}
	SnapshotsTotal.WithLabelValues(outcome).Inc()
}

// IncPollError records a failed poll for a controller.
func IncPollError(controller string) {
	PollErrors.WithLabelValues(controller).Inc()
}
