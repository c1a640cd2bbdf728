package record

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ksurct/common/gamepad"
	"github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/metrics"
)

// Recorder captures controller snapshots into the frame store. At most
// one recording is active at a time.
type Recorder struct {
	store   *FrameStore
	catalog *Catalog

	mu      sync.Mutex
	active  *Meta
	started time.Time
	seq     uint64
}

// NewRecorder creates a recorder over the given store and catalog.
func NewRecorder(store *FrameStore, catalog *Catalog) *Recorder {
	return &Recorder{store: store, catalog: catalog}
}

// Start begins a new recording for the named controller.
func (r *Recorder) Start(ctx context.Context, controller string) (Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return Meta{}, ErrAlreadyRecording
	}

	meta := Meta{
		ID:         uuid.NewString(),
		Controller: controller,
		StartedAt:  time.Now(),
		Status:     StatusRecording,
	}
	if err := r.catalog.Insert(ctx, meta); err != nil {
		return Meta{}, err
	}
	if err := r.store.PutMeta(ctx, meta); err != nil {
		return Meta{}, err
	}

	r.active = &meta
	r.started = meta.StartedAt
	r.seq = 0

	logger := log.WithComponent("recorder")
	logger.Info().
		Str(log.FieldRecordingID, meta.ID).
		Str(log.FieldController, controller).
		Str(log.FieldEvent, "recording.started").
		Msg("recording started")
	return meta, nil
}

// Append captures one snapshot into the active recording. A no-op when
// nothing is recording, so the hub can call it unconditionally.
func (r *Recorder) Append(ctx context.Context, snap gamepad.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil || r.active.Controller != snap.Controller {
		return nil
	}

	frame := Frame{
		Seq:      r.seq,
		Offset:   time.Since(r.started),
		Snapshot: snap,
	}
	if err := r.store.AppendFrame(ctx, r.active.ID, frame); err != nil {
		return err
	}
	r.seq++
	metrics.RecordingFrames.Inc()
	return nil
}

// Stop ends the active recording and finalizes its catalog entry.
func (r *Recorder) Stop(ctx context.Context) (Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return Meta{}, ErrNoActiveRecording
	}

	meta := *r.active
	stopped := time.Now()
	meta.StoppedAt = &stopped
	meta.Frames = r.seq
	meta.Status = StatusDone

	if err := r.catalog.Finish(ctx, meta.ID, stopped, r.seq); err != nil {
		return Meta{}, err
	}
	if err := r.store.PutMeta(ctx, meta); err != nil {
		return Meta{}, err
	}

	r.active = nil
	logger := log.WithComponent("recorder")
	logger.Info().
		Str(log.FieldRecordingID, meta.ID).
		Uint64(log.FieldFrames, meta.Frames).
		Str(log.FieldEvent, "recording.stopped").
		Msg("recording stopped")
	return meta, nil
}

// Active reports the active recording ID, if any.
func (r *Recorder) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return "", false
	}
	return r.active.ID, true
}
