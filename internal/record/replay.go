package record

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ksurct/common/internal/telemetry"
)

// Replay streams a recording's frames to fn, sleeping between frames
// to reproduce the original capture timing. Speed scales playback:
// 2.0 plays twice as fast, 0 or negative disables delays entirely.
// A consumer error aborts playback.
func Replay(ctx context.Context, store *FrameStore, id string, speed float64, fn func(Frame) error) error {
	ctx, span := telemetry.Tracer("record").Start(ctx, "record.replay")
	span.SetAttributes(attribute.String("recording.id", id), attribute.Float64("replay.speed", speed))
	defer span.End()

	if _, err := store.GetMeta(ctx, id); err != nil {
		return err
	}
	// Load up front so the store transaction is not held across sleeps.
	frames, err := store.Frames(ctx, id)
	if err != nil {
		return err
	}

	start := time.Now()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for _, frame := range frames {
		if speed > 0 {
			due := start.Add(time.Duration(float64(frame.Offset) / speed))
			if wait := time.Until(due); wait > 0 {
				timer.Reset(wait)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		if err := fn(frame); err != nil {
			return fmt.Errorf("replay frame %d: %w", frame.Seq, err)
		}
	}
	return nil
}
