package record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/telemetry"
)

// ExportDoc is the on-disk JSON layout of an exported recording.
type ExportDoc struct {
	Meta   Meta    `json:"meta"`
	Frames []Frame `json:"frames"`
}

// Export writes a recording as a single JSON document at path.
// The write is atomic: readers see either the old file or the
// complete new one, never a partial export.
func Export(ctx context.Context, store *FrameStore, catalog *Catalog, id, path string) error {
	ctx, span := telemetry.Tracer("record").Start(ctx, "record.export")
	span.SetAttributes(attribute.String("recording.id", id))
	defer span.End()

	logger := log.WithComponent("export")

	meta, err := catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	frames, err := store.Frames(ctx, id)
	if err != nil {
		return fmt.Errorf("read frames: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending export file: %w", err)
	}
	defer func() {
		// renameio removes the temp file if not committed.
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending export file")
		}
	}()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportDoc{Meta: meta, Frames: frames}); err != nil {
		return fmt.Errorf("write export data: %w", err)
	}

	// CloseAtomicallyReplace: fsync + rename (durable + atomic)
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace export file: %w", err)
	}

	logger.Info().
		Str(log.FieldRecordingID, id).
		Str(log.FieldPath, path).
		Int("frames", len(frames)).
		Str(log.FieldEvent, "recording.exported").
		Msg("recording exported")
	return nil
}
