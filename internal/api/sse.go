package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ksurct/common/internal/hub"
	"github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/record"
)

func sseHeaders(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported",
			"response writer does not support flushing")
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return flusher, true
}

func sseSend(w http.ResponseWriter, flusher http.Flusher, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// handleControllerEvents streams live snapshots of one controller as
// server-sent events until the client disconnects.
func (s *Server) handleControllerEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.hub.Snapshot(id); errors.Is(err, hub.ErrUnknownController) {
		writeNotFound(w, "unknown controller "+id)
		return
	}

	ch, cancel := s.hub.Subscribe(id)
	defer cancel()

	flusher, ok := sseHeaders(w)
	if !ok {
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "sse")
	logger.Debug().Str(log.FieldController, id).Msg("snapshot stream opened")
	defer logger.Debug().Str(log.FieldController, id).Msg("snapshot stream closed")

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-ch:
			if !open {
				return
			}
			if err := sseSend(w, flusher, "snapshot", snap); err != nil {
				return
			}
		}
	}
}

// handleReplay streams a stored recording as server-sent events with
// the original capture timing. ?speed=N scales playback.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	speed := 1.0
	if raw := r.URL.Query().Get("speed"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeBadRequest(w, "invalid speed "+raw)
			return
		}
		speed = v
	}

	if _, err := s.catalog.Get(r.Context(), id); errors.Is(err, record.ErrNotFound) {
		writeNotFound(w, "unknown recording "+id)
		return
	}

	flusher, ok := sseHeaders(w)
	if !ok {
		return
	}

	err := record.Replay(r.Context(), s.frames, id, speed, func(frame record.Frame) error {
		return sseSend(w, flusher, "frame", frame)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Str(log.FieldRecordingID, id).Msg("replay stream aborted")
		}
		return
	}
	// Terminal event so clients can tell completion from disconnect.
	_ = sseSend(w, flusher, "end", map[string]string{"recording": id})
}
