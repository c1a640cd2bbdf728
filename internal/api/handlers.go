package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ksurct/common/gamepad"
	"github.com/ksurct/common/internal/hub"
	"github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/record"
)

// maxBodyBytes bounds request bodies; control payloads are tiny.
const maxBodyBytes = 1 << 16

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

type statusResponse struct {
	Service         string     `json:"service"`
	Version         string     `json:"version"`
	UptimeSeconds   int64      `json:"uptimeSeconds"`
	Controllers     int        `json:"controllers"`
	LastPoll        *time.Time `json:"lastPoll,omitempty"`
	ActiveRecording string     `json:"activeRecording,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Service:       s.cfg.LogService,
		Version:       s.cfg.Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Controllers:   s.hub.Connected(),
	}
	if last := s.hub.LastPoll(); !last.IsZero() {
		resp.LastPoll = &last
	}
	if id, ok := s.recorder.Active(); ok {
		resp.ActiveRecording = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"controllers": s.hub.Snapshots(),
	})
}

func (s *Server) handleController(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.hub.Snapshot(id)
	if errors.Is(err, hub.ErrUnknownController) {
		writeNotFound(w, "unknown controller "+id)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type rumbleRequest struct {
	Strength   float64 `json:"strength"`
	DurationMS int     `json:"durationMs"`
}

func (s *Server) handleRumble(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req rumbleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Strength < 0 || req.Strength > 1 {
		writeBadRequest(w, "strength must be within [0, 1]")
		return
	}
	d := time.Duration(req.DurationMS) * time.Millisecond
	if d <= 0 || d > 5*time.Second {
		writeBadRequest(w, "durationMs must be within (0, 5000]")
		return
	}

	err := s.hub.Rumble(id, req.Strength, d)
	switch {
	case errors.Is(err, hub.ErrUnknownController):
		writeNotFound(w, "unknown controller "+id)
	case errors.Is(err, gamepad.ErrRumbleUnsupported):
		writeError(w, http.StatusNotImplemented, "rumble_unsupported",
			"controller has no force feedback")
	case err != nil:
		s.logger.Error().Err(err).Str(log.FieldController, id).Msg("rumble failed")
		writeInternalError(w)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleZero(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.hub.Zero(id); errors.Is(err, hub.ErrUnknownController) {
		writeNotFound(w, "unknown controller "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startRecordingRequest struct {
	Controller string `json:"controller"`
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	var req startRecordingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Controller == "" {
		writeBadRequest(w, "controller is required")
		return
	}
	if _, err := s.hub.Snapshot(req.Controller); errors.Is(err, hub.ErrUnknownController) {
		writeNotFound(w, "unknown controller "+req.Controller)
		return
	}

	meta, err := s.recorder.Start(r.Context(), req.Controller)
	switch {
	case errors.Is(err, record.ErrAlreadyRecording):
		writeConflict(w, "a recording is already active")
	case err != nil:
		s.logger.Error().Err(err).Msg("start recording failed")
		writeInternalError(w)
	default:
		writeJSON(w, http.StatusCreated, meta)
	}
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if active, ok := s.recorder.Active(); !ok || active != id {
		writeConflict(w, "recording "+id+" is not active")
		return
	}
	// The active check above can race a concurrent stop; Stop reports
	// that as ErrNoActiveRecording.
	meta, err := s.recorder.Stop(r.Context())
	switch {
	case errors.Is(err, record.ErrNoActiveRecording):
		writeConflict(w, "recording "+id+" is not active")
	case err != nil:
		s.logger.Error().Err(err).Str(log.FieldRecordingID, id).Msg("stop recording failed")
		writeInternalError(w)
	default:
		writeJSON(w, http.StatusOK, meta)
	}
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	metas, err := s.catalog.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list recordings failed")
		writeInternalError(w)
		return
	}
	if metas == nil {
		metas = []record.Meta{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": metas})
}

func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meta, err := s.catalog.Get(r.Context(), id)
	switch {
	case errors.Is(err, record.ErrNotFound):
		writeNotFound(w, "unknown recording "+id)
	case err != nil:
		s.logger.Error().Err(err).Str(log.FieldRecordingID, id).Msg("get recording failed")
		writeInternalError(w)
	default:
		writeJSON(w, http.StatusOK, meta)
	}
}

func (s *Server) handleRecordingFrames(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.catalog.Get(r.Context(), id); errors.Is(err, record.ErrNotFound) {
		writeNotFound(w, "unknown recording "+id)
		return
	}
	frames, err := s.frames.Frames(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str(log.FieldRecordingID, id).Msg("read frames failed")
		writeInternalError(w)
		return
	}
	if frames == nil {
		frames = []record.Frame{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"frames": frames})
}

func (s *Server) handleExportRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dir := filepath.Join(s.cfg.DataDir, "exports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str(log.FieldPath, dir).Msg("create exports dir failed")
		writeInternalError(w)
		return
	}
	path := filepath.Join(dir, id+".json")

	err := record.Export(r.Context(), s.frames, s.catalog, id, path)
	switch {
	case errors.Is(err, record.ErrNotFound):
		writeNotFound(w, "unknown recording "+id)
	case err != nil:
		s.logger.Error().Err(err).Str(log.FieldRecordingID, id).Msg("export failed")
		writeInternalError(w)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	}
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if active, ok := s.recorder.Active(); ok && active == id {
		writeConflict(w, "recording "+id+" is still active")
		return
	}
	if _, err := s.catalog.Get(r.Context(), id); errors.Is(err, record.ErrNotFound) {
		writeNotFound(w, "unknown recording "+id)
		return
	}
	if err := s.frames.DeleteRecording(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str(log.FieldRecordingID, id).Msg("delete frames failed")
		writeInternalError(w)
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str(log.FieldRecordingID, id).Msg("delete catalog entry failed")
		writeInternalError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
