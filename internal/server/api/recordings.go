package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// RecordingsHandler starts recordings and lists the session's history.
type RecordingsHandler struct {
	scene *scene.Scene
	store *store.Store
}

// NewRecordingsHandler creates a new RecordingsHandler.
func NewRecordingsHandler(sc *scene.Scene, s *store.Store) *RecordingsHandler {
	return &RecordingsHandler{scene: sc, store: s}
}

type startRecordingRequest struct {
	Kind string `json:"kind"`
}

type listRecordingsResponse struct {
	Recordings []*store.Recording `json:"recordings"`
}

// ServeHTTP handles GET and POST /api/recordings.
func (h *RecordingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.start(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/recordings, newest first.
func (h *RecordingsHandler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.Recordings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}
	if recs == nil {
		recs = []*store.Recording{}
	}

	writeJSON(w, http.StatusOK, listRecordingsResponse{Recordings: recs})
}

// start handles POST /api/recordings. The capture begins on a later frame,
// so a successful response only means the recording was accepted.
func (h *RecordingsHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	kind := session.RecordingKind(req.Kind)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Kind must be full or album")
		return
	}

	var rec recording.Recording
	err := h.scene.Do(r.Context(), func(s *scene.Scene) error {
		var err error
		rec, err = s.StartRecording(kind)
		return err
	})
	if err != nil {
		writeRecordingError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, rec)
}

func writeRecordingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recording.ErrAlreadyRecording):
		writeError(w, http.StatusConflict, "A recording is already running")
	case errors.Is(err, recording.ErrNoExporter):
		writeError(w, http.StatusServiceUnavailable, "No capture exporter available")
	case errors.Is(err, scene.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "Scene unavailable")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
