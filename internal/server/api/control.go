package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
)

// ControlHandler applies renderer and tray input to the session.
type ControlHandler struct {
	scene   *scene.Scene
	library *Library
}

// NewControlHandler creates a new ControlHandler. With a library, photo
// deletions also drop the stored image; lib may be nil.
func NewControlHandler(sc *scene.Scene, lib *Library) *ControlHandler {
	return &ControlHandler{scene: sc, library: lib}
}

// ServeHTTP handles GET /api/control, returning the session state, and
// POST /api/control with a scene input event.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.scene.Latest().Session)
	case http.MethodPost:
		h.apply(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ControlHandler) apply(w http.ResponseWriter, r *http.Request) {
	var in scene.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var state session.State
	var err error
	if h.library != nil {
		state, err = h.library.Apply(r.Context(), in)
	} else {
		state, err = applyInput(r.Context(), h.scene, in)
	}
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, state)
	case errors.Is(err, recording.ErrAlreadyRecording),
		errors.Is(err, recording.ErrNoExporter),
		errors.Is(err, scene.ErrStopped):
		writeRecordingError(w, err)
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func applyInput(ctx context.Context, sc *scene.Scene, in scene.Input) (session.State, error) {
	var state session.State
	err := sc.Do(ctx, func(s *scene.Scene) error {
		if err := s.Apply(in); err != nil {
			return err
		}
		state = s.Session().State()
		return nil
	})
	return state, err
}
