package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lumiere-studio/lumiere/internal/importer"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// MaxImportCount bounds the number of photos one import may request.
const MaxImportCount = 100

// ImportHandler fetches photos from the remote webhook and fills the tree
// with them.
type ImportHandler struct {
	client  *importer.Client
	library *Library
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(client *importer.Client, lib *Library) *ImportHandler {
	return &ImportHandler{client: client, library: lib}
}

type importRequest struct {
	Username string `json:"username"`
	// Count defaults to one photo per active slot.
	Count int `json:"count"`
}

type importResponse struct {
	Received int      `json:"received"`
	Filled   []string `json:"filled"`
}

// ServeHTTP handles POST /api/import.
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Username = strings.TrimPrefix(strings.TrimSpace(req.Username), "@")
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if !h.client.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Import webhook not configured")
		return
	}
	if req.Count == 0 {
		n, err := h.library.SlotCount(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Scene unavailable")
			return
		}
		req.Count = n
	}
	if req.Count < 1 || req.Count > MaxImportCount {
		writeError(w, http.StatusBadRequest, "Count must be between 1 and 100")
		return
	}

	images, err := h.client.Fetch(r.Context(), req.Username, req.Count)
	if err != nil {
		log.Printf("Import for %s failed: %v", req.Username, err)
		switch {
		case errors.Is(err, importer.ErrNoPhotos):
			writeError(w, http.StatusUnprocessableEntity, "No photos returned")
		case errors.Is(err, importer.ErrRemote):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "Import webhook unreachable")
		}
		return
	}

	data := make([][]byte, len(images))
	for i, img := range images {
		data[i] = img.Data
	}

	filled, err := h.library.Add(r.Context(), data, store.PhotoSourceImport, (*session.Manager).FillRoundRobin)
	switch {
	case errors.Is(err, ErrNoImages):
		writeError(w, http.StatusUnprocessableEntity, "No usable photos returned")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to store photos")
		return
	}

	log.Printf("Imported %d photos for %s", len(images), req.Username)
	writeJSON(w, http.StatusOK, importResponse{Received: len(images), Filled: filled})
}
