package api

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lumiere-studio/lumiere/internal/imaging"
	"github.com/lumiere-studio/lumiere/internal/layout"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// Multipart field names.
const (
	fieldPhoto  = "photo"
	fieldPhotos = "photos"
)

// PhotosHandler handles HTTP requests for photo slots and their images.
type PhotosHandler struct {
	scene        *scene.Scene
	library      *Library
	placeholders *imaging.Placeholders
	maxUpload    int64
}

// NewPhotosHandler creates a PhotosHandler. maxUpload bounds request bodies.
func NewPhotosHandler(sc *scene.Scene, lib *Library, placeholders *imaging.Placeholders, maxUpload int64) *PhotosHandler {
	return &PhotosHandler{scene: sc, library: lib, placeholders: placeholders, maxUpload: maxUpload}
}

// ServeHTTP routes:
//
//	GET    /api/photos
//	POST   /api/photos/bulk
//	DELETE /api/photos/{id}
//	GET    /api/photos/{id}/image
//	POST   /api/photos/{id}/image
//	DELETE /api/photos/{id}/image
func (h *PhotosHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/photos")

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)

	case len(parts) == 1 && parts[0] == "bulk":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.bulk(w, r)

	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.delete(w, r, parts[0])

	case len(parts) == 2 && parts[1] == "image":
		switch r.Method {
		case http.MethodGet:
			h.image(w, r, parts[0])
		case http.MethodPost:
			h.upload(w, r, parts[0])
		case http.MethodDelete:
			h.clear(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type photoResponse struct {
	ID          string                 `json:"id"`
	Index       int                    `json:"index"`
	Position    r3.Vec                 `json:"position"`
	Yaw         float64                `json:"yaw"`
	Placeholder layout.PlaceholderKind `json:"placeholder"`
	ImageRef    string                 `json:"imageRef,omitempty"`
	Focused     bool                   `json:"focused"`
}

type listPhotosResponse struct {
	Photos []photoResponse `json:"photos"`
}

type fillResponse struct {
	Filled []string `json:"filled"`
}

func toPhotoResponse(p session.Photo, focusedID string) photoResponse {
	return photoResponse{
		ID:          p.ID,
		Index:       p.Index,
		Position:    p.Position,
		Yaw:         p.Yaw,
		Placeholder: p.Placeholder,
		ImageRef:    p.ImageRef,
		Focused:     p.ID == focusedID,
	}
}

// list handles GET /api/photos and returns the active slots in order.
func (h *PhotosHandler) list(w http.ResponseWriter, r *http.Request) {
	var response listPhotosResponse
	err := h.scene.Do(r.Context(), func(s *scene.Scene) error {
		m := s.Session()
		focused := m.State().FocusedID
		photos := m.Photos()
		response.Photos = make([]photoResponse, 0, len(photos))
		for _, p := range photos {
			response.Photos = append(response.Photos, toPhotoResponse(p, focused))
		}
		return nil
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Scene unavailable")
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// upload handles POST /api/photos/{id}/image with a single "photo" file.
func (h *PhotosHandler) upload(w http.ResponseWriter, r *http.Request, id string) {
	files, ok := h.readFiles(w, r, fieldPhoto)
	if !ok {
		return
	}

	found := false
	filled, err := h.library.Add(r.Context(), files[:1], store.PhotoSourceUpload, func(m *session.Manager, refs []string) []string {
		found = m.SetImage(id, refs[0])
		if !found {
			return nil
		}
		return []string{id}
	})
	switch {
	case errors.Is(err, ErrNoImages):
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported image")
		return
	case err != nil:
		log.Printf("Upload to %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	case !found:
		writeError(w, http.StatusNotFound, "Photo not found")
		return
	}

	writeJSON(w, http.StatusOK, fillResponse{Filled: filled})
}

// bulk handles POST /api/photos/bulk. Files in the "photos" field fill the
// tree from the top down, repeating when there are fewer files than slots.
func (h *PhotosHandler) bulk(w http.ResponseWriter, r *http.Request) {
	files, ok := h.readFiles(w, r, fieldPhotos)
	if !ok {
		return
	}

	filled, err := h.library.Add(r.Context(), files, store.PhotoSourceUpload, (*session.Manager).FillBulk)
	switch {
	case errors.Is(err, ErrNoImages):
		writeError(w, http.StatusUnsupportedMediaType, "No supported images")
		return
	case err != nil:
		log.Printf("Bulk upload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store images")
		return
	}

	writeJSON(w, http.StatusOK, fillResponse{Filled: filled})
}

// readFiles reads every file of a multipart field. It writes the error
// response itself and reports false on failure.
func (h *PhotosHandler) readFiles(w http.ResponseWriter, r *http.Request, field string) ([][]byte, bool) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "Missing "+field+" file")
		return nil, false
	}

	files := make([][]byte, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read "+fh.Filename)
			return nil, false
		}
		files = append(files, data)
	}
	return files, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// image handles GET /api/photos/{id}/image. Slots without content serve
// their placeholder artwork.
func (h *PhotosHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	photo, slot, err := h.library.Image(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Photo not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to load image")
		return
	}

	mime, data := imaging.MimeWebP, []byte(nil)
	if photo != nil {
		mime, data = photo.MimeType, photo.Data
	} else {
		data, err = h.placeholders.WebP(slot.Placeholder)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to render placeholder")
			return
		}
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// clear handles DELETE /api/photos/{id}/image.
func (h *PhotosHandler) clear(w http.ResponseWriter, r *http.Request, id string) {
	h.mutate(w, r, func(m *session.Manager) bool {
		if _, ok := m.Photo(id); !ok {
			return false
		}
		m.ClearImage(id)
		return true
	})
}

// delete handles DELETE /api/photos/{id}, removing the slot from the tree.
func (h *PhotosHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	h.mutate(w, r, func(m *session.Manager) bool {
		return m.DeletePhoto(id)
	})
}

func (h *PhotosHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(m *session.Manager) bool) {
	found := false
	err := h.library.Update(r.Context(), func(m *session.Manager) {
		found = fn(m)
	})
	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to update photo")
	case !found:
		writeError(w, http.StatusNotFound, "Photo not found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
