package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/lumiere-studio/lumiere/internal/imaging"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// ErrNoImages is returned when none of the given images could be decoded.
var ErrNoImages = errors.New("no usable images")

// AssignFunc places stored image refs into the session and returns the ids
// of the slots it filled.
type AssignFunc func(m *session.Manager, refs []string) []string

// Library stores photo content and hands it to the scene. Images no slot
// refers to any more are dropped after every change.
type Library struct {
	scene        *scene.Scene
	store        *store.Store
	maxImageSize int

	mu sync.Mutex
}

// NewLibrary creates a library. Uploaded images are scaled down to fit
// maxImageSize and padded square.
func NewLibrary(sc *scene.Scene, s *store.Store, maxImageSize int) *Library {
	return &Library{scene: sc, store: s, maxImageSize: maxImageSize}
}

// Add normalizes and stores images, then runs assign on the frame
// goroutine. Images that fail to decode are skipped.
func (l *Library) Add(ctx context.Context, images [][]byte, source store.PhotoSource, assign AssignFunc) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	refs := make([]string, 0, len(images))
	for i, data := range images {
		webp, err := imaging.Normalize(data, l.maxImageSize)
		if err != nil {
			log.Printf("Skipping image %d: %v", i, err)
			continue
		}
		ref := uuid.NewString()
		if err := l.store.Photos().Put(&store.Photo{ID: ref, MimeType: imaging.MimeWebP, Data: webp, Source: source}); err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil, ErrNoImages
	}

	var ids []string
	err := l.change(ctx, func(m *session.Manager) {
		ids = assign(m, refs)
	})
	return ids, err
}

// Update runs fn on the frame goroutine and drops images it orphaned.
func (l *Library) Update(ctx context.Context, fn func(m *session.Manager)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.change(ctx, fn)
}

func (l *Library) change(ctx context.Context, fn func(m *session.Manager)) error {
	var keep []string
	err := l.scene.Do(ctx, func(s *scene.Scene) error {
		fn(s.Session())
		for _, p := range s.Session().Photos() {
			if p.ImageRef != "" {
				keep = append(keep, p.ImageRef)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := l.store.Photos().Retain(keep); err != nil {
		return fmt.Errorf("failed to prune images: %w", err)
	}
	return nil
}

// Apply applies a renderer input on the frame goroutine and returns the
// resulting session state. Deleting a photo also drops its stored image.
func (l *Library) Apply(ctx context.Context, in scene.Input) (session.State, error) {
	if in.Type != scene.InputDelete {
		return applyInput(ctx, l.scene, in)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var state session.State
	err := l.change(ctx, func(m *session.Manager) {
		m.DeletePhoto(in.ID)
		state = m.State()
	})
	return state, err
}

// Image returns a slot and its stored content. photo is nil while the slot
// shows its placeholder.
func (l *Library) Image(ctx context.Context, slotID string) (photo *store.Photo, slot session.Photo, err error) {
	var found bool
	err = l.scene.Do(ctx, func(s *scene.Scene) error {
		slot, found = s.Session().Photo(slotID)
		return nil
	})
	if err != nil {
		return nil, slot, err
	}
	if !found {
		return nil, slot, store.ErrNotFound
	}
	if slot.ImageRef == "" {
		return nil, slot, nil
	}

	photo, err = l.store.Photos().Get(slot.ImageRef)
	if errors.Is(err, store.ErrNotFound) {
		return nil, slot, nil
	}
	return photo, slot, err
}

// SlotCount returns the number of active slots.
func (l *Library) SlotCount(ctx context.Context) (int, error) {
	var n int
	err := l.scene.Do(ctx, func(s *scene.Scene) error {
		n = len(s.Session().Photos())
		return nil
	})
	return n, err
}
