package scene

import (
	"fmt"
	"log"

	"github.com/lumiere-studio/lumiere/internal/camera"
	"github.com/lumiere-studio/lumiere/internal/layout"
	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scatter"
	"github.com/lumiere-studio/lumiere/internal/session"
)

// The methods in this file must only be called from inside a command or
// from the goroutine calling Tick.

// Session returns the session manager.
func (s *Scene) Session() *session.Manager {
	return s.session
}

// Current returns the layout owned by the frame goroutine.
func (s *Scene) Current() *layout.Layout {
	return s.layout
}

// AddOrbit accumulates pointer orbit input for the next camera update.
func (s *Scene) AddOrbit(o camera.Orbit) {
	s.orbit.Angle += o.Angle
	s.orbit.Height += o.Height
	if o.Dolly != 0 {
		if s.orbit.Dolly == 0 {
			s.orbit.Dolly = 1
		}
		s.orbit.Dolly *= o.Dolly
	}
}

// StartRecording flags a recording of kind and schedules its capture.
func (s *Scene) StartRecording(kind session.RecordingKind) (recording.Recording, error) {
	if s.session.State().Recording {
		return recording.Recording{}, recording.ErrAlreadyRecording
	}
	rec, err := s.recorder.Start(kind, len(s.session.Photos()))
	if err != nil {
		return recording.Recording{}, err
	}
	s.session.BeginRecording(kind)
	log.Printf("Recording requested: %s", kind)
	return rec, nil
}

// SetPhotoCount regenerates the layout for n photos. Images carry over by
// slot order. It reports whether the layout changed.
func (s *Scene) SetPhotoCount(n int) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("invalid photo count %d", n)
	}
	if n == s.cfg.PhotoCount {
		return false, nil
	}
	s.cfg.PhotoCount = n

	lay := layout.Generate(s.cfg.Tree, s.cfg.Layout, n, s.cfg.Seed)
	progress := s.photos.Progress()
	s.setLayout(lay)
	s.restoreProgress(progress)
	s.session.ReplaceSlots(lay.Slots)

	log.Printf("Layout regenerated for %d photos", n)
	return true, nil
}

// restoreProgress keeps the explode state across a relayout.
func (s *Scene) restoreProgress(p float64) {
	for _, g := range []*scatter.Group{s.tree, s.lights, s.ornaments, s.presents, s.photos} {
		g.Animator.Progress = p
	}
}
