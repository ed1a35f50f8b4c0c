package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lumiere-studio/lumiere/internal/capture"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
)

const (
	// superviseInterval is how often the supervisor compares the control
	// mode with the tracking loop.
	superviseInterval = 100 * time.Millisecond
	// maxTrackingFailures consecutive read or detect errors end tracking.
	maxTrackingFailures = 30
)

// ErrNoDetector is returned when gesture control is requested but no hand
// detection backend is installed.
var ErrNoDetector = errors.New("no hand detector available")

// superviseTracking runs the tracking loop while the session wants gesture
// control and stops it when the session falls back to the pointer.
func (a *App) superviseTracking(ctx context.Context) {
	ticker := time.NewTicker(superviseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st := a.scene.Latest().Session
		want := st.Control == session.ControlGesture || st.PendingGesture
		running := a.tracking()

		switch {
		case want && !running:
			if a.config.NoCamera {
				a.gestureUnavailable()
				continue
			}
			if err := a.startTracking(); err != nil {
				log.Printf("Hand tracking unavailable: %v", err)
				a.gestureUnavailable()
			}
		case !want && running:
			a.stopTracking()
		}
	}
}

func (a *App) gestureUnavailable() {
	a.scene.Post(func(s *scene.Scene) { s.Session().GestureUnavailable() })
}

// tracking reports whether the tracking loop is running.
func (a *App) tracking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.trackDone == nil {
		return false
	}
	select {
	case <-a.trackDone:
		return false
	default:
		return true
	}
}

// startTracking opens the camera and starts the tracking loop.
func (a *App) startTracking() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.detector == nil {
		return ErrNoDetector
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.motion.Reset()

	a.stopCh = make(chan struct{})
	a.trackDone = make(chan struct{})
	go a.runTracking(a.stopCh, a.trackDone)
	log.Println("Hand tracking started")
	return nil
}

// stopTracking stops the tracking loop and waits for it to exit.
func (a *App) stopTracking() {
	a.mu.Lock()
	stop, done := a.stopCh, a.trackDone
	a.stopCh, a.trackDone = nil, nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	log.Println("Hand tracking stopped")
}

// runTracking reads camera frames, updates the preview and posts hand
// detections to the mailbox. The frame rate follows capture.Cadence: idle
// until motion is seen, active while motion or a hand is present.
func (a *App) runTracking(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		a.mailbox.SetReady(false)
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}()

	cadence := capture.NewCadence(a.config.Settings.Capture)
	a.camera.SetFPS(cadence.FPS())
	ticker := time.NewTicker(cadence.Interval())
	defer ticker.Stop()

	failures := 0
	fail := func(what string, err error) bool {
		failures++
		log.Printf("Error %s: %v", what, err)
		if failures < maxTrackingFailures {
			return false
		}
		log.Printf("Hand tracking failed %d times in a row, giving up", failures)
		a.gestureUnavailable()
		return true
	}

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				if fail("reading frame", err) {
					return
				}
				continue
			}

			if err := a.preview.Update(frame); err != nil {
				log.Printf("Error encoding preview: %v", err)
			}

			// The first frame is always checked so the backend can report ready.
			motion := a.motion.Detect(frame).Moved
			if !cadence.Active() && !motion && a.mailbox.Ready() {
				frame.Close()
				continue
			}

			hands, err := a.detector.Detect(frame)
			frame.Close()
			if err != nil {
				if fail("detecting hands", err) {
					return
				}
				continue
			}
			failures = 0

			a.mailbox.Post(hands, now)
			if !a.mailbox.Ready() {
				a.mailbox.SetReady(true)
			}

			if fps, changed := cadence.Observe(motion, len(hands) > 0, now); changed {
				a.camera.SetFPS(fps)
				ticker.Reset(cadence.Interval())
				log.Printf("Tracking at %d fps", fps)
			}
		}
	}
}
