// Package scene runs the per-frame update. It owns the layout, session,
// gesture pipeline, camera controller, recorder and scatter groups, and is
// the only goroutine that mutates them. Everything else talks to it through
// queued commands.
package scene

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/lumiere-studio/lumiere/internal/camera"
	"github.com/lumiere-studio/lumiere/internal/detector"
	"github.com/lumiere-studio/lumiere/internal/gesture"
	"github.com/lumiere-studio/lumiere/internal/layout"
	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scatter"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/spiral"
)

// Group names.
const (
	GroupTree      = "tree"
	GroupLights    = "lights"
	GroupOrnaments = "ornaments"
	GroupPresents  = "presents"
	GroupPhotos    = "photos"
)

// Config collects the settings of every component the scene owns.
type Config struct {
	Tree       spiral.Config
	Layout     layout.ScatterConfig
	PhotoCount int
	Seed       uint64
	Session    session.Config
	Gesture    gesture.Config
	Camera     camera.Config
	Scatter    scatter.Config
	// QueueSize bounds pending commands.
	QueueSize int
}

// DefaultConfig returns the default scene configuration.
func DefaultConfig() Config {
	return Config{
		Tree:       spiral.DefaultConfig(),
		Layout:     layout.DefaultScatterConfig(),
		PhotoCount: 30,
		Seed:       1,
		Session:    session.DefaultConfig(),
		Gesture:    gesture.DefaultConfig(),
		Camera:     camera.DefaultConfig(),
		Scatter:    scatter.DefaultConfig(),
		QueueSize:  64,
	}
}

// ErrStopped is returned by Do when the scene is no longer ticking.
var ErrStopped = errors.New("scene stopped")

type command struct {
	fn   func(*Scene) error
	done chan error
}

// Scene is the frame-loop owner.
type Scene struct {
	cfg Config

	mailbox    *detector.Mailbox
	recorder   *recording.Recorder
	sink       Sink
	session    *session.Manager
	pipeline   *gesture.Pipeline
	controller *camera.Controller

	tree, lights, ornaments, presents, photos *scatter.Group

	cmds   chan command
	orbit  camera.Orbit
	clock  float64
	seq    uint64
	hand   *HandView
	layout *layout.Layout

	mu     sync.RWMutex
	latest Frame
	shared *layout.Layout
	done   chan struct{}
}

// New creates a scene. mailbox and recorder may be shared with other
// goroutines; sink may be nil.
func New(cfg Config, mailbox *detector.Mailbox, recorder *recording.Recorder, sink Sink) *Scene {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if mailbox == nil {
		mailbox = detector.NewMailbox()
	}
	if recorder == nil {
		recorder = recording.NewRecorder(recording.DefaultConfig(), nil)
	}

	lay := layout.Generate(cfg.Tree, cfg.Layout, cfg.PhotoCount, cfg.Seed)
	s := &Scene{
		cfg:        cfg,
		mailbox:    mailbox,
		recorder:   recorder,
		sink:       sink,
		session:    session.NewManager(cfg.Session, lay.Slots),
		pipeline:   gesture.NewPipeline(cfg.Gesture),
		controller: camera.NewController(cfg.Camera),
		cmds:       make(chan command, cfg.QueueSize),
		done:       make(chan struct{}),
	}
	s.setLayout(lay)
	s.latest = s.buildFrame(time.Now())
	return s
}

func (s *Scene) setLayout(lay *layout.Layout) {
	s.layout = lay
	sc := s.cfg.Scatter

	tree := make([]scatter.Entity, len(lay.Particles))
	for i, p := range lay.Particles {
		tree[i] = scatter.Entity{ID: entityID("particle", i), Home: p.Position, Scatter: p.Scatter}
	}
	s.tree = s.newGroup(GroupTree, tree, 0)

	tinsel := make([]scatter.Entity, len(lay.Tinsel))
	for i, p := range lay.Tinsel {
		tinsel[i] = scatter.Entity{ID: entityID("tinsel", i), Home: p.Position, Scatter: p.Scatter}
	}
	s.lights = s.newGroup(GroupLights, tinsel, 0)
	s.lights.HideAbove = sc.LightsHideAbove

	ornaments := make([]scatter.Entity, len(lay.Ornaments))
	for i, o := range lay.Ornaments {
		ornaments[i] = scatter.Entity{ID: entityID("ornament", i), Home: o.Position, Scatter: o.Scatter, Phase: o.Yaw}
	}
	s.ornaments = s.newGroup(GroupOrnaments, ornaments, sc.ObjectDrift)

	presents := make([]scatter.Entity, len(lay.Presents))
	for i, p := range lay.Presents {
		presents[i] = scatter.Entity{ID: entityID("present", i), Home: p.Position, Scatter: p.Scatter, Phase: p.Yaw}
	}
	s.presents = s.newGroup(GroupPresents, presents, sc.ObjectDrift)

	photos := make([]scatter.Entity, len(lay.Slots))
	for i, sl := range lay.Slots {
		photos[i] = scatter.Entity{ID: sl.ID, Home: sl.Position, Scatter: lay.PhotoScatter[sl.ID], Phase: sl.Yaw}
	}
	s.photos = s.newGroup(GroupPhotos, photos, sc.PhotoDrift)

	s.mu.Lock()
	s.shared = lay
	s.mu.Unlock()
}

func (s *Scene) newGroup(name string, entities []scatter.Entity, drift float64) *scatter.Group {
	g := scatter.NewGroup(name, entities)
	if s.cfg.Scatter.ExplodeRate > 0 {
		g.Animator.ExplodeRate = s.cfg.Scatter.ExplodeRate
	}
	if s.cfg.Scatter.ReturnRate > 0 {
		g.Animator.ReturnRate = s.cfg.Scatter.ReturnRate
	}
	g.Drift = drift
	return g
}

func entityID(prefix string, i int) string {
	return prefix + "-" + strconv.Itoa(i)
}

// Post queues fn for the next tick without waiting. It reports false when
// the queue is full and the command was dropped.
func (s *Scene) Post(fn func(*Scene)) bool {
	select {
	case s.cmds <- command{fn: func(s *Scene) error { fn(s); return nil }}:
		return true
	default:
		log.Printf("Scene queue full, dropping command")
		return false
	}
}

// Do queues fn for the next tick and waits for its result.
func (s *Scene) Do(ctx context.Context, fn func(*Scene) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop fails pending and future Do calls. Tick must not be called after.
func (s *Scene) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Scene) drain() {
	for {
		select {
		case cmd := <-s.cmds:
			err := cmd.fn(s)
			if cmd.done != nil {
				cmd.done <- err
			}
		default:
			return
		}
	}
}

// Tick advances the scene by dt seconds and publishes the resulting frame.
func (s *Scene) Tick(dt float64, now time.Time) Frame {
	s.drain()
	s.clock += dt

	s.syncGestureBackend()
	s.observeGestures()
	s.stepRecorder(dt)

	state := s.session.State()
	s.controller.Update(dt, s.cameraInputs(state))
	s.orbit = camera.Orbit{}

	for _, g := range []*scatter.Group{s.tree, s.lights, s.ornaments, s.presents, s.photos} {
		g.Update(dt, state.Exploded)
	}

	s.seq++
	frame := s.buildFrame(now)

	s.mu.Lock()
	s.latest = frame
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Publish(frame)
	}
	return frame
}

// syncGestureBackend completes a pending gesture switch once the backend
// reports ready.
func (s *Scene) syncGestureBackend() {
	if s.mailbox.Ready() && s.session.GestureReady() {
		s.pipeline.Reset()
		log.Println("Switched to gesture control")
	}
}

func (s *Scene) observeGestures() {
	state := s.session.State()
	if state.Control != session.ControlGesture {
		s.hand = nil
		return
	}

	actions := s.pipeline.Observe(s.mailbox.Latest(), gesture.Context{
		Zoomed:   state.Zoom == session.ZoomFocused,
		Exploded: state.Exploded,
	})
	for _, a := range actions {
		s.session.Apply(a)
	}

	if pose, ok := s.pipeline.Pose(); ok {
		s.hand = handView(pose)
	} else {
		s.hand = nil
	}
}

func (s *Scene) stepRecorder(dt float64) {
	switch s.recorder.Tick(dt) {
	case recording.EventFailed, recording.EventFinished:
		s.session.EndRecording()
	}
}

func (s *Scene) cameraInputs(state session.State) camera.Inputs {
	in := camera.Inputs{
		Gesture: state.Control == session.ControlGesture,
		Zoomed:  state.Zoom == session.ZoomFocused,
		PanX:    state.Pan.X,
		PanY:    state.Pan.Y,
		Orbit:   s.orbit,
	}
	if p, ok := s.session.Focused(); ok {
		in.Focus = &camera.Focus{ID: p.ID, Position: p.Position, Yaw: p.Yaw}
	}

	if state.Recording {
		in.Elapsed = s.recorder.Elapsed()
		switch state.RecordingKind {
		case session.RecordingFull:
			in.Script = camera.ScriptFullRotation
		case session.RecordingAlbum:
			in.Script = camera.ScriptAlbumTour
			photos := s.session.Photos()
			in.Album = make([]camera.Focus, len(photos))
			for i, p := range photos {
				in.Album[i] = camera.Focus{ID: p.ID, Position: p.Position, Yaw: p.Yaw}
			}
		}
	}
	return in
}

func (s *Scene) buildFrame(now time.Time) Frame {
	state := s.session.State()

	photos := s.session.Photos()
	views := make([]PhotoView, len(photos))
	for i, p := range photos {
		views[i] = PhotoView{
			ID:          p.ID,
			Index:       p.Index,
			Position:    s.photos.Position(scatter.Entity{Home: p.Position, Scatter: s.layout.PhotoScatter[p.ID], Phase: p.Yaw}, s.clock),
			Yaw:         p.Yaw,
			Placeholder: p.Placeholder,
			ImageRef:    p.ImageRef,
			Focused:     p.ID == state.FocusedID,
		}
	}

	frame := Frame{
		Seq:       s.seq,
		At:        now,
		Camera:    s.controller.Pose(),
		Session:   state,
		Hand:      s.hand,
		Photos:    views,
		Ornaments: s.ornaments.Transforms(s.clock),
		Presents:  s.presents.Transforms(s.clock),
		Groups: []scatter.State{
			s.tree.State(),
			s.lights.State(),
			s.ornaments.State(),
			s.presents.State(),
			s.photos.State(),
		},
	}
	if rec, ok := s.recorder.Current(); ok {
		frame.Recording = &rec
	}
	return frame
}

// Latest returns the most recently built frame. It is safe to call from any
// goroutine.
func (s *Scene) Latest() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Layout returns the current static layout. It is safe to call from any
// goroutine; the returned layout must not be modified.
func (s *Scene) Layout() *layout.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shared
}
