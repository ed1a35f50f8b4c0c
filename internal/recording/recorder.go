// Package recording runs fixed-length scene recordings. A recording is
// flagged as soon as it is requested so overlays render into it; the
// capture service is started on the following frame and stopped once the
// duration elapses. A failed or overdue start rolls the flag back.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lumiere-studio/lumiere/internal/session"
)

var (
	// ErrAlreadyRecording is returned when a recording is in progress.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNoExporter is returned when no capture service is available.
	ErrNoExporter = errors.New("no capture exporter available")
	// ErrStartTimeout is reported when the capture service does not confirm
	// a start in time.
	ErrStartTimeout = errors.New("capture start timed out")
)

// Config holds recording durations and the exporter selection.
type Config struct {
	FullSeconds     float64 `toml:"full_seconds"`
	PerPhotoSeconds float64 `toml:"per_photo_seconds"`
	MinAlbumSeconds float64 `toml:"min_album_seconds"`
	// Exporter names the plugin to use. Empty picks the first one found.
	Exporter  string `toml:"exporter"`
	PluginDir string `toml:"plugin_dir"`
	TimeoutMs int    `toml:"timeout_ms"`
	// StartTimeoutMs bounds how long the scene waits for the capture
	// service to confirm a start.
	StartTimeoutMs int    `toml:"start_timeout_ms"`
	OutputDir      string `toml:"output_dir"`
	FPS            int    `toml:"fps"`
	DryRun         bool   `toml:"dry_run"`
}

// DefaultConfig returns the default recording configuration.
func DefaultConfig() Config {
	return Config{
		FullSeconds:     10,
		PerPhotoSeconds: 2.5,
		MinAlbumSeconds: 5,
		PluginDir:       "plugins",
		TimeoutMs:       10000,
		StartTimeoutMs:  2000,
		OutputDir:       "clips",
		FPS:             30,
	}
}

// Duration returns how long a recording of kind runs.
func (c Config) Duration(kind session.RecordingKind, photoCount int) time.Duration {
	secs := c.FullSeconds
	if kind == session.RecordingAlbum {
		secs = math.Max(float64(photoCount)*c.PerPhotoSeconds, c.MinAlbumSeconds)
	}
	return time.Duration(secs * float64(time.Second))
}

// Recording describes one capture.
type Recording struct {
	ID         string                `json:"id"`
	Kind       session.RecordingKind `json:"kind"`
	PhotoCount int                   `json:"photoCount"`
	Duration   time.Duration         `json:"duration"`
	Elapsed    time.Duration         `json:"elapsed"`
}

// Sink is the capture service. Calls may block; the recorder never makes
// them on the frame goroutine.
type Sink interface {
	Start(ctx context.Context, rec Recording) error
	Stop(ctx context.Context, rec Recording) error
}

// Event reports what a Tick changed.
type Event int

const (
	EventNone Event = iota
	// EventStarted means the capture service accepted the start.
	EventStarted
	// EventFailed means the start failed and the recording was dropped.
	EventFailed
	// EventFinished means the duration elapsed and stop was requested.
	EventFinished
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventFailed:
		return "failed"
	case EventFinished:
		return "finished"
	}
	return "none"
}

type phase int

const (
	phaseIdle phase = iota
	phasePending
	phaseStarting
	phaseActive
)

// Recorder drives the recording lifecycle. Start and Tick must be called
// from the same goroutine.
type Recorder struct {
	cfg  Config
	sink Sink

	phase    phase
	current  Recording
	elapsed  float64
	started  chan error
	deadline time.Time
	cancel   context.CancelFunc
	stops    chan struct{}
	notify   func(Recording, Event)
}

// NewRecorder creates a recorder. A nil sink makes every Start fail with
// ErrNoExporter.
func NewRecorder(cfg Config, sink Sink) *Recorder {
	return &Recorder{cfg: cfg, sink: sink, stops: make(chan struct{}, 1)}
}

// OnEvent registers fn to be called from Tick whenever it returns an event
// other than EventNone. fn must not block.
func (r *Recorder) OnEvent(fn func(Recording, Event)) {
	r.notify = fn
}

func (r *Recorder) emit(rec Recording, e Event) Event {
	if r.notify != nil && e != EventNone {
		r.notify(rec, e)
	}
	return e
}

// Start flags a new recording. The capture service is contacted on the next
// Tick.
func (r *Recorder) Start(kind session.RecordingKind, photoCount int) (Recording, error) {
	if r.phase != phaseIdle {
		return Recording{}, ErrAlreadyRecording
	}
	if !kind.Valid() {
		return Recording{}, fmt.Errorf("unknown recording kind %q", kind)
	}
	if r.sink == nil {
		return Recording{}, ErrNoExporter
	}

	r.current = Recording{
		ID:         uuid.NewString(),
		Kind:       kind,
		PhotoCount: photoCount,
		Duration:   r.cfg.Duration(kind, photoCount),
	}
	r.elapsed = 0
	r.phase = phasePending
	return r.current, nil
}

// Tick advances the recording clock by dt seconds.
func (r *Recorder) Tick(dt float64) Event {
	switch r.phase {
	case phasePending:
		r.launchStart()
		r.phase = phaseStarting
		return EventNone

	case phaseStarting:
		select {
		case err := <-r.started:
			if err != nil {
				return r.fail(err)
			}
			r.phase = phaseActive
			log.Printf("Recording started: %s (%s)", r.current.Kind, r.current.Duration)
			return r.emit(r.snapshot(), EventStarted)
		default:
		}
		if time.Now().After(r.deadline) {
			r.abandonStart()
			return r.fail(ErrStartTimeout)
		}
		return EventNone

	case phaseActive:
		r.elapsed += dt
		return r.finishIfDue(EventNone)
	}
	return EventNone
}

func (r *Recorder) fail(err error) Event {
	log.Printf("Recording %s failed to start: %v", r.current.Kind, err)
	rec := r.snapshot()
	r.reset()
	return r.emit(rec, EventFailed)
}

// abandonStart cancels an overdue start. A capture that still comes up
// afterwards is stopped straight away.
func (r *Recorder) abandonStart() {
	if r.cancel != nil {
		r.cancel()
	}
	started, rec := r.started, r.current
	go func() {
		if err := <-started; err == nil {
			log.Printf("Recording %s started after timeout, stopping", rec.ID)
			r.launchStop(rec)
		}
	}()
}

func (r *Recorder) finishIfDue(otherwise Event) Event {
	if r.elapsed < r.current.Duration.Seconds() {
		return otherwise
	}
	rec := r.snapshot()
	r.reset()
	r.launchStop(rec)
	log.Printf("Recording finished: %s", rec.Kind)
	return r.emit(rec, EventFinished)
}

func (r *Recorder) launchStart() {
	rec := r.current
	timeout := time.Duration(r.cfg.StartTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = rec.Duration
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	done := make(chan error, 1)
	r.started = done
	r.cancel = cancel
	r.deadline = time.Now().Add(timeout)
	go func() {
		done <- r.sink.Start(ctx, rec)
	}()
}

func (r *Recorder) launchStop(rec Recording) {
	go func() {
		if err := r.sink.Stop(context.Background(), rec); err != nil {
			log.Printf("Recording %s stop failed: %v", rec.ID, err)
		}
		select {
		case r.stops <- struct{}{}:
		default:
		}
	}()
}

func (r *Recorder) reset() {
	if r.cancel != nil {
		r.cancel()
	}
	r.phase = phaseIdle
	r.current = Recording{}
	r.elapsed = 0
	r.started = nil
	r.cancel = nil
}

func (r *Recorder) snapshot() Recording {
	rec := r.current
	rec.Elapsed = time.Duration(r.elapsed * float64(time.Second))
	return rec
}

// Active reports whether a recording is flagged.
func (r *Recorder) Active() bool {
	return r.phase != phaseIdle
}

// Current returns the recording in progress.
func (r *Recorder) Current() (Recording, bool) {
	if r.phase == phaseIdle {
		return Recording{}, false
	}
	return r.snapshot(), true
}

// Elapsed returns the seconds since the capture service confirmed the
// start. It stays zero while the start is pending.
func (r *Recorder) Elapsed() float64 {
	return r.elapsed
}

// Stopped signals after each stop call to the capture service returns.
func (r *Recorder) Stopped() <-chan struct{} {
	return r.stops
}

// Close stops a recording that is still running. It is used on shutdown,
// after the frame loop has exited.
func (r *Recorder) Close(ctx context.Context) error {
	if r.phase == phaseIdle {
		return nil
	}
	rec := r.snapshot()
	pending := r.phase == phasePending
	r.reset()
	if pending {
		return nil
	}
	log.Printf("Recording %s interrupted", rec.ID)
	return r.sink.Stop(ctx, rec)
}
