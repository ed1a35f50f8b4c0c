// Package app wires the Lumiere scene host together: the store, the scene
// and its frame loop, the hand-tracking loop, the capture exporter and the
// HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lumiere-studio/lumiere/internal/capture"
	"github.com/lumiere-studio/lumiere/internal/config"
	"github.com/lumiere-studio/lumiere/internal/detector"
	"github.com/lumiere-studio/lumiere/internal/imaging"
	"github.com/lumiere-studio/lumiere/internal/importer"
	"github.com/lumiere-studio/lumiere/internal/plugin"
	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/server"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// maxFrameStep caps dt after a stall so animations do not jump.
const maxFrameStep = 0.1

// Config holds configuration options for the application.
type Config struct {
	Settings config.Config
	// ConfigPath is watched for changes when set.
	ConfigPath string
	// NoCamera disables hand tracking; gesture control is then unavailable.
	NoCamera bool
	// Camera and Detector override the devices built from Settings.
	Camera   capture.Camera
	Detector detector.Detector
}

// App is the main application.
type App struct {
	config Config

	store      *store.Store
	mailbox    *detector.Mailbox
	recorder   *recording.Recorder
	scene      *scene.Scene
	hub        *server.FrameHub
	server     *server.Server
	preview    *capture.Preview
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	journal    *journal

	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector

	mu        sync.Mutex
	stopCh    chan struct{}
	trackDone chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	settings := config.Settings

	st, err := store.New(settings.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &App{
		config:     config,
		store:      st,
		mailbox:    detector.NewMailbox(),
		hub:        server.NewFrameHub(),
		preview:    capture.NewPreview(),
		pluginMgr:  plugin.NewManager(settings.Recording.PluginDir),
		pluginExec: plugin.NewExecutor(settings.Recording.TimeoutMs),
		camera:     config.Camera,
		detector:   config.Detector,
	}

	if err := a.pluginMgr.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	a.journal = newJournal(st.Recordings())
	a.recorder = recording.NewRecorder(settings.Recording, recording.NewPluginSink(a.pluginMgr, a.pluginExec, settings.Recording))
	a.recorder.OnEvent(a.journal.record)

	a.scene = scene.New(settings.Scene(), a.mailbox, a.recorder, a.hub)
	a.hub.OnInput(a.applyInput)

	if a.camera == nil {
		a.camera = capture.NewCamera(settings.Capture)
	}
	a.motion = capture.NewMotionDetector(settings.Capture.MotionThreshold)

	// Without a detector gesture requests fall back to the pointer.
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(settings.Detector); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), gesture control disabled", err)
		}
	}

	a.server = server.New(server.Config{
		StaticDir:      settings.Server.StaticDir,
		Scene:          a.scene,
		Store:          st,
		Importer:       importer.NewClient(settings.Import),
		Placeholders:   imaging.NewPlaceholders(settings.Server.PlaceholderSize),
		Frames:         a.hub,
		Preview:        a.preview,
		StreamFPS:      settings.Server.StreamFPS,
		MaxUploadBytes: settings.Server.MaxUploadBytes,
		MaxImageSize:   settings.Server.MaxImageSize,
	})

	return a, nil
}

// applyInput queues a renderer input event for the next frame. Deletions
// go through the library so the photo's stored image is dropped too.
func (a *App) applyInput(in scene.Input) {
	if lib := a.server.Library(); lib != nil && in.Type == scene.InputDelete {
		go func() {
			if _, err := lib.Apply(context.Background(), in); err != nil {
				log.Printf("Input %s rejected: %v", in.Type, err)
			}
		}()
		return
	}
	a.scene.Post(func(s *scene.Scene) {
		if err := s.Apply(in); err != nil {
			log.Printf("Input %s rejected: %v", in.Type, err)
		}
	})
}

// Run starts every loop and blocks until ctx is done or the server fails.
// An empty Server.Addr skips listening.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(3)
	go func() {
		defer wg.Done()
		a.runFrames(ctx)
	}()
	go func() {
		defer wg.Done()
		a.superviseTracking(ctx)
	}()
	go func() {
		defer wg.Done()
		a.journal.run(ctx)
	}()

	if path := a.config.ConfigPath; path != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := config.Watch(ctx, path, a.Reload); err != nil {
				log.Printf("Config watch disabled: %v", err)
			}
		}()
	}

	if addr := a.config.Settings.Server.Addr; addr != "" {
		go func() {
			log.Printf("Starting server on %s", addr)
			if err := a.server.ListenAndServe(addr); err != nil {
				errCh <- fmt.Errorf("server failed: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	cancel()
	wg.Wait()
	a.stopTracking()

	if err := a.recorder.Close(shutdownCtx); err != nil {
		log.Printf("Recording stop failed: %v", err)
	}
	a.scene.Stop()
	return runErr
}

// runFrames is the frame loop. It is the only caller of Scene.Tick.
func (a *App) runFrames(ctx context.Context) {
	rate := a.config.Settings.Server.FrameRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt > maxFrameStep {
				dt = maxFrameStep
			}
			a.scene.Tick(dt, now)
		}
	}
}

// Reload applies a changed configuration. Only the photo count takes
// effect without a restart.
func (a *App) Reload(cfg config.Config) {
	n := cfg.Layout.PhotoCount
	a.scene.Post(func(s *scene.Scene) {
		if _, err := s.SetPhotoCount(n); err != nil {
			log.Printf("Photo count %d rejected: %v", n, err)
		}
	})
}

// SetGestureControl requests gesture or pointer control.
func (a *App) SetGestureControl(enabled bool) {
	mode := session.ControlPointer
	if enabled {
		mode = session.ControlGesture
	}
	a.applyInput(scene.Input{Type: scene.InputControl, Mode: string(mode)})
}

// Record starts a recording of kind.
func (a *App) Record(ctx context.Context, kind session.RecordingKind) error {
	return a.scene.Do(ctx, func(s *scene.Scene) error {
		_, err := s.StartRecording(kind)
		return err
	})
}

// Session returns the session state of the latest frame.
func (a *App) Session() session.State {
	return a.scene.Latest().Session
}

// Scene returns the scene.
func (a *App) Scene() *scene.Scene {
	return a.scene
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Store returns the store.
func (a *App) Store() *store.Store {
	return a.store
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Close releases the store, camera and detector. Call it after Run returns.
func (a *App) Close() error {
	a.motion.Close()
	var errs []error
	if a.detector != nil {
		errs = append(errs, a.detector.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
