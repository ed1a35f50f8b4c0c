package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumiere-studio/lumiere/internal/capture"
	"github.com/lumiere-studio/lumiere/internal/config"
	"github.com/lumiere-studio/lumiere/internal/detector"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/store"
	"github.com/lumiere-studio/lumiere/testdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

const waitFor = 3 * time.Second

// startTestApp runs an app with an in-memory store, no HTTP listener and an
// empty plugin directory until the test ends.
func startTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	cfg.Settings = testSettings(t)
	if cfg.Detector == nil {
		cfg.Detector = detector.NewMockDetector()
	}
	return launchApp(t, cfg)
}

func testSettings(t *testing.T) config.Config {
	t.Helper()
	settings := config.Default()
	settings.Store.Path = ""
	settings.Server.Addr = ""
	settings.Layout.PhotoCount = 4
	settings.Recording.PluginDir = t.TempDir()
	settings.Capture.IdleFPS = 30
	settings.Capture.ActiveFPS = 30
	return settings
}

// launchApp runs the app built from cfg as given.
func launchApp(t *testing.T, cfg Config) *App {
	t.Helper()

	app, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after cancel")
		}
		assert.NoError(t, app.Close())
	})
	return app
}

func requestGesture(t *testing.T, app *App) {
	t.Helper()
	err := app.Scene().Do(context.Background(), func(s *scene.Scene) error {
		s.Session().RequestControl(session.ControlGesture)
		return nil
	})
	require.NoError(t, err)
}

func blankFrames(t *testing.T) []*gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return []*gocv.Mat{&frame}
}

func TestApp_GestureControl_WithTracking(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	cam := capture.NewMockCamera(blankFrames(t), true)

	app := startTestApp(t, Config{Camera: cam, Detector: det})
	requestGesture(t, app)

	assert.Eventually(t, func() bool {
		st := app.Session()
		return st.Control == session.ControlGesture && !st.PendingGesture
	}, waitFor, 20*time.Millisecond, "gesture control never confirmed")

	assert.Eventually(t, func() bool {
		return app.Scene().Latest().Hand != nil
	}, waitFor, 20*time.Millisecond, "hand never reached the frame")

	_, seq := app.preview.Latest()
	assert.NotZero(t, seq, "expected preview frames")
	assert.Positive(t, cam.Reads())
	assert.Positive(t, det.Calls())
	assert.True(t, cam.IsOpen())

	app.SetGestureControl(false)
	assert.Eventually(t, func() bool {
		return !app.tracking() && !cam.IsOpen()
	}, waitFor, 20*time.Millisecond, "tracking kept running under pointer control")
}

func TestApp_GestureControl_Unavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tests := []struct {
		name string
		cfg  func(t *testing.T) Config
	}{
		{
			name: "no camera",
			cfg:  func(t *testing.T) Config { return Config{NoCamera: true} },
		},
		{
			name: "camera open fails",
			cfg: func(t *testing.T) Config {
				cam := capture.NewMockCamera(blankFrames(t), true)
				cam.SetOpenError(errors.New("device busy"))
				return Config{Camera: cam}
			},
		},
		{
			name: "detector fails",
			cfg: func(t *testing.T) Config {
				det := detector.NewMockDetector()
				det.SetError(errors.New("backend crashed"))
				return Config{Camera: capture.NewMockCamera(blankFrames(t), true), Detector: det}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := startTestApp(t, tt.cfg(t))
			requestGesture(t, app)

			assert.Eventually(t, func() bool {
				st := app.Session()
				return st.Control == session.ControlPointer && !st.PendingGesture
			}, waitFor, 20*time.Millisecond, "expected fallback to pointer control")
		})
	}
}

func TestApp_GestureControl_NoDetectionService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	settings := testSettings(t)
	settings.Detector.ScriptPath = filepath.Join(t.TempDir(), "missing_service.py")
	cam := capture.NewMockCamera(blankFrames(t), true)

	app := launchApp(t, Config{Settings: settings, Camera: cam})
	require.Nil(t, app.detector)

	requestGesture(t, app)
	assert.Eventually(t, func() bool {
		st := app.Session()
		return st.Control == session.ControlPointer && !st.PendingGesture
	}, waitFor, 20*time.Millisecond, "expected fallback to pointer control")

	assert.False(t, app.tracking())
	assert.False(t, cam.IsOpen())
	assert.Zero(t, cam.Reads())
}

func TestApp_DeleteInput_DropsStoredImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := startTestApp(t, Config{NoCamera: true})
	lib := app.Server().Library()
	require.NotNil(t, lib)

	names := testdata.PhotoNames()
	require.NotEmpty(t, names)
	data, err := testdata.Photo(names[0])
	require.NoError(t, err)

	filled, err := lib.Add(context.Background(), [][]byte{data}, store.PhotoSourceUpload,
		func(m *session.Manager, refs []string) []string {
			id := m.Photos()[0].ID
			m.SetImage(id, refs[0])
			return []string{id}
		})
	require.NoError(t, err)
	require.Len(t, filled, 1)

	stored, err := app.Store().Photos().List()
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Same path as a websocket delete event.
	app.applyInput(scene.Input{Type: scene.InputDelete, ID: filled[0]})

	assert.Eventually(t, func() bool {
		stored, err := app.Store().Photos().List()
		return err == nil && len(stored) == 0
	}, waitFor, 20*time.Millisecond, "deleted photo's image stayed in the store")
	assert.Eventually(t, func() bool {
		return len(app.Scene().Latest().Photos) == 3
	}, waitFor, 20*time.Millisecond)
}

func TestApp_Record_JournalsFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := startTestApp(t, Config{NoCamera: true})
	require.NoError(t, app.Record(context.Background(), session.RecordingFull))

	var recs []*store.Recording
	require.Eventually(t, func() bool {
		var err error
		recs, err = app.Store().Recordings().List()
		return err == nil && len(recs) == 1
	}, waitFor, 20*time.Millisecond)

	assert.Equal(t, store.RecordingFailed, recs[0].Status)
	assert.Equal(t, string(session.RecordingFull), recs[0].Kind)
	assert.Equal(t, 4, recs[0].PhotoCount)

	assert.Eventually(t, func() bool {
		return !app.Session().Recording
	}, waitFor, 20*time.Millisecond, "session stayed in recording after failed start")
}

func TestApp_Reload_PhotoCount(t *testing.T) {
	app := startTestApp(t, Config{NoCamera: true})

	settings := config.Default()
	settings.Layout.PhotoCount = 7
	app.Reload(settings)

	assert.Eventually(t, func() bool {
		return len(app.Scene().Latest().Photos) == 7
	}, waitFor, 20*time.Millisecond)
}
