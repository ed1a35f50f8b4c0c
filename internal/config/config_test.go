package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumiere-studio/lumiere/internal/store"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30, cfg.Layout.PhotoCount)
	assert.Equal(t, 14.0, cfg.Tree.Height)
	assert.Equal(t, 60, cfg.Server.FrameRate)
	assert.Equal(t, store.MemoryDSN, cfg.Store.Path)
	assert.Equal(t, 80, cfg.Layout.Scatter.OrnamentCount)
	assert.Equal(t, 10.0, cfg.Recording.FullSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	path := filepath.Join(t.TempDir(), "lumiere.toml")
	writeConfig(t, path, `
[layout]
photo_count = 12
seed = 7

[layout.scatter]
ornament_count = 40

[gesture]
peace_frames = 20

[server]
addr = "127.0.0.1:9000"

[import]
webhook_url = "http://localhost:5678/webhook"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Layout.PhotoCount)
	assert.Equal(t, uint64(7), cfg.Layout.Seed)
	assert.Equal(t, 40, cfg.Layout.Scatter.OrnamentCount)
	assert.Equal(t, 20, cfg.Gesture.PeaceFrames)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:5678/webhook", cfg.Import.WebhookURL)

	def := Default()
	assert.Equal(t, def.Layout.Scatter.PresentCount, cfg.Layout.Scatter.PresentCount)
	assert.Equal(t, def.Gesture.FistZoomFrames, cfg.Gesture.FistZoomFrames)
	assert.Equal(t, def.Server.FrameRate, cfg.Server.FrameRate)
	assert.Equal(t, def.Camera, cfg.Camera)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumiere.toml")
	writeConfig(t, path, "[import]\nwebhook_url = \"http://file\"\n")
	t.Setenv(EnvWebhookURL, "http://env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.Import.WebhookURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")

	tests := []struct {
		name string
		body string
	}{
		{"malformed", "[layout\nphoto_count = 3"},
		{"negative photo count", "[layout]\nphoto_count = -1\n"},
		{"zero frame rate", "[server]\nframe_rate = 0\n"},
		{"zero per-photo seconds", "[recording]\nper_photo_seconds = 0\n"},
		{"inverted camera heights", "[camera]\nmin_height = 6\n"},
		{"zero pointer distance", "[camera]\npointer_min_distance = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lumiere.toml")
			writeConfig(t, path, tt.body)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Scene(t *testing.T) {
	cfg := Default()
	cfg.Layout.PhotoCount = 5
	cfg.Layout.Seed = 99
	cfg.Scatter.ExplodeRate = 4

	sc := cfg.Scene()
	assert.Equal(t, 5, sc.PhotoCount)
	assert.Equal(t, uint64(99), sc.Seed)
	assert.Equal(t, 4.0, sc.Scatter.ExplodeRate)
	assert.Equal(t, cfg.Tree, sc.Tree)
	assert.Equal(t, cfg.Layout.Scatter, sc.Layout)
}

func TestConfig_Scene_SharedBounds(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	path := filepath.Join(t.TempDir(), "lumiere.toml")
	writeConfig(t, path, `
[camera]
max_height = 8

[recording]
full_seconds = 12
per_photo_seconds = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	sc := cfg.Scene()
	assert.Equal(t, 8.0, sc.Session.MaxHeight)
	assert.Equal(t, cfg.Camera.MinHeight, sc.Session.MinHeight)
	assert.Equal(t, 12.0, sc.Camera.RotationPeriod)
	assert.Equal(t, 3.0, sc.Camera.AlbumDwell)
}

func TestWatch(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	path := filepath.Join(t.TempDir(), "lumiere.toml")
	writeConfig(t, path, "[layout]\nphoto_count = 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg Config) { reloaded <- cfg })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "[layout]\nphoto_count = 18\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 18, cfg.Layout.PhotoCount)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
