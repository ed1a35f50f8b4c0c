// Package config loads the Lumiere configuration from a TOML file. Every
// field has a default, so an empty or missing file is a valid config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/lumiere-studio/lumiere/internal/camera"
	"github.com/lumiere-studio/lumiere/internal/capture"
	"github.com/lumiere-studio/lumiere/internal/detector"
	"github.com/lumiere-studio/lumiere/internal/gesture"
	"github.com/lumiere-studio/lumiere/internal/importer"
	"github.com/lumiere-studio/lumiere/internal/layout"
	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scatter"
	"github.com/lumiere-studio/lumiere/internal/scene"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/lumiere-studio/lumiere/internal/spiral"
	"github.com/lumiere-studio/lumiere/internal/store"
)

// EnvWebhookURL overrides Import.WebhookURL when set.
const EnvWebhookURL = "LUMIERE_WEBHOOK_URL"

// Config is the complete application configuration.
type Config struct {
	Tree      spiral.Config    `toml:"tree"`
	Layout    Layout           `toml:"layout"`
	Session   session.Config   `toml:"session"`
	Camera    camera.Config    `toml:"camera"`
	Gesture   gesture.Config   `toml:"gesture"`
	Scatter   scatter.Config   `toml:"scatter"`
	Recording recording.Config `toml:"recording"`
	Server    Server           `toml:"server"`
	Capture   capture.Config   `toml:"capture"`
	Detector  detector.Config  `toml:"detector"`
	Import    importer.Config  `toml:"import"`
	Store     Store            `toml:"store"`
}

// Layout controls photo placement and the decorative scatter.
type Layout struct {
	PhotoCount int                  `toml:"photo_count"`
	Seed       uint64               `toml:"seed"`
	Scatter    layout.ScatterConfig `toml:"scatter"`
}

// Server configures the HTTP surface and the frame loop.
type Server struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
	// FrameRate is the frame-loop tick rate in Hz.
	FrameRate int `toml:"frame_rate"`
	// StreamFPS caps the MJPEG preview.
	StreamFPS      int   `toml:"stream_fps"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	// MaxImageSize is the longest side, in pixels, kept for uploaded photos.
	MaxImageSize    int `toml:"max_image_size"`
	PlaceholderSize int `toml:"placeholder_size"`
}

// Store configures the photo cache.
type Store struct {
	// Path is a SQLite DSN. The in-memory default keeps photos for the
	// lifetime of the process only.
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	sc := scene.DefaultConfig()
	return Config{
		Tree: sc.Tree,
		Layout: Layout{
			PhotoCount: sc.PhotoCount,
			Seed:       sc.Seed,
			Scatter:    sc.Layout,
		},
		Session:   sc.Session,
		Camera:    sc.Camera,
		Gesture:   sc.Gesture,
		Scatter:   sc.Scatter,
		Recording: recording.DefaultConfig(),
		Server: Server{
			Addr:            ":8080",
			StaticDir:       "web",
			FrameRate:       60,
			StreamFPS:       15,
			MaxUploadBytes:  64 << 20,
			MaxImageSize:    1600,
			PlaceholderSize: 512,
		},
		Capture:  capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Import:   importer.DefaultConfig(),
		Store:    Store{Path: store.MemoryDSN},
	}
}

// Load reads path over the defaults. A missing file is not an error. An
// empty path skips the file and only applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if url := os.Getenv(EnvWebhookURL); url != "" {
		cfg.Import.WebhookURL = url
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	if c.Layout.PhotoCount < 0 {
		return fmt.Errorf("layout.photo_count must not be negative, got %d", c.Layout.PhotoCount)
	}
	if c.Server.FrameRate <= 0 {
		return fmt.Errorf("server.frame_rate must be positive, got %d", c.Server.FrameRate)
	}
	if c.Tree.Height <= 0 {
		return fmt.Errorf("tree.height must be positive, got %v", c.Tree.Height)
	}
	if c.Recording.FullSeconds <= 0 {
		return fmt.Errorf("recording.full_seconds must be positive, got %v", c.Recording.FullSeconds)
	}
	if c.Recording.PerPhotoSeconds <= 0 {
		return fmt.Errorf("recording.per_photo_seconds must be positive, got %v", c.Recording.PerPhotoSeconds)
	}
	if c.Camera.MinHeight > c.Camera.MaxHeight {
		return fmt.Errorf("camera.min_height %v is above camera.max_height %v", c.Camera.MinHeight, c.Camera.MaxHeight)
	}
	if c.Camera.PointerMinDistance <= 0 || c.Camera.PointerMinDistance > c.Camera.PointerMaxDistance {
		return fmt.Errorf("camera pointer distances must satisfy 0 < min <= max, got %v and %v",
			c.Camera.PointerMinDistance, c.Camera.PointerMaxDistance)
	}
	return nil
}

// Scene returns the scene configuration.
func (c Config) Scene() scene.Config {
	sc := scene.DefaultConfig()
	sc.Tree = c.Tree
	sc.Layout = c.Layout.Scatter
	sc.PhotoCount = c.Layout.PhotoCount
	sc.Seed = c.Layout.Seed
	sc.Session = c.Session
	sc.Gesture = c.Gesture
	sc.Camera = c.Camera
	sc.Scatter = c.Scatter

	sc.Session.MinHeight = c.Camera.MinHeight
	sc.Session.MaxHeight = c.Camera.MaxHeight
	sc.Camera.RotationPeriod = c.Recording.FullSeconds
	sc.Camera.AlbumDwell = c.Recording.PerPhotoSeconds
	return sc
}
