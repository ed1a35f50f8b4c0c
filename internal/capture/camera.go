// Package capture reads webcam frames for hand tracking using GoCV (OpenCV)
// and decides how often they need to be read.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device delivered nothing.
	ErrNoFrame = errors.New("no frame from camera")
)

// Config describes the capture device. Hand landmarks are resolution
// independent, so a small frame keeps detection latency down.
type Config struct {
	DeviceID int `toml:"device_id"`
	Width    int `toml:"width"`
	Height   int `toml:"height"`
	// Mirrored undoes a driver that delivers selfie-flipped frames, so a
	// hand moving right still decreases x.
	Mirrored bool `toml:"mirrored"`
	IdleFPS  int  `toml:"idle_fps"`
	// ActiveFPS is used while motion or a hand was seen recently.
	ActiveFPS int `toml:"active_fps"`
	// MotionThreshold is the percentage of changed pixels that counts as motion.
	MotionThreshold float64 `toml:"motion_threshold"`
	// IdleAfterMs is how long the scene must be still before dropping to IdleFPS.
	IdleAfterMs int `toml:"idle_after_ms"`
}

// DefaultConfig returns capture settings for a typical laptop webcam.
func DefaultConfig() Config {
	return Config{
		Width:           640,
		Height:          480,
		IdleFPS:         5,
		ActiveFPS:       30,
		MotionThreshold: 1.0,
		IdleAfterMs:     2000,
	}
}

// Camera is a frame source for the tracking loop.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the newest frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// webcam reads from an OpenCV capture device.
type webcam struct {
	cfg Config

	mu     sync.Mutex
	device *gocv.VideoCapture
	fps    int
}

// NewCamera creates a Camera for the configured device. It starts at the
// idle frame rate and is not opened until Open.
func NewCamera(config Config) Camera {
	fps := config.IdleFPS
	if fps <= 0 {
		fps = DefaultConfig().IdleFPS
	}
	return &webcam{cfg: config, fps: fps}
}

// Open opens the device. Opening an open camera is a no-op.
func (c *webcam) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return nil
	}

	device, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.DeviceID, err)
	}
	if !device.IsOpened() {
		device.Close()
		return fmt.Errorf("open camera %d: device unavailable", c.cfg.DeviceID)
	}

	if c.cfg.Width > 0 && c.cfg.Height > 0 {
		device.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		device.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	}
	// The loop reads slower than the device at the idle rate; a one-frame
	// buffer keeps ReadFrame from returning stale frames.
	device.Set(gocv.VideoCaptureBufferSize, 1)
	device.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.device = device
	return nil
}

// Close releases the device.
func (c *webcam) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}
	err := c.device.Close()
	c.device = nil
	return err
}

func (c *webcam) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.device.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrNoFrame
	}
	if c.cfg.Mirrored {
		gocv.Flip(mat, &mat, 1)
	}
	return &mat, nil
}

// SetFPS changes the capture rate. Values <= 0 are ignored.
func (c *webcam) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.device != nil {
		c.device.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *webcam) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *webcam) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device != nil
}
