package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark backends.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. The gesture
	// pipeline only ever reads the first one.
	MaxHands int `toml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `toml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `toml:"min_tracking_confidence"`

	// IdleShutdownMs stops the detection service after this long without
	// frames. Zero keeps it running.
	IdleShutdownMs int `toml:"idle_shutdown_ms"`

	// ScriptPath pins the detection service script. Empty searches the
	// usual install locations.
	ScriptPath string `toml:"script_path"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleShutdownMs:  30000,
	}
}
