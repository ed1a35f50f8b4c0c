package gesture

import "time"

// Config holds the classification thresholds and debounce lengths. Distances
// are in normalized image units.
type Config struct {
	// EdgeMargin discards frames whose wrist is this close to a frame edge.
	EdgeMargin        float64 `toml:"edge_margin"`
	FistPinch         float64 `toml:"fist_pinch"`
	SpreadDistance    float64 `toml:"spread_distance"`
	VelocityThreshold float64 `toml:"velocity_threshold"`

	PeaceFrames       int `toml:"peace_frames"`
	FistExplodeFrames int `toml:"fist_explode_frames"`
	FistZoomFrames    int `toml:"fist_zoom_frames"`
	OpenZoomFrames    int `toml:"open_zoom_frames"`

	PanSensitivity float64 `toml:"pan_sensitivity"`
	PanJitter      float64 `toml:"pan_jitter"`

	SwipeWindow     int     `toml:"swipe_window"`
	SwipeMinSamples int     `toml:"swipe_min_samples"`
	SwipeDistance   float64 `toml:"swipe_distance"`
	SwipeCooldownMs int     `toml:"swipe_cooldown_ms"`
}

// DefaultConfig returns thresholds tuned for a webcam at arm's length.
func DefaultConfig() Config {
	return Config{
		EdgeMargin:        0.05,
		FistPinch:         0.10,
		SpreadDistance:    0.18,
		VelocityThreshold: 0.04,

		PeaceFrames:       12,
		FistExplodeFrames: 10,
		FistZoomFrames:    8,
		OpenZoomFrames:    8,

		PanSensitivity: 6,
		PanJitter:      0.002,

		SwipeWindow:     10,
		SwipeMinSamples: 6,
		SwipeDistance:   0.15,
		SwipeCooldownMs: 800,
	}
}

// SwipeCooldown returns the minimum time between two swipes.
func (c Config) SwipeCooldown() time.Duration {
	return time.Duration(c.SwipeCooldownMs) * time.Millisecond
}
