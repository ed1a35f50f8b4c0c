package camera

import "gonum.org/v1/gonum/spatial/r3"

// Config holds camera poses and interpolation rates. Rates are per second
// and durations are in seconds.
type Config struct {
	DefaultPosition r3.Vec  `toml:"default_position"`
	DefaultTarget   r3.Vec  `toml:"default_target"`
	FOV             float64 `toml:"fov"`

	FocusDistance float64 `toml:"focus_distance"`
	OrbitRate     float64 `toml:"orbit_rate"`
	ArrivalEps    float64 `toml:"arrival_epsilon"`

	GestureRate        float64 `toml:"gesture_rate"`
	GestureZoomRadius  float64 `toml:"gesture_zoom_radius"`
	GestureFullRadius  float64 `toml:"gesture_full_radius"`
	MinHeight          float64 `toml:"min_height"`
	MaxHeight          float64 `toml:"max_height"`
	GestureLookAtDrop  float64 `toml:"gesture_look_at_drop"`
	PointerMinDistance float64 `toml:"pointer_min_distance"`
	PointerMaxDistance float64 `toml:"pointer_max_distance"`

	RotationRadius float64 `toml:"rotation_radius"`
	RotationHeight float64 `toml:"rotation_height"`
	// RotationPeriod and AlbumDwell follow the recording durations so a
	// full clip is exactly one revolution.
	RotationPeriod float64 `toml:"-"`
	RotationTarget r3.Vec  `toml:"rotation_target"`

	AlbumDwell float64 `toml:"-"`
	AlbumRate  float64 `toml:"album_rate"`
}

// DefaultConfig returns the camera used for the 14-unit tree.
func DefaultConfig() Config {
	return Config{
		DefaultPosition: r3.Vec{X: 0, Y: 0, Z: 32},
		DefaultTarget:   r3.Vec{X: 0, Y: -1, Z: 0},
		FOV:             50,

		FocusDistance: 6,
		OrbitRate:     8,
		ArrivalEps:    0.05,

		GestureRate:        4.8,
		GestureZoomRadius:  9,
		GestureFullRadius:  32,
		MinHeight:          -4,
		MaxHeight:          5,
		GestureLookAtDrop:  1,
		PointerMinDistance: 2,
		PointerMaxDistance: 100,

		RotationRadius: 40,
		RotationHeight: 15,
		RotationPeriod: 10,
		RotationTarget: r3.Vec{X: 0, Y: 5, Z: 0},

		AlbumDwell: 2.5,
		AlbumRate:  8,
	}
}
