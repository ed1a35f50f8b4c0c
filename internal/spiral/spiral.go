// Package spiral generates the conical helix that photos and the light string
// are placed along.
package spiral

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Config describes the tree cone and the helix wound around it.
type Config struct {
	// Height is the total tree height; the helix is centred on y=0.
	Height float64 `toml:"height"`

	// RadiusBottom is the cone radius at the base (t=0).
	RadiusBottom float64 `toml:"radius_bottom"`

	// RadiusOffset is added to the cone radius so the helix floats
	// just outside the branches.
	RadiusOffset float64 `toml:"radius_offset"`

	// Loops is the number of full turns from base to apex.
	Loops float64 `toml:"loops"`
}

// DefaultConfig returns the tree proportions used by the scene.
func DefaultConfig() Config {
	return Config{
		Height:       14,
		RadiusBottom: 6,
		RadiusOffset: 0.6,
		Loops:        5.5,
	}
}

// Point returns the helix position at normalized progress t, where t=0 is the
// base of the tree and t=1 is the apex.
func (c Config) Point(t float64) r3.Vec {
	y := t*c.Height - c.Height/2

	// Radius shrinks linearly towards the apex.
	radius := c.RadiusBottom*(1-t) + c.RadiusOffset

	angle := t * c.Loops * 2 * math.Pi

	return r3.Vec{
		X: math.Cos(angle) * radius,
		Y: y,
		Z: math.Sin(angle) * radius,
	}
}

// Radius returns the horizontal distance of the helix from the tree axis at t.
func (c Config) Radius(t float64) float64 {
	return c.RadiusBottom*(1-t) + c.RadiusOffset
}

// Samples returns n+1 evenly spaced helix points from t=0 to t=1.
// It is used for the decorative light string.
func (c Config) Samples(n int) []r3.Vec {
	if n <= 0 {
		return []r3.Vec{c.Point(0)}
	}

	points := make([]r3.Vec, n+1)
	for i := 0; i <= n; i++ {
		points[i] = c.Point(float64(i) / float64(n))
	}
	return points
}

// Facing returns the yaw that turns an object at p to face away from the tree
// axis. Photos and the camera focus pose share this convention.
func Facing(p r3.Vec) float64 {
	return math.Atan2(p.X, p.Z)
}
