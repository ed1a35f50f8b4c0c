// Package camera owns the scene camera. A Controller arbitrates between
// pointer orbit, gesture navigation and the scripted recording paths, and
// interpolates in cylindrical coordinates around the tree's vertical axis so
// transitions swing around the tree instead of cutting through it.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cylindrical is a camera position around the tree axis. Angle is measured
// from +Z towards +X, matching the yaw photos are given.
type Cylindrical struct {
	Angle  float64 `json:"angle"`
	Height float64 `json:"height"`
	Radius float64 `json:"radius"`
}

// FromPosition converts a world position to cylindrical coordinates.
func FromPosition(p r3.Vec) Cylindrical {
	return Cylindrical{
		Angle:  math.Atan2(p.X, p.Z),
		Height: p.Y,
		Radius: math.Hypot(p.X, p.Z),
	}
}

// Position converts back to a world position.
func (c Cylindrical) Position() r3.Vec {
	return r3.Vec{
		X: math.Sin(c.Angle) * c.Radius,
		Y: c.Height,
		Z: math.Cos(c.Angle) * c.Radius,
	}
}

// WrapAngle maps a to [-π, π).
func WrapAngle(a float64) float64 {
	return a - 2*math.Pi*math.Floor((a+math.Pi)/(2*math.Pi))
}

// ShortestAngle returns the signed rotation from one angle to another that
// never exceeds half a turn.
func ShortestAngle(from, to float64) float64 {
	return WrapAngle(to - from)
}

// approach moves c towards target by the fraction k, taking the short way
// around for the angle.
func (c Cylindrical) approach(target Cylindrical, k float64) Cylindrical {
	return Cylindrical{
		Angle:  WrapAngle(c.Angle + ShortestAngle(c.Angle, target.Angle)*k),
		Height: c.Height + (target.Height-c.Height)*k,
		Radius: c.Radius + (target.Radius-c.Radius)*k,
	}
}

// lerp moves a towards b by the fraction k.
func lerp(a, b r3.Vec, k float64) r3.Vec {
	return r3.Add(a, r3.Scale(k, r3.Sub(b, a)))
}

// step converts a rate per second to a per-frame fraction in [0, 1].
func step(rate, dt float64) float64 {
	return math.Max(0, math.Min(1, rate*dt))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
