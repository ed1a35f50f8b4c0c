// Package scatter animates the explode effect. Each group of entities shares
// one progress value that eases towards 1 while exploded and back to 0
// otherwise; an entity's position is its home plus its scatter vector
// scaled by that progress.
package scatter

import "math"

// Default rates per second. Reassembly is faster than the explosion.
const (
	DefaultExplodeRate = 3.0
	DefaultReturnRate  = 7.2

	// snapEpsilon ends the approach so a settled group sits exactly at 0 or 1.
	snapEpsilon = 1e-4
)

// Config holds the animation settings shared by the scene's groups.
type Config struct {
	ExplodeRate float64 `toml:"explode_rate"`
	ReturnRate  float64 `toml:"return_rate"`
	// Drift amplitudes at full explosion.
	ObjectDrift float64 `toml:"object_drift"`
	PhotoDrift  float64 `toml:"photo_drift"`
	// LightsHideAbove is the progress past which the light string disappears.
	LightsHideAbove float64 `toml:"lights_hide_above"`
}

// DefaultConfig returns the default animation settings.
func DefaultConfig() Config {
	return Config{
		ExplodeRate:     DefaultExplodeRate,
		ReturnRate:      DefaultReturnRate,
		ObjectDrift:     0.3,
		PhotoDrift:      0.2,
		LightsHideAbove: 0.95,
	}
}

// Animator eases a progress value towards the explode target. It has no
// discrete states, so toggling mid-flight simply reverses direction.
type Animator struct {
	Progress    float64 `json:"progress"`
	ExplodeRate float64 `json:"-"`
	ReturnRate  float64 `json:"-"`
}

// NewAnimator creates an assembled animator with the default rates.
func NewAnimator() Animator {
	return Animator{ExplodeRate: DefaultExplodeRate, ReturnRate: DefaultReturnRate}
}

// Update advances the animation by dt seconds and returns the new progress.
func (a *Animator) Update(dt float64, exploded bool) float64 {
	target, rate := 0.0, a.ReturnRate
	if exploded {
		target, rate = 1.0, a.ExplodeRate
	}

	k := math.Max(0, math.Min(1, rate*dt))
	a.Progress += (target - a.Progress) * k

	if math.Abs(target-a.Progress) < snapEpsilon {
		a.Progress = target
	}
	return a.Progress
}

// Settled reports whether the animator has reached the given state.
func (a *Animator) Settled(exploded bool) bool {
	if exploded {
		return a.Progress == 1
	}
	return a.Progress == 0
}
