package capture

import "time"

// Cadence switches the tracking loop between an idle and an active frame
// rate. Any motion or visible hand keeps it active; it drops back to idle
// once nothing has happened for IdleAfter.
type Cadence struct {
	IdleFPS   int
	ActiveFPS int
	IdleAfter time.Duration

	active   bool
	lastSeen time.Time
}

// NewCadence creates a Cadence from capture settings. It starts idle.
func NewCadence(config Config) *Cadence {
	return &Cadence{
		IdleFPS:   config.IdleFPS,
		ActiveFPS: config.ActiveFPS,
		IdleAfter: time.Duration(config.IdleAfterMs) * time.Millisecond,
	}
}

// Observe records what the latest frame showed and returns the frame rate to
// use next. changed is true when the rate differs from the previous call.
func (c *Cadence) Observe(motion, hand bool, now time.Time) (fps int, changed bool) {
	if motion || hand {
		c.lastSeen = now
		if !c.active {
			c.active = true
			return c.ActiveFPS, true
		}
		return c.ActiveFPS, false
	}

	if c.active && now.Sub(c.lastSeen) > c.IdleAfter {
		c.active = false
		return c.IdleFPS, true
	}

	return c.FPS(), false
}

// Active reports whether the cadence is at the active rate.
func (c *Cadence) Active() bool {
	return c.active
}

// FPS returns the current frame rate.
func (c *Cadence) FPS() int {
	if c.active {
		return c.ActiveFPS
	}
	return c.IdleFPS
}

// Interval returns the tick interval for the current frame rate.
func (c *Cadence) Interval() time.Duration {
	fps := c.FPS()
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}
