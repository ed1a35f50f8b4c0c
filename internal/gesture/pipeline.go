package gesture

import (
	"math"
	"time"

	"github.com/lumiere-studio/lumiere/internal/detector"
)

// Context is the session state the pipeline needs to pick which gestures
// are live. It is read, never written.
type Context struct {
	Zoomed   bool
	Exploded bool
}

// Pipeline holds the rolling per-hand state between detection frames. It is
// polled once per render frame and ignores frames it has already seen, so it
// tolerates any ratio between render and detection rates.
type Pipeline struct {
	cfg Config

	peace       Debouncer
	fistExplode Debouncer
	fistZoom    Debouncer
	openZoom    Debouncer

	lastSeq   uint64
	lastWrist detector.Point3D
	hasLast   bool

	swipe     []float64
	lastSwipe time.Time

	pose     Pose
	handSeen bool
}

// NewPipeline creates a pipeline with the given thresholds.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		peace:       NewDebouncer(cfg.PeaceFrames),
		fistExplode: NewDebouncer(cfg.FistExplodeFrames),
		fistZoom:    NewDebouncer(cfg.FistZoomFrames),
		openZoom:    NewDebouncer(cfg.OpenZoomFrames),
		swipe:       make([]float64, 0, cfg.SwipeWindow),
	}
}

// Observe processes a detection frame and returns the actions it produced,
// in the order discrete events, pan, swipe. A frame whose Seq was already
// observed produces nothing and changes nothing.
func (p *Pipeline) Observe(frame detector.Frame, ctx Context) []Action {
	if frame.Seq == p.lastSeq {
		return nil
	}
	p.lastSeq = frame.Seq

	hand, ok := frame.Hand()
	if !ok {
		p.Reset()
		return nil
	}
	p.handSeen = true

	wrist := hand.Points[detector.Wrist]
	if p.nearEdge(wrist) {
		p.swipe = p.swipe[:0]
		p.hasLast = false
		return nil
	}

	pose := Classify(hand, p.cfg)
	p.pose = pose

	var dx, dy float64
	if p.hasLast {
		dx = wrist.X - p.lastWrist.X
		dy = wrist.Y - p.lastWrist.Y
	}
	fast := math.Hypot(dx, dy) > p.cfg.VelocityThreshold

	var actions []Action

	if p.peace.Observe(pose.Peace) {
		actions = append(actions, Explode{})
	}
	if p.fistExplode.Observe(pose.Fist && ctx.Exploded) {
		actions = append(actions, Explode{})
	}
	if p.fistZoom.Observe(ctx.Zoomed && pose.Fist && !fast) {
		actions = append(actions, ZoomOut{})
	}
	if p.openZoom.Observe(!ctx.Zoomed && pose.OpenPalm() && !fast) {
		actions = append(actions, ZoomIn{})
	}

	if !ctx.Zoomed && !pose.OpenPalm() && p.hasLast {
		if math.Abs(dx) > p.cfg.PanJitter || math.Abs(dy) > p.cfg.PanJitter {
			actions = append(actions, Pan{
				DX: dx * -1 * p.cfg.PanSensitivity,
				DY: dy * p.cfg.PanSensitivity,
			})
		}
	}

	if ctx.Zoomed && !pose.Fist {
		if a, ok := p.observeSwipe(wrist.X, frame.At); ok {
			actions = append(actions, a)
		}
	} else {
		p.swipe = p.swipe[:0]
	}

	p.lastWrist = wrist
	p.hasLast = true

	return actions
}

// observeSwipe appends x to the swipe window and checks for a swipe. In raw
// camera coordinates a hand moving to the user's right decreases x, which
// reads as Next.
func (p *Pipeline) observeSwipe(x float64, now time.Time) (Action, bool) {
	if p.cfg.SwipeWindow > 0 && len(p.swipe) >= p.cfg.SwipeWindow {
		copy(p.swipe, p.swipe[1:])
		p.swipe = p.swipe[:len(p.swipe)-1]
	}
	p.swipe = append(p.swipe, x)

	if len(p.swipe) < p.cfg.SwipeMinSamples {
		return nil, false
	}
	if !p.lastSwipe.IsZero() && now.Sub(p.lastSwipe) < p.cfg.SwipeCooldown() {
		return nil, false
	}

	delta := p.swipe[len(p.swipe)-1] - p.swipe[0]
	if math.Abs(delta) <= p.cfg.SwipeDistance {
		return nil, false
	}

	p.lastSwipe = now
	p.swipe = p.swipe[:0]

	if delta < 0 {
		return Next{}, true
	}
	return Prev{}, true
}

func (p *Pipeline) nearEdge(wrist detector.Point3D) bool {
	m := p.cfg.EdgeMargin
	return wrist.X < m || wrist.X > 1-m || wrist.Y < m || wrist.Y > 1-m
}

// Reset drops all rolling state: debounce counters, swipe history and the
// last wrist position. The swipe cooldown survives so a hand that blinks out
// cannot double-swipe.
func (p *Pipeline) Reset() {
	p.peace.Reset()
	p.fistExplode.Reset()
	p.fistZoom.Reset()
	p.openZoom.Reset()
	p.swipe = p.swipe[:0]
	p.hasLast = false
	p.pose = Pose{}
	p.handSeen = false
}

// Pose returns the classification of the last frame that had a hand.
func (p *Pipeline) Pose() (Pose, bool) {
	return p.pose, p.handSeen
}

// Counts reports the current debounce run lengths, for diagnostics.
func (p *Pipeline) Counts() map[string]int {
	return map[string]int{
		"peace":        p.peace.Count(),
		"fist_explode": p.fistExplode.Count(),
		"fist_zoom":    p.fistZoom.Count(),
		"open_zoom":    p.openZoom.Count(),
	}
}
