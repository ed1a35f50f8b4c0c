package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is the controller's drive state.
type State int

const (
	OrbitIdle State = iota
	OrbitAnimating
	GestureDriven
	RecordingFullRotation
	RecordingAlbumTour
)

func (s State) String() string {
	switch s {
	case OrbitIdle:
		return "orbit_idle"
	case OrbitAnimating:
		return "orbit_animating"
	case GestureDriven:
		return "gesture_driven"
	case RecordingFullRotation:
		return "recording_full_rotation"
	case RecordingAlbumTour:
		return "recording_album_tour"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for st := OrbitIdle; st <= RecordingAlbumTour; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown camera state %q", text)
}

// Script selects a scripted recording path.
type Script int

const (
	ScriptNone Script = iota
	ScriptFullRotation
	ScriptAlbumTour
)

// Focus is a photo the camera can look at.
type Focus struct {
	ID       string
	Position r3.Vec
	Yaw      float64
}

// Orbit is pointer input accumulated since the last frame.
type Orbit struct {
	// Angle rotates around the orbit target, in radians.
	Angle float64
	// Height moves the camera vertically, in world units.
	Height float64
	// Dolly scales the distance to the target; 0 means unchanged.
	Dolly float64
}

// Inputs is the read-only snapshot the controller consumes each frame.
type Inputs struct {
	Gesture bool
	Zoomed  bool
	Focus   *Focus
	PanX    float64
	PanY    float64

	Script  Script
	Elapsed float64
	Album   []Focus

	Orbit Orbit
}

// Pose is the camera transform handed to the renderer.
type Pose struct {
	Position r3.Vec  `json:"position"`
	Target   r3.Vec  `json:"target"`
	State    State   `json:"state"`
	FOV      float64 `json:"fov"`
}

type drive int

const (
	drivePointer drive = iota
	driveGesture
	driveFullRotation
	driveAlbumTour
)

type focusKey struct {
	zoomed bool
	id     string
}

// Controller is the only writer of the camera transform.
type Controller struct {
	cfg Config

	state    State
	drive    drive
	cyl      Cylindrical
	position r3.Vec
	target   r3.Vec

	lastFocus focusKey
}

// NewController places the camera at the default full-tree pose.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:      cfg,
		state:    OrbitIdle,
		drive:    drivePointer,
		cyl:      FromPosition(cfg.DefaultPosition),
		position: cfg.DefaultPosition,
		target:   cfg.DefaultTarget,
	}
}

// State returns the current drive state.
func (c *Controller) State() State {
	return c.state
}

// Cylindrical returns the controller's internal cylindrical state.
func (c *Controller) Cylindrical() Cylindrical {
	return c.cyl
}

// Pose returns the current camera transform.
func (c *Controller) Pose() Pose {
	return Pose{Position: c.position, Target: c.target, State: c.state, FOV: c.cfg.FOV}
}

// FocusPose returns the ideal camera position for viewing a photo: dist units
// out along the photo's facing direction, level with it.
func FocusPose(position r3.Vec, yaw, dist float64) r3.Vec {
	return r3.Add(position, r3.Scale(dist, r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}))
}

// Update advances the camera by dt seconds. A change of drive mode runs the
// new mode's enter hook first, which re-syncs the cylindrical state from
// wherever the camera currently is.
func (c *Controller) Update(dt float64, in Inputs) Pose {
	d := selectDrive(in)
	if d != c.drive {
		c.enter(d, in)
	}

	switch c.drive {
	case driveFullRotation:
		c.updateFullRotation(in)
	case driveAlbumTour:
		c.updateAlbumTour(dt, in)
	case driveGesture:
		c.updateGesture(dt, in)
	default:
		key := focusKeyOf(in)
		if key != c.lastFocus {
			c.lastFocus = key
			c.resync()
			c.state = OrbitAnimating
		}
		if c.state == OrbitAnimating {
			c.updateAnimating(dt, in)
		} else {
			c.updateIdle(in)
		}
	}

	return c.Pose()
}

func selectDrive(in Inputs) drive {
	switch in.Script {
	case ScriptFullRotation:
		return driveFullRotation
	case ScriptAlbumTour:
		return driveAlbumTour
	}
	if in.Gesture {
		return driveGesture
	}
	return drivePointer
}

func focusKeyOf(in Inputs) focusKey {
	k := focusKey{zoomed: in.Zoomed}
	if in.Zoomed && in.Focus != nil {
		k.id = in.Focus.ID
	}
	return k
}

// enter switches drive mode.
func (c *Controller) enter(d drive, in Inputs) {
	c.drive = d
	c.resync()

	switch d {
	case driveFullRotation:
		c.state = RecordingFullRotation
	case driveAlbumTour:
		c.state = RecordingAlbumTour
	case driveGesture:
		c.state = GestureDriven
	default:
		c.lastFocus = focusKeyOf(in)
		c.state = OrbitAnimating
	}
}

func (c *Controller) resync() {
	c.cyl = FromPosition(c.position)
}

// focusTarget returns where the camera should end up and what it should look
// at for the given inputs in pointer mode.
func (c *Controller) focusTarget(in Inputs) (Cylindrical, r3.Vec) {
	if in.Zoomed && in.Focus != nil {
		pos := FocusPose(in.Focus.Position, in.Focus.Yaw, c.cfg.FocusDistance)
		return FromPosition(pos), in.Focus.Position
	}
	return FromPosition(c.cfg.DefaultPosition), c.cfg.DefaultTarget
}

func (c *Controller) updateAnimating(dt float64, in Inputs) {
	goal, look := c.focusTarget(in)
	k := step(c.cfg.OrbitRate, dt)

	c.cyl = c.cyl.approach(goal, k)
	c.position = c.cyl.Position()
	c.target = lerp(c.target, look, k)

	ideal := goal.Position()
	if r3.Norm(r3.Sub(c.position, ideal)) < c.cfg.ArrivalEps && r3.Norm(r3.Sub(c.target, look)) < c.cfg.ArrivalEps {
		c.cyl = goal
		c.position = ideal
		c.target = look
		c.state = OrbitIdle
	}
}

// updateIdle applies pointer orbit around the current target.
func (c *Controller) updateIdle(in Inputs) {
	o := in.Orbit
	if o.Angle == 0 && o.Height == 0 && o.Dolly == 0 {
		return
	}

	rel := FromPosition(r3.Sub(c.position, c.target))
	rel.Angle = WrapAngle(rel.Angle + o.Angle)
	rel.Height += o.Height

	if o.Dolly > 0 {
		dist := math.Hypot(rel.Radius, rel.Height) * o.Dolly
		dist = clamp(dist, c.cfg.PointerMinDistance, c.cfg.PointerMaxDistance)
		scale := dist / math.Max(math.Hypot(rel.Radius, rel.Height), 1e-9)
		rel.Radius *= scale
		rel.Height *= scale
	}
	rel.Radius = math.Max(rel.Radius, 1e-3)

	c.position = r3.Add(c.target, rel.Position())
	c.resync()
}

func (c *Controller) updateGesture(dt float64, in Inputs) {
	var goal Cylindrical
	var look r3.Vec

	switch {
	case in.Zoomed && in.Focus != nil:
		goal = FromPosition(FocusPose(in.Focus.Position, in.Focus.Yaw, c.cfg.FocusDistance))
		look = in.Focus.Position
	case in.Zoomed:
		h := clamp(in.PanY, c.cfg.MinHeight, c.cfg.MaxHeight)
		goal = Cylindrical{Angle: in.PanX, Height: h, Radius: c.cfg.GestureZoomRadius}
		look = r3.Vec{Y: h - c.cfg.GestureLookAtDrop}
	default:
		h := clamp(in.PanY, c.cfg.MinHeight, c.cfg.MaxHeight)
		goal = Cylindrical{Angle: in.PanX, Height: h, Radius: c.cfg.GestureFullRadius}
		look = c.cfg.DefaultTarget
	}

	k := step(c.cfg.GestureRate, dt)
	c.cyl = c.cyl.approach(goal, k)
	c.position = c.cyl.Position()
	c.target = lerp(c.target, look, k)
}

// updateFullRotation places the camera on a fixed circle as a pure function
// of elapsed time.
func (c *Controller) updateFullRotation(in Inputs) {
	angle := in.Elapsed * 2 * math.Pi / c.cfg.RotationPeriod
	c.position = r3.Vec{
		X: math.Sin(angle) * c.cfg.RotationRadius,
		Y: c.cfg.RotationHeight,
		Z: math.Cos(angle) * c.cfg.RotationRadius,
	}
	c.target = c.cfg.RotationTarget
	c.resync()
}

func (c *Controller) updateAlbumTour(dt float64, in Inputs) {
	if len(in.Album) == 0 {
		return
	}

	photo := in.Album[AlbumIndex(in.Elapsed, c.cfg.AlbumDwell, len(in.Album))]
	ideal := FocusPose(photo.Position, photo.Yaw, c.cfg.FocusDistance)

	k := step(c.cfg.AlbumRate, dt)
	c.target = lerp(c.target, photo.Position, k)
	c.position = lerp(c.position, ideal, k)
	c.resync()
}

// AlbumIndex returns which photo the album tour shows after elapsed seconds.
func AlbumIndex(elapsed, dwell float64, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(math.Floor(elapsed / dwell))
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i
}
