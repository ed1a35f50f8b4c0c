package session

import (
	"math"
	"sort"

	"github.com/lumiere-studio/lumiere/internal/camera"
	"github.com/lumiere-studio/lumiere/internal/gesture"
	"github.com/lumiere-studio/lumiere/internal/layout"
)

// Photo is an active slot and its content. An empty ImageRef renders the
// slot's placeholder.
type Photo struct {
	layout.Slot
	ImageRef string `json:"imageRef,omitempty"`
}

// Config bounds the gesture pan accumulator.
type Config struct {
	// MinHeight and MaxHeight clamp the pan accumulator. They are the
	// camera's height bounds and are copied from the camera settings.
	MinHeight float64 `toml:"-"`
	MaxHeight float64 `toml:"-"`
	// AngleWeight converts an azimuth difference in radians to world units
	// when picking the photo nearest to the pan direction.
	AngleWeight float64 `toml:"angle_weight"`
}

// DefaultConfig matches the default camera bounds.
func DefaultConfig() Config {
	return Config{MinHeight: -4, MaxHeight: 5, AngleWeight: 6}
}

// Manager owns the session state and the ordered list of active photos.
// It is not safe for concurrent use; the frame loop is its only caller.
type Manager struct {
	cfg    Config
	state  State
	photos []Photo
}

// NewManager starts a session in pointer control, view mode and full zoom.
func NewManager(cfg Config, slots []layout.Slot) *Manager {
	m := &Manager{
		cfg: cfg,
		state: State{
			Control:     ControlPointer,
			Interaction: InteractionView,
			Zoom:        ZoomFull,
		},
	}
	m.photos = make([]Photo, len(slots))
	for i, s := range slots {
		m.photos[i] = Photo{Slot: s}
	}
	return m
}

// State returns a snapshot of the session state.
func (m *Manager) State() State {
	return m.state
}

// Photos returns a copy of the active photo list.
func (m *Manager) Photos() []Photo {
	out := make([]Photo, len(m.photos))
	copy(out, m.photos)
	return out
}

// Photo returns the active photo with the given id.
func (m *Manager) Photo(id string) (Photo, bool) {
	if i := m.indexOf(id); i >= 0 {
		return m.photos[i], true
	}
	return Photo{}, false
}

// Focused returns the focused photo, if any.
func (m *Manager) Focused() (Photo, bool) {
	if m.state.FocusedID == "" {
		return Photo{}, false
	}
	return m.Photo(m.state.FocusedID)
}

func (m *Manager) indexOf(id string) int {
	for i, p := range m.photos {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) clampHeight(y float64) float64 {
	return math.Max(m.cfg.MinHeight, math.Min(m.cfg.MaxHeight, y))
}

// focus zooms in on photo i. The pan accumulator follows the photo so that
// gesture control picks up where the camera is looking.
func (m *Manager) focus(i int) {
	p := m.photos[i]
	m.state.Zoom = ZoomFocused
	m.state.FocusedID = p.ID
	m.state.Pan = Pan{X: p.Yaw, Y: m.clampHeight(p.Position.Y)}
}

// ClickPhoto focuses a photo in view mode. In edit mode a click belongs to
// the upload flow and is ignored here. It reports whether the state changed.
func (m *Manager) ClickPhoto(id string) bool {
	if m.state.Interaction == InteractionEdit {
		return false
	}
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.focus(i)
	return true
}

// Next focuses the photo after the focused one, wrapping around.
func (m *Manager) Next() bool {
	return m.step(1)
}

// Prev focuses the photo before the focused one, wrapping around.
func (m *Manager) Prev() bool {
	return m.step(-1)
}

func (m *Manager) step(delta int) bool {
	if m.state.Recording || m.state.Zoom != ZoomFocused || len(m.photos) == 0 {
		return false
	}
	i := m.indexOf(m.state.FocusedID)
	if i < 0 {
		return false
	}
	n := len(m.photos)
	m.focus(((i+delta)%n + n) % n)
	return true
}

// ZoomOut returns to the full-tree view and clears the focus.
func (m *Manager) ZoomOut() bool {
	if m.state.Zoom == ZoomFull {
		return false
	}
	m.state.Zoom = ZoomFull
	m.state.FocusedID = ""
	return true
}

// SetZoom sets the zoom level. Zooming in without a click focuses the photo
// nearest to the current pan direction.
func (m *Manager) SetZoom(level ZoomLevel) bool {
	switch level {
	case ZoomFull:
		return m.ZoomOut()
	case ZoomFocused:
		return m.zoomIn()
	}
	return false
}

func (m *Manager) zoomIn() bool {
	if m.state.Zoom == ZoomFocused {
		return false
	}
	if i := m.nearestToPan(); i >= 0 {
		m.focus(i)
		return true
	}
	m.state.Zoom = ZoomFocused
	return true
}

// nearestToPan picks the photo closest to the pan direction, comparing
// azimuth and height rather than straight-line distance so the wide lower
// loops of the spiral do not always win.
func (m *Manager) nearestToPan() int {
	best, bestDist := -1, math.Inf(1)
	for i, p := range m.photos {
		da := camera.ShortestAngle(m.state.Pan.X, p.Yaw) * m.cfg.AngleWeight
		dy := p.Position.Y - m.clampHeight(m.state.Pan.Y)
		if d := math.Hypot(da, dy); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// ToggleExplode flips the explode flag.
func (m *Manager) ToggleExplode() {
	m.state.Exploded = !m.state.Exploded
}

// DeletePhoto removes a photo from the active list. Other photos keep their
// positions. Deleting the focused photo zooms out.
func (m *Manager) DeletePhoto(id string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.photos = append(m.photos[:i], m.photos[i+1:]...)
	if m.state.FocusedID == id {
		m.ZoomOut()
	}
	return true
}

// Apply applies a gesture action. Gesture actions only count while gesture
// control is active and no recording is running.
func (m *Manager) Apply(a gesture.Action) bool {
	if m.state.Control != ControlGesture || m.state.Recording {
		return false
	}

	switch a := a.(type) {
	case gesture.ZoomIn:
		return m.zoomIn()
	case gesture.ZoomOut:
		return m.ZoomOut()
	case gesture.Next:
		return m.Next()
	case gesture.Prev:
		return m.Prev()
	case gesture.Explode:
		m.ToggleExplode()
		return true
	case gesture.Pan:
		m.state.Pan.X += a.DX
		m.state.Pan.Y = m.clampHeight(m.state.Pan.Y + a.DY)
		return true
	}
	return false
}

// Keys understood by HandleKey.
const (
	KeyArrowRight = "ArrowRight"
	KeyArrowLeft  = "ArrowLeft"
	KeyEscape     = "Escape"
)

// HandleKey maps keyboard navigation. Keys only act while zoomed in and not
// recording.
func (m *Manager) HandleKey(key string) bool {
	if m.state.Zoom != ZoomFocused || m.state.Recording {
		return false
	}
	switch key {
	case KeyArrowRight:
		return m.Next()
	case KeyArrowLeft:
		return m.Prev()
	case KeyEscape:
		return m.ZoomOut()
	}
	return false
}

// RequestControl asks for a control mode. Gesture control is provisional:
// the session stays in pointer control until GestureReady.
func (m *Manager) RequestControl(mode ControlMode) bool {
	switch mode {
	case ControlPointer:
		changed := m.state.Control != ControlPointer || m.state.PendingGesture
		m.state.Control = ControlPointer
		m.state.PendingGesture = false
		return changed
	case ControlGesture:
		if m.state.Control == ControlGesture || m.state.PendingGesture {
			return false
		}
		m.state.PendingGesture = true
		return true
	}
	return false
}

// GestureReady completes a pending switch to gesture control.
func (m *Manager) GestureReady() bool {
	if !m.state.PendingGesture {
		return false
	}
	m.state.PendingGesture = false
	m.state.Control = ControlGesture
	if p, ok := m.Focused(); ok {
		m.state.Pan = Pan{X: p.Yaw, Y: m.clampHeight(p.Position.Y)}
	} else {
		m.state.Pan = Pan{}
	}
	return true
}

// GestureUnavailable abandons gesture control and falls back to the pointer.
func (m *Manager) GestureUnavailable() bool {
	if !m.state.PendingGesture && m.state.Control != ControlGesture {
		return false
	}
	m.state.PendingGesture = false
	m.state.Control = ControlPointer
	return true
}

// SetInteraction switches between view and edit mode.
func (m *Manager) SetInteraction(mode InteractionMode) bool {
	if mode != InteractionView && mode != InteractionEdit {
		return false
	}
	if m.state.Interaction == mode {
		return false
	}
	m.state.Interaction = mode
	return true
}

// BeginRecording marks a recording as active. It fails if one already is.
func (m *Manager) BeginRecording(kind RecordingKind) bool {
	if m.state.Recording || !kind.Valid() {
		return false
	}
	m.state.Recording = true
	m.state.RecordingKind = kind
	return true
}

// EndRecording clears the recording flag.
func (m *Manager) EndRecording() bool {
	if !m.state.Recording {
		return false
	}
	m.state.Recording = false
	m.state.RecordingKind = RecordingNone
	return true
}

// SetImage fills one slot, switches to view mode and focuses it.
func (m *Manager) SetImage(id, ref string) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.photos[i].ImageRef = ref
	m.state.Interaction = InteractionView
	m.focus(i)
	return true
}

// ClearImage reverts a slot to its placeholder.
func (m *Manager) ClearImage(id string) bool {
	i := m.indexOf(id)
	if i < 0 || m.photos[i].ImageRef == "" {
		return false
	}
	m.photos[i].ImageRef = ""
	return true
}

// FillBulk fills every slot from the top of the tree down, cycling through
// refs when there are more slots than images. It returns the ids in fill
// order and focuses the last one.
func (m *Manager) FillBulk(refs []string) []string {
	if len(refs) == 0 || len(m.photos) == 0 {
		return nil
	}

	order := make([]int, len(m.photos))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.photos[order[a]].Position.Y > m.photos[order[b]].Position.Y
	})

	return m.fill(order, refs)
}

// FillRoundRobin fills slot i with refs[i % len(refs)] in list order and
// focuses the last slot.
func (m *Manager) FillRoundRobin(refs []string) []string {
	if len(refs) == 0 || len(m.photos) == 0 {
		return nil
	}

	order := make([]int, len(m.photos))
	for i := range order {
		order[i] = i
	}
	return m.fill(order, refs)
}

func (m *Manager) fill(order []int, refs []string) []string {
	ids := make([]string, len(order))
	for n, i := range order {
		m.photos[i].ImageRef = refs[n%len(refs)]
		ids[n] = m.photos[i].ID
	}
	m.state.Interaction = InteractionView
	m.focus(order[len(order)-1])
	return ids
}

// ReplaceSlots swaps in a new slot layout after the photo count changed.
// Images carry over by list position; the focus is kept if its slot
// survived, otherwise the session zooms out.
func (m *Manager) ReplaceSlots(slots []layout.Slot) {
	focusedIndex := m.indexOf(m.state.FocusedID)

	photos := make([]Photo, len(slots))
	for i, s := range slots {
		photos[i] = Photo{Slot: s}
		if i < len(m.photos) {
			photos[i].ImageRef = m.photos[i].ImageRef
		}
	}
	m.photos = photos

	if m.state.Zoom != ZoomFocused {
		return
	}
	if focusedIndex >= 0 && focusedIndex < len(m.photos) {
		m.focus(focusedIndex)
		return
	}
	m.ZoomOut()
}
