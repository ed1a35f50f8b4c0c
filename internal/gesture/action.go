// Package gesture turns a stream of hand landmark frames into navigation
// actions: debounced discrete events for zoom, explode and next/prev, and a
// continuous pan delta.
package gesture

import "fmt"

// Action is one output of the pipeline. The set of variants is closed:
// ZoomIn, ZoomOut, Next, Prev, Explode and Pan.
type Action interface {
	action()
}

// ZoomIn asks to focus a photo from the full-tree view.
type ZoomIn struct{}

// ZoomOut asks to return to the full-tree view.
type ZoomOut struct{}

// Next moves to the following photo while zoomed in.
type Next struct{}

// Prev moves to the preceding photo while zoomed in.
type Prev struct{}

// Explode toggles the scatter effect.
type Explode struct{}

// Pan is a per-frame camera offset, already scaled by the pan sensitivity.
// DX is in radians of azimuth, DY in world units of height.
type Pan struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (ZoomIn) action()  {}
func (ZoomOut) action() {}
func (Next) action()    {}
func (Prev) action()    {}
func (Explode) action() {}
func (Pan) action()     {}

// Name returns the wire name of an action.
func Name(a Action) string {
	switch a.(type) {
	case ZoomIn:
		return "zoom_in"
	case ZoomOut:
		return "zoom_out"
	case Next:
		return "next"
	case Prev:
		return "prev"
	case Explode:
		return "explode"
	case Pan:
		return "pan"
	default:
		panic(fmt.Sprintf("gesture: unknown action %T", a))
	}
}

// Parse returns the discrete action with the given wire name. Pan carries a
// payload and cannot be parsed from a name alone.
func Parse(name string) (Action, bool) {
	switch name {
	case "zoom_in":
		return ZoomIn{}, true
	case "zoom_out":
		return ZoomOut{}, true
	case "next":
		return Next{}, true
	case "prev":
		return Prev{}, true
	case "explode":
		return Explode{}, true
	}
	return nil, false
}
