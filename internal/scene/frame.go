package scene

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lumiere-studio/lumiere/internal/camera"
	"github.com/lumiere-studio/lumiere/internal/gesture"
	"github.com/lumiere-studio/lumiere/internal/layout"
	"github.com/lumiere-studio/lumiere/internal/recording"
	"github.com/lumiere-studio/lumiere/internal/scatter"
	"github.com/lumiere-studio/lumiere/internal/session"
)

// Frame is everything the renderer needs for one tick. Tree particles and
// tinsel move only along their layout scatter vectors, so they are served
// once from the layout and only their group progress is sent here.
type Frame struct {
	Seq       uint64               `json:"seq"`
	At        time.Time            `json:"at"`
	Camera    camera.Pose          `json:"camera"`
	Session   session.State        `json:"session"`
	Recording *recording.Recording `json:"recording,omitempty"`
	Hand      *HandView            `json:"hand,omitempty"`
	Photos    []PhotoView          `json:"photos"`
	Ornaments []scatter.Transform  `json:"ornaments"`
	Presents  []scatter.Transform  `json:"presents"`
	Groups    []scatter.State      `json:"groups"`
}

// PhotoView is one rendered photo.
type PhotoView struct {
	ID          string                 `json:"id"`
	Index       int                    `json:"index"`
	Position    r3.Vec                 `json:"position"`
	Yaw         float64                `json:"yaw"`
	Placeholder layout.PlaceholderKind `json:"placeholder"`
	ImageRef    string                 `json:"imageRef,omitempty"`
	Focused     bool                   `json:"focused,omitempty"`
}

// HandView is the classified pose of the tracked hand, for the HUD.
type HandView struct {
	Extended int     `json:"extended"`
	Pinch    float64 `json:"pinch"`
	Fist     bool    `json:"fist"`
	Peace    bool    `json:"peace"`
	Open     bool    `json:"open"`
}

func handView(p gesture.Pose) *HandView {
	return &HandView{
		Extended: p.ExtendedCount,
		Pinch:    p.Pinch,
		Fist:     p.Fist,
		Peace:    p.Peace,
		Open:     p.OpenPalm(),
	}
}

// Sink receives every frame. Publish is called on the frame goroutine and
// must not block.
type Sink interface {
	Publish(Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Frame)

// Publish implements Sink.
func (f SinkFunc) Publish(fr Frame) { f(fr) }
