package scene

import (
	"errors"
	"fmt"

	"github.com/lumiere-studio/lumiere/internal/camera"
	"github.com/lumiere-studio/lumiere/internal/session"
)

// Input types sent by the renderer.
const (
	InputClick       = "click"
	InputKey         = "key"
	InputOrbit       = "orbit"
	InputControl     = "control"
	InputInteraction = "interaction"
	InputExplode     = "explode"
	InputZoom        = "zoom"
	InputRecord      = "record"
	InputDelete      = "delete"
)

// ErrUnknownInput is returned for an input type Apply does not handle.
var ErrUnknownInput = errors.New("unknown input")

// Input is one user event from the renderer or the control API.
type Input struct {
	Type   string  `json:"type"`
	ID     string  `json:"id,omitempty"`
	Key    string  `json:"key,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Kind   string  `json:"kind,omitempty"`
	Angle  float64 `json:"angle,omitempty"`
	Height float64 `json:"height,omitempty"`
	Dolly  float64 `json:"dolly,omitempty"`
}

// Apply applies an input event. Requests that do not fit the current
// session state are ignored without error; malformed ones are rejected.
func (s *Scene) Apply(in Input) error {
	m := s.session

	switch in.Type {
	case InputClick:
		m.ClickPhoto(in.ID)
	case InputKey:
		m.HandleKey(in.Key)
	case InputOrbit:
		s.AddOrbit(camera.Orbit{Angle: in.Angle, Height: in.Height, Dolly: in.Dolly})
	case InputControl:
		mode := session.ControlMode(in.Mode)
		if mode != session.ControlPointer && mode != session.ControlGesture {
			return fmt.Errorf("invalid control mode %q", in.Mode)
		}
		m.RequestControl(mode)
	case InputInteraction:
		mode := session.InteractionMode(in.Mode)
		if mode != session.InteractionView && mode != session.InteractionEdit {
			return fmt.Errorf("invalid interaction mode %q", in.Mode)
		}
		m.SetInteraction(mode)
	case InputExplode:
		m.ToggleExplode()
	case InputZoom:
		level := session.ZoomLevel(in.Mode)
		if level != session.ZoomFull && level != session.ZoomFocused {
			return fmt.Errorf("invalid zoom level %q", in.Mode)
		}
		m.SetZoom(level)
	case InputRecord:
		_, err := s.StartRecording(session.RecordingKind(in.Kind))
		return err
	case InputDelete:
		m.DeletePhoto(in.ID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInput, in.Type)
	}
	return nil
}
