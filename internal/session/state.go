// Package session holds the interaction state of one viewer: which input
// drives the camera, view or edit mode, the zoom level and focused photo,
// the explode toggle and the recording flag. Every transition is synchronous
// and total; requests that do not apply are ignored.
package session

// ControlMode selects the input that drives the camera.
type ControlMode string

const (
	ControlPointer ControlMode = "pointer"
	ControlGesture ControlMode = "gesture"
)

// InteractionMode decides what a photo click does.
type InteractionMode string

const (
	InteractionView InteractionMode = "view"
	InteractionEdit InteractionMode = "edit"
)

// ZoomLevel is the camera framing.
type ZoomLevel string

const (
	ZoomFull    ZoomLevel = "full"
	ZoomFocused ZoomLevel = "focused"
)

// RecordingKind selects the scripted camera path of a recording.
type RecordingKind string

const (
	RecordingNone  RecordingKind = ""
	RecordingFull  RecordingKind = "full"
	RecordingAlbum RecordingKind = "album"
)

// Valid reports whether k names a recording path.
func (k RecordingKind) Valid() bool {
	return k == RecordingFull || k == RecordingAlbum
}

// Pan is the accumulated gesture offset: X is an azimuth in radians and Y a
// camera height, kept inside the configured bounds.
type Pan struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is a snapshot of the session. FocusedID is empty unless Zoom is
// ZoomFocused.
type State struct {
	Control        ControlMode     `json:"control"`
	PendingGesture bool            `json:"pendingGesture"`
	Interaction    InteractionMode `json:"interaction"`
	Zoom           ZoomLevel       `json:"zoom"`
	FocusedID      string          `json:"focusedId,omitempty"`
	Exploded       bool            `json:"exploded"`
	Recording      bool            `json:"recording"`
	RecordingKind  RecordingKind   `json:"recordingKind,omitempty"`
	Pan            Pan             `json:"pan"`
}
