package gesture

import "github.com/lumiere-studio/lumiere/internal/detector"

// fingers lists tip and base landmarks of the four non-thumb fingers.
var fingers = [4][2]int{
	{detector.IndexTip, detector.IndexMCP},
	{detector.MiddleTip, detector.MiddleMCP},
	{detector.RingTip, detector.RingMCP},
	{detector.PinkyTip, detector.PinkyMCP},
}

// Finger indexes into Pose.Extended.
const (
	Index = iota
	Middle
	Ring
	Pinky
)

// Pose is the per-frame classification of one hand.
type Pose struct {
	Extended      [4]bool `json:"extended"`
	ExtendedCount int     `json:"extendedCount"`
	// Pinch is the 3D distance between thumb tip and index tip.
	Pinch  float64 `json:"pinch"`
	Fist   bool    `json:"fist"`
	Spread bool    `json:"spread"`
	Peace  bool    `json:"peace"`
}

// OpenPalm reports whether the pose is the zoom-in pose. A peace sign can
// also have a wide pinch but is never treated as an open palm.
func (p Pose) OpenPalm() bool {
	return p.Spread && !p.Peace
}

// Classify computes the pose of a hand. A finger is extended when its tip is
// above its base joint in image space, where y grows downwards.
func Classify(h detector.HandLandmarks, cfg Config) Pose {
	var pose Pose

	for i, f := range fingers {
		if h.Points[f[0]].Y < h.Points[f[1]].Y {
			pose.Extended[i] = true
			pose.ExtendedCount++
		}
	}

	pose.Pinch = detector.Distance(h.Points[detector.ThumbTip], h.Points[detector.IndexTip])

	pose.Fist = 4-pose.ExtendedCount >= 3 && pose.Pinch < cfg.FistPinch
	pose.Spread = pose.Pinch > cfg.SpreadDistance
	pose.Peace = pose.Extended[Index] && pose.Extended[Middle] && !pose.Extended[Ring] && !pose.Extended[Pinky]

	return pose
}
