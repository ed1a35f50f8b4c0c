package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// motionWidth is the width frames are shrunk to before differencing.
	motionWidth = 160
	// motionBlur is the Gaussian kernel applied to the shrunk frame.
	motionBlur = 7
	// pixelDelta is the grey-level change that counts a pixel as changed.
	pixelDelta = 25
)

// Motion is the result of comparing a frame with its predecessor.
type Motion struct {
	Moved bool
	// Changed is the percentage of pixels that changed.
	Changed float64
}

// MotionDetector wakes the tracking loop when something moves in front of
// the camera. It diffs each frame against the previous one at a reduced
// resolution, so the cost does not grow with the capture size.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion once more than
// threshold percent of pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect compares frame with the previous one. The first frame after
// creation or Reset only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	cur := shrinkGray(frame)
	defer cur.Close()

	if !m.primed {
		cur.CopyTo(&m.prev)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	cur.CopyTo(&m.prev)

	return Motion{Moved: changed > m.threshold, Changed: changed}
}

// shrinkGray returns frame as a blurred greyscale image at most motionWidth
// pixels wide.
func shrinkGray(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if gray.Cols() > motionWidth {
		small := gocv.NewMat()
		scale := float64(motionWidth) / float64(gray.Cols())
		gocv.Resize(gray, &small, image.Point{}, scale, scale, gocv.InterpolationArea)
		gray.Close()
		gray = small
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: motionBlur, Y: motionBlur}, 0, 0, gocv.BorderDefault)
	gray.Close()
	return blurred
}

// Reset drops the reference frame. Call it when the camera is reopened.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the reference frame. The detector stays usable and primes
// itself again on the next frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}
