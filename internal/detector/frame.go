package detector

import (
	"sync"
	"time"
)

// Frame is one detection result. Seq increases by one for every frame the
// tracking loop processes, whether or not a hand was found, so a poller can
// tell "no new frame yet" (same Seq) from "no hand" (new Seq, no hands).
type Frame struct {
	Seq   uint64          `json:"seq"`
	Hands []HandLandmarks `json:"hands,omitempty"`
	At    time.Time       `json:"at"`
}

// Hand returns the first detected hand.
func (f Frame) Hand() (HandLandmarks, bool) {
	if len(f.Hands) == 0 {
		return HandLandmarks{}, false
	}
	return f.Hands[0], true
}

// Mailbox holds the most recent detection. The tracking loop posts at its own
// cadence and the frame loop polls; older frames are overwritten.
type Mailbox struct {
	mu    sync.Mutex
	frame Frame
	seq   uint64
	ready bool
}

// NewMailbox creates an empty mailbox. Latest returns a zero Frame until the
// first Post.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Post stores a detection result and returns the sequence number assigned
// to it.
func (m *Mailbox) Post(hands []HandLandmarks, at time.Time) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.frame = Frame{Seq: m.seq, Hands: hands, At: at}
	return m.seq
}

// Latest returns the most recent frame.
func (m *Mailbox) Latest() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// SetReady records whether the detection backend is producing frames.
func (m *Mailbox) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// Ready reports the backend capability flag.
func (m *Mailbox) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}
