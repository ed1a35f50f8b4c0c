package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Preview holds the most recent camera frame as JPEG so the preview stream
// never competes with hand tracking for the device.
type Preview struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewPreview creates an empty preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Update encodes frame and makes it the latest preview image.
func (p *Preview) Update(frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	p.Set(data)
	return nil
}

// Set stores an already encoded JPEG.
func (p *Preview) Set(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	p.mu.Unlock()
}

// Latest returns the newest JPEG and its sequence number. The sequence is
// zero until the first frame arrives.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}
