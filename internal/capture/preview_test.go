package capture

import (
	"bytes"
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestPreview_Set(t *testing.T) {
	p := NewPreview()

	if data, seq := p.Latest(); data != nil || seq != 0 {
		t.Errorf("expected empty preview, got %d bytes at seq %d", len(data), seq)
	}

	p.Set([]byte{1, 2})
	p.Set([]byte{3})

	data, seq := p.Latest()
	if seq != 2 {
		t.Errorf("expected seq 2, got %d", seq)
	}
	if !bytes.Equal(data, []byte{3}) {
		t.Errorf("expected latest data, got %v", data)
	}
}

func TestPreview_Update(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	p := NewPreview()
	if err := p.Update(&frame); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	data, seq := p.Latest()
	if seq != 1 {
		t.Errorf("expected seq 1, got %d", seq)
	}
	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("IMDecode() failed: %v", err)
	}
	defer decoded.Close()
	if got := image.Pt(decoded.Cols(), decoded.Rows()); got != image.Pt(64, 48) {
		t.Errorf("expected 64x48 frame, got %v", got)
	}
}
