package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/lumiere-studio/lumiere/internal/detector"
)

const epsilon = 1e-9

// feeder hands out frames with increasing sequence numbers and timestamps.
type feeder struct {
	seq uint64
	at  time.Time
}

func newFeeder() *feeder {
	return &feeder{at: time.Unix(1700000000, 0)}
}

func (f *feeder) frame(hands ...detector.HandLandmarks) detector.Frame {
	f.seq++
	f.at = f.at.Add(33 * time.Millisecond)
	return detector.Frame{Seq: f.seq, Hands: hands, At: f.at}
}

func countActions[T Action](actions []Action) int {
	n := 0
	for _, a := range actions {
		if _, ok := a.(T); ok {
			n++
		}
	}
	return n
}

func TestDebouncer(t *testing.T) {
	t.Run("one short of threshold then a miss does not fire", func(t *testing.T) {
		d := NewDebouncer(12)
		for i := 0; i < 11; i++ {
			if d.Observe(true) {
				t.Fatalf("fired early at frame %d", i+1)
			}
		}
		if d.Observe(false) {
			t.Error("expected no fire on a miss")
		}
		if d.Count() != 0 {
			t.Errorf("expected count 0 after a miss, got %d", d.Count())
		}
	})

	t.Run("fires exactly once at threshold", func(t *testing.T) {
		d := NewDebouncer(12)
		fired := 0
		for i := 0; i < 12; i++ {
			if d.Observe(true) {
				fired++
				if i != 11 {
					t.Errorf("expected fire on frame 12, got frame %d", i+1)
				}
			}
		}
		if fired != 1 {
			t.Errorf("expected 1 fire, got %d", fired)
		}
		if d.Count() != 0 {
			t.Errorf("expected count reset to 0, got %d", d.Count())
		}
	})

	t.Run("holding keeps firing every threshold frames", func(t *testing.T) {
		d := NewDebouncer(3)
		fired := 0
		for i := 0; i < 9; i++ {
			if d.Observe(true) {
				fired++
			}
		}
		if fired != 3 {
			t.Errorf("expected 3 fires over 9 frames, got %d", fired)
		}
	})
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		hand     detector.HandLandmarks
		fist     bool
		spread   bool
		peace    bool
		openPalm bool
		extended int
	}{
		{"open palm", detector.OpenPalmLandmarks(), false, true, false, true, 4},
		{"fist", detector.FistLandmarks(), true, false, false, false, 0},
		{"peace sign", detector.PeaceSignLandmarks(), false, true, true, false, 2},
		{"point", detector.PointLandmarks(), false, false, false, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pose := Classify(tt.hand, cfg)
			if pose.Fist != tt.fist {
				t.Errorf("expected fist %v, got %v", tt.fist, pose.Fist)
			}
			if pose.Spread != tt.spread {
				t.Errorf("expected spread %v, got %v (pinch %f)", tt.spread, pose.Spread, pose.Pinch)
			}
			if pose.Peace != tt.peace {
				t.Errorf("expected peace %v, got %v", tt.peace, pose.Peace)
			}
			if pose.OpenPalm() != tt.openPalm {
				t.Errorf("expected open palm %v, got %v", tt.openPalm, pose.OpenPalm())
			}
			if pose.ExtendedCount != tt.extended {
				t.Errorf("expected %d extended fingers, got %d", tt.extended, pose.ExtendedCount)
			}
		})
	}
}

func TestPipeline_OpenPalmZoomIn(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPipeline(cfg)
	f := newFeeder()
	ctx := Context{}

	zoomIns := 0
	for i := 0; i < cfg.OpenZoomFrames; i++ {
		actions := p.Observe(f.frame(detector.OpenPalmLandmarks()), ctx)
		n := countActions[ZoomIn](actions)
		if n > 0 && i != cfg.OpenZoomFrames-1 {
			t.Errorf("zoom in fired early at frame %d", i+1)
		}
		zoomIns += n
		if countActions[Pan](actions) != 0 {
			t.Errorf("open palm must not pan, frame %d", i+1)
		}
	}

	if zoomIns != 1 {
		t.Errorf("expected exactly 1 zoom in, got %d", zoomIns)
	}
	if got := p.Counts()["open_zoom"]; got != 0 {
		t.Errorf("expected open_zoom counter reset to 0, got %d", got)
	}
}

func TestPipeline_IgnoresRepeatedFrames(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPipeline(cfg)
	f := newFeeder()

	frame := f.frame(detector.OpenPalmLandmarks())
	for i := 0; i < 3*cfg.OpenZoomFrames; i++ {
		if actions := p.Observe(frame, Context{}); len(actions) != 0 {
			t.Fatalf("expected no actions from a repeated frame, got %v", actions)
		}
	}
	if got := p.Counts()["open_zoom"]; got != 1 {
		t.Errorf("expected the frame to be counted once, got %d", got)
	}

	t.Run("zero frame before first detection is ignored", func(t *testing.T) {
		p := NewPipeline(cfg)
		if actions := p.Observe(detector.Frame{}, Context{}); actions != nil {
			t.Errorf("expected nil, got %v", actions)
		}
	})
}

func TestPipeline_PeaceTogglesExplode(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("N-1 frames then a different pose does not fire", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		total := 0
		for i := 0; i < cfg.PeaceFrames-1; i++ {
			total += countActions[Explode](p.Observe(f.frame(detector.PeaceSignLandmarks()), Context{}))
		}
		total += countActions[Explode](p.Observe(f.frame(detector.PointLandmarks()), Context{}))
		if total != 0 {
			t.Errorf("expected no explode, got %d", total)
		}
	})

	t.Run("N frames fire exactly once", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		total := 0
		for i := 0; i < cfg.PeaceFrames; i++ {
			total += countActions[Explode](p.Observe(f.frame(detector.PeaceSignLandmarks()), Context{}))
		}
		if total != 1 {
			t.Errorf("expected 1 explode, got %d", total)
		}
	})

	t.Run("peace sign never zooms in", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		for i := 0; i < 2*cfg.OpenZoomFrames; i++ {
			if n := countActions[ZoomIn](p.Observe(f.frame(detector.PeaceSignLandmarks()), Context{})); n != 0 {
				t.Fatalf("unexpected zoom in at frame %d", i+1)
			}
		}
	})
}

func TestPipeline_Fist(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("zooms out while zoomed", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		total := 0
		for i := 0; i < cfg.FistZoomFrames; i++ {
			total += countActions[ZoomOut](p.Observe(f.frame(detector.FistLandmarks()), Context{Zoomed: true}))
		}
		if total != 1 {
			t.Errorf("expected 1 zoom out, got %d", total)
		}
	})

	t.Run("fast movement suppresses zoom out", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		total := 0
		for i := 0; i < 2*cfg.FistZoomFrames; i++ {
			// Alternate between two positions 0.1 apart so every frame is fast.
			dx := 0.0
			if i%2 == 1 {
				dx = 0.1
			}
			hand := detector.Translate(detector.FistLandmarks(), dx, 0)
			total += countActions[ZoomOut](p.Observe(f.frame(hand), Context{Zoomed: true}))
		}
		// The very first frame has no previous position, so at most it starts
		// a run of one.
		if total != 0 {
			t.Errorf("expected no zoom out during fast movement, got %d", total)
		}
	})

	t.Run("turns explode off", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		total := 0
		for i := 0; i < cfg.FistExplodeFrames; i++ {
			total += countActions[Explode](p.Observe(f.frame(detector.FistLandmarks()), Context{Exploded: true}))
		}
		if total != 1 {
			t.Errorf("expected 1 explode toggle, got %d", total)
		}
	})

	t.Run("does nothing in full view when assembled", func(t *testing.T) {
		p := NewPipeline(cfg)
		f := newFeeder()
		for i := 0; i < 20; i++ {
			for _, a := range p.Observe(f.frame(detector.FistLandmarks()), Context{}) {
				t.Fatalf("unexpected action %s", Name(a))
			}
		}
	})
}

func TestPipeline_Pan(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPipeline(cfg)
	f := newFeeder()

	if actions := p.Observe(f.frame(detector.PointLandmarks()), Context{}); len(actions) != 0 {
		t.Fatalf("first frame has no previous position, got %v", actions)
	}

	actions := p.Observe(f.frame(detector.Translate(detector.PointLandmarks(), 0.01, -0.02)), Context{})
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	pan, ok := actions[0].(Pan)
	if !ok {
		t.Fatalf("expected Pan, got %T", actions[0])
	}
	if math.Abs(pan.DX-(-0.01*cfg.PanSensitivity)) > epsilon {
		t.Errorf("expected DX %f, got %f", -0.01*cfg.PanSensitivity, pan.DX)
	}
	if math.Abs(pan.DY-(-0.02*cfg.PanSensitivity)) > epsilon {
		t.Errorf("expected DY %f, got %f", -0.02*cfg.PanSensitivity, pan.DY)
	}

	t.Run("jitter below floor is ignored", func(t *testing.T) {
		hand := detector.Translate(detector.PointLandmarks(), 0.011, -0.0205)
		if actions := p.Observe(f.frame(hand), Context{}); len(actions) != 0 {
			t.Errorf("expected no pan for sub-jitter movement, got %v", actions)
		}
	})

	t.Run("no pan while zoomed", func(t *testing.T) {
		hand := detector.Translate(detector.PointLandmarks(), 0.05, 0)
		if n := countActions[Pan](p.Observe(f.frame(hand), Context{Zoomed: true})); n != 0 {
			t.Errorf("expected no pan while zoomed, got %d", n)
		}
	})
}

func TestPipeline_Swipe(t *testing.T) {
	cfg := DefaultConfig()

	swipe := func(step float64) []Action {
		p := NewPipeline(cfg)
		f := newFeeder()
		var out []Action
		for i := 0; i < 10; i++ {
			hand := detector.Translate(detector.PointLandmarks(), step*float64(i), 0)
			for _, a := range p.Observe(f.frame(hand), Context{Zoomed: true}) {
				switch a.(type) {
				case Next, Prev:
					out = append(out, a)
				}
			}
		}
		return out
	}

	t.Run("decreasing x is next", func(t *testing.T) {
		got := swipe(-0.04)
		if len(got) != 1 {
			t.Fatalf("expected 1 swipe within the cooldown, got %d", len(got))
		}
		if _, ok := got[0].(Next); !ok {
			t.Errorf("expected Next, got %s", Name(got[0]))
		}
	})

	t.Run("increasing x is prev", func(t *testing.T) {
		got := swipe(0.04)
		if len(got) != 1 {
			t.Fatalf("expected 1 swipe within the cooldown, got %d", len(got))
		}
		if _, ok := got[0].(Prev); !ok {
			t.Errorf("expected Prev, got %s", Name(got[0]))
		}
	})

	t.Run("small drift is not a swipe", func(t *testing.T) {
		if got := swipe(-0.01); len(got) != 0 {
			t.Errorf("expected no swipe, got %d", len(got))
		}
	})
}

func TestPipeline_EdgeGuard(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPipeline(cfg)
	f := newFeeder()

	p.Observe(f.frame(detector.PointLandmarks()), Context{})

	// Wrist pushed to y = 0.97, inside the bottom margin.
	edge := detector.Translate(detector.PointLandmarks(), 0, 0.17)
	if actions := p.Observe(f.frame(edge), Context{}); len(actions) != 0 {
		t.Errorf("expected edge frame to be discarded, got %v", actions)
	}

	// The last position was dropped, so the next frame cannot pan.
	moved := detector.Translate(detector.PointLandmarks(), 0.05, 0)
	if actions := p.Observe(f.frame(moved), Context{}); len(actions) != 0 {
		t.Errorf("expected no pan right after an edge frame, got %v", actions)
	}
}

func TestPipeline_ResetOnHandLoss(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPipeline(cfg)
	f := newFeeder()

	for i := 0; i < cfg.OpenZoomFrames-1; i++ {
		p.Observe(f.frame(detector.OpenPalmLandmarks()), Context{})
	}
	if got := p.Counts()["open_zoom"]; got != cfg.OpenZoomFrames-1 {
		t.Fatalf("expected open_zoom %d, got %d", cfg.OpenZoomFrames-1, got)
	}

	p.Observe(f.frame(), Context{})

	if got := p.Counts()["open_zoom"]; got != 0 {
		t.Errorf("expected counters reset after hand loss, got %d", got)
	}
	if _, seen := p.Pose(); seen {
		t.Error("expected no current pose after hand loss")
	}

	if n := countActions[ZoomIn](p.Observe(f.frame(detector.OpenPalmLandmarks()), Context{})); n != 0 {
		t.Error("stale counter leaked across hand loss")
	}
}

func TestActionNames(t *testing.T) {
	for _, a := range []Action{ZoomIn{}, ZoomOut{}, Next{}, Prev{}, Explode{}} {
		got, ok := Parse(Name(a))
		if !ok || got != a {
			t.Errorf("Parse(Name(%T)) = %v, %v", a, got, ok)
		}
	}
	if _, ok := Parse("pan"); ok {
		t.Error("pan should not parse without a payload")
	}
}
