package recording

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumiere-studio/lumiere/internal/plugin"
	"github.com/lumiere-studio/lumiere/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu       sync.Mutex
	startErr error
	starts   []Recording
	stops    []Recording
}

func (f *fakeSink) Start(ctx context.Context, rec Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, rec)
	return f.startErr
}

func (f *fakeSink) Stop(ctx context.Context, rec Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, rec)
	return nil
}

func (f *fakeSink) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts), len(f.stops)
}

// tickUntil steps r until it reports want, failing after two seconds.
func tickUntil(t *testing.T, r *Recorder, dt float64, want Event) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.Tick(dt); got == want {
			return
		} else if got != EventNone && got != EventStarted {
			t.Fatalf("expected %s, got %s", want, got)
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", want)
}

func TestDuration(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		kind   session.RecordingKind
		photos int
		want   time.Duration
	}{
		{session.RecordingFull, 12, 10 * time.Second},
		{session.RecordingAlbum, 0, 5 * time.Second},
		{session.RecordingAlbum, 1, 5 * time.Second},
		{session.RecordingAlbum, 2, 5 * time.Second},
		{session.RecordingAlbum, 12, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.Duration(tt.kind, tt.photos), "%s with %d photos", tt.kind, tt.photos)
	}
}

func TestStartRejections(t *testing.T) {
	r := NewRecorder(DefaultConfig(), nil)
	_, err := r.Start(session.RecordingFull, 3)
	assert.ErrorIs(t, err, ErrNoExporter)
	assert.False(t, r.Active())

	r = NewRecorder(DefaultConfig(), &fakeSink{})
	_, err = r.Start(session.RecordingNone, 3)
	assert.Error(t, err)
	assert.False(t, r.Active())

	rec, err := r.Start(session.RecordingAlbum, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 7500*time.Millisecond, rec.Duration)

	_, err = r.Start(session.RecordingFull, 3)
	assert.ErrorIs(t, err, ErrAlreadyRecording)
}

func TestDeferredStart(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(DefaultConfig(), sink)

	_, err := r.Start(session.RecordingFull, 0)
	require.NoError(t, err)
	assert.True(t, r.Active())

	starts, _ := sink.calls()
	assert.Zero(t, starts, "capture must not start in the requesting frame")

	tickUntil(t, r, 1.0/60, EventStarted)
	starts, _ = sink.calls()
	assert.Equal(t, 1, starts)
	assert.Zero(t, r.Elapsed(), "the clock starts once the capture is confirmed")

	r.Tick(0.25)
	assert.InDelta(t, 0.25, r.Elapsed(), 1e-9)

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, session.RecordingFull, cur.Kind)
}

func TestStartFailureRollsBack(t *testing.T) {
	sink := &fakeSink{startErr: errors.New("encoder busy")}
	r := NewRecorder(DefaultConfig(), sink)

	_, err := r.Start(session.RecordingFull, 0)
	require.NoError(t, err)

	tickUntil(t, r, 1.0/60, EventFailed)
	assert.False(t, r.Active())
	assert.Zero(t, r.Elapsed())
	_, ok := r.Current()
	assert.False(t, ok)

	_, err = r.Start(session.RecordingFull, 0)
	assert.NoError(t, err, "a failed recording must not block the next one")
}

func TestFinishesAfterDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FullSeconds = 0.2
	sink := &fakeSink{}
	r := NewRecorder(cfg, sink)

	_, err := r.Start(session.RecordingFull, 0)
	require.NoError(t, err)

	tickUntil(t, r, 0.05, EventFinished)
	assert.False(t, r.Active())

	select {
	case <-r.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("stop was never called")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.stops, 1)
	assert.GreaterOrEqual(t, sink.stops[0].Elapsed, sink.stops[0].Duration)
	assert.Equal(t, sink.starts[0].ID, sink.stops[0].ID)
}

// blockingSink holds Start until release is closed.
type blockingSink struct {
	fakeSink
	release chan struct{}
}

func (b *blockingSink) Start(ctx context.Context, rec Recording) error {
	<-b.release
	return b.fakeSink.Start(ctx, rec)
}

func TestStartTimeoutRollsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartTimeoutMs = 100
	sink := &blockingSink{release: make(chan struct{})}
	r := NewRecorder(cfg, sink)

	var events []Event
	r.OnEvent(func(rec Recording, e Event) { events = append(events, e) })

	_, err := r.Start(session.RecordingFull, 0)
	require.NoError(t, err)

	begin := time.Now()
	tickUntil(t, r, 1.0/60, EventFailed)
	assert.Less(t, time.Since(begin), time.Second)
	assert.Equal(t, []Event{EventFailed}, events)
	assert.False(t, r.Active())
	assert.Zero(t, r.Elapsed())

	// A capture that comes up after the rollback is stopped.
	close(sink.release)
	select {
	case <-r.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("late capture was never stopped")
	}
	starts, stops := sink.calls()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestCloseStopsRunningRecording(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(DefaultConfig(), sink)

	require.NoError(t, r.Close(context.Background()))

	_, err := r.Start(session.RecordingFull, 0)
	require.NoError(t, err)
	tickUntil(t, r, 1.0/60, EventStarted)

	require.NoError(t, r.Close(context.Background()))
	assert.False(t, r.Active())
	_, stops := sink.calls()
	assert.Equal(t, 1, stops)
}

func TestPluginSinkWithoutExporter(t *testing.T) {
	manager := plugin.NewManager(t.TempDir())
	require.NoError(t, manager.Discover())

	sink := NewPluginSink(manager, plugin.NewExecutor(1000), DefaultConfig())
	err := sink.Start(context.Background(), Recording{ID: "x", Kind: session.RecordingFull})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestRecorder_OnEvent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FullSeconds = 0.05
	r := NewRecorder(cfg, &fakeSink{})

	var events []Event
	var ids []string
	r.OnEvent(func(rec Recording, e Event) {
		events = append(events, e)
		ids = append(ids, rec.ID)
	})

	rec, err := r.Start(session.RecordingFull, 0)
	require.NoError(t, err)
	tickUntil(t, r, 0.02, EventFinished)

	require.Equal(t, []Event{EventStarted, EventFinished}, events)
	assert.Equal(t, []string{rec.ID, rec.ID}, ids)

	events = nil
	failing := NewRecorder(DefaultConfig(), &fakeSink{startErr: errors.New("no ffmpeg")})
	failing.OnEvent(func(rec Recording, e Event) { events = append(events, e) })
	_, err = failing.Start(session.RecordingFull, 0)
	require.NoError(t, err)
	tickUntil(t, failing, 0.02, EventFailed)
	assert.Equal(t, []Event{EventFailed}, events)
}
