// ABOUTME: Tests for engine lifecycle and failure-sentinel behavior
// ABOUTME: Covers init, shutdown, nil-engine degradation and stats
package engine

import (
	"testing"
	"time"

	"github.com/embergarde/chorus/internal/audiotest"
	"github.com/embergarde/chorus/pkg/graph"
)

// newTestEngine builds an engine on a fake backend with a fast deferred
// sweep so tests never wait on the production interval.
func newTestEngine(t *testing.T) (*Engine, *audiotest.Backend) {
	t.Helper()
	bk := audiotest.New()
	eng, err := New(bk, Config{RetryInterval: 2 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(eng.Close)
	return eng, bk
}

// waitFor polls until cond holds, failing the test after two seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// loadSource loads an asset that decodes to the given length and waits
// for the registry entry to resolve.
func loadSource(t *testing.T, eng *Engine, bk *audiotest.Backend, seconds float64) uint32 {
	t.Helper()
	bk.DecodeFunc = func([]byte) (*graph.Buffer, error) {
		return audiotest.Silence(seconds), nil
	}
	h := eng.Load([]byte("asset"))
	if h == 0 {
		t.Fatal("expected nonzero source handle")
	}
	waitFor(t, func() bool { return eng.Duration(h) > 0 })
	return h
}

func TestNewNilBackend(t *testing.T) {
	eng, err := New(nil, Config{})
	if err == nil {
		t.Fatal("expected error for nil backend, got nil")
	}
	if eng != nil {
		t.Fatal("expected nil engine on construction failure")
	}
}

func TestNilEngineSentinels(t *testing.T) {
	// A failed construction leaves callers holding a nil *Engine;
	// every call must degrade to its sentinel instead of panicking.
	var eng *Engine

	if h := eng.Load([]byte("x")); h != 0 {
		t.Errorf("expected Load sentinel 0, got %d", h)
	}
	if h := eng.Play(PlayParams{Source: 1}); h != 0 {
		t.Errorf("expected Play sentinel 0, got %d", h)
	}
	if h := eng.CreateBus(); h != 0 {
		t.Errorf("expected CreateBus sentinel 0, got %d", h)
	}
	if v := eng.BusVolume(1); v != 1 {
		t.Errorf("expected BusVolume sentinel 1.0, got %v", v)
	}
	if eng.IsPlaying(1) || eng.IsPaused(1) {
		t.Error("expected queries to report false on nil engine")
	}
	if ts := eng.Time(1); ts != 0 {
		t.Errorf("expected Time sentinel 0, got %v", ts)
	}
	if h := eng.PollFinished(); h != 0 {
		t.Errorf("expected PollFinished sentinel 0, got %d", h)
	}

	// Mutators must be silent no-ops.
	eng.Stop(1)
	eng.Pause(1)
	eng.Resume(1)
	eng.StopAll(0)
	eng.SetVolume(1, 0.5)
	eng.SetListenerPosition(1, 2)
	eng.DestroySource(1)
	eng.DestroyBus(2)
	eng.Close()
}

func TestCloseMakesCallsInert(t *testing.T) {
	eng, bk := newTestEngine(t)
	src := loadSource(t, eng, bk, 1)

	inst := eng.Play(PlayParams{Source: src})
	if inst == 0 {
		t.Fatal("expected live instance before shutdown")
	}

	eng.Close()

	if eng.IsPlaying(inst) {
		t.Error("expected no playing instances after Close")
	}
	if h := eng.Load([]byte("x")); h != 0 {
		t.Errorf("expected Load to return 0 after Close, got %d", h)
	}
	if h := eng.Play(PlayParams{Source: src}); h != 0 {
		t.Errorf("expected Play to return 0 after Close, got %d", h)
	}

	// The playing chain must have been torn down.
	if s := bk.LastSource(); s != nil && !s.IsStopped() {
		t.Error("expected source node stopped by Close")
	}
}

func TestHandlesAreMonotonicPerCategory(t *testing.T) {
	eng, bk := newTestEngine(t)

	s1 := loadSource(t, eng, bk, 1)
	s2 := loadSource(t, eng, bk, 1)
	if s2 <= s1 {
		t.Errorf("expected source handles to increase, got %d then %d", s1, s2)
	}

	i1 := eng.Play(PlayParams{Source: s1})
	i2 := eng.Play(PlayParams{Source: s2})
	if i2 <= i1 {
		t.Errorf("expected instance handles to increase, got %d then %d", i1, i2)
	}

	b1 := eng.CreateBus()
	b2 := eng.CreateBus()
	if b1 <= MasterBus || b2 <= b1 {
		t.Errorf("expected bus handles above master and increasing, got %d then %d", b1, b2)
	}

	// Destroying must not recycle handles.
	eng.DestroySource(s2)
	s3 := loadSource(t, eng, bk, 1)
	if s3 <= s2 {
		t.Errorf("expected fresh source handle after destroy, got %d after %d", s3, s2)
	}
}

func TestStatsSnapshot(t *testing.T) {
	eng, bk := newTestEngine(t)
	src := loadSource(t, eng, bk, 1)

	a := eng.Play(PlayParams{Source: src})
	eng.Play(PlayParams{Source: src})
	eng.Pause(a)

	s := eng.Stats()
	if s.Playing != 1 {
		t.Errorf("expected 1 playing, got %d", s.Playing)
	}
	if s.Paused != 1 {
		t.Errorf("expected 1 paused, got %d", s.Paused)
	}
	if s.Sources != 1 {
		t.Errorf("expected 1 source, got %d", s.Sources)
	}
	if s.Buses != 1 {
		t.Errorf("expected master bus only, got %d buses", s.Buses)
	}
}

func TestListenerPositionForwarded(t *testing.T) {
	eng, bk := newTestEngine(t)

	eng.SetListenerPosition(12, -7)

	x, y := bk.ListenerPosition()
	if x != 12 || y != -7 {
		t.Errorf("expected backend listener at (12, -7), got (%v, %v)", x, y)
	}
	x, y = eng.ListenerPosition()
	if x != 12 || y != -7 {
		t.Errorf("expected stored listener at (12, -7), got (%v, %v)", x, y)
	}
}
