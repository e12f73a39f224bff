// ABOUTME: Tests for the deferred play queue
// ABOUTME: Parking, timer promotion and retry-ceiling abandonment
package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/embergarde/chorus/internal/audiotest"
	"github.com/embergarde/chorus/pkg/graph"
)

func TestPlayOnDecodingSourceReturnsHandleAndPromotes(t *testing.T) {
	eng, bk := newTestEngine(t)

	bk.BlockDecode()
	src := eng.Load([]byte("slow asset"))

	inst := eng.Play(PlayParams{Source: src, Pan: 0.5, Volume: 0.4})
	if inst == 0 {
		t.Fatal("expected nonzero handle for deferred play")
	}
	if eng.IsPlaying(inst) {
		t.Error("expected instance not live while source decodes")
	}
	if s := eng.Stats(); s.Deferred != 1 {
		t.Errorf("expected 1 parked request, got %d", s.Deferred)
	}

	bk.ReleaseDecodes()
	waitFor(t, func() bool { return eng.IsPlaying(inst) })

	// Promotion must run the same construction as an immediate play:
	// the chain carries the snapshotted parameters.
	if len(bk.StereoPanners) != 1 {
		t.Fatalf("expected one stereo panner from the snapshot pan, got %d", len(bk.StereoPanners))
	}
	if p := bk.StereoPanners[0]; p.Pan != 0.5 {
		t.Errorf("expected snapshot pan 0.5, got %v", p.Pan)
	}
	if g := bk.LastGain(); g.Value() != 0.4 {
		t.Errorf("expected snapshot volume 0.4, got %v", g.Value())
	}
	if s := eng.Stats(); s.Deferred != 0 {
		t.Errorf("expected drained deferred queue, got %d", s.Deferred)
	}
}

func TestDeferredPlayAbandonedAfterRetryCeiling(t *testing.T) {
	bk := audiotest.New()
	bk.DecodeFunc = func([]byte) (*graph.Buffer, error) {
		return nil, errors.New("corrupt asset")
	}
	eng, err := New(bk, Config{RetryInterval: time.Millisecond, RetryLimit: 10})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(eng.Close)

	src := eng.Load([]byte("never ready"))
	inst := eng.Play(PlayParams{Source: src, Callback: true})
	if inst == 0 {
		t.Fatal("expected handle even for a source that will never decode")
	}

	waitFor(t, func() bool { return eng.Stats().Deferred == 0 })

	if eng.IsPlaying(inst) || eng.IsPaused(inst) {
		t.Error("expected abandoned request to never become an instance")
	}
	if h := eng.PollFinished(); h != 0 {
		t.Errorf("expected no finished event for an abandoned play, got %d", h)
	}
	if d := eng.Duration(src); d != 0 {
		t.Errorf("expected failed source to report duration 0, got %v", d)
	}
}

func TestAbandonmentTakesExactlyTenSweeps(t *testing.T) {
	bk := audiotest.New()
	bk.DecodeFunc = func([]byte) (*graph.Buffer, error) {
		return nil, errors.New("corrupt asset")
	}
	// An hour-long interval keeps the armed timer out of the way so the
	// sweeps below are the only ones that run.
	eng, err := New(bk, Config{RetryInterval: time.Hour})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(eng.Close)

	src := eng.Load([]byte("never ready"))
	inst := eng.Play(PlayParams{Source: src})

	for i := 0; i < 9; i++ {
		eng.sweepDeferred()
		if s := eng.Stats(); s.Deferred != 1 {
			t.Fatalf("expected request still parked after sweep %d, got %d", i+1, s.Deferred)
		}
	}

	eng.sweepDeferred()
	if s := eng.Stats(); s.Deferred != 0 {
		t.Errorf("expected abandonment on the 10th sweep, %d still parked", s.Deferred)
	}
	if eng.IsPlaying(inst) || eng.IsPaused(inst) {
		t.Error("expected abandoned request to never become an instance")
	}
}

func TestStopCancelsDeferredRequest(t *testing.T) {
	eng, bk := newTestEngine(t)

	bk.BlockDecode()
	src := eng.Load([]byte("slow asset"))
	inst := eng.Play(PlayParams{Source: src})

	eng.Stop(inst)
	bk.ReleaseDecodes()
	waitFor(t, func() bool { return eng.Duration(src) > 0 })

	// Give the sweep a chance to run; the cancelled request must not
	// resurrect as a zombie instance.
	time.Sleep(10 * time.Millisecond)
	if eng.IsPlaying(inst) {
		t.Error("expected stopped deferred request to never start")
	}
}

func TestSweepDisarmsWhenQueueEmpty(t *testing.T) {
	eng, bk := newTestEngine(t)

	bk.BlockDecode()
	src := eng.Load([]byte("slow asset"))
	inst := eng.Play(PlayParams{Source: src})

	bk.ReleaseDecodes()
	waitFor(t, func() bool { return eng.IsPlaying(inst) })

	// Queue is empty now; parking a second request must re-arm the
	// sweep rather than rely on a still-running one.
	bk.BlockDecode()
	src2 := eng.Load([]byte("slow asset 2"))
	inst2 := eng.Play(PlayParams{Source: src2})
	bk.ReleaseDecodes()
	waitFor(t, func() bool { return eng.IsPlaying(inst2) })
}
