// ABOUTME: Tests for soundboard model state transitions
// ABOUTME: Runs against a real engine on the fake backend
package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/embergarde/chorus/internal/audiotest"
	"github.com/embergarde/chorus/pkg/engine"
)

func newTestBoard(t *testing.T) (Model, *engine.Engine, *audiotest.Backend) {
	t.Helper()
	bk := audiotest.New()
	eng, err := engine.New(bk, engine.Config{RetryInterval: 2 * time.Millisecond})
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	t.Cleanup(eng.Close)

	src := eng.Load([]byte("asset"))
	deadline := time.Now().Add(2 * time.Second)
	for eng.Duration(src) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("source never decoded")
		}
		time.Sleep(time.Millisecond)
	}

	m := NewModel(eng, []Sound{{Name: "jump.wav", Source: src}})
	return m, eng, bk
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlayKeyStartsInstance(t *testing.T) {
	m, eng, _ := newTestBoard(t)

	next, _ := m.Update(key("1"))
	m = next.(Model)

	if len(m.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(m.rows))
	}
	if !eng.IsPlaying(m.rows[0].handle) {
		t.Error("expected instance playing after play key")
	}
}

func TestPauseAndResumeKeys(t *testing.T) {
	m, eng, _ := newTestBoard(t)

	next, _ := m.Update(key("1"))
	m = next.(Model)
	h := m.rows[0].handle

	next, _ = m.Update(key("p"))
	m = next.(Model)
	if !eng.IsPaused(h) {
		t.Error("expected instance paused after p")
	}

	next, _ = m.Update(key("r"))
	m = next.(Model)
	if !eng.IsPlaying(h) {
		t.Error("expected instance playing after r")
	}
}

func TestStopAllKeyEmptiesBoard(t *testing.T) {
	m, eng, _ := newTestBoard(t)

	for i := 0; i < 3; i++ {
		next, _ := m.Update(key("1"))
		m = next.(Model)
	}
	next, _ := m.Update(key("S"))
	m = next.(Model)

	if s := eng.Stats(); s.Playing != 0 {
		t.Errorf("expected no playing instances, got %d", s.Playing)
	}

	m = m.refresh()
	if len(m.rows) != 0 {
		t.Errorf("expected no rows after refresh, got %d", len(m.rows))
	}
}

func TestFinishedEventsCollectedOnRefresh(t *testing.T) {
	m, _, bk := newTestBoard(t)

	next, _ := m.Update(key("1"))
	m = next.(Model)
	h := m.rows[0].handle

	bk.Advance(1.5) // default fake asset is one second long

	m = m.refresh()
	if len(m.finished) != 1 || m.finished[0] != h {
		t.Errorf("expected finished event for %d, got %v", h, m.finished)
	}
	if len(m.rows) != 0 {
		t.Errorf("expected dead row dropped, got %d rows", len(m.rows))
	}
}

func TestMuteKeyTogglesMasterBus(t *testing.T) {
	m, eng, _ := newTestBoard(t)

	next, _ := m.Update(key("m"))
	m = next.(Model)
	if !eng.BusMuted(engine.MasterBus) {
		t.Error("expected master muted after m")
	}

	next, _ = m.Update(key("m"))
	m = next.(Model)
	if eng.BusMuted(engine.MasterBus) {
		t.Error("expected master unmuted after second m")
	}
}
