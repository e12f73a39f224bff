// ABOUTME: Bubbletea model for the soundboard TUI
// ABOUTME: Drives a live engine and polls it once per tick
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/embergarde/chorus/pkg/engine"
)

// Sound is one loaded asset on the board.
type Sound struct {
	Name   string
	Source uint32
}

// row is one live instance the board started.
type row struct {
	handle uint32
	name   string
}

// Model represents the TUI state
type Model struct {
	eng    *engine.Engine
	sounds []Sound

	rows     []row
	finished []uint32

	masterMuted bool

	width  int
	height int
}

type tickMsg time.Time

// NewModel creates a soundboard over a running engine.
func NewModel(eng *engine.Engine, sounds []Sound) Model {
	return Model{eng: eng, sounds: sounds}
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m = m.refresh()
		return m, tick()
	}
	return m, nil
}

// handleKey maps keys to engine calls
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(key[0] - '1')
		if idx < len(m.sounds) {
			s := m.sounds[idx]
			h := m.eng.Play(engine.PlayParams{
				Source:   s.Source,
				Volume:   1,
				Callback: true,
			})
			if h != 0 {
				m.rows = append(m.rows, row{handle: h, name: s.Name})
			}
		}

	case "p":
		if h := m.newest(m.eng.IsPlaying); h != 0 {
			m.eng.Pause(h)
		}

	case "r":
		if h := m.newest(m.eng.IsPaused); h != 0 {
			m.eng.Resume(h)
		}

	case "s":
		if h := m.newest(func(uint32) bool { return true }); h != 0 {
			m.eng.Stop(h)
		}

	case "S":
		m.eng.StopAll(0)

	case "m":
		m.masterMuted = !m.masterMuted
		m.eng.SetBusMuted(engine.MasterBus, m.masterMuted)
	}

	return m, nil
}

// newest returns the most recently started instance matching the
// predicate, or 0.
func (m Model) newest(match func(uint32) bool) uint32 {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if match(m.rows[i].handle) {
			return m.rows[i].handle
		}
	}
	return 0
}

// refresh drains finished events and drops dead rows.
func (m Model) refresh() Model {
	for {
		h := m.eng.PollFinished()
		if h == 0 {
			break
		}
		m.finished = append(m.finished, h)
		if len(m.finished) > 5 {
			m.finished = m.finished[1:]
		}
	}

	live := m.rows[:0]
	for _, r := range m.rows {
		if m.eng.IsPlaying(r.handle) || m.eng.IsPaused(r.handle) {
			live = append(live, r)
		}
	}
	m.rows = live
	return m
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString("┌─ chorus soundboard ──────────────────────────────────┐\n")
	mute := " "
	if m.masterMuted {
		mute = "M"
	}
	stats := m.eng.Stats()
	fmt.Fprintf(&b, "│ [%s] playing: %-3d paused: %-3d deferred: %-3d         │\n",
		mute, stats.Playing, stats.Paused, stats.Deferred)
	b.WriteString("├──────────────────────────────────────────────────────┤\n")

	for i, s := range m.sounds {
		fmt.Fprintf(&b, "│ %d) %-40s %6.2fs │\n", i+1, truncate(s.Name, 40), m.eng.Duration(s.Source))
	}
	b.WriteString("├──────────────────────────────────────────────────────┤\n")

	if len(m.rows) == 0 {
		b.WriteString("│ no live instances                                    │\n")
	}
	for _, r := range m.rows {
		state := "playing"
		if m.eng.IsPaused(r.handle) {
			state = "paused "
		}
		fmt.Fprintf(&b, "│ #%-4d %-28s %s %6.2fs │\n",
			r.handle, truncate(r.name, 28), state, m.eng.Time(r.handle))
	}

	if len(m.finished) > 0 {
		b.WriteString("├──────────────────────────────────────────────────────┤\n")
		fmt.Fprintf(&b, "│ finished: %-42v │\n", m.finished)
	}

	b.WriteString("└──────────────────────────────────────────────────────┘\n")
	b.WriteString("1-9 play · p pause · r resume · s stop · S stop all · m mute · q quit\n")
	return b.String()
}

// truncate shortens s to max bytes
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
