// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the soundboard
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/embergarde/chorus/pkg/engine"
)

// Run starts the soundboard TUI over a running engine and blocks until
// the user quits.
func Run(eng *engine.Engine, sounds []Sound) error {
	p := tea.NewProgram(NewModel(eng, sounds), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
