// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls holds channels for user commands from the TUI.
type Controls struct {
	Speak chan struct{}
	Stop  chan struct{}
	Quit  chan struct{}
}

// NewControls creates a new control handler.
func NewControls() *Controls {
	return &Controls{
		Speak: make(chan struct{}, 1),
		Stop:  make(chan struct{}, 1),
		Quit:  make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model.
func NewModel(server, voice, text string, source WaveformSource, controls *Controls) Model {
	return Model{
		sessionState: "idle",
		serverName:   server,
		voice:        voice,
		text:         text,
		source:       source,
		controls:     controls,
	}
}

// Run starts the TUI.
func Run(server, voice, text string, source WaveformSource, controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(server, voice, text, source, controls), tea.WithAltScreen())
	return p, nil
}
