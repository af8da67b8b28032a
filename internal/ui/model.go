// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Renders session status, stats, and the live waveform
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// waveformFPS is the target refresh cadence for the waveform render. It is
// independent of chunk arrival: each frame is a fresh snapshot of whatever
// is currently audible.
const waveformFPS = 60

// waveformWidth is how many columns the waveform occupies.
const waveformWidth = 52

var waveformRunes = []rune("▁▂▃▄▅▆▇█")

// WaveformSource provides snapshots of the live audio output.
type WaveformSource interface {
	Samples(n int) []float64
}

// Model represents the TUI state.
type Model struct {
	// Session
	sessionState string
	errMsg       string
	serverName   string
	voice        string
	text         string

	// Stats
	scheduled int64
	played    int64
	dropped   int64
	pending   int

	// Waveform
	source   WaveformSource
	waveform []float64

	// Control
	controls *Controls

	// Dimensions
	width  int
	height int
}

// StatusMsg updates the session display.
type StatusMsg struct {
	State     string
	Err       string
	Scheduled int64
	Played    int64
	Dropped   int64
	Pending   int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/waveformFPS, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init schedules the first waveform frame.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case tickMsg:
		if m.source != nil {
			m.waveform = m.source.Samples(waveformWidth)
		}
		return m, tick()
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderWaveform()
	s += m.renderStats()
	s += m.renderHelp()

	return s
}

// renderHeader renders server, voice, and session state.
func (m Model) renderHeader() string {
	state := m.sessionState
	if state == "" {
		state = "idle"
	}
	if m.errMsg != "" {
		state = fmt.Sprintf("%s (%s)", state, m.errMsg)
	}

	return fmt.Sprintf(`┌─ SpeakWire Player ───────────────────────────────────┐
│ Server: %-45s │
│ Voice:  %-45s │
│ State:  %-45s │
│ Text:   %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(m.serverName, 45), truncate(m.voice, 45), truncate(state, 45), truncate(m.text, 45))
}

// renderWaveform renders the live output snapshot as a bar row.
func (m Model) renderWaveform() string {
	return fmt.Sprintf("│ %s │\n", renderWaveform(m.waveform, waveformWidth))
}

// renderStats renders playback statistics.
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Buffers: scheduled %-6d played %-6d dropped %-4d │
│ Pending: %-43d │
`, m.scheduled, m.played, m.dropped, m.pending)
}

// renderHelp renders keyboard shortcuts.
func (m Model) renderHelp() string {
	return `│ s:Speak again  x:Stop  q:Quit                        │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "s":
		if m.controls != nil {
			select {
			case m.controls.Speak <- struct{}{}:
			default:
			}
		}
	case "x":
		if m.controls != nil {
			select {
			case m.controls.Stop <- struct{}{}:
			default:
			}
		}
	}

	return m, nil
}

// applyStatus updates the model from a status message.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.sessionState = msg.State
	}
	m.errMsg = msg.Err
	m.scheduled = msg.Scheduled
	m.played = msg.Played
	m.dropped = msg.Dropped
	m.pending = msg.Pending
}

// renderWaveform maps amplitudes to bar runes. Fewer samples than width is
// padded with silence; silence during gaps is a normal state.
func renderWaveform(samples []float64, width int) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= len(samples) {
			b.WriteRune(waveformRunes[0])
			continue
		}
		amp := samples[i]
		if amp < 0 {
			amp = -amp
		}
		if amp > 1 {
			amp = 1
		}
		idx := int(amp * float64(len(waveformRunes)-1))
		b.WriteRune(waveformRunes[idx])
	}
	return b.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
