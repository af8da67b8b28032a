// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, waveform rendering, and key handling
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type stubSource struct {
	samples []float64
}

func (s *stubSource) Samples(n int) []float64 {
	if n > len(s.samples) {
		n = len(s.samples)
	}
	return s.samples[:n]
}

func TestNewModel(t *testing.T) {
	model := NewModel("http://localhost:8080", "ember", "hello", nil, nil)

	if model.sessionState != "idle" {
		t.Errorf("expected initial state 'idle', got %q", model.sessionState)
	}

	if model.serverName != "http://localhost:8080" {
		t.Errorf("expected serverName 'http://localhost:8080', got %q", model.serverName)
	}

	if model.voice != "ember" {
		t.Errorf("expected voice 'ember', got %q", model.voice)
	}
}

func TestStatusMsgUpdatesState(t *testing.T) {
	model := NewModel("srv", "v", "t", nil, nil)

	model.applyStatus(StatusMsg{State: "streaming", Scheduled: 5, Played: 3, Pending: 2})

	if model.sessionState != "streaming" {
		t.Errorf("expected state 'streaming', got %q", model.sessionState)
	}

	if model.scheduled != 5 || model.played != 3 {
		t.Errorf("expected stats 5/3, got %d/%d", model.scheduled, model.played)
	}

	if model.pending != 2 {
		t.Errorf("expected pending 2, got %d", model.pending)
	}
}

func TestStatusMsgPreservesStateWhenEmpty(t *testing.T) {
	model := NewModel("srv", "v", "t", nil, nil)
	model.applyStatus(StatusMsg{State: "streaming"})

	// Stats-only update must not clear the state line.
	model.applyStatus(StatusMsg{Played: 10, Scheduled: 10})

	if model.sessionState != "streaming" {
		t.Errorf("expected state preserved, got %q", model.sessionState)
	}
}

func TestStatusMsgZeroCountersReset(t *testing.T) {
	model := NewModel("srv", "v", "t", nil, nil)
	model.applyStatus(StatusMsg{State: "streaming", Scheduled: 8, Played: 8, Pending: 3})

	// A fresh session's first status carries all-zero counters; stale
	// numbers from the previous session must not survive it.
	model.applyStatus(StatusMsg{State: "connecting"})

	if model.scheduled != 0 || model.played != 0 || model.pending != 0 {
		t.Errorf("expected counters reset, got %d/%d pending %d",
			model.scheduled, model.played, model.pending)
	}
}

func TestStatusMsgError(t *testing.T) {
	model := NewModel("srv", "v", "t", nil, nil)

	model.applyStatus(StatusMsg{State: "failed", Err: "connection refused"})

	if model.errMsg != "connection refused" {
		t.Errorf("expected error message, got %q", model.errMsg)
	}
}

func TestTickPullsWaveform(t *testing.T) {
	source := &stubSource{samples: []float64{0.5, -0.5, 1.0}}
	model := NewModel("srv", "v", "t", source, nil)

	updated, cmd := model.Update(tickMsg{})

	m := updated.(Model)
	if len(m.waveform) != 3 {
		t.Errorf("expected 3 waveform samples, got %d", len(m.waveform))
	}

	if cmd == nil {
		t.Error("expected tick to reschedule itself")
	}
}

func TestRenderWaveform(t *testing.T) {
	out := renderWaveform([]float64{0, 1, -1, 0.5}, 6)

	runes := []rune(out)
	if len(runes) != 6 {
		t.Fatalf("expected 6 runes, got %d", len(runes))
	}

	if runes[0] != waveformRunes[0] {
		t.Errorf("expected silence rune for 0, got %q", runes[0])
	}

	if runes[1] != waveformRunes[len(waveformRunes)-1] {
		t.Errorf("expected full rune for 1.0, got %q", runes[1])
	}

	// Negative amplitude renders by magnitude.
	if runes[2] != waveformRunes[len(waveformRunes)-1] {
		t.Errorf("expected full rune for -1.0, got %q", runes[2])
	}

	// Missing samples pad as silence.
	if runes[4] != waveformRunes[0] || runes[5] != waveformRunes[0] {
		t.Error("expected padding to render as silence")
	}
}

func TestRenderWaveformClipsOverdrive(t *testing.T) {
	out := renderWaveform([]float64{2.5}, 1)

	if []rune(out)[0] != waveformRunes[len(waveformRunes)-1] {
		t.Error("expected amplitude above 1.0 to clip to the full rune")
	}
}

func TestViewBeforeResize(t *testing.T) {
	model := NewModel("srv", "v", "t", nil, nil)

	if model.View() != "Loading..." {
		t.Error("expected loading placeholder before first WindowSizeMsg")
	}
}

func TestViewContainsStatus(t *testing.T) {
	model := NewModel("http://srv", "ember", "hello", nil, nil)
	model.width = 80
	model.height = 24
	model.applyStatus(StatusMsg{State: "streaming"})

	view := model.View()

	if !strings.Contains(view, "streaming") {
		t.Error("expected view to include session state")
	}

	if !strings.Contains(view, "ember") {
		t.Error("expected view to include voice")
	}
}

func TestKeySpeakSignalsControls(t *testing.T) {
	controls := NewControls()
	model := NewModel("srv", "v", "t", nil, controls)

	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	select {
	case <-controls.Speak:
	default:
		t.Error("expected speak signal on 's'")
	}
}

func TestKeyStopSignalsControls(t *testing.T) {
	controls := NewControls()
	model := NewModel("srv", "v", "t", nil, controls)

	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	select {
	case <-controls.Stop:
	default:
		t.Error("expected stop signal on 'x'")
	}
}

func TestKeyQuitReturnsQuitCmd(t *testing.T) {
	controls := NewControls()
	model := NewModel("srv", "v", "t", nil, controls)

	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal on 'q'")
	}
}

func TestTruncate(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Error("expected short string unchanged")
	}

	got := truncate("a very long string indeed", 10)
	if got != "a very ..." {
		t.Errorf("expected truncation with ellipsis, got %q", got)
	}
}
