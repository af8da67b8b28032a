// ABOUTME: High-level Speaker API for SpeakWire streaming
// ABOUTME: Provides a simple interface for speaking text through the local audio device
package speakwire

import (
	"fmt"
	"strings"

	"github.com/SpeakWire/speakwire-go/internal/audio"
	"github.com/SpeakWire/speakwire-go/internal/client"
	"github.com/SpeakWire/speakwire-go/internal/player"
	"github.com/SpeakWire/speakwire-go/internal/session"
)

// Config holds speaker configuration.
type Config struct {
	// ServerURL is the synthesis server base URL. http:// and https://
	// use the streaming HTTP endpoint; ws:// and wss:// use the
	// WebSocket endpoint.
	ServerURL string

	// Voice is the default voice for Speak (optional).
	Voice string

	// Codec is the audio codec the server streams ("pcm", "opus", "mp3").
	// Defaults to "pcm".
	Codec string

	// SampleRate is the stream sample rate in Hz (default: 24000).
	SampleRate int

	// Channels is the stream channel count (default: 1).
	Channels int

	// FullScale overrides the PCM normalization divisor (default: 32768).
	FullScale float64

	// Volume is the initial volume (1-100). Zero means unset and selects
	// the default of 100; to start silent, call SetMuted after New.
	Volume int

	// Extra holds opaque fields forwarded verbatim in every request.
	Extra map[string]any

	// Sink overrides the audio output device. When nil the system
	// device is used. Mainly useful for tests.
	Sink player.Output

	// OnStateChange is called on every session state transition.
	OnStateChange func(Status)

	// OnError is called when a session fails.
	OnError func(error)
}

// Status describes the current (or last) session.
type Status struct {
	State     string
	Err       error
	Scheduled int64
	Played    int64
	Dropped   int64
	Pending   int
}

// Speaker streams synthesized speech from a SpeakWire server and plays it
// through the local audio device. It is safe for concurrent use; a new
// Speak supersedes any speech still in flight.
type Speaker struct {
	controller *session.Controller
	output     player.Output
	oto        *player.Oto // nil when Sink override is in use
	serverURL  string
}

// New creates a speaker with the given configuration.
func New(config Config) (*Speaker, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	transport, err := newTransport(config.ServerURL)
	if err != nil {
		return nil, err
	}

	if config.Volume == 0 {
		config.Volume = 100
	}

	var out player.Output
	var oto *player.Oto
	if config.Sink != nil {
		out = config.Sink
	} else {
		oto = player.NewOto()
		oto.SetVolume(config.Volume)
		out = oto
	}

	format := audio.Format{
		Codec:      config.Codec,
		SampleRate: config.SampleRate,
		Channels:   config.Channels,
		FullScale:  config.FullScale,
	}

	controller, err := session.New(session.Config{
		Transport: transport,
		Output:    out,
		Format:    format,
		Voice:     config.Voice,
		Extra:     config.Extra,
		OnState: func(s session.Status) {
			if config.OnStateChange != nil {
				config.OnStateChange(toStatus(s))
			}
		},
		OnError: config.OnError,
	})
	if err != nil {
		return nil, err
	}

	return &Speaker{
		controller: controller,
		output:     out,
		oto:        oto,
		serverURL:  config.ServerURL,
	}, nil
}

func newTransport(serverURL string) (client.Transport, error) {
	switch {
	case strings.HasPrefix(serverURL, "ws://"), strings.HasPrefix(serverURL, "wss://"):
		return client.NewWebSocket(serverURL), nil
	case strings.HasPrefix(serverURL, "http://"), strings.HasPrefix(serverURL, "https://"):
		return client.NewHTTP(serverURL), nil
	default:
		return nil, fmt.Errorf("unsupported server URL scheme: %s", serverURL)
	}
}

// Speak starts streaming the text with the configured voice. Any speech
// still in flight is cancelled first.
func (s *Speaker) Speak(text string) error {
	return s.controller.Start(session.Request{Text: text})
}

// SpeakVoice starts streaming the text with an explicit voice.
func (s *Speaker) SpeakVoice(text, voice string) error {
	return s.controller.Start(session.Request{Text: text, Voice: voice})
}

// Stop cancels the current session, if any. Unplayed audio is discarded.
func (s *Speaker) Stop() {
	s.controller.Stop()
}

// Done returns a channel closed when the current session reaches a
// terminal state. When no session has started the channel is already
// closed.
func (s *Speaker) Done() <-chan struct{} {
	return s.controller.Done()
}

// Status returns a snapshot of the current session.
func (s *Speaker) Status() Status {
	return toStatus(s.controller.Status())
}

// Waveform returns the most recent n output samples, oldest first.
func (s *Speaker) Waveform(n int) []float64 {
	return s.controller.Waveform(n)
}

// SetVolume sets the output volume (0-100). No-op when a Sink override
// is in use.
func (s *Speaker) SetVolume(volume int) {
	if s.oto != nil {
		s.oto.SetVolume(volume)
	}
}

// SetMuted mutes or unmutes output. No-op when a Sink override is in use.
func (s *Speaker) SetMuted(muted bool) {
	if s.oto != nil {
		s.oto.SetMuted(muted)
	}
}

// Close stops any active session and releases the audio device.
func (s *Speaker) Close() error {
	return s.controller.Close()
}

func toStatus(st session.Status) Status {
	return Status{
		State:     st.State.String(),
		Err:       st.Err,
		Scheduled: st.Stats.Scheduled,
		Played:    st.Stats.Played,
		Dropped:   st.Stats.Dropped,
		Pending:   st.Pending,
	}
}
