// ABOUTME: Audio output using oto library
// ABOUTME: Streams normalized samples to the device with software volume control
package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/SpeakWire/speakwire-go/internal/audio"
	"github.com/ebitengine/oto/v3"
)

// ErrPlaybackUnavailable is returned when no audio device can be acquired.
// Presenting audio requires a live device; this error is fatal to a session
// and is not retried.
var ErrPlaybackUnavailable = errors.New("audio output unavailable")

// Output represents an audio output device.
type Output interface {
	// Open initializes the output device.
	Open(sampleRate, channels int) error

	// Write outputs normalized samples (blocks until accepted).
	Write(samples []float64) error

	// Close releases output resources.
	Close() error
}

// Oto output implementation using the oto library. Samples flow through a
// persistent pipe so consecutive writes play back-to-back with no device
// re-priming between buffers.
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool
	mu         sync.Mutex
}

// NewOto creates a new Oto output.
func NewOto() *Oto {
	return &Oto{volume: 100}
}

// Open initializes the output device.
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Oto allows one context per process; reuse it on matching format.
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		o.ready = true
		return nil
	}
	if o.otoCtx != nil {
		log.Printf("Warning: format change (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization, keeping existing context",
			o.sampleRate, o.channels, sampleRate, channels)
		o.ready = true
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return nil
}

// Write outputs normalized samples, blocking until the device pipeline has
// accepted them.
func (o *Oto) Write(samples []float64) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return fmt.Errorf("%w: output not initialized", ErrPlaybackUnavailable)
	}
	volume, muted := o.volume, o.muted
	w := o.pipeWriter
	o.mu.Unlock()

	multiplier := volumeMultiplier(volume, muted)

	buf := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(audio.SampleToInt16(sample*multiplier)))
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}

	return nil
}

// SetVolume sets the volume (0-100).
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
}

// SetMuted sets mute state.
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// Volume returns current volume.
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state.
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// Close releases output resources.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.ready = false
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
	}
	if o.otoCtx != nil {
		return o.otoCtx.Suspend()
	}
	return nil
}

// volumeMultiplier calculates the software gain for a volume setting.
func volumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
