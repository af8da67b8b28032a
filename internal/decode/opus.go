// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to normalized samples
package decode

import (
	"fmt"

	"github.com/SpeakWire/speakwire-go/internal/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is the largest Opus frame in samples per channel (120ms at 48kHz).
const maxOpusFrame = 5760

// Opus decodes Opus audio. Each chunk must be one whole Opus packet;
// packets are self-delimiting so there is no carry state.
type Opus struct {
	decoder  *opus.Decoder
	channels int
	scale    float64
}

// NewOpus creates an Opus decoder for the format.
func NewOpus(format audio.Format) (*Opus, error) {
	channels := format.Channels
	if channels <= 0 {
		channels = 1
	}

	dec, err := opus.NewDecoder(format.SampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &Opus{
		decoder:  dec,
		channels: channels,
		scale:    format.Scale(),
	}, nil
}

// Decode converts one Opus packet to normalized samples.
func (d *Opus) Decode(data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}

	pcm16 := make([]int16, maxOpusFrame*d.channels)
	n, err := d.decoder.Decode(data, pcm16)
	if err != nil {
		return nil, &DecodeError{Codec: "opus", Err: err}
	}

	total := n * d.channels
	samples := make([]float64, total)
	for i := 0; i < total; i++ {
		samples[i] = float64(pcm16[i]) / d.scale
	}

	return samples, nil
}

// Close releases decoder resources.
func (d *Opus) Close() error {
	return nil
}
