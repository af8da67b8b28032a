// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for chunk-wise audio decoders
package decode

import (
	"fmt"

	"github.com/SpeakWire/speakwire-go/internal/audio"
)

// Decoder converts encoded audio chunks to samples normalized to [-1, 1].
// Decoders are stateful per stream: chunk-boundary state (carry bytes)
// lives inside the decoder and is discarded on Close.
type Decoder interface {
	// Decode converts one chunk to normalized samples. A nil, nil return
	// means the chunk held no complete sample.
	Decode(data []byte) ([]float64, error)

	// Close discards stream state and releases decoder resources.
	Close() error
}

// New creates a chunk decoder for the format's codec. MP3 cannot be
// decoded chunk-by-chunk; use NewMP3Stream for it.
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm", "":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
