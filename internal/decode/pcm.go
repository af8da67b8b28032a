// ABOUTME: PCM audio decoder with chunk-boundary carry-over
// ABOUTME: Decodes signed 16-bit little-endian PCM to normalized samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/SpeakWire/speakwire-go/internal/audio"
)

// PCM decodes raw signed 16-bit little-endian PCM. Chunk boundaries carry
// no alignment guarantee and may split a sample in half, so a trailing odd
// byte is held back and prepended to the next chunk. The trailing partial
// byte of an odd-length stream is dropped at stream end.
type PCM struct {
	scale float64
	carry []byte
}

// NewPCM creates a PCM decoder for the format. The normalization divisor
// comes from the format's full-scale value, not a hardcoded bit depth.
func NewPCM(format audio.Format) (*PCM, error) {
	if format.BitDepth != 0 && format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	return &PCM{scale: format.Scale()}, nil
}

// Decode converts one chunk to normalized samples, threading carry state
// across calls. Decoding a chunk sequence with carry propagation yields the
// same samples as decoding the concatenation at once.
func (d *PCM) Decode(data []byte) ([]float64, error) {
	if len(d.carry) > 0 {
		joined := make([]byte, 0, len(d.carry)+len(data))
		joined = append(joined, d.carry...)
		joined = append(joined, data...)
		data = joined
		d.carry = nil
	}

	if len(data)%2 != 0 {
		d.carry = []byte{data[len(data)-1]}
		data = data[:len(data)-1]
	}

	if len(data) == 0 {
		return nil, nil
	}

	samples := make([]float64, len(data)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / d.scale
	}

	return samples, nil
}

// Close discards carry state.
func (d *PCM) Close() error {
	d.carry = nil
	return nil
}
