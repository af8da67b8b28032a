// ABOUTME: MP3 pull-mode audio decoder
// ABOUTME: Decodes an MP3 byte stream to normalized sample frames
package decode

import (
	"encoding/binary"
	"io"

	"github.com/SpeakWire/speakwire-go/internal/audio"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// mp3FrameBytes is how much decoded PCM one ReadFrame call returns at most.
const mp3FrameBytes = 8192

// MP3Stream decodes an MP3 byte stream in pull mode. MP3 framing cannot be
// decoded chunk-by-chunk, so the decoder reads from the transport stream
// directly and yields normalized frames. Output is always 16-bit stereo at
// the stream's native sample rate.
type MP3Stream struct {
	decoder *mp3.Decoder
	scale   float64
	buf     []byte
}

// NewMP3Stream creates a pull decoder over r. It blocks until the MP3
// header has been read.
func NewMP3Stream(r io.Reader, format audio.Format) (*MP3Stream, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, &DecodeError{Codec: "mp3", Err: err}
	}

	return &MP3Stream{
		decoder: dec,
		scale:   format.Scale(),
		buf:     make([]byte, mp3FrameBytes),
	}, nil
}

// SampleRate returns the stream's native sample rate.
func (d *MP3Stream) SampleRate() int {
	return d.decoder.SampleRate()
}

// ReadFrame returns the next decoded frame of normalized samples, or
// io.EOF at stream end.
func (d *MP3Stream) ReadFrame() ([]float64, error) {
	n, err := d.decoder.Read(d.buf)
	if n == 0 {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, &DecodeError{Codec: "mp3", Err: err}
		}
		return nil, nil
	}

	// go-mp3 emits whole 16-bit samples, so n is always even.
	samples := make([]float64, n/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(d.buf[i*2:]))) / d.scale
	}

	return samples, nil
}

// Close releases decoder resources.
func (d *MP3Stream) Close() error {
	return nil
}
