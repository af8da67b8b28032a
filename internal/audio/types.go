// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and normalized sample buffers
package audio

import "time"

// DefaultFullScale is the full-scale divisor for signed 16-bit PCM.
const DefaultFullScale = 32768.0

// Format describes an audio stream format.
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	FullScale  float64 // divisor mapping raw samples to [-1, 1]; 0 means DefaultFullScale
}

// Scale returns the full-scale divisor for this format.
func (f Format) Scale() float64 {
	if f.FullScale > 0 {
		return f.FullScale
	}
	return DefaultFullScale
}

// Buffer holds decoded samples normalized to [-1, 1]. A buffer is owned by
// the playback scheduler from creation until its scheduled playback
// completes.
type Buffer struct {
	Samples []float64
	Format  Format
}

// Duration returns the playback time of the buffer at its sample rate.
func (b Buffer) Duration() time.Duration {
	channels := b.Format.Channels
	if channels <= 0 {
		channels = 1
	}
	if b.Format.SampleRate <= 0 {
		return 0
	}
	frames := len(b.Samples) / channels
	return time.Duration(float64(frames) / float64(b.Format.SampleRate) * float64(time.Second))
}

// SampleToInt16 converts a normalized sample back to signed 16-bit PCM,
// clipping out-of-range values.
func SampleToInt16(sample float64) int16 {
	v := sample * DefaultFullScale
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}
