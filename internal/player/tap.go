// ABOUTME: Read-only visualization tap on the live audio output
// ABOUTME: Ring buffer of the most recently played samples
package player

import "sync"

// DefaultTapSize is the ring capacity in samples (~43ms at 24kHz).
const DefaultTapSize = 1024

// Tap is a read-only view of the samples most recently sent to the output.
// The scheduler pushes every buffer it plays; renderers poll Samples at
// their own cadence. Reads never block the playback path beyond a short
// mutex hold, and a snapshot of silence during starvation gaps is a normal
// state, not an error.
type Tap struct {
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap creates a tap with a ring buffer of the given size.
func NewTap(size int) *Tap {
	if size <= 0 {
		size = DefaultTapSize
	}
	return &Tap{
		buf:  make([]float64, size),
		size: size,
	}
}

// Push copies samples into the ring buffer.
func (t *Tap) Push(samples []float64) {
	t.mu.Lock()
	for _, s := range samples {
		t.buf[t.pos] = s
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
}

// Samples returns the last n samples in chronological order. Each call
// yields a fresh snapshot of whatever is currently audible.
func (t *Tap) Samples(n int) []float64 {
	if n > t.size {
		n = t.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := 0; i < n; i++ {
		out[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return out
}

// Clear zeroes the ring, used when a session releases the output tap.
func (t *Tap) Clear() {
	t.mu.Lock()
	for i := range t.buf {
		t.buf[i] = 0
	}
	t.pos = 0
	t.mu.Unlock()
}
