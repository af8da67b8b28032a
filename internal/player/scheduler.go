// ABOUTME: Gapless playback scheduler
// ABOUTME: Owns the next-play-time cursor and the queue of scheduled buffers
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SpeakWire/speakwire-go/internal/audio"
)

// scheduleLead is how far ahead of a buffer's start time it may be handed
// to the output, so the device pipeline never underruns between ticks.
const scheduleLead = 20 * time.Millisecond

// Scheduler maintains gapless playback for one session. It owns the
// next-play-time cursor: each buffer starts at max(now, cursor) and
// advances the cursor by the buffer's duration, so buffers play in order
// with no overlap, and a starvation gap resumes from the current clock
// instead of accumulating drift. Each session gets a fresh instance; the
// cursor is never shared across sessions.
type Scheduler struct {
	output Output
	tap    *Tap

	mu    sync.Mutex
	queue []scheduled
	next  time.Time // earliest time the next buffer may start
	gen   uint64
	stats Stats

	now func() time.Time
}

// Handle reports when a scheduled buffer will play.
type Handle struct {
	StartAt time.Time
	EndAt   time.Time
}

// Stats tracks scheduler metrics.
type Stats struct {
	Scheduled int64
	Played    int64
	Dropped   int64
}

type scheduled struct {
	buf     audio.Buffer
	startAt time.Time
	gen     uint64
}

// NewScheduler creates a playback scheduler over the given output and tap.
func NewScheduler(output Output, tap *Tap) *Scheduler {
	now := time.Now()
	return &Scheduler{
		output: output,
		tap:    tap,
		next:   now,
		now:    time.Now,
	}
}

// Schedule queues a buffer for playback immediately adjacent to the
// previously scheduled one.
func (s *Scheduler) Schedule(buf audio.Buffer) (Handle, error) {
	if buf.Format.SampleRate <= 0 {
		return Handle{}, fmt.Errorf("invalid sample rate: %d", buf.Format.SampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start := now
	if s.next.After(now) {
		start = s.next
	}
	end := start.Add(buf.Duration())
	s.next = end

	s.queue = append(s.queue, scheduled{buf: buf, startAt: start, gen: s.gen})
	s.stats.Scheduled++

	return Handle{StartAt: start, EndAt: end}, nil
}

// Run drives the playback loop until ctx is cancelled or the output fails.
// A nil return means the context ended; a non-nil return is a playback
// failure that is fatal to the session.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.processQueue(ctx); err != nil {
				return err
			}
		}
	}
}

// processQueue hands due buffers to the output and feeds the tap.
func (s *Scheduler) processQueue(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return nil
		}
		head := s.queue[0]
		if head.gen != s.gen {
			// Invalidated by Reset; must not reach the output.
			s.queue = s.queue[1:]
			s.stats.Dropped++
			s.mu.Unlock()
			continue
		}
		if head.startAt.After(s.now().Add(scheduleLead)) {
			s.mu.Unlock()
			return nil
		}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		// Write outside the lock so Reset is never blocked on the device.
		if err := s.output.Write(head.buf.Samples); err != nil {
			return fmt.Errorf("playback: %w", err)
		}
		if s.tap != nil {
			s.tap.Push(head.buf.Samples)
		}

		s.mu.Lock()
		s.stats.Played++
		s.mu.Unlock()
	}
}

// Reset invalidates all pending buffers and moves the cursor to now. Used
// on cancellation and restart: buffers not yet started must never reach
// the output after this call.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Dropped += int64(len(s.queue))
	s.queue = nil
	s.gen++
	s.next = s.now()
}

// Drain blocks until all scheduled audio has played out (the queue is
// empty and the cursor has passed) or ctx is cancelled.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		s.mu.Lock()
		empty := len(s.queue) == 0
		next := s.next
		s.mu.Unlock()

		now := s.now()
		if empty && !now.Before(next) {
			return nil
		}

		wait := 10 * time.Millisecond
		if empty && next.Sub(now) > wait {
			wait = next.Sub(now)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Pending returns the number of buffers waiting to play.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Stats returns scheduler statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
