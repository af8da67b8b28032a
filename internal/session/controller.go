// ABOUTME: Session controller state machine
// ABOUTME: Coordinates start, cancel, and restart across transport, decode, and playback
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/SpeakWire/speakwire-go/internal/audio"
	"github.com/SpeakWire/speakwire-go/internal/client"
	"github.com/SpeakWire/speakwire-go/internal/player"
	"github.com/google/uuid"
)

// Request describes one speak request. An empty Voice falls back to the
// controller's configured voice.
type Request struct {
	Text  string
	Voice string
}

// Status is a snapshot of the current (or last) session.
type Status struct {
	ID      uuid.UUID
	State   State
	Err     error
	Stats   player.Stats
	Pending int
}

// Config holds controller configuration.
type Config struct {
	Transport client.Transport
	Output    player.Output
	Tap       *player.Tap // optional; a default tap is created when nil
	Format    audio.Format
	Voice     string
	Extra     map[string]any // opaque pass-through request fields

	// OnState is called on every state transition.
	OnState func(Status)

	// OnError is called when a fatal session error occurs.
	OnError func(error)
}

// Controller coordinates the speak-session lifecycle. At most one session
// is active at a time; starting a new one synchronously cancels the
// previous one before the new session acquires the output, so the timing
// cursor and the device are never shared between sessions.
type Controller struct {
	transport client.Transport
	output    player.Output
	tap       *player.Tap
	format    audio.Format
	voice     string
	extra     map[string]any
	onState   func(Status)
	onError   func(error)

	mu  sync.Mutex
	cur *session
}

type session struct {
	id        uuid.UUID
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *player.Scheduler
	state     State
	err       error
	done      chan struct{}
}

// New creates a session controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if cfg.Output == nil {
		return nil, errors.New("output is required")
	}

	format := cfg.Format
	if format.Codec == "" {
		format.Codec = "pcm"
	}
	if format.SampleRate == 0 {
		format.SampleRate = 24000
	}
	if format.Channels == 0 {
		format.Channels = 1
	}

	tap := cfg.Tap
	if tap == nil {
		tap = player.NewTap(player.DefaultTapSize)
	}

	return &Controller{
		transport: cfg.Transport,
		output:    cfg.Output,
		tap:       tap,
		format:    format,
		voice:     cfg.Voice,
		extra:     cfg.Extra,
		onState:   cfg.OnState,
		onError:   cfg.OnError,
	}, nil
}

// Start begins a new session for the request. Any active session is
// superseded: cancelled synchronously before the new one starts. The
// returned error is non-nil only when the session could not begin at all
// (no output device); stream-time failures surface through OnError and the
// terminal state. For mp3 the device is acquired mid-stream, so even an
// output failure surfaces through the callbacks rather than here.
func (c *Controller) Start(req Request) error {
	c.mu.Lock()
	var superseded *Status
	if c.cur != nil && !c.cur.state.Terminal() {
		c.cancelLocked(c.cur)
		st := c.statusLocked(c.cur)
		superseded = &st
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:        uuid.New(),
		ctx:       ctx,
		cancel:    cancel,
		scheduler: player.NewScheduler(c.output, c.tap),
		state:     StateConnecting,
		done:      make(chan struct{}),
	}
	c.cur = s
	status := c.statusLocked(s)
	c.mu.Unlock()

	if superseded != nil && c.onState != nil {
		c.onState(*superseded)
	}
	if c.onState != nil {
		c.onState(status)
	}

	// mp3 reports its real sample rate and channel count only once the
	// stream header has decoded, so its open is deferred to the ingester.
	// Chunked codecs know the format up front and fail fast here.
	if c.format.Codec != "mp3" {
		if err := c.output.Open(c.format.SampleRate, c.format.Channels); err != nil {
			c.setState(s, StateFailed, err)
			cancel()
			close(s.done)
			return err
		}
	}

	voice := req.Voice
	if voice == "" {
		voice = c.voice
	}

	go c.run(s, client.Request{
		Text:   req.Text,
		Voice:  voice,
		Format: c.format.Codec,
		Extra:  c.extra,
	})

	return nil
}

// Stop cancels the active session, if any. Not an error: Cancelled is a
// normal terminal outcome.
func (c *Controller) Stop() {
	c.mu.Lock()
	var status *Status
	if c.cur != nil && !c.cur.state.Terminal() {
		c.cancelLocked(c.cur)
		st := c.statusLocked(c.cur)
		status = &st
	}
	c.mu.Unlock()

	if status != nil && c.onState != nil {
		c.onState(*status)
	}
}

// cancelLocked marks the session cancelled and revokes its resources:
// pending buffers are invalidated, the cursor is reset, and the read loop's
// context is cancelled so in-flight chunks and carry state are discarded.
func (c *Controller) cancelLocked(s *session) {
	s.state = StateCancelled
	s.cancel()
	s.scheduler.Reset()
}

// Status returns a snapshot of the current session, or an Idle status when
// none has been started.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return Status{State: StateIdle}
	}
	return c.statusLocked(c.cur)
}

func (c *Controller) statusLocked(s *session) Status {
	return Status{
		ID:      s.id,
		State:   s.state,
		Err:     s.err,
		Stats:   s.scheduler.Stats(),
		Pending: s.scheduler.Pending(),
	}
}

// Done returns a channel closed when the current session's goroutines have
// finished. When no session has been started it returns a closed channel.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.cur.done
}

// Waveform returns a snapshot of the n most recently played samples.
func (c *Controller) Waveform(n int) []float64 {
	return c.tap.Samples(n)
}

// Close stops any active session and releases the output device.
func (c *Controller) Close() error {
	c.Stop()
	c.tap.Clear()
	return c.output.Close()
}

// run owns the session from connect to terminal state.
func (c *Controller) run(s *session, req client.Request) {
	defer close(s.done)

	schedDone := make(chan error, 1)
	go func() { schedDone <- s.scheduler.Run(s.ctx) }()

	ing := &ingester{
		transport:   c.transport,
		scheduler:   s.scheduler,
		format:      c.format,
		req:         req,
		onStreaming: func() { c.setState(s, StateStreaming, nil) },
		openOutput: func(f audio.Format) error {
			return c.output.Open(f.SampleRate, f.Channels)
		},
	}

	ingDone := make(chan error, 1)
	go func() { ingDone <- ing.run(s.ctx) }()

	var ingErr error
	select {
	case err := <-schedDone:
		// The playback loop exits first only on output failure or cancel.
		if err != nil {
			c.setState(s, StateFailed, err)
		}
		s.cancel()
		return
	case ingErr = <-ingDone:
	}

	if ingErr != nil {
		if errors.Is(ingErr, context.Canceled) || s.ctx.Err() != nil {
			s.cancel()
			return
		}
		// Transport or repeated decode failure. The session reports Failed
		// now, but audio already scheduled is not retroactively cancelled:
		// it plays to completion while the failure is surfaced. Must also
		// watch the playback loop: if the output dies mid-drain the queue
		// never empties, and waiting on Drain alone would never return.
		c.setState(s, StateFailed, ingErr)

		drainDone := make(chan error, 1)
		go func() { drainDone <- s.scheduler.Drain(s.ctx) }()

		select {
		case <-schedDone:
		case <-drainDone:
		}
		s.cancel()
		return
	}

	// Clean end of stream: drain already-scheduled audio, then complete.
	c.setState(s, StateDraining, nil)

	drainDone := make(chan error, 1)
	go func() { drainDone <- s.scheduler.Drain(s.ctx) }()

	select {
	case err := <-schedDone:
		if err != nil {
			c.setState(s, StateFailed, err)
		}
		s.cancel()
	case err := <-drainDone:
		if err == nil {
			c.setState(s, StateCompleted, nil)
		}
		s.cancel()
	}
}

// setState applies a transition unless the session is already terminal.
func (c *Controller) setState(s *session, state State, err error) {
	c.mu.Lock()
	if s.state.Terminal() {
		c.mu.Unlock()
		return
	}
	s.state = state
	if err != nil {
		s.err = err
	}
	status := c.statusLocked(s)
	c.mu.Unlock()

	if err != nil && c.onError != nil {
		c.onError(err)
	}
	if c.onState != nil {
		c.onState(status)
	}
}
