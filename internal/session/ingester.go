// ABOUTME: Stream ingestion loop
// ABOUTME: Reads chunks, decodes them, and hands buffers to the scheduler
package session

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/SpeakWire/speakwire-go/internal/audio"
	"github.com/SpeakWire/speakwire-go/internal/client"
	"github.com/SpeakWire/speakwire-go/internal/decode"
	"github.com/SpeakWire/speakwire-go/internal/player"
)

// maxConsecutiveDecodeFailures is the threshold past which per-chunk decode
// errors stop being absorbed and escalate to session failure.
const maxConsecutiveDecodeFailures = 3

// ingester drives the network read loop for one session: it pulls chunks
// from the transport, decodes them with the session's carry state, and
// forwards buffers to the scheduler. It returns nil on clean end-of-stream.
type ingester struct {
	transport client.Transport
	scheduler *player.Scheduler
	format    audio.Format
	req       client.Request

	// onStreaming fires after the first chunk has been scheduled.
	onStreaming func()

	// openOutput acquires the device for pull-decoded streams, whose real
	// format is only known once the stream header has decoded.
	openOutput func(audio.Format) error

	// newDecoder and newPullDecoder override the real constructors in tests.
	newDecoder     func(audio.Format) (decode.Decoder, error)
	newPullDecoder func(io.Reader, audio.Format) (pullDecoder, error)
}

// pullDecoder reads whole frames directly from the transport stream and
// reports the stream's native format.
type pullDecoder interface {
	SampleRate() int
	ReadFrame() ([]float64, error)
	Close() error
}

func (g *ingester) run(ctx context.Context) error {
	stream, err := g.transport.Open(ctx, g.req)
	if err != nil {
		return err
	}
	defer stream.Close()

	// Unblock a pending read when the session is cancelled.
	go func() {
		<-ctx.Done()
		stream.Close()
	}()

	if g.format.Codec == "mp3" {
		return g.runPull(ctx, stream)
	}
	return g.runChunked(ctx, stream)
}

// runChunked decodes chunk-by-chunk (pcm, opus). Decode failures are
// absorbed per chunk until the consecutive-failure threshold.
func (g *ingester) runChunked(ctx context.Context, stream client.Stream) error {
	newDecoder := g.newDecoder
	if newDecoder == nil {
		newDecoder = decode.New
	}
	dec, err := newDecoder(g.format)
	if err != nil {
		return err
	}
	// Carry-over bytes belong to this session alone; Close discards them.
	defer dec.Close()

	failures := 0
	streaming := false

	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		// Stale chunks from a cancelled session are dropped, not scheduled.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		samples, err := dec.Decode(chunk)
		if err != nil {
			failures++
			log.Printf("Decode error (chunk skipped): %v", err)
			if failures >= maxConsecutiveDecodeFailures {
				return fmt.Errorf("repeated decode failures: %w", err)
			}
			continue
		}
		failures = 0

		if len(samples) == 0 {
			continue
		}

		if err := g.dispatch(samples, g.format, &streaming); err != nil {
			return err
		}
	}
}

// runPull decodes by pulling frames from the transport reader (mp3). The
// output device is opened here, with the format the decoder reports, not
// the configured one: an mp3 stream carries its own sample rate.
func (g *ingester) runPull(ctx context.Context, stream client.Stream) error {
	newPull := g.newPullDecoder
	if newPull == nil {
		newPull = func(r io.Reader, f audio.Format) (pullDecoder, error) {
			return decode.NewMP3Stream(r, f)
		}
	}
	dec, err := newPull(client.StreamReader(stream), g.format)
	if err != nil {
		return err
	}
	defer dec.Close()

	format := g.format
	format.SampleRate = dec.SampleRate()
	format.Channels = 2 // go-mp3 always emits stereo

	if g.openOutput != nil {
		if err := g.openOutput(format); err != nil {
			return err
		}
	}

	streaming := false
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		samples, err := dec.ReadFrame()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// No chunk boundary to resync on; a broken mp3 stream is fatal.
			return err
		}
		if len(samples) == 0 {
			continue
		}

		if err := g.dispatch(samples, format, &streaming); err != nil {
			return err
		}
	}
}

func (g *ingester) dispatch(samples []float64, format audio.Format, streaming *bool) error {
	buf := audio.Buffer{Samples: samples, Format: format}
	if _, err := g.scheduler.Schedule(buf); err != nil {
		return err
	}
	if !*streaming {
		*streaming = true
		if g.onStreaming != nil {
			g.onStreaming()
		}
	}
	return nil
}
