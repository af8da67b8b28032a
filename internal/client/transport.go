// ABOUTME: Transport interface for streaming speech synthesis
// ABOUTME: Defines requests, chunk streams, and transport errors
package client

import (
	"context"
	"fmt"
	"io"
)

// Request describes one synthesis request. Extra fields are opaque
// pass-through configuration for the upstream service.
type Request struct {
	Text   string
	Voice  string
	Format string // wire format: "pcm", "opus", "mp3"
	Extra  map[string]any
}

// Stream delivers audio chunks as they arrive. Chunk boundaries carry no
// semantic meaning and may split a sample in half.
type Stream interface {
	// Next blocks until the next chunk arrives. It returns io.EOF on
	// clean stream end and *TransportError on transport failure.
	Next() ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// Transport opens a streaming synthesis request against a speech service.
type Transport interface {
	Open(ctx context.Context, req Request) (Stream, error)
}

// TransportError reports a failed connection or a non-success response.
// Transport errors are fatal to a session and are not retried.
type TransportError struct {
	Status int // HTTP status when applicable, 0 otherwise
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StreamReader adapts a Stream to io.Reader for pull-based decoders.
func StreamReader(s Stream) io.Reader {
	return &streamReader{s: s}
}

type streamReader struct {
	s    Stream
	rest []byte
	err  error
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.rest) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		chunk, err := r.s.Next()
		if err != nil {
			r.err = err
			if len(chunk) == 0 {
				return 0, err
			}
		}
		r.rest = chunk
	}
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	return n, nil
}
