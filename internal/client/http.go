// ABOUTME: HTTP transport for streaming speech synthesis
// ABOUTME: POSTs a synthesis request and reads the chunked binary response
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// readChunkSize bounds a single read from the response body. Arrival sizes
// are not controlled by this system; this is just the local read granularity.
const readChunkSize = 4096

// HTTP streams synthesis audio over a chunked POST response.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates a transport against the service's base URL.
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Open POSTs the synthesis request and returns the response body as a
// chunk stream. Any non-success status is a transport error.
func (h *HTTP) Open(ctx context.Context, req Request) (Stream, error) {
	payload := map[string]any{
		"text":   req.Text,
		"voice":  req.Voice,
		"format": req.Format,
		"stream": true,
	}
	for k, v := range req.Extra {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/speech", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &TransportError{Status: resp.StatusCode}
	}

	return &httpStream{body: resp.Body}, nil
}

// Health probes the service's health endpoint. Not used by the playback
// pipeline itself; intended for operational checks before starting.
func (h *HTTP) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return &TransportError{Err: err}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Status: resp.StatusCode}
	}
	return nil
}

type httpStream struct {
	body io.ReadCloser
	buf  [readChunkSize]byte
}

// Next reads whatever bytes are currently available, up to readChunkSize.
func (s *httpStream) Next() ([]byte, error) {
	for {
		n, err := s.body.Read(s.buf[:])
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, s.buf[:n])
			return chunk, nil
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, &TransportError{Err: err}
		}
	}
}

func (s *httpStream) Close() error {
	return s.body.Close()
}
