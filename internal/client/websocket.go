// ABOUTME: WebSocket transport for streaming speech synthesis
// ABOUTME: Sends the request JSON and reads base64 audio messages
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/gorilla/websocket"
)

// WebSocket streams synthesis audio from servers exposing a socket
// endpoint. The request is sent as one JSON message; audio arrives as
// {"audio": <base64>, "isFinal": bool} messages until the final marker.
type WebSocket struct {
	url    string
	dialer *websocket.Dialer
}

// NewWebSocket creates a transport against a ws:// or wss:// URL.
func NewWebSocket(url string) *WebSocket {
	return &WebSocket{
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

// Open dials the socket and sends the synthesis request.
func (w *WebSocket) Open(ctx context.Context, req Request) (Stream, error) {
	conn, resp, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &TransportError{Status: status, Err: err}
	}

	payload := map[string]any{
		"text":   req.Text,
		"voice":  req.Voice,
		"format": req.Format,
		"stream": true,
	}
	for k, v := range req.Extra {
		payload[k] = v
	}

	if err := conn.WriteJSON(payload); err != nil {
		conn.Close()
		return nil, &TransportError{Err: err}
	}

	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn  *websocket.Conn
	final bool
}

type wsMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
}

func (s *wsStream) Next() ([]byte, error) {
	for {
		if s.final {
			return nil, io.EOF
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil, io.EOF
			}
			return nil, &TransportError{Err: err}
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return nil, &TransportError{Err: err}
		}
		if msg.Error != "" {
			return nil, &TransportError{Err: errors.New(msg.Error)}
		}

		if msg.IsFinal {
			s.final = true
		}
		if msg.Audio == "" {
			continue
		}

		chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		return chunk, nil
	}
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
