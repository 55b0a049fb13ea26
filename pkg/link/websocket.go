// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConn reaches a controller through a WebSocket to serial bridge.
// Every binary message carries raw link bytes.
type WebSocketConn struct {
	conn        *websocket.Conn
	messages    chan []byte
	done        chan struct{}
	err         error
	buf         []byte
	nonblocking bool
}

// OpenWebSocket opens a WebSocket connection with HTTP Basic auth
func OpenWebSocket(wsURL, username, password string, skipSSLVerify bool) (*WebSocketConn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify, //nolint:gosec // opt-in for self-signed bridges
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return NewWebSocketConn(conn), nil
}

// NewWebSocketConn wraps an established connection and starts its reader.
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	w := &WebSocketConn{
		conn:     conn,
		messages: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WebSocketConn) readLoop() {
	defer close(w.messages)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = io.EOF
			}
			w.err = err
			return
		}
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		select {
		case w.messages <- data:
		case <-w.done:
			return
		}
	}
}

// closedErr is only valid after messages has been closed.
func (w *WebSocketConn) closedErr() error {
	select {
	case <-w.done:
		return ErrConnectionClosed
	default:
	}
	if w.err == nil {
		return io.EOF
	}
	return w.err
}

func (w *WebSocketConn) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		if w.nonblocking {
			select {
			case data, ok := <-w.messages:
				if !ok {
					return 0, w.closedErr()
				}
				w.buf = data
			default:
				return 0, nil
			}
		} else {
			data, ok := <-w.messages
			if !ok {
				return 0, w.closedErr()
			}
			w.buf = data
		}
	}

	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *WebSocketConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the socket and stops the reader.
func (w *WebSocketConn) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.conn.Close()
}

// SetNonblock selects whether Read waits for the next message.
func (w *WebSocketConn) SetNonblock(nonblocking bool) error {
	w.nonblocking = nonblocking
	return nil
}

// WaitReadable waits for a buffered or incoming message.
func (w *WebSocketConn) WaitReadable(timeout time.Duration) (bool, error) {
	if len(w.buf) > 0 {
		return true, nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		if !ok {
			// Closed; the next Read reports why.
			return true, nil
		}
		w.buf = data
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

