package connection

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// socket wraps a gorilla connection as a Transport. Writes are serialized;
// gorilla allows one concurrent reader and one concurrent writer.
type socket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewDialer returns a Dialer backed by gorilla/websocket. pingInterval <= 0
// disables the keepalive loop.
func NewDialer(handshakeTimeout, writeTimeout, pingInterval time.Duration) Dialer {
	return func(ctx context.Context, url string) (Transport, error) {
		d := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
		conn, _, err := d.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}

		s := &socket{
			conn:         conn,
			writeTimeout: writeTimeout,
			done:         make(chan struct{}),
		}

		if pingInterval > 0 {
			go s.keepalive(pingInterval)
		}

		return s, nil
	}
}

func (s *socket) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

func (s *socket) WriteMessage(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	// Best-effort graceful close frame before dropping the TCP connection.
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}

// keepalive pings periodically so intermediaries keep the connection open.
func (s *socket) keepalive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.writeTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				return
			}
		}
	}
}

// isCleanClose reports whether a read error represents a server-initiated
// graceful close, which must not trigger a retry.
func isCleanClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
	)
}
