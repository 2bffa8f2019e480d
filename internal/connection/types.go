package connection

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	// ErrNotConnected is returned by Send when no transport is open. It is
	// a local diagnostic, not a user-facing failure: the caller decides
	// whether to surface it.
	ErrNotConnected = errors.New("not connected")

	// ErrAttemptsExhausted is the terminal failure reported after the
	// retry budget runs out. The message is deliberately distinct from
	// ordinary transport errors so the UI can tell "still retrying" from
	// "give up".
	ErrAttemptsExhausted = errors.New("connection failed after multiple attempts")
)

// Status is the connection lifecycle state. Exactly one value is live at a
// time; the Manager owns it and mirrors transitions to the OnStatus handler.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Transport is a single established bidirectional connection. The gorilla
// implementation lives in socket.go; tests substitute fakes via Dialer.
type Transport interface {
	// ReadMessage blocks until the next frame or a terminal read error.
	ReadMessage() ([]byte, error)

	// WriteMessage writes one text frame.
	WriteMessage(data []byte) error

	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Dialer establishes a Transport. Dial failures feed the same retry path
// as abnormal closes.
type Dialer func(ctx context.Context, url string) (Transport, error)

// Handlers are registered at construction time so the state machine can be
// unit-tested without a real transport. Nil handlers are no-ops. Handlers
// are invoked outside the Manager's lock and may call back into it.
type Handlers struct {
	// OnStatus reports every status transition. The message is non-empty
	// only for StatusError.
	OnStatus func(status Status, message string)

	// OnMessage receives each inbound frame in arrival order.
	OnMessage func(data []byte)

	// OnFailure fires exactly once, when the retry budget is exhausted.
	OnFailure func(err error)
}

// Config configures a Manager.
type Config struct {
	URL              string        // role-specific WebSocket URL
	BaseDelay        time.Duration // backoff base (default 1s)
	MaxDelay         time.Duration // backoff cap (default 30s)
	MaxAttempts      int           // retry budget (default 5)
	HandshakeTimeout time.Duration // dial handshake deadline
	WriteTimeout     time.Duration // per-frame write deadline
	PingInterval     time.Duration // keepalive ping period, 0 disables
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		BaseDelay:        time.Second,
		MaxDelay:         30 * time.Second,
		MaxAttempts:      5,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
	}
}
