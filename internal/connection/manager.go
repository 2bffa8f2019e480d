package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager owns one persistent connection per (room, identity) pair. It
// retries unexpected losses with exponential backoff and never retries an
// intentional or clean closure.
//
// All lifecycle events funnel through handleClose, which verifies the
// closing transport is still the tracked one before touching shared state:
// a close from a superseded socket is a no-op, so a retried connection's
// callbacks cannot corrupt the state left by a newer connection.
type Manager struct {
	cfg    Config
	dial   Dialer
	h      Handlers
	logger *slog.Logger

	mu          sync.Mutex
	status      Status
	current     Transport
	attempts    int
	gen         uint64 // dial generation, bumps on every dial and Disconnect
	retryTimer  *time.Timer
	intentional bool
	failed      bool
	ctx         context.Context
}

// NewManager creates a Manager. Handlers are fixed at construction; nil
// handlers are no-ops. Zero config fields take the DefaultConfig values.
func NewManager(cfg Config, h Handlers, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig(cfg.URL)
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	return &Manager{
		cfg:    cfg,
		dial:   NewDialer(cfg.HandshakeTimeout, cfg.WriteTimeout, cfg.PingInterval),
		h:      h,
		logger: logger,
		status: StatusDisconnected,
	}
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect starts a fresh connection attempt, resetting the retry budget
// and any prior intentional-close mark. The ctx bounds this connection's
// dials, including scheduled retries.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.intentional = false
	m.failed = false
	m.attempts = 0
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	notify := m.beginDialLocked()
	m.mu.Unlock()

	notify()
}

// Disconnect marks the closure intentional, suppresses any scheduled
// retry, and closes the transport. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.intentional = true
	m.attempts = m.cfg.MaxAttempts
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	t := m.current
	m.current = nil
	m.gen++ // any dial still in flight resolves stale
	notify := m.setStatusLocked(StatusDisconnected, "")
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	notify()
}

// Send serializes an action envelope and transmits it if the transport is
// open. Otherwise it returns ErrNotConnected and logs a local diagnostic;
// sending just as the connection drops is a normal race, not a failure.
func (m *Manager) Send(action any) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}

	m.mu.Lock()
	t := m.current
	status := m.status
	m.mu.Unlock()

	if t == nil || status != StatusConnected {
		m.logger.Debug("send while not connected", "status", status)
		return ErrNotConnected
	}

	return t.WriteMessage(data)
}

// beginDialLocked transitions to connecting and launches the dial
// goroutine. Caller holds the lock and must run the returned notify.
func (m *Manager) beginDialLocked() func() {
	m.gen++
	gen := m.gen
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	notify := m.setStatusLocked(StatusConnecting, "")

	go m.dialAndRun(ctx, gen)
	return notify
}

func (m *Manager) dialAndRun(ctx context.Context, gen uint64) {
	t, err := m.dial(ctx, m.cfg.URL)

	m.mu.Lock()
	if gen != m.gen || m.intentional {
		m.mu.Unlock()
		if err == nil {
			t.Close() // superseded dial, discard silently
		}
		return
	}

	if err != nil {
		m.logger.Warn("dial failed", "url", m.cfg.URL, "error", err)
		notify := m.setStatusLocked(StatusError, err.Error())
		retry := m.scheduleRetryLocked()
		m.mu.Unlock()
		notify()
		retry()
		return
	}

	old := m.current
	m.current = t
	m.attempts = 0
	notify := m.setStatusLocked(StatusConnected, "")
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	notify()

	m.logger.Info("connected", "url", m.cfg.URL)
	go m.readLoop(t)
}

// readLoop pumps frames until the transport dies, then hands the close to
// the state machine.
func (m *Manager) readLoop(t Transport) {
	for {
		data, err := t.ReadMessage()
		if err != nil {
			m.handleClose(t, err)
			return
		}

		m.mu.Lock()
		live := t == m.current
		m.mu.Unlock()
		if !live {
			continue // frame from a superseded socket
		}

		if m.h.OnMessage != nil {
			m.h.OnMessage(data)
		}
	}
}

// handleClose drives the close transitions. A close from a transport that
// is no longer the tracked one mutates nothing.
func (m *Manager) handleClose(t Transport, err error) {
	m.mu.Lock()
	if t != m.current {
		m.mu.Unlock()
		m.logger.Debug("close from superseded socket ignored", "error", err)
		return
	}
	m.current = nil

	if m.intentional || isCleanClose(err) {
		notify := m.setStatusLocked(StatusDisconnected, "")
		m.mu.Unlock()
		notify()
		m.logger.Info("connection closed")
		return
	}

	m.logger.Warn("connection lost", "error", err)
	notify := m.setStatusLocked(StatusError, err.Error())
	retry := m.scheduleRetryLocked()
	m.mu.Unlock()

	notify()
	retry()
	t.Close()
}

// scheduleRetryLocked arms the backoff timer, or reports terminal failure
// when the budget is spent. The attempt counter is incremented before the
// delay is computed, so the first retry waits base*2^1. Caller holds the
// lock and must run the returned closure after unlocking.
func (m *Manager) scheduleRetryLocked() func() {
	if m.intentional {
		return func() {}
	}

	if m.attempts >= m.cfg.MaxAttempts {
		notify := m.setStatusLocked(StatusDisconnected, "")
		var fail func(error)
		if !m.failed {
			m.failed = true
			fail = m.h.OnFailure
		}
		m.logger.Error("retry budget exhausted", "attempts", m.attempts)
		return func() {
			notify()
			if fail != nil {
				fail(ErrAttemptsExhausted)
			}
		}
	}

	m.attempts++
	delay := backoffDelay(m.cfg.BaseDelay, m.cfg.MaxDelay, m.attempts)
	m.logger.Info("scheduling reconnect",
		"attempt", m.attempts,
		"max_attempts", m.cfg.MaxAttempts,
		"delay", delay,
	)
	m.retryTimer = time.AfterFunc(delay, m.redial)
	return func() {}
}

// redial is the backoff timer callback.
func (m *Manager) redial() {
	m.mu.Lock()
	if m.intentional {
		m.mu.Unlock()
		return
	}
	m.retryTimer = nil
	notify := m.beginDialLocked()
	m.mu.Unlock()

	notify()
}

// setStatusLocked records a transition and returns the notify closure to
// run once the lock is released; handlers may call back into the Manager.
func (m *Manager) setStatusLocked(s Status, message string) func() {
	if m.status == s && message == "" {
		return func() {}
	}
	m.status = s

	h := m.h.OnStatus
	if h == nil {
		return func() {}
	}
	return func() { h(s, message) }
}

// backoffDelay is min(base * 2^attempt, max).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}
