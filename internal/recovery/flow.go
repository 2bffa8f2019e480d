// Package recovery implements the reconnection overlay's state machine.
//
// The flow observes connection status and drives the hosting screen's
// reconnect callback with a fixed retry delay, independent of the
// transport-level backoff inside the Connection Manager: this layer
// governs how often the screen asks to try again, the manager governs how
// the wire-level attempt behaves. After the attempt budget is spent the
// flow parks in the manual phase until the user rejoins or abandons.
package recovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/linanqiu/acquire-game-sub001/internal/connection"
)

// Phase is the flow's own state, separate from connection.Status; the two
// machines are coupled only through events.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAttempting Phase = "attempting"
	PhaseWaiting    Phase = "waiting"
	PhaseManual     Phase = "manual"
)

// ReconnectFunc is provided by the hosting screen, not the Connection
// Manager directly, decoupling retry UI policy from transport policy. It
// may suspend for an arbitrary duration; a false or error result counts as
// a failed attempt.
type ReconnectFunc func(ctx context.Context) (bool, error)

// Config tunes the flow.
type Config struct {
	MaxAttempts int           // default 5
	RetryDelay  time.Duration // fixed inter-attempt delay, default 2s
}

// View is the rendering contract for the overlay collaborator.
type View struct {
	Phase       Phase
	Attempts    int
	MaxAttempts int
}

// DisplayAttempt is the 1-based attempt number to show while attempting or
// waiting: min(attempts+1, max).
func (v View) DisplayAttempt() int {
	n := v.Attempts + 1
	if n > v.MaxAttempts {
		return v.MaxAttempts
	}
	return n
}

// Flow is the recovery state machine. Every input is applied as one
// mutex-guarded step against the current phase; stale inputs are dropped.
type Flow struct {
	cfg       Config
	reconnect ReconnectFunc
	onChange  func(View)
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	phase      Phase
	attempts   int
	closed     bool // liveness flag; results arriving after Close are discarded
	timer      *time.Timer
	lastStatus connection.Status
}

// New creates a Flow. onChange (optional) observes every transition and is
// invoked outside the lock.
func New(cfg Config, reconnect ReconnectFunc, onChange func(View), logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Flow{
		cfg:        cfg,
		reconnect:  reconnect,
		onChange:   onChange,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		phase:      PhaseIdle,
		lastStatus: connection.StatusConnected,
	}
}

// View returns the current rendering state.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// OnStatusChange feeds connection status transitions into the flow.
// Any settle on disconnected starts the attempt cycle; a fresh loss
// (connected -> disconnected) also resets the attempt budget, and a
// recovery to connected ends the cycle. Error/connecting churn produced
// by an attempt in flight never disturbs the cycle: the phase guard in
// kickLocked drops the kick while an attempt or its delay is pending.
func (f *Flow) OnStatusChange(status connection.Status) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	prev := f.lastStatus
	f.lastStatus = status

	switch status {
	case connection.StatusConnected:
		f.stopTimerLocked()
		f.phase = PhaseIdle
		f.attempts = 0
		f.finish(f.notifyLocked())
		return

	case connection.StatusDisconnected:
		if prev == connection.StatusConnected {
			f.stopTimerLocked()
			f.phase = PhaseIdle
			f.attempts = 0
			notify := f.notifyLocked()
			kick := f.kickLocked()
			f.mu.Unlock()
			notify()
			kick()
			return
		}
		// An abnormal loss surfaces as error/connecting churn while the
		// manager burns its own retry budget, then settles on
		// disconnected with prev != connected. Engage here too, or a
		// real network loss would never reach the overlay.
		kick := f.kickLocked()
		f.mu.Unlock()
		kick()
		return
	}
	f.mu.Unlock()
}

// Rejoin re-enters the attempt cycle from the manual phase.
func (f *Flow) Rejoin() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.stopTimerLocked()
	f.phase = PhaseIdle
	f.attempts = 0
	notify := f.notifyLocked()
	kick := f.kickLocked()
	f.mu.Unlock()

	notify()
	kick()
}

// Close abandons the flow: the retry timer is cleared and any outstanding
// attempt's result is discarded on arrival. Idempotent; safe on every
// teardown path.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.stopTimerLocked()
	f.mu.Unlock()

	f.cancel()
}

// kickLocked launches the next attempt when the flow is idle, the
// connection is still down, and budget remains. Returns the follow-up to
// run after unlocking.
func (f *Flow) kickLocked() func() {
	if f.closed || f.phase != PhaseIdle {
		return func() {}
	}
	if f.lastStatus == connection.StatusConnected {
		return func() {}
	}
	if f.attempts >= f.cfg.MaxAttempts {
		f.phase = PhaseManual
		return f.notifyLocked()
	}

	f.phase = PhaseAttempting
	notify := f.notifyLocked()
	f.logger.Info("reconnect attempt starting",
		"attempt", f.attempts+1,
		"max_attempts", f.cfg.MaxAttempts,
	)
	go f.runAttempt()
	return notify
}

// runAttempt awaits one reconnect resolution and applies it, unless the
// flow was torn down while the call was outstanding.
func (f *Flow) runAttempt() {
	ok, err := f.reconnect(f.ctx)

	f.mu.Lock()
	if f.closed || f.phase != PhaseAttempting {
		f.mu.Unlock()
		return // stale result, discarded silently
	}

	if ok && err == nil {
		f.phase = PhaseIdle
		f.attempts = 0
		f.finish(f.notifyLocked())
		return
	}

	if err != nil {
		f.logger.Warn("reconnect attempt failed", "error", err)
	}
	f.attempts++
	if f.attempts >= f.cfg.MaxAttempts {
		f.phase = PhaseManual
		f.finish(f.notifyLocked())
		return
	}

	f.phase = PhaseWaiting
	f.timer = time.AfterFunc(f.cfg.RetryDelay, f.retryTick)
	f.finish(f.notifyLocked())
}

// retryTick fires when the fixed delay elapses: waiting -> idle, which
// triggers the next attempt.
func (f *Flow) retryTick() {
	f.mu.Lock()
	if f.closed || f.phase != PhaseWaiting {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	f.phase = PhaseIdle
	notify := f.notifyLocked()
	kick := f.kickLocked()
	f.mu.Unlock()

	notify()
	kick()
}

func (f *Flow) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Flow) viewLocked() View {
	return View{Phase: f.phase, Attempts: f.attempts, MaxAttempts: f.cfg.MaxAttempts}
}

// notifyLocked snapshots the view for the onChange observer; the returned
// closure runs after the lock is released.
func (f *Flow) notifyLocked() func() {
	if f.onChange == nil {
		return func() {}
	}
	v := f.viewLocked()
	h := f.onChange
	return func() { h(v) }
}

// finish unlocks and runs the pending notification.
func (f *Flow) finish(notify func()) {
	f.mu.Unlock()
	notify()
}
