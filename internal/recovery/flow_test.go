package recovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linanqiu/acquire-game-sub001/internal/connection"
)

type attemptResult struct {
	ok  bool
	err error
}

// scriptedReconnect hands each attempt's resolver to the test so outcomes
// and their timing are fully controlled.
type scriptedReconnect struct {
	calls chan chan attemptResult
}

func newScriptedReconnect() *scriptedReconnect {
	return &scriptedReconnect{calls: make(chan chan attemptResult, 8)}
}

func (s *scriptedReconnect) fn(_ context.Context) (bool, error) {
	res := make(chan attemptResult)
	s.calls <- res
	r := <-res
	return r.ok, r.err
}

// next waits for an attempt to start and returns its resolver.
func (s *scriptedReconnect) next(t *testing.T) chan attemptResult {
	t.Helper()
	select {
	case res := <-s.calls:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no reconnect attempt started")
		return nil
	}
}

// viewRecorder collects onChange transitions.
type viewRecorder struct {
	mu    sync.Mutex
	views []View
	ch    chan View
}

func newViewRecorder() *viewRecorder {
	return &viewRecorder{ch: make(chan View, 64)}
}

func (r *viewRecorder) record(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
	select {
	case r.ch <- v:
	default:
	}
}

func (r *viewRecorder) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

func (r *viewRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *viewRecorder) await(t *testing.T, phase Phase, attempts int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-r.ch:
			if v.Phase == phase && v.Attempts == attempts {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s/%d, saw %v", phase, attempts, r.all())
		}
	}
}

func TestThreeFailuresReachManual(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 3, RetryDelay: 5 * time.Millisecond}, script.fn, rec.record, nil)
	defer f.Close()

	f.OnStatusChange(connection.StatusDisconnected)

	for i := 0; i < 2; i++ {
		rec.await(t, PhaseAttempting, i)
		script.next(t) <- attemptResult{ok: false}
		rec.await(t, PhaseWaiting, i+1)
		rec.await(t, PhaseIdle, i+1)
	}

	rec.await(t, PhaseAttempting, 2)
	script.next(t) <- attemptResult{ok: false}
	rec.await(t, PhaseManual, 3)

	v := f.View()
	if v.Phase != PhaseManual || v.Attempts != 3 {
		t.Fatalf("final view = %+v", v)
	}
	if got := v.DisplayAttempt(); got != 3 {
		t.Fatalf("DisplayAttempt in manual = %d, want clamped to max", got)
	}
}

func TestSuccessfulAttemptResets(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 3, RetryDelay: 5 * time.Millisecond}, script.fn, rec.record, nil)
	defer f.Close()

	f.OnStatusChange(connection.StatusDisconnected)
	rec.await(t, PhaseAttempting, 0)

	script.next(t) <- attemptResult{ok: true}
	rec.await(t, PhaseIdle, 0)

	// No further attempt should start on its own.
	select {
	case <-script.calls:
		t.Fatal("unexpected attempt after success")
	case <-time.After(25 * time.Millisecond):
	}
}

func TestCloseDiscardsOutstandingResult(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 3, RetryDelay: 5 * time.Millisecond}, script.fn, rec.record, nil)

	f.OnStatusChange(connection.StatusDisconnected)
	rec.await(t, PhaseAttempting, 0)
	res := script.next(t)

	f.Close()
	before := rec.count()

	// Resolving after teardown must not mutate anything observable.
	res <- attemptResult{ok: true}
	time.Sleep(25 * time.Millisecond)

	if rec.count() != before {
		t.Fatalf("state changed after Close: %v", rec.all())
	}
	if v := f.View(); v.Attempts != 0 {
		t.Fatalf("attempts mutated after Close: %+v", v)
	}
}

func TestRejoinFromManual(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 1, RetryDelay: 5 * time.Millisecond}, script.fn, rec.record, nil)
	defer f.Close()

	f.OnStatusChange(connection.StatusDisconnected)
	rec.await(t, PhaseAttempting, 0)
	script.next(t) <- attemptResult{ok: false}
	rec.await(t, PhaseManual, 1)

	f.Rejoin()
	rec.await(t, PhaseAttempting, 0)

	script.next(t) <- attemptResult{ok: true}
	rec.await(t, PhaseIdle, 0)
}

func TestReconnectionEndsFlow(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 3, RetryDelay: time.Hour}, script.fn, rec.record, nil)
	defer f.Close()

	f.OnStatusChange(connection.StatusDisconnected)
	rec.await(t, PhaseAttempting, 0)
	script.next(t) <- attemptResult{ok: false}
	rec.await(t, PhaseWaiting, 1)

	// Status recovering (e.g. the manager's own backoff won) cancels the
	// armed retry timer and resets the cycle.
	f.OnStatusChange(connection.StatusConnected)
	rec.await(t, PhaseIdle, 0)

	select {
	case <-script.calls:
		t.Fatal("attempt started after reconnection")
	case <-time.After(25 * time.Millisecond):
	}
}

func TestTerminalDisconnectAfterChurnStartsCycle(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 2, RetryDelay: 5 * time.Millisecond}, script.fn, rec.record, nil)
	defer f.Close()

	// An abnormal loss surfaces as error/connecting churn while the
	// manager burns its retry budget, then a terminal disconnected whose
	// predecessor is error, not connected. The cycle must start anyway.
	f.OnStatusChange(connection.StatusError)
	f.OnStatusChange(connection.StatusConnecting)
	f.OnStatusChange(connection.StatusError)
	f.OnStatusChange(connection.StatusDisconnected)

	rec.await(t, PhaseAttempting, 0)
	script.next(t) <- attemptResult{ok: false}
	rec.await(t, PhaseWaiting, 1)
	rec.await(t, PhaseAttempting, 1)
	script.next(t) <- attemptResult{ok: false}
	rec.await(t, PhaseManual, 2)
}

func TestInitialDialFailureStartsCycle(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 3, RetryDelay: 5 * time.Millisecond}, script.fn, rec.record, nil)
	defer f.Close()

	// A client that never connected at all still gets the overlay when
	// its first dial burns out.
	f.OnStatusChange(connection.StatusConnecting)
	f.OnStatusChange(connection.StatusError)
	f.OnStatusChange(connection.StatusDisconnected)

	rec.await(t, PhaseAttempting, 0)
	script.next(t) <- attemptResult{ok: true}
	rec.await(t, PhaseIdle, 0)
}

func TestStatusChurnDoesNotRestartCycle(t *testing.T) {
	script := newScriptedReconnect()
	rec := newViewRecorder()
	f := New(Config{MaxAttempts: 3, RetryDelay: time.Hour}, script.fn, rec.record, nil)
	defer f.Close()

	f.OnStatusChange(connection.StatusDisconnected)
	rec.await(t, PhaseAttempting, 0)

	// The attempt in flight drives the manager through connecting/error
	// and possibly its own terminal disconnected; none of that may reset
	// the attempt counter mid-cycle.
	f.OnStatusChange(connection.StatusConnecting)
	f.OnStatusChange(connection.StatusError)
	f.OnStatusChange(connection.StatusDisconnected)

	script.next(t) <- attemptResult{ok: false}
	rec.await(t, PhaseWaiting, 1)

	if v := f.View(); v.Attempts != 1 {
		t.Fatalf("attempt counter reset by status churn: %+v", v)
	}
}
