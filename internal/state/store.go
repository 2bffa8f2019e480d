// Package state holds the Client State Store: the single shared container
// for connection status, session identity, lobby roster, the last-known
// game snapshot, and any pending server decision. The Message Router is
// the only network-driven writer; UI code reads through the getters and
// observes changes through Watch.
package state

import (
	"log/slog"
	"sync"

	"github.com/linanqiu/acquire-game-sub001/internal/connection"
	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
)

// Identity is the session identity established at room join/creation,
// immutable for the lifetime of the store.
type Identity struct {
	PlayerID     string
	DisplayName  string
	SessionToken string
	IsHost       bool
}

// Store is an explicitly constructed, injectable state container: one per
// joined room, torn down on room exit, so independent instances can run in
// isolation.
type Store struct {
	identity Identity
	logger   *slog.Logger

	mu          sync.RWMutex
	connStatus  connection.Status
	connMessage string
	roster      []protocol.RosterEntry
	canStart    bool
	snapshot    *protocol.GameSnapshot
	hand        []string
	pending     protocol.PendingDecision

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}
}

// NewStore creates a store for one session.
func NewStore(identity Identity, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		identity:   identity,
		logger:     logger,
		connStatus: connection.StatusDisconnected,
		watchers:   make(map[chan struct{}]struct{}),
	}
}

// Identity returns the immutable session identity.
func (s *Store) Identity() Identity {
	return s.identity
}

// SetConnectionStatus mirrors the Connection Manager's status for UI
// consumption. The message is non-empty only for error states.
func (s *Store) SetConnectionStatus(status connection.Status, message string) {
	s.mu.Lock()
	s.connStatus = status
	s.connMessage = message
	s.mu.Unlock()
	s.notify()
}

// ConnectionStatus returns the mirrored status and its optional message.
func (s *Store) ConnectionStatus() (connection.Status, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connStatus, s.connMessage
}

// ApplyLobbyUpdate replaces the roster wholesale; rosters are never merged
// field-by-field.
func (s *Store) ApplyLobbyUpdate(players []protocol.RosterEntry, canStart bool) {
	s.mu.Lock()
	s.roster = append([]protocol.RosterEntry(nil), players...)
	s.canStart = canStart
	s.mu.Unlock()
	s.notify()
}

// Roster returns the lobby roster and the derived can-start flag.
func (s *Store) Roster() ([]protocol.RosterEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.RosterEntry(nil), s.roster...), s.canStart
}

// ApplyGameState installs a full snapshot refresh. The latest snapshot
// always wins regardless of gaps across reconnects. A nil yourHand keeps
// the previously known hand (the server omits it on other players'
// updates); an empty non-nil hand overwrites to empty. Any refresh clears
// whatever decision was pending.
func (s *Store) ApplyGameState(snap protocol.GameSnapshot, yourHand *[]string) {
	s.mu.Lock()
	s.snapshot = &snap
	if yourHand != nil {
		s.hand = append([]string(nil), (*yourHand)...)
	}
	s.pending = nil
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the last-known snapshot, if any has arrived.
func (s *Store) Snapshot() (protocol.GameSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return protocol.GameSnapshot{}, false
	}
	return *s.snapshot, true
}

// Hand returns the local player's tiles.
func (s *Store) Hand() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.hand...)
}

// SetHand overwrites the hand outside the snapshot refresh cycle
// (tiles_replaced).
func (s *Store) SetHand(tiles []string) {
	s.mu.Lock()
	s.hand = append([]string(nil), tiles...)
	s.mu.Unlock()
	s.notify()
}

// SetPending installs a server-initiated decision request. A later arrival
// pre-empts an earlier one; at most one is active.
func (s *Store) SetPending(d protocol.PendingDecision) {
	s.mu.Lock()
	if s.pending != nil {
		s.logger.Debug("pending decision pre-empted")
	}
	s.pending = d
	s.mu.Unlock()
	s.notify()
}

// Pending returns the active decision request, or nil.
func (s *Store) Pending() protocol.PendingDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// IsMyTurn reports whether the snapshot's current turn belongs to this
// session.
func (s *Store) IsMyTurn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil && s.snapshot.CurrentTurn == s.identity.PlayerID
}

// Watch registers a change subscriber. The channel receives a coalesced
// signal after each mutation; a lagging subscriber misses no state, only
// wakeups, since reads always see the latest values.
func (s *Store) Watch() chan struct{} {
	ch := make(chan struct{}, 1)
	s.watchMu.Lock()
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()
	return ch
}

// Unwatch removes a subscriber and closes its channel.
func (s *Store) Unwatch(ch chan struct{}) {
	s.watchMu.Lock()
	if _, ok := s.watchers[ch]; ok {
		delete(s.watchers, ch)
		close(ch)
	}
	s.watchMu.Unlock()
}

func (s *Store) notify() {
	s.watchMu.Lock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.watchMu.Unlock()
}
