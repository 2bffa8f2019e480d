package state

import (
	"testing"
	"time"

	"github.com/linanqiu/acquire-game-sub001/internal/connection"
	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
)

func TestConnectionStatusMirror(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)

	if status, _ := s.ConnectionStatus(); status != connection.StatusDisconnected {
		t.Fatalf("initial status = %q", status)
	}

	s.SetConnectionStatus(connection.StatusError, "read timeout")
	status, message := s.ConnectionStatus()
	if status != connection.StatusError || message != "read timeout" {
		t.Fatalf("status = %q message = %q", status, message)
	}
}

func TestApplyGameStateHandSemantics(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)

	hand := []string{"A1", "B2"}
	s.ApplyGameState(protocol.GameSnapshot{Phase: protocol.PhasePlaceTile}, &hand)

	// Absent hand keeps the previous one.
	s.ApplyGameState(protocol.GameSnapshot{Phase: protocol.PhaseBuyStocks}, nil)
	if got := s.Hand(); len(got) != 2 {
		t.Fatalf("hand after nil your_hand = %v", got)
	}

	// The snapshot itself is fully replaced, not merged.
	snap, _ := s.Snapshot()
	if snap.Phase != protocol.PhaseBuyStocks {
		t.Fatalf("snapshot not replaced: %+v", snap)
	}

	empty := []string{}
	s.ApplyGameState(protocol.GameSnapshot{Phase: protocol.PhaseBuyStocks}, &empty)
	if got := s.Hand(); len(got) != 0 {
		t.Fatalf("hand after empty your_hand = %v", got)
	}
}

func TestApplyGameStateClearsPending(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)

	s.SetPending(protocol.ChooseChain{Candidates: []string{"Tower"}})
	if s.Pending() == nil {
		t.Fatal("pending not set")
	}

	s.ApplyGameState(protocol.GameSnapshot{}, nil)
	if s.Pending() != nil {
		t.Fatalf("pending survived a snapshot refresh: %+v", s.Pending())
	}
}

func TestHandCopiesAreIsolated(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)
	s.SetHand([]string{"A1", "B2"})

	got := s.Hand()
	got[0] = "Z9"
	if s.Hand()[0] != "A1" {
		t.Fatal("Hand returned shared backing storage")
	}
}

func TestIsMyTurn(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)

	if s.IsMyTurn() {
		t.Fatal("IsMyTurn with no snapshot")
	}

	s.ApplyGameState(protocol.GameSnapshot{CurrentTurn: "p2"}, nil)
	if s.IsMyTurn() {
		t.Fatal("IsMyTurn for someone else's turn")
	}

	s.ApplyGameState(protocol.GameSnapshot{CurrentTurn: "p1"}, nil)
	if !s.IsMyTurn() {
		t.Fatal("IsMyTurn = false for own turn")
	}
}

func TestWatchSignalsOnMutation(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)

	ch := s.Watch()
	defer s.Unwatch(ch)

	s.SetHand([]string{"A1"})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no wakeup after mutation")
	}

	// Signals coalesce: many mutations, at least one pending wakeup.
	for i := 0; i < 5; i++ {
		s.SetConnectionStatus(connection.StatusConnecting, "")
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no coalesced wakeup")
	}
}

func TestUnwatchClosesChannel(t *testing.T) {
	s := NewStore(Identity{PlayerID: "p1"}, nil)

	ch := s.Watch()
	s.Unwatch(ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel not closed by Unwatch")
	}

	// Mutations after Unwatch must not panic.
	s.SetHand([]string{"A1"})
	s.Unwatch(ch)
}
