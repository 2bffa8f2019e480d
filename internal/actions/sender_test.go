package actions

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/linanqiu/acquire-game-sub001/internal/connection"
)

// captureConn records sent envelopes, or refuses everything.
type captureConn struct {
	mu       sync.Mutex
	sent     []any
	refusing bool
}

func (c *captureConn) Send(action any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refusing {
		return connection.ErrNotConnected
	}
	c.sent = append(c.sent, action)
	return nil
}

func (c *captureConn) last(t *testing.T) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("nothing sent")
	}
	data, err := json.Marshal(c.sent[len(c.sent)-1])
	if err != nil {
		t.Fatalf("marshal sent action: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal sent action: %v", err)
	}
	return out
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func TestPlayerActionEnvelopes(t *testing.T) {
	conn := &captureConn{}
	s := NewSender(conn, nil, nil)

	tests := []struct {
		name   string
		send   func() error
		action string
		check  func(t *testing.T, env map[string]any)
	}{
		{
			name:   "place_tile",
			send:   func() error { return s.PlaceTile("A5") },
			action: "place_tile",
			check: func(t *testing.T, env map[string]any) {
				if env["tile"] != "A5" {
					t.Errorf("tile = %v", env["tile"])
				}
			},
		},
		{
			name:   "found_chain",
			send:   func() error { return s.FoundChain("Tower") },
			action: "found_chain",
			check: func(t *testing.T, env map[string]any) {
				if env["chain"] != "Tower" {
					t.Errorf("chain = %v", env["chain"])
				}
			},
		},
		{
			name:   "merger_choice",
			send:   func() error { return s.MergerChoice("American") },
			action: "merger_choice",
			check: func(t *testing.T, env map[string]any) {
				if env["survivor"] != "American" {
					t.Errorf("survivor = %v", env["survivor"])
				}
			},
		},
		{
			name:   "merger_disposition",
			send:   func() error { return s.MergerDisposition(2, 2, 1) },
			action: "merger_disposition",
			check: func(t *testing.T, env map[string]any) {
				if env["sell"] != float64(2) || env["trade"] != float64(2) || env["keep"] != float64(1) {
					t.Errorf("counts = %v", env)
				}
			},
		},
		{
			name:   "buy_stocks",
			send:   func() error { return s.BuyStocks(map[string]int{"Tower": 3}) },
			action: "buy_stocks",
			check: func(t *testing.T, env map[string]any) {
				purchases := env["purchases"].(map[string]any)
				if purchases["Tower"] != float64(3) {
					t.Errorf("purchases = %v", purchases)
				}
			},
		},
		{
			name:   "end_turn",
			send:   func() error { return s.EndTurn() },
			action: "end_turn",
		},
		{
			name:   "declare_end_game",
			send:   func() error { return s.DeclareEndGame() },
			action: "declare_end_game",
		},
		{
			name:   "accept_trade",
			send:   func() error { return s.AcceptTrade("t-9") },
			action: "accept_trade",
			check: func(t *testing.T, env map[string]any) {
				if env["trade_id"] != "t-9" {
					t.Errorf("trade_id = %v", env["trade_id"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.send(); err != nil {
				t.Fatalf("send: %v", err)
			}
			env := conn.last(t)
			if env["action"] != tt.action {
				t.Fatalf("action = %v, want %v", env["action"], tt.action)
			}
			if tt.check != nil {
				tt.check(t, env)
			}
		})
	}
}

func TestProposeTradeGeneratesID(t *testing.T) {
	conn := &captureConn{}
	s := NewSender(conn, nil, nil)

	id, err := s.ProposeTrade("p2", map[string]int{"Tower": 2}, map[string]int{"Luxor": 1})
	if err != nil {
		t.Fatalf("ProposeTrade: %v", err)
	}
	if id == "" {
		t.Fatal("empty trade id")
	}

	env := conn.last(t)
	if env["trade_id"] != id || env["to"] != "p2" {
		t.Fatalf("envelope = %v", env)
	}
}

func TestNotConnectedIsQuietlyRefused(t *testing.T) {
	conn := &captureConn{refusing: true}
	notifier := &captureNotifier{}
	s := NewSender(conn, notifier, nil)

	if err := s.EndTurn(); err != nil {
		t.Fatalf("refused send surfaced an error: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("notices = %v, want one", notifier.messages)
	}
}

func TestOtherSendErrorsPropagate(t *testing.T) {
	wantErr := errors.New("write deadline exceeded")
	s := NewSender(connFunc(func(any) error { return wantErr }), nil, nil)

	if err := s.EndTurn(); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

type connFunc func(any) error

func (f connFunc) Send(action any) error { return f(action) }

func TestHostActionEnvelopes(t *testing.T) {
	conn := &captureConn{}
	h := NewHostSender(conn, nil, nil)

	for _, tt := range []struct {
		send   func() error
		action string
	}{
		{h.AddBot, "add_bot"},
		{h.StartGame, "start_game"},
		{h.EndGame, "end_game"},
	} {
		if err := tt.send(); err != nil {
			t.Fatalf("%s: %v", tt.action, err)
		}
		if env := conn.last(t); env["action"] != tt.action {
			t.Fatalf("action = %v, want %v", env["action"], tt.action)
		}
	}
}
