package app

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/linanqiu/acquire-game-sub001/internal/config"
	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
	"github.com/linanqiu/acquire-game-sub001/internal/session"
)

func newTestApp(t *testing.T, role protocol.Role) *App {
	t.Helper()
	a := New(Options{
		Role:   role,
		WSBase: "ws://localhost:0",
		Creds: session.Credentials{
			RoomCode:     "BRAVO7",
			PlayerID:     "p1",
			SessionToken: "tok",
		},
		DisplayName: "Ada",
		Connection:  config.ConnectionConfig{},
		Recovery:    config.RecoveryConfig{},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(a.Close)
	return a
}

// The session never connects in these tests, so well-formed action commands
// are quietly refused by the senders and come back nil; what is under test
// is the parsing.
func TestExecPlayerCommands(t *testing.T) {
	a := newTestApp(t, protocol.RolePlayer)

	ok := []string{
		"",
		"status",
		"hand",
		"rejoin",
		"place a5",
		"found Tower",
		"survivor American",
		"dispose 2 2 1",
		"buy Tower=2 Luxor=1",
		"end",
		"declare",
		"propose p2 Tower=2 for Luxor=1",
		"propose p2 Tower=1",
		"accept t-9",
		"reject t-9",
		"cancel t-9",
	}
	for _, line := range ok {
		if err := a.Exec(line); err != nil {
			t.Errorf("Exec(%q) = %v", line, err)
		}
	}

	bad := []struct {
		line    string
		wantErr string
	}{
		{"place", "usage: place"},
		{"place a5 b6", "usage: place"},
		{"found", "usage: found"},
		{"dispose 2 2", "usage: dispose"},
		{"dispose 2 x 1", "non-negative"},
		{"dispose 2 -1 1", "non-negative"},
		{"buy Tower", "<chain>=<count>"},
		{"buy Tower=0", "positive integer"},
		{"propose p2", "usage: propose"},
		{"propose p2 Tower=nope", "positive integer"},
		{"accept", "usage: accept"},
		{"chains", "no game state"},
		{"addbot", "unknown command"},
		{"start", "unknown command"},
		{"frobnicate", "unknown command"},
	}
	for _, tt := range bad {
		err := a.Exec(tt.line)
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("Exec(%q) = %v, want containing %q", tt.line, err, tt.wantErr)
		}
	}
}

func TestExecHostCommands(t *testing.T) {
	a := newTestApp(t, protocol.RoleHost)

	for _, line := range []string{"addbot", "start", "endgame", "status", "rejoin"} {
		if err := a.Exec(line); err != nil {
			t.Errorf("Exec(%q) = %v", line, err)
		}
	}

	for _, line := range []string{"place a5", "buy Tower=1", "frobnicate"} {
		err := a.Exec(line)
		if err == nil || !strings.Contains(err.Error(), "unknown host command") {
			t.Errorf("Exec(%q) = %v, want host command error", line, err)
		}
	}
}

func TestParseShareList(t *testing.T) {
	shares, err := parseShareList([]string{"Tower=2", "Luxor=1", "Tower=1"})
	if err != nil {
		t.Fatalf("parseShareList: %v", err)
	}
	if shares["Tower"] != 3 || shares["Luxor"] != 1 {
		t.Errorf("shares = %v", shares)
	}

	if shares, err := parseShareList(nil); err != nil || len(shares) != 0 {
		t.Errorf("empty list: shares=%v err=%v", shares, err)
	}

	for _, bad := range []string{"Tower", "Tower=", "Tower=0", "Tower=-1", "=2"} {
		if _, err := parseShareList([]string{bad}); err == nil {
			t.Errorf("parseShareList(%q) accepted", bad)
		}
	}
}
