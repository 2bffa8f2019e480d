// Package router implements the Message Router: pure dispatch from an
// inbound type-tagged envelope to the matching Client State Store
// mutation. It performs no business logic, and nothing it receives can
// tear down the connection: malformed frames are logged and dropped,
// unknown types are logged and ignored.
package router

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
	"github.com/linanqiu/acquire-game-sub001/internal/state"
)

// Stats contains runtime counters.
type Stats struct {
	Received    int64
	Routed      int64
	Forwarded   int64
	ParseErrors int64
	Unknown     int64
}

// Router routes inbound frames. Register HandleMessage as the Connection
// Manager's OnMessage handler.
type Router struct {
	store  *state.Store
	logger *slog.Logger

	// Passthrough to external collaborators (toast layer, game-over
	// screen, trade UI) for events outside the store's concern.
	events chan protocol.Event

	mu    sync.Mutex
	stats Stats
}

// New creates a Router writing into store. eventBuffer sizes the
// passthrough channel; <= 0 gets a small default.
func New(store *state.Store, eventBuffer int, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if eventBuffer <= 0 {
		eventBuffer = 64
	}
	return &Router{
		store:  store,
		logger: logger,
		events: make(chan protocol.Event, eventBuffer),
	}
}

// Events returns the passthrough channel for non-store events.
func (r *Router) Events() <-chan protocol.Event {
	return r.events
}

// Stats returns a copy of the runtime counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// HandleMessage dispatches one inbound frame. Never panics on bad input.
func (r *Router) HandleMessage(data []byte) {
	r.count(func(s *Stats) { s.Received++ })

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.count(func(s *Stats) { s.ParseErrors++ })
		r.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	switch env.Type {
	case protocol.TypeGameState:
		var msg protocol.GameStateMessage
		if !r.decode(data, &msg, env.Type) {
			return
		}
		r.store.ApplyGameState(msg.State, msg.YourHand)

	case protocol.TypeLobbyUpdate:
		var msg protocol.LobbyUpdateMessage
		if !r.decode(data, &msg, env.Type) {
			return
		}
		r.store.ApplyLobbyUpdate(msg.Players, msg.CanStart)

	case protocol.TypeChooseChain:
		var msg protocol.ChooseChainMessage
		if !r.decode(data, &msg, env.Type) {
			return
		}
		r.store.SetPending(protocol.ChooseChain{Candidates: msg.Candidates})

	case protocol.TypeChooseMergerSurvivor:
		var msg protocol.ChooseMergerSurvivorMessage
		if !r.decode(data, &msg, env.Type) {
			return
		}
		r.store.SetPending(protocol.ChooseMergerSurvivor{Candidates: msg.Candidates})

	case protocol.TypeStockDisposition:
		var msg protocol.StockDispositionMessage
		if !r.decode(data, &msg, env.Type) {
			return
		}
		r.store.SetPending(protocol.StockDisposition{
			DefunctChain:   msg.DefunctChain,
			SurvivingChain: msg.SurvivingChain,
			OwnedCount:     msg.OwnedCount,
			TradeableCount: msg.TradeableCount,
		})

	case protocol.TypeTilesReplaced:
		var msg protocol.TilesReplacedMessage
		if !r.decode(data, &msg, env.Type) {
			return
		}
		r.store.SetHand(msg.Tiles)

	case protocol.TypeError, protocol.TypeGameOver, protocol.TypeCanEndGame,
		protocol.TypeAllTilesUnplayable, protocol.TypeTradeProposed,
		protocol.TypeTradeAccepted, protocol.TypeTradeRejected,
		protocol.TypeTradeCanceled:
		r.forward(env.Type, data)
		return

	default:
		r.count(func(s *Stats) { s.Unknown++ })
		r.logger.Warn("ignoring unknown message type", "type", env.Type)
		return
	}

	r.count(func(s *Stats) { s.Routed++ })
}

func (r *Router) decode(data []byte, v any, typ string) bool {
	if err := json.Unmarshal(data, v); err != nil {
		r.count(func(s *Stats) { s.ParseErrors++ })
		r.logger.Warn("dropping malformed frame", "type", typ, "error", err)
		return false
	}
	return true
}

func (r *Router) forward(typ string, data []byte) {
	ev := protocol.Event{Type: typ, Payload: append(json.RawMessage(nil), data...)}
	select {
	case r.events <- ev:
		r.count(func(s *Stats) { s.Forwarded++ })
	default:
		r.logger.Warn("event buffer full, dropping", "type", typ)
	}
}

func (r *Router) count(f func(*Stats)) {
	r.mu.Lock()
	f(&r.stats)
	r.mu.Unlock()
}
