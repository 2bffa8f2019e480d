// Package actions provides the Action Senders: thin mappings from typed
// local intents to outbound wire envelopes, handed to the Connection
// Manager. No retries and no optimistic local mutation; the UI waits for
// the next authoritative game_state refresh.
package actions

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linanqiu/acquire-game-sub001/internal/connection"
	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
)

// Conn is the send primitive the senders need; *connection.Manager
// satisfies it.
type Conn interface {
	Send(action any) error
}

// Notifier is the external toast collaborator. Nil disables notices.
type Notifier interface {
	Notify(message string)
}

// Sender sends the player-role action vocabulary.
type Sender struct {
	conn     Conn
	notifier Notifier
	logger   *slog.Logger
}

// NewSender creates a player-role sender.
func NewSender(conn Conn, notifier Notifier, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{conn: conn, notifier: notifier, logger: logger}
}

func (s *Sender) PlaceTile(tile string) error {
	return s.send(protocol.PlaceTileAction{Action: protocol.ActionPlaceTile, Tile: tile})
}

func (s *Sender) FoundChain(chain string) error {
	return s.send(protocol.FoundChainAction{Action: protocol.ActionFoundChain, Chain: chain})
}

func (s *Sender) MergerChoice(survivor string) error {
	return s.send(protocol.MergerChoiceAction{Action: protocol.ActionMergerChoice, Survivor: survivor})
}

func (s *Sender) MergerDisposition(sell, trade, keep int) error {
	return s.send(protocol.MergerDispositionAction{
		Action: protocol.ActionMergerDisposition,
		Sell:   sell,
		Trade:  trade,
		Keep:   keep,
	})
}

func (s *Sender) BuyStocks(purchases map[string]int) error {
	return s.send(protocol.BuyStocksAction{Action: protocol.ActionBuyStocks, Purchases: purchases})
}

func (s *Sender) EndTurn() error {
	return s.send(protocol.EndTurnAction{Action: protocol.ActionEndTurn})
}

func (s *Sender) DeclareEndGame() error {
	return s.send(protocol.DeclareEndGameAction{Action: protocol.ActionDeclareEndGame})
}

// ProposeTrade offers stock to another player and returns the generated
// trade ID so the caller can correlate the server's trade lifecycle pushes.
func (s *Sender) ProposeTrade(to string, offer, request map[string]int) (string, error) {
	id := uuid.NewString()
	err := s.send(protocol.ProposeTradeAction{
		Action:  protocol.ActionProposeTrade,
		TradeID: id,
		To:      to,
		Offer:   offer,
		Request: request,
	})
	return id, err
}

func (s *Sender) AcceptTrade(tradeID string) error {
	return s.send(protocol.TradeReplyAction{Action: protocol.ActionAcceptTrade, TradeID: tradeID})
}

func (s *Sender) RejectTrade(tradeID string) error {
	return s.send(protocol.TradeReplyAction{Action: protocol.ActionRejectTrade, TradeID: tradeID})
}

func (s *Sender) CancelTrade(tradeID string) error {
	return s.send(protocol.TradeReplyAction{Action: protocol.ActionCancelTrade, TradeID: tradeID})
}

// send refuses quietly when the connection is not open: the user acting
// just as the connection drops is a normal race, surfaced as a notice
// rather than an error.
func (s *Sender) send(action any) error {
	err := s.conn.Send(action)
	if errors.Is(err, connection.ErrNotConnected) {
		s.logger.Debug("action dropped, not connected")
		if s.notifier != nil {
			s.notifier.Notify("Not connected")
		}
		return nil
	}
	return err
}

// HostSender sends the host/spectator control vocabulary.
type HostSender struct {
	inner *Sender
}

// NewHostSender creates a host-role sender.
func NewHostSender(conn Conn, notifier Notifier, logger *slog.Logger) *HostSender {
	return &HostSender{inner: NewSender(conn, notifier, logger)}
}

func (h *HostSender) AddBot() error {
	return h.inner.send(protocol.AddBotAction{Action: protocol.ActionAddBot})
}

func (h *HostSender) StartGame() error {
	return h.inner.send(protocol.StartGameAction{Action: protocol.ActionStartGame})
}

func (h *HostSender) EndGame() error {
	return h.inner.send(protocol.EndGameAction{Action: protocol.ActionEndGame})
}
