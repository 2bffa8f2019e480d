package protocol

// Outbound action types (client -> server). Player vocabulary plus the
// host-only controls.
const (
	ActionPlaceTile         = "place_tile"
	ActionFoundChain        = "found_chain"
	ActionMergerChoice      = "merger_choice"
	ActionMergerDisposition = "merger_disposition"
	ActionBuyStocks         = "buy_stocks"
	ActionEndTurn           = "end_turn"
	ActionDeclareEndGame    = "declare_end_game"
	ActionProposeTrade      = "propose_trade"
	ActionAcceptTrade       = "accept_trade"
	ActionRejectTrade       = "reject_trade"
	ActionCancelTrade       = "cancel_trade"

	ActionAddBot    = "add_bot"
	ActionStartGame = "start_game"
	ActionEndGame   = "end_game"
)

// PlaceTileAction places a tile from the hand.
type PlaceTileAction struct {
	Action string `json:"action"`
	Tile   string `json:"tile"`
}

// FoundChainAction answers a choose_chain request.
type FoundChainAction struct {
	Action string `json:"action"`
	Chain  string `json:"chain"`
}

// MergerChoiceAction answers a choose_merger_survivor request.
type MergerChoiceAction struct {
	Action   string `json:"action"`
	Survivor string `json:"survivor"`
}

// MergerDispositionAction answers a stock_disposition_required request.
// Counts must satisfy sell+trade+keep == owned, enforced server-side.
type MergerDispositionAction struct {
	Action string `json:"action"`
	Sell   int    `json:"sell"`
	Trade  int    `json:"trade"`
	Keep   int    `json:"keep"`
}

// BuyStocksAction purchases stock at end of turn. Purchases maps chain
// name to share count.
type BuyStocksAction struct {
	Action    string         `json:"action"`
	Purchases map[string]int `json:"purchases"`
}

// EndTurnAction ends the current turn.
type EndTurnAction struct {
	Action string `json:"action"`
}

// DeclareEndGameAction declares the game over when the server has signaled
// the end condition is met.
type DeclareEndGameAction struct {
	Action string `json:"action"`
}

// ProposeTradeAction offers stock to another player. TradeID is generated
// client-side so the proposer can correlate accept/reject pushes.
type ProposeTradeAction struct {
	Action  string         `json:"action"`
	TradeID string         `json:"trade_id"`
	To      string         `json:"to"`
	Offer   map[string]int `json:"offer"`
	Request map[string]int `json:"request"`
}

// TradeReplyAction accepts, rejects, or cancels a pending trade.
type TradeReplyAction struct {
	Action  string `json:"action"`
	TradeID string `json:"trade_id"`
}

// AddBotAction seats a bot player (host only).
type AddBotAction struct {
	Action string `json:"action"`
}

// StartGameAction starts the game (host only).
type StartGameAction struct {
	Action string `json:"action"`
}

// EndGameAction force-ends the game (host only).
type EndGameAction struct {
	Action string `json:"action"`
}
