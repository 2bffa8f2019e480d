package protocol

import "encoding/json"

// Inbound message types (server -> client).
const (
	TypeGameState            = "game_state"
	TypeLobbyUpdate          = "lobby_update"
	TypeChooseChain          = "choose_chain"
	TypeChooseMergerSurvivor = "choose_merger_survivor"
	TypeStockDisposition     = "stock_disposition_required"
	TypeTilesReplaced        = "tiles_replaced"
	TypeError                = "error"
	TypeGameOver             = "game_over"
	TypeCanEndGame           = "can_end_game"
	TypeAllTilesUnplayable   = "all_tiles_unplayable"
	TypeTradeProposed        = "trade_proposed"
	TypeTradeAccepted        = "trade_accepted"
	TypeTradeRejected        = "trade_rejected"
	TypeTradeCanceled        = "trade_canceled"
)

// Envelope is used for fast type extraction before full decoding.
type Envelope struct {
	Type string `json:"type"`
}

// GameStateMessage is the full-refresh game state push. YourHand is a
// pointer so an absent field can be told apart from an empty hand: the
// server only includes your_hand on the recipient's own updates.
type GameStateMessage struct {
	Type     string       `json:"type"`
	State    GameSnapshot `json:"state"`
	YourHand *[]string    `json:"your_hand,omitempty"`
}

// LobbyUpdateMessage replaces the lobby roster wholesale.
type LobbyUpdateMessage struct {
	Type     string        `json:"type"`
	Players  []RosterEntry `json:"players"`
	CanStart bool          `json:"can_start"`
}

// ChooseChainMessage asks the player to pick a chain to found.
type ChooseChainMessage struct {
	Type       string   `json:"type"`
	Candidates []string `json:"candidates"`
}

// ChooseMergerSurvivorMessage asks the player to break a merger size tie.
type ChooseMergerSurvivorMessage struct {
	Type       string   `json:"type"`
	Candidates []string `json:"candidates"`
}

// StockDispositionMessage asks the player to dispose of defunct-chain stock.
type StockDispositionMessage struct {
	Type           string `json:"type"`
	DefunctChain   string `json:"defunct_chain"`
	SurvivingChain string `json:"surviving_chain"`
	OwnedCount     int    `json:"owned_count"`
	TradeableCount int    `json:"tradeable_count"`
}

// TilesReplacedMessage carries a replacement hand, sent outside the normal
// game_state refresh cycle when unplayable tiles are swapped.
type TilesReplacedMessage struct {
	Type  string   `json:"type"`
	Tiles []string `json:"tiles"`
}

// ErrorMessage is a server-reported domain error, forwarded to the
// notification layer verbatim.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// GameOverMessage carries final standings.
type GameOverMessage struct {
	Type   string       `json:"type"`
	Scores []FinalScore `json:"scores"`
}

// FinalScore is one player's final standing.
type FinalScore struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
}

// Event is a decoded-enough inbound message handed to external
// collaborators (toasts, game-over screen, trade UI) when it is not one of
// the state-store mutations. Payload is the raw frame.
type Event struct {
	Type    string
	Payload json.RawMessage
}
