package protocol

// RosterEntry is one seat in the lobby roster.
type RosterEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	IsBot    bool   `json:"is_bot"`
}

// ChainInfo is the server's view of one hotel chain.
type ChainInfo struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Price     int    `json:"price"`
	Available int    `json:"available"`
	Safe      bool   `json:"safe"`
}

// PlayerView is the public view of one player inside a snapshot.
type PlayerView struct {
	PlayerID string         `json:"player_id"`
	Name     string         `json:"name"`
	Money    int            `json:"money"`
	Stocks   map[string]int `json:"stocks"`
	HandSize int            `json:"hand_size"`
}

// GameSnapshot is the authoritative full-refresh view of server game
// state. The client never diffs or patches it; every game_state push
// replaces the prior value wholesale.
type GameSnapshot struct {
	Board          map[string]string `json:"board"` // cell -> chain name, "" for orphan tile
	Chains         []ChainInfo       `json:"chains"`
	Players        []PlayerView      `json:"players"`
	CurrentTurn    string            `json:"current_turn"`
	Phase          Phase             `json:"phase"`
	TilesRemaining int               `json:"tiles_remaining"`
}

// PendingDecision is a server-initiated request the local player must
// answer. At most one is active at a time; any game_state refresh clears
// whichever one is pending.
type PendingDecision interface {
	pendingDecision()
}

// ChooseChain asks which chain to found for a just-placed tile.
type ChooseChain struct {
	Candidates []string
}

// ChooseMergerSurvivor asks which of the size-tied chains survives a merger.
type ChooseMergerSurvivor struct {
	Candidates []string
}

// StockDisposition asks how to dispose of stock in a defunct chain.
type StockDisposition struct {
	DefunctChain   string
	SurvivingChain string
	OwnedCount     int
	TradeableCount int
}

func (ChooseChain) pendingDecision()          {}
func (ChooseMergerSurvivor) pendingDecision() {}
func (StockDisposition) pendingDecision()     {}
