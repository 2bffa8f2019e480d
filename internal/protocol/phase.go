package protocol

// Phase is the server-driven turn phase.
type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhasePlaceTile         Phase = "place_tile"
	PhaseFoundChain        Phase = "found_chain"
	PhaseMergerChoice      Phase = "merger_choice"
	PhaseMergerDisposition Phase = "merger_disposition"
	PhaseBuyStocks         Phase = "buy_stocks"
	PhaseGameOver          Phase = "game_over"
)

// Text returns the display string for a phase. Total over the known
// phases; an unrecognized phase falls through to its raw value so a newer
// server cannot blank the status line.
func (p Phase) Text() string {
	switch p {
	case PhaseLobby:
		return "Waiting for players"
	case PhasePlaceTile:
		return "Place a tile"
	case PhaseFoundChain:
		return "Found a chain"
	case PhaseMergerChoice:
		return "Choose merger survivor"
	case PhaseMergerDisposition:
		return "Dispose of stock"
	case PhaseBuyStocks:
		return "Buy stocks"
	case PhaseGameOver:
		return "Game over"
	default:
		return string(p)
	}
}
