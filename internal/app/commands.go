package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
)

// Exec parses one line of terminal input and performs the matching action.
// Unknown commands and malformed arguments come back as errors; nothing
// here mutates game state locally, the server's next game_state push does.
func (a *App) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "rejoin":
		a.Flow.Rejoin()
		return nil
	case "status":
		status, message := a.Store.ConnectionStatus()
		a.logger.Info("connection", "status", status, "message", message)
		return nil
	}

	if a.role == protocol.RoleHost {
		return a.execHost(cmd)
	}
	return a.execPlayer(cmd, args)
}

func (a *App) execHost(cmd string) error {
	switch cmd {
	case "addbot":
		return a.Host.AddBot()
	case "start":
		return a.Host.StartGame()
	case "endgame":
		return a.Host.EndGame()
	default:
		return fmt.Errorf("unknown host command %q", cmd)
	}
}

func (a *App) execPlayer(cmd string, args []string) error {
	switch cmd {
	case "hand":
		a.logger.Info("hand", "tiles", a.Store.Hand())
		return nil

	case "chains":
		snap, ok := a.Store.Snapshot()
		if !ok {
			return fmt.Errorf("no game state yet")
		}
		for _, c := range snap.Chains {
			// Majority bonus is 10x share price, minority 5x.
			a.logger.Info("chain",
				"name", c.Name,
				"size", c.Size,
				"price", c.Price,
				"available", c.Available,
				"safe", c.Safe,
				"majority_bonus", c.Price*10,
				"minority_bonus", c.Price*5,
			)
		}
		return nil

	case "place":
		if len(args) != 1 {
			return fmt.Errorf("usage: place <tile>")
		}
		return a.Sender.PlaceTile(strings.ToUpper(args[0]))

	case "found":
		if len(args) != 1 {
			return fmt.Errorf("usage: found <chain>")
		}
		return a.Sender.FoundChain(args[0])

	case "survivor":
		if len(args) != 1 {
			return fmt.Errorf("usage: survivor <chain>")
		}
		return a.Sender.MergerChoice(args[0])

	case "dispose":
		if len(args) != 3 {
			return fmt.Errorf("usage: dispose <sell> <trade> <keep>")
		}
		counts := make([]int, 3)
		for i, arg := range args {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return fmt.Errorf("dispose counts must be non-negative integers")
			}
			counts[i] = n
		}
		return a.Sender.MergerDisposition(counts[0], counts[1], counts[2])

	case "buy":
		purchases, err := parseShareList(args)
		if err != nil {
			return err
		}
		return a.Sender.BuyStocks(purchases)

	case "end":
		return a.Sender.EndTurn()

	case "declare":
		return a.Sender.DeclareEndGame()

	case "propose":
		if len(args) < 2 {
			return fmt.Errorf("usage: propose <player> <chain>=<n> [for <chain>=<n> ...]")
		}
		to := args[0]
		rest := args[1:]
		var offerArgs, requestArgs []string
		for i, arg := range rest {
			if strings.EqualFold(arg, "for") {
				offerArgs, requestArgs = rest[:i], rest[i+1:]
				break
			}
		}
		if offerArgs == nil {
			offerArgs = rest
		}
		offer, err := parseShareList(offerArgs)
		if err != nil {
			return err
		}
		request, err := parseShareList(requestArgs)
		if err != nil {
			return err
		}
		id, err := a.Sender.ProposeTrade(to, offer, request)
		if err == nil {
			a.logger.Info("trade proposed", "trade_id", id, "to", to)
		}
		return err

	case "accept":
		if len(args) != 1 {
			return fmt.Errorf("usage: accept <trade-id>")
		}
		return a.Sender.AcceptTrade(args[0])

	case "reject":
		if len(args) != 1 {
			return fmt.Errorf("usage: reject <trade-id>")
		}
		return a.Sender.RejectTrade(args[0])

	case "cancel":
		if len(args) != 1 {
			return fmt.Errorf("usage: cancel <trade-id>")
		}
		return a.Sender.CancelTrade(args[0])

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseShareList parses "chain=count" pairs into a purchase map.
func parseShareList(args []string) (map[string]int, error) {
	shares := make(map[string]int)
	for _, arg := range args {
		chain, countStr, ok := strings.Cut(arg, "=")
		if !ok || chain == "" {
			return nil, fmt.Errorf("expected <chain>=<count>, got %q", arg)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 1 {
			return nil, fmt.Errorf("share count in %q must be a positive integer", arg)
		}
		shares[chain] += count
	}
	return shares, nil
}
