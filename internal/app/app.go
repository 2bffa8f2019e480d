// Package app assembles one client session: connection manager, message
// router, state store, recovery flow, and action senders, parameterized by
// role. The player and host/spectator binaries share this wiring; only the
// endpoint URL and action vocabulary differ.
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/linanqiu/acquire-game-sub001/internal/actions"
	"github.com/linanqiu/acquire-game-sub001/internal/config"
	"github.com/linanqiu/acquire-game-sub001/internal/connection"
	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
	"github.com/linanqiu/acquire-game-sub001/internal/recovery"
	"github.com/linanqiu/acquire-game-sub001/internal/router"
	"github.com/linanqiu/acquire-game-sub001/internal/session"
	"github.com/linanqiu/acquire-game-sub001/internal/state"
)

// Options configure one session.
type Options struct {
	Role        protocol.Role
	WSBase      string
	Creds       session.Credentials
	DisplayName string
	Connection  config.ConnectionConfig
	Recovery    config.RecoveryConfig
	Logger      *slog.Logger
}

// App is one running client session.
type App struct {
	Store   *state.Store
	Manager *connection.Manager
	Router  *router.Router
	Flow    *recovery.Flow
	Sender  *actions.Sender     // player role
	Host    *actions.HostSender // host role

	role   protocol.Role
	logger *slog.Logger

	statusMu   sync.Mutex
	statusSubs map[chan connection.Status]struct{}

	closeOnce sync.Once
}

// New wires a session. Nothing connects until Run.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	identity := state.Identity{
		PlayerID:     opts.Creds.PlayerID,
		DisplayName:  opts.DisplayName,
		SessionToken: opts.Creds.SessionToken,
		IsHost:       opts.Role == protocol.RoleHost,
	}

	var url string
	switch opts.Role {
	case protocol.RoleHost:
		url = protocol.HostURL(opts.WSBase, opts.Creds.RoomCode)
	default:
		url = protocol.PlayerURL(opts.WSBase, opts.Creds.RoomCode, opts.Creds.PlayerID, opts.Creds.SessionToken)
	}

	a := &App{
		role:       opts.Role,
		logger:     logger,
		statusSubs: make(map[chan connection.Status]struct{}),
	}

	a.Store = state.NewStore(identity, logger.With("component", "store"))
	a.Router = router.New(a.Store, 0, logger.With("component", "router"))

	a.Manager = connection.NewManager(
		connection.Config{
			URL:              url,
			BaseDelay:        opts.Connection.ReconnectBaseDelay,
			MaxDelay:         opts.Connection.ReconnectMaxDelay,
			MaxAttempts:      opts.Connection.MaxAttempts,
			HandshakeTimeout: opts.Connection.HandshakeTimeout,
			WriteTimeout:     opts.Connection.WriteTimeout,
			PingInterval:     opts.Connection.PingInterval,
		},
		connection.Handlers{
			OnStatus:  a.onStatus,
			OnMessage: a.Router.HandleMessage,
			OnFailure: a.onFailure,
		},
		logger.With("component", "connection"),
	)

	a.Flow = recovery.New(
		recovery.Config{
			MaxAttempts: opts.Recovery.MaxAttempts,
			RetryDelay:  opts.Recovery.RetryDelay,
		},
		a.reconnectOnce,
		a.onRecoveryChange,
		logger.With("component", "recovery"),
	)

	notifier := &logNotifier{logger: logger}
	a.Sender = actions.NewSender(a.Manager, notifier, logger.With("component", "actions"))
	a.Host = actions.NewHostSender(a.Manager, notifier, logger.With("component", "actions"))

	return a
}

// Run connects and blocks until ctx is done, then tears the session down:
// the next close is marked intentional, both retry timers are cleared, and
// any in-flight recovery attempt's result is discarded.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.Manager.Connect(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.eventLoop(ctx)
		return nil
	})
	g.Go(func() error {
		a.stateLoop(ctx)
		return nil
	})
	return g.Wait()
}

// Close is safe on every exit path.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.Flow.Close()
		a.Manager.Disconnect()
	})
}

// onStatus mirrors manager status into the store, the recovery flow, and
// any waiters inside reconnectOnce.
func (a *App) onStatus(status connection.Status, message string) {
	a.Store.SetConnectionStatus(status, message)
	a.Flow.OnStatusChange(status)

	a.statusMu.Lock()
	for ch := range a.statusSubs {
		select {
		case ch <- status:
		default:
		}
	}
	a.statusMu.Unlock()
}

func (a *App) onFailure(err error) {
	a.logger.Error("connection gave up", "error", err)
}

func (a *App) onRecoveryChange(v recovery.View) {
	switch v.Phase {
	case recovery.PhaseAttempting, recovery.PhaseWaiting:
		a.logger.Info("reconnecting",
			"attempt", v.DisplayAttempt(),
			"max_attempts", v.MaxAttempts,
		)
	case recovery.PhaseManual:
		a.logger.Warn("connection lost; rejoin or leave the room",
			"player", a.Store.Identity().DisplayName,
		)
	}
}

// reconnectOnce is the recovery flow's callback: kick the manager and wait
// for a terminal outcome of its cycle.
func (a *App) reconnectOnce(ctx context.Context) (bool, error) {
	sub := make(chan connection.Status, 4)
	a.statusMu.Lock()
	a.statusSubs[sub] = struct{}{}
	a.statusMu.Unlock()
	defer func() {
		a.statusMu.Lock()
		delete(a.statusSubs, sub)
		a.statusMu.Unlock()
	}()

	a.Manager.Connect(ctx)

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case status := <-sub:
			switch status {
			case connection.StatusConnected:
				return true, nil
			case connection.StatusDisconnected:
				// The manager's own budget ran out, or the session closed.
				return false, nil
			}
		}
	}
}

// eventLoop surfaces passthrough events the way the external collaborators
// (toast layer, game-over screen, trade UI) would.
func (a *App) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.Router.Events():
			a.handleEvent(ev)
		}
	}
}

func (a *App) handleEvent(ev protocol.Event) {
	switch ev.Type {
	case protocol.TypeError:
		var msg protocol.ErrorMessage
		if err := json.Unmarshal(ev.Payload, &msg); err == nil {
			a.logger.Warn("server error", "code", msg.Code, "message", msg.Message)
		}
	case protocol.TypeGameOver:
		var msg protocol.GameOverMessage
		if err := json.Unmarshal(ev.Payload, &msg); err == nil {
			for _, score := range msg.Scores {
				a.logger.Info("final score", "player", score.Name, "total", score.Total)
			}
		}
	case protocol.TypeCanEndGame:
		a.logger.Info("end-game condition met; you may declare the game over")
	case protocol.TypeAllTilesUnplayable:
		a.logger.Info("all tiles unplayable; they will be replaced")
	default:
		// Trade lifecycle and anything future: pass through verbatim.
		a.logger.Info("event", "type", ev.Type, "payload", string(ev.Payload))
	}
}

// stateLoop logs state transitions for the terminal UI.
func (a *App) stateLoop(ctx context.Context) {
	ch := a.Store.Watch()
	defer a.Store.Unwatch(ch)

	var lastPhase protocol.Phase
	var lastTurn string
	var lastPending protocol.PendingDecision

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
		}

		if snap, ok := a.Store.Snapshot(); ok {
			if snap.Phase != lastPhase || snap.CurrentTurn != lastTurn {
				lastPhase = snap.Phase
				lastTurn = snap.CurrentTurn
				a.logger.Info(snap.Phase.Text(),
					"turn", snap.CurrentTurn,
					"my_turn", a.Store.IsMyTurn(),
					"tiles_remaining", snap.TilesRemaining,
				)
			}
		}

		pending := a.Store.Pending()
		if pending != nil && !reflect.DeepEqual(pending, lastPending) {
			lastPending = pending
			a.logPending(pending)
		} else if pending == nil {
			lastPending = nil
		}
	}
}

func (a *App) logPending(d protocol.PendingDecision) {
	switch p := d.(type) {
	case protocol.ChooseChain:
		a.logger.Info("choose a chain to found", "candidates", p.Candidates)
	case protocol.ChooseMergerSurvivor:
		a.logger.Info("choose the merger survivor", "candidates", p.Candidates)
	case protocol.StockDisposition:
		a.logger.Info("dispose of defunct stock",
			"defunct", p.DefunctChain,
			"survivor", p.SurvivingChain,
			"owned", p.OwnedCount,
			"tradeable", p.TradeableCount,
		)
	}
}

// logNotifier is the toast collaborator stand-in for a terminal client.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Notify(message string) {
	n.logger.Warn(message)
}
