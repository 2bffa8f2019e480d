// Command play is the player client: it joins (or creates) a room over
// HTTP, opens the realtime connection, and drives the game from terminal
// commands.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linanqiu/acquire-game-sub001/internal/app"
	"github.com/linanqiu/acquire-game-sub001/internal/config"
	"github.com/linanqiu/acquire-game-sub001/internal/discovery"
	"github.com/linanqiu/acquire-game-sub001/internal/protocol"
	"github.com/linanqiu/acquire-game-sub001/internal/session"
	"github.com/linanqiu/acquire-game-sub001/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.yaml", "path to config file")
	roomCode := flag.String("room", "", "room code to join")
	name := flag.String("name", "", "display name")
	create := flag.Bool("create", false, "create a new room instead of joining")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting player client",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	if *name == "" {
		logger.Error("-name is required")
		os.Exit(1)
	}
	if !*create && *roomCode == "" {
		logger.Error("-room is required unless -create is set")
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := resolveServer(ctx, cfg, logger); err != nil {
		logger.Error("failed to locate game server", "error", err)
		os.Exit(1)
	}

	store, err := session.OpenFileStore(cfg.Session.StorePath)
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	creds, err := establishSession(ctx, cfg, store, *roomCode, *name, *create, logger)
	if err != nil {
		logger.Error("failed to establish session", "error", err)
		os.Exit(1)
	}
	logger.Info("session ready", "room", creds.RoomCode, "player_id", creds.PlayerID)

	client := app.New(app.Options{
		Role:        protocol.RolePlayer,
		WSBase:      cfg.Server.WSURL,
		Creds:       creds,
		DisplayName: *name,
		Connection:  cfg.Connection,
		Recovery:    cfg.Recovery,
		Logger:      logger,
	})

	go readCommands(ctx, client, logger)

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("client exited", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
}

// resolveServer fills in server URLs from mDNS when discovery is enabled.
func resolveServer(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) error {
	if !cfg.Server.Discover || cfg.Server.WSURL != "" {
		return nil
	}

	findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	addr, err := discovery.Find(findCtx, cfg.Server.MDNSService, logger)
	if err != nil {
		return err
	}
	cfg.Server.HTTPURL = "http://" + addr
	cfg.Server.WSURL = "ws://" + addr
	return nil
}

// establishSession reuses saved credentials when rejoining a known room,
// otherwise performs the HTTP create/join and persists the result.
func establishSession(ctx context.Context, cfg *config.ClientConfig, store *session.FileStore, roomCode, name string, create bool, logger *slog.Logger) (session.Credentials, error) {
	if !create {
		creds, found, err := store.Load(roomCode)
		if err != nil {
			return session.Credentials{}, err
		}
		if found {
			logger.Info("reusing saved session", "room", roomCode)
			return creds, nil
		}
	}

	client := session.NewClient(cfg.Server.HTTPURL, session.WithLogger(logger))

	var creds session.Credentials
	var err error
	if create {
		creds, err = client.CreateRoom(ctx, name)
	} else {
		creds, err = client.JoinRoom(ctx, roomCode, name)
	}
	if err != nil {
		return session.Credentials{}, err
	}

	if err := store.Save(creds); err != nil {
		logger.Warn("failed to persist session", "error", err)
	}
	return creds, nil
}

// readCommands feeds terminal input to the action senders.
func readCommands(ctx context.Context, client *app.App, logger *slog.Logger) {
	fmt.Println("commands: place, found, survivor, dispose, buy, end, declare, propose, accept, reject, cancel, hand, chains, status, rejoin")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := client.Exec(scanner.Text()); err != nil {
			logger.Warn(err.Error())
		}
	}
}
