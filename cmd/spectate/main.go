// Command spectate is the host/spectator client: an unauthenticated
// read/control view of a room with the host action vocabulary (add bots,
// start the game, end the game).
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
	roomCode := flag.String("room", "", "room code to watch")
	create := flag.Bool("create", false, "create a new room and host it")
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

	logger.Info("starting host client",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

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

	room := *roomCode
	if *create {
		client := session.NewClient(cfg.Server.HTTPURL, session.WithLogger(logger))
		creds, err := client.CreateRoom(ctx, "host")
		if err != nil {
			logger.Error("failed to create room", "error", err)
			os.Exit(1)
		}
		room = creds.RoomCode
		logger.Info("room created", "room", room)
	}

	// The host view carries no player identity and no token.
	client := app.New(app.Options{
		Role:        protocol.RoleHost,
		WSBase:      cfg.Server.WSURL,
		Creds:       session.Credentials{RoomCode: room},
		DisplayName: "host",
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

func readCommands(ctx context.Context, client *app.App, logger *slog.Logger) {
	fmt.Println("commands: addbot, start, endgame, status, rejoin")

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
