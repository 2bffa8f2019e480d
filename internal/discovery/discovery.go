// Package discovery finds a game server on the local network via mDNS,
// used when no server URL is configured.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// DefaultService is the mDNS service name the game server advertises.
const DefaultService = "_acquire._tcp"

// Find browses for the first advertised game server and returns its
// host:port. The ctx bounds the whole browse; pass a timeout.
func Find(ctx context.Context, service string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if service == "" {
		service = DefaultService
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("init mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan string, 1)

	go func() {
		for entry := range entries {
			if len(entry.AddrIPv4) == 0 {
				continue
			}
			addr := fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port)
			logger.Info("discovered game server", "instance", entry.Instance, "addr", addr)
			select {
			case found <- addr:
			default:
			}
		}
	}()

	if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
		return "", fmt.Errorf("browse mdns: %w", err)
	}

	select {
	case addr := <-found:
		return addr, nil
	case <-ctx.Done():
		return "", fmt.Errorf("no game server found: %w", ctx.Err())
	}
}
