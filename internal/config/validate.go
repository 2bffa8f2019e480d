package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if !c.Server.Discover {
		if c.Server.HTTPURL == "" {
			return errors.New("server.http_url is required unless server.discover is set")
		}
		if c.Server.WSURL == "" {
			return errors.New("server.ws_url is required unless server.discover is set")
		}
		if !strings.HasPrefix(c.Server.WSURL, "ws://") && !strings.HasPrefix(c.Server.WSURL, "wss://") {
			return fmt.Errorf("server.ws_url must start with ws:// or wss://, got %q", c.Server.WSURL)
		}
	}

	if c.Connection.ReconnectBaseDelay <= 0 {
		return errors.New("connection.reconnect_base_delay must be > 0")
	}
	if c.Connection.ReconnectMaxDelay < c.Connection.ReconnectBaseDelay {
		return errors.New("connection.reconnect_max_delay must be >= reconnect_base_delay")
	}
	if c.Connection.MaxAttempts < 1 {
		return errors.New("connection.max_attempts must be >= 1")
	}

	if c.Recovery.RetryDelay <= 0 {
		return errors.New("recovery.retry_delay must be > 0")
	}
	if c.Recovery.MaxAttempts < 1 {
		return errors.New("recovery.max_attempts must be >= 1")
	}

	if c.Session.StorePath == "" {
		return errors.New("session.store_path is required")
	}

	return nil
}
