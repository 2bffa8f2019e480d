package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHTTPURL            = "http://localhost:8080"
	DefaultWSURL              = "ws://localhost:8080"
	DefaultMDNSService        = "_acquire._tcp"
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second
	DefaultMaxAttempts        = 5
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultRetryDelay         = 2 * time.Second
	DefaultRecoveryAttempts   = 5
	DefaultStorePath          = "acquire-session.db"
)

// ApplyDefaults fills zero-valued optional fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.Server.HTTPURL == "" && !c.Server.Discover {
		c.Server.HTTPURL = DefaultHTTPURL
	}
	if c.Server.WSURL == "" && !c.Server.Discover {
		c.Server.WSURL = DefaultWSURL
	}
	if c.Server.MDNSService == "" {
		c.Server.MDNSService = DefaultMDNSService
	}

	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.MaxAttempts == 0 {
		c.Connection.MaxAttempts = DefaultMaxAttempts
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}

	if c.Recovery.RetryDelay == 0 {
		c.Recovery.RetryDelay = DefaultRetryDelay
	}
	if c.Recovery.MaxAttempts == 0 {
		c.Recovery.MaxAttempts = DefaultRecoveryAttempts
	}

	if c.Session.StorePath == "" {
		c.Session.StorePath = DefaultStorePath
	}
}
