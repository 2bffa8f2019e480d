// Package config loads the client configuration from YAML with ${VAR}
// environment expansion, applies defaults, and validates required fields.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the root configuration for a client instance.
type ClientConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Recovery   RecoveryConfig   `yaml:"recovery"`
	Session    SessionConfig    `yaml:"session"`
}

// ServerConfig locates the game server.
type ServerConfig struct {
	HTTPURL string `yaml:"http_url"` // room create/join API
	WSURL   string `yaml:"ws_url"`   // realtime endpoint base

	// Discover enables mDNS lookup when the URLs are empty.
	Discover    bool   `yaml:"discover"`
	MDNSService string `yaml:"mdns_service"`
}

// ConnectionConfig tunes the Connection Manager.
type ConnectionConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	MaxAttempts        int           `yaml:"max_attempts"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	PingInterval       time.Duration `yaml:"ping_interval"`
}

// RecoveryConfig tunes the reconnection overlay flow.
type RecoveryConfig struct {
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// SessionConfig holds local credential persistence settings.
type SessionConfig struct {
	StorePath string `yaml:"store_path"`
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg ClientConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*ClientConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*ClientConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
