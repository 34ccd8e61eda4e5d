package statusclient

import (
	"net/http"
	"time"
)

// Synthetic status values reported by the watcher around the server-supplied
// ones. "connected" is reported as soon as the live channel opens, before the
// first envelope arrives.
const (
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Config controls how a Watcher connects.
type Config struct {
	// BaseURL is the hub's HTTP base URL (e.g., "http://localhost:8080").
	// The scheme is translated to ws/wss for the live channel.
	BaseURL string

	// Token is the access token presented on the live channel path.
	Token string

	// HTTPClient is used for the WebSocket handshake. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// DialTimeout bounds each connection attempt. Defaults to 5s.
	DialTimeout time.Duration

	// InitialBackoff is the wait before the first reconnection attempt.
	// Defaults to 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the reconnection wait. Defaults to 30s.
	MaxBackoff time.Duration
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return cfg
}

// Update is one observed status transition.
type Update struct {
	RoomID string
	Status string
	Actor  string
	Note   string
	TS     time.Time
}
