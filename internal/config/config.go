// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Defaults for the endpoints the engine talks to. The process id is the
// deployed leaderboard process; override per environment.
const (
	defaultGatewayURL = "https://gateway.arcboard.dev"
	defaultProcessID  = "iI1AHVB85pQ9_Y67TDPS52PXOjxZOxwNV55JZemYpxM"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// GatewayURL is the base URL of the ledger gateway.
	GatewayURL string `koanf:"gateway_url"`

	// ProcessID identifies the leaderboard process on the ledger.
	ProcessID string `koanf:"process_id"`

	// AppName tags every score submission.
	AppName string `koanf:"app_name"`

	// GameID is the game this deployment serves.
	GameID string `koanf:"game_id"`

	// CacheTTLMS bounds how long read results are reused.
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// RefreshIntervalMS is the polling period of the refresh scheduler.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// PageSize is the default leaderboard page size.
	PageSize int `koanf:"page_size"`

	// RecentLimit is how many recent submissions a refresh pass fetches.
	RecentLimit int `koanf:"recent_limit"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// HTTPTimeoutMS bounds a single gateway round-trip.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// WalletAddress, when set, routes submissions through the gateway's
	// server-side signer on behalf of this address instead of the
	// in-memory signer.
	WalletAddress string `koanf:"wallet_address"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9090",
		GatewayURL:          defaultGatewayURL,
		ProcessID:           defaultProcessID,
		AppName:             "arcboard",
		GameID:              "arcboard",
		CacheTTLMS:          5_000,
		RefreshIntervalMS:   10_000,
		PageSize:            10,
		RecentLimit:         5,
		MaxLeaderboardLimit: 100,
		HTTPTimeoutMS:       10_000,
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// RefreshInterval returns the refresh polling period as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// HTTPTimeout returns the gateway round-trip bound as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}
