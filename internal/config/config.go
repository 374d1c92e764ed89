// Package config loads runtime settings for the readsync client.
package config

import "time"

// Config holds runtime settings for the readsync CLI and share handlers.
//
// Units: all intervals are time.Duration values. RequestTimeout bounds a
// single network call; DrainTimeout bounds the caller's wait for a
// best-effort queue drain (the drain itself keeps running in background).
type Config struct {
	// ServiceURL is the base URL of the backend project,
	// e.g. https://xyz.example.co. REST lives under /rest/v1 and
	// auth under /auth/v1.
	ServiceURL string

	// AnonKey is the public API key sent in the apikey header.
	AnonKey string

	// DBPath is the path of the shared local sqlite file. All processes
	// saving links (CLI, share handlers) must point at the same file.
	DBPath string

	// DeviceName is recorded in device_saved on links saved here.
	DeviceName string

	PageSize         int
	RequestTimeout   time.Duration
	DrainTimeout     time.Duration
	PrefetchInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "readsync.db"
	c.DeviceName = "cli"
	c.PageSize = 25
	c.RequestTimeout = 8 * time.Second
	c.DrainTimeout = 3 * time.Second
	c.PrefetchInterval = 10 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file is given) and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
