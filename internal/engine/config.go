package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DefaultLanguage      string
	RelayURL             string // empty = relay source disabled
	SourcesFile          string // optional YAML override of the source list
	FetchTimeout         time.Duration
	MaxBodyBytes         int64
	CORSOrigins          []string
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain HTTPClient for upstream YouTube calls
}

var cfg = Config{
	DefaultLanguage: "en",
	FetchTimeout:    15 * time.Second,
	MaxBodyBytes:    5 * 1024 * 1024,
	HTTPClient:      &http.Client{Timeout: 15 * time.Second},
}

// Cfg exposes the engine configuration for sub-packages (sources, relay).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
// Zero values fall back to the defaults above.
func Init(c Config) {
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 5 * 1024 * 1024
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	cfg = c
	Cfg = &cfg
}
