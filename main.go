// go_transcript: YouTube transcript MCP server and CORS caption relay.
//
// Exposes MCP tools youtube_transcript, transcript_search and transcript_at,
// and serves the caption relay endpoint (/api/transcript) on RELAY_PORT.
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/relay"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version   = "dev"
	mcpPort   = env.Str("MCP_PORT", "8891")
	relayPort = env.Str("RELAY_PORT", "8892")
)

func main() {
	setLogLevel(env.Str("LOG_LEVEL", "info"))
	initEngine()

	slog.Info("starting go_transcript",
		slog.String("port", mcpPort),
		slog.String("relay_port", relayPort),
	)

	go serveRelay()

	resolver, err := sources.NewDefaultResolver()
	if err != nil {
		slog.Error("source list invalid", slog.Any("error", err))
		return
	}
	for _, d := range resolver.Descriptors() {
		slog.Debug("transcript source", slog.String("name", d.Name), slog.String("kind", string(d.Kind)))
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	n := transcriptserver.RegisterTools(server, resolver)
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)

	relayURL := env.Str("RELAY_URL", "http://127.0.0.1:"+relayPort+relay.TranscriptPath)
	if relayURL == "off" {
		relayURL = ""
	}

	c := engine.Config{
		DefaultLanguage:      env.Str("DEFAULT_LANGUAGE", "en"),
		RelayURL:             relayURL,
		SourcesFile:          env.Str("SOURCES_FILE", ""),
		FetchTimeout:         fetchTimeout,
		MaxBodyBytes:         int64(env.Int("MAX_BODY_BYTES", 5*1024*1024)),
		CORSOrigins:          env.List("CORS_ORIGINS", "*"),
		CacheTTL:             env.Duration("CACHE_TTL", 6*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if env.Str("STEALTH", "on") != "off" {
		c.BrowserClient = newBrowserClient()
	}

	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// newBrowserClient builds the Chrome-fingerprinted client used for direct
// YouTube requests, optionally behind a Webshare proxy pool. nil on failure.
func newBrowserClient() *engine.BrowserClient {
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))

	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
		return nil
	}
	slog.Info("stealth browser client initialized")
	return bc
}

func serveRelay() {
	upstream := sources.NewUpstream(sources.UpstreamConfig{
		Client:  engine.Cfg.HTTPClient,
		Browser: engine.Cfg.BrowserClient,
		Retry:   engine.DefaultRetryConfig,
	})
	srv := &http.Server{
		Addr:              ":" + relayPort,
		Handler:           relay.NewRouter(upstream, engine.Cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	slog.Info("relay listening", slog.String("addr", srv.Addr), slog.String("path", relay.TranscriptPath))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("relay server failed", slog.Any("error", err))
	}
}

func setLogLevel(s string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		slog.Warn("invalid LOG_LEVEL, using info", slog.String("value", s))
		level = slog.LevelInfo
	}
	slog.SetLogLoggerLevel(level)
}
