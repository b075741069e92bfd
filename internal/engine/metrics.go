package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ResolveRequests  atomic.Int64
	ResolveFailures  atomic.Int64
	SourceAttempts   atomic.Int64
	SourceFailures   atomic.Int64
	SourceSkipped    atomic.Int64
	RelayRequests    atomic.Int64
	RelayNotFound    atomic.Int64
	UpstreamRequests atomic.Int64
	UpstreamErrors   atomic.Int64
	PageScrapes      atomic.Int64
}

// metricKeys fixes the exposition order.
var metricKeys = []string{
	"resolve_requests", "resolve_failures",
	"source_attempts", "source_failures", "source_skipped",
	"relay_requests", "relay_not_found",
	"upstream_requests", "upstream_errors", "page_scrapes",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"resolve_requests":  metrics.ResolveRequests.Load(),
		"resolve_failures":  metrics.ResolveFailures.Load(),
		"source_attempts":   metrics.SourceAttempts.Load(),
		"source_failures":   metrics.SourceFailures.Load(),
		"source_skipped":    metrics.SourceSkipped.Load(),
		"relay_requests":    metrics.RelayRequests.Load(),
		"relay_not_found":   metrics.RelayNotFound.Load(),
		"upstream_requests": metrics.UpstreamRequests.Load(),
		"upstream_errors":   metrics.UpstreamErrors.Load(),
		"page_scrapes":      metrics.PageScrapes.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ sub-package.
func IncrResolveRequests()  { metrics.ResolveRequests.Add(1) }
func IncrResolveFailures()  { metrics.ResolveFailures.Add(1) }
func IncrSourceAttempts()   { metrics.SourceAttempts.Add(1) }
func IncrSourceFailures()   { metrics.SourceFailures.Add(1) }
func IncrSourceSkipped()    { metrics.SourceSkipped.Add(1) }
func IncrUpstreamRequests() { metrics.UpstreamRequests.Add(1) }
func IncrUpstreamErrors()   { metrics.UpstreamErrors.Add(1) }
func IncrPageScrapes()      { metrics.PageScrapes.Add(1) }

// Incrementors for relay/.
func IncrRelayRequests() { metrics.RelayRequests.Add(1) }
func IncrRelayNotFound() { metrics.RelayNotFound.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
