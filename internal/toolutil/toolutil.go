// Package toolutil provides shared helper functions for go_transcript MCP tools.
package toolutil

import (
	"context"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Resolver resolves a video's transcript. *sources.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, videoID, language string) ([]engine.Segment, error)
}

// Target is a validated tool input: a video ID plus a normalised language.
type Target struct {
	VideoID  string
	Language string
}

// ParseTarget validates the URL field before any network call.
func ParseTarget(rawURL, language string) (Target, error) {
	id, err := engine.ParseVideoID(rawURL)
	if err != nil {
		return Target{}, err
	}
	return Target{VideoID: id, Language: engine.NormLang(language)}, nil
}

// ResolveCached returns cached segments for t or resolves and stores them.
// Failures are never cached.
func ResolveCached(ctx context.Context, r Resolver, t Target) ([]engine.Segment, error) {
	key := engine.CacheKey("transcript", t.VideoID, t.Language)
	if segs, ok := engine.CacheLoadJSON[[]engine.Segment](ctx, key); ok {
		return segs, nil
	}
	var segs []engine.Segment
	err := engine.TrackOperation(ctx, "resolve "+t.VideoID, func(ctx context.Context) error {
		var err error
		segs, err = r.Resolve(ctx, t.VideoID, t.Language)
		return err
	})
	if err != nil {
		return nil, err
	}
	engine.CacheStoreJSON(ctx, key, segs)
	return segs, nil
}
