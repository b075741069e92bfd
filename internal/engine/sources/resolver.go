package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/google/uuid"
)

// Transcript resolution.
// No single provider is reliable (rate limits, CORS, uptime), so sources form a
// priority-ordered fallback chain tried strictly one at a time.

// NoTranscriptMessage is the user-facing text of an exhausted resolution.
const NoTranscriptMessage = "Unable to fetch transcript. The video may not have captions, or all transcript services are unavailable."

// ErrNoTranscript matches every *ResolutionError via errors.Is.
var ErrNoTranscript = errors.New("no transcript available")

// errUnauthorized marks a 401, which is skipped without counting as a failure.
var errUnauthorized = errors.New("unauthorized")

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// ResolutionError is returned after every candidate failed or was empty.
// Failures holds one diagnostic line per failed attempt, in attempt order.
type ResolutionError struct {
	VideoID  string
	Language string
	Failures []string
}

func (e *ResolutionError) Error() string { return NoTranscriptMessage }

func (e *ResolutionError) Is(target error) bool { return target == ErrNoTranscript }

// Detail joins the per-source failure reasons for logs.
func (e *ResolutionError) Detail() string { return strings.Join(e.Failures, "; ") }

// Resolver walks an ordered source chain until one yields captions.
type Resolver struct {
	client      Doer
	descriptors []SourceDescriptor
	maxBody     int64
}

// NewResolver creates a resolver over the given descriptor chain.
func NewResolver(client Doer, descriptors []SourceDescriptor) *Resolver {
	maxBody := engine.Cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 * 1024 * 1024
	}
	return &Resolver{client: client, descriptors: descriptors, maxBody: maxBody}
}

// NewDefaultResolver builds a resolver from engine.Cfg: the SourcesFile list
// when configured, otherwise the built-in chain with the configured relay.
func NewDefaultResolver() (*Resolver, error) {
	ds := DefaultDescriptors(engine.Cfg.RelayURL)
	if engine.Cfg.SourcesFile != "" {
		loaded, err := LoadDescriptors(engine.Cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		ds = loaded
	}
	return NewResolver(engine.Cfg.HTTPClient, ds), nil
}

// Descriptors returns a copy of the configured chain.
func (r *Resolver) Descriptors() []SourceDescriptor {
	return append([]SourceDescriptor(nil), r.descriptors...)
}

// Resolve returns the first non-empty segment list from the candidate chain.
// Per-source failures are logged and skipped; exhaustion yields *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, videoID, language string) ([]engine.Segment, error) {
	engine.IncrResolveRequests()
	lang := engine.NormLang(language)
	rid := uuid.NewString()

	var failures []string
	for _, c := range Candidates(r.descriptors, videoID, lang) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segs, err := r.attempt(ctx, c)
		switch {
		case err == nil:
			slog.Info("transcript resolved",
				slog.String("resolve_id", rid), slog.String("id", videoID),
				slog.String("source", c.Name), slog.String("lang", c.Language),
				slog.Int("segments", len(segs)))
			return segs, nil
		case errors.Is(err, errUnauthorized):
			engine.IncrSourceSkipped()
			slog.Debug("transcript source gated, skipping",
				slog.String("resolve_id", rid), slog.String("source", c.Name))
		default:
			engine.IncrSourceFailures()
			failures = append(failures, fmt.Sprintf("%s [%s]: %v", c.Name, c.Language, err))
			slog.Warn("transcript source failed, trying next",
				slog.String("resolve_id", rid), slog.String("id", videoID),
				slog.String("source", c.Name), slog.String("lang", c.Language), slog.Any("error", err))
		}
	}

	engine.IncrResolveFailures()
	rerr := &ResolutionError{VideoID: videoID, Language: lang, Failures: failures}
	slog.Warn("transcript unavailable",
		slog.String("resolve_id", rid), slog.String("id", videoID), slog.String("detail", rerr.Detail()))
	return nil, rerr
}

// attempt issues one candidate request and normalizes its body.
func (r *Resolver) attempt(ctx context.Context, c Candidate) ([]engine.Segment, error) {
	engine.IncrSourceAttempts()

	var body io.Reader
	if c.Body != "" {
		body = strings.NewReader(c.Body)
	}
	req, err := http.NewRequestWithContext(ctx, c.Method, c.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.Kind == KindXML {
		req.Header.Set("Accept", "application/xml, text/xml")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if c.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &engine.HTTPStatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	segs, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, errEmptyCaptions
	}
	return segs, nil
}
