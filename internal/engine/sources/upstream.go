package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Direct YouTube caption fetching, used by the relay endpoint.
// Order: advertised track list → language × format grid → watch-page scrape.

// ErrCaptionsNotFound means every upstream attempt came back without captions.
var ErrCaptionsNotFound = errors.New("captions not found")

const defaultYouTubeBase = "https://www.youtube.com"

var (
	// captionFormats in preference order.
	captionFormats = []string{"srv3", "srv1", "srv2", "ttml", "vtt"}
	// trackListLangs follow the advertised tracks in the srv3-only pass.
	trackListLangs = []string{"en", "en-US", "en-GB"}
	// gridLangs follow the requested language in the format grid.
	gridLangs = []string{"en", "en-US", "en-GB", "en-CA", "en-AU"}

	langCodeRe = regexp.MustCompile(`lang_code="([^"]+)"`)
)

// UpstreamConfig configures an Upstream.
type UpstreamConfig struct {
	Client            Doer                  // used when Browser is nil
	Browser           *engine.BrowserClient // Chrome TLS fingerprint, preferred when set
	BaseURL           string                // default https://www.youtube.com
	Retry             engine.RetryConfig
	MaxBodyBytes      int64
	DisablePageScrape bool
}

// Caption is a raw caption document as served by YouTube.
type Caption struct {
	Body        []byte
	ContentType string
	Language    string
	Format      string
}

// Upstream fetches caption documents straight from YouTube.
type Upstream struct {
	cfg UpstreamConfig
}

// NewUpstream fills defaults from engine.Cfg.
func NewUpstream(c UpstreamConfig) *Upstream {
	if c.BaseURL == "" {
		c.BaseURL = defaultYouTubeBase
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Client == nil && c.Browser == nil {
		c.Client = engine.Cfg.HTTPClient
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = engine.Cfg.MaxBodyBytes
	}
	return &Upstream{cfg: c}
}

// Fetch returns the first caption document YouTube serves for videoID.
// Individual attempt failures are logged and skipped. When nothing is found
// the error wraps ErrCaptionsNotFound; context errors are returned as is.
func (u *Upstream) Fetch(ctx context.Context, videoID, lang string) (Caption, error) {
	engine.IncrUpstreamRequests()
	lang = engine.NormLang(lang)
	tried := make(map[string]bool)

	attempt := func(l, f string) (Caption, bool) {
		key := l + "|" + f
		if tried[key] {
			return Caption{}, false
		}
		tried[key] = true
		c, err := u.fetchTimedText(ctx, videoID, l, f)
		if err != nil {
			if ctx.Err() == nil {
				slog.Debug("upstream attempt failed",
					slog.String("id", videoID), slog.String("lang", l), slog.String("fmt", f), slog.Any("error", err))
			}
			return Caption{}, false
		}
		return c, true
	}

	if listed := u.listTrackLangs(ctx, videoID); len(listed) > 0 {
		for _, l := range dedupe(append(append([]string{lang}, listed...), trackListLangs...)) {
			if c, ok := attempt(l, "srv3"); ok {
				return c, nil
			}
			if err := ctx.Err(); err != nil {
				return Caption{}, err
			}
		}
	}

	for _, l := range dedupe(append([]string{lang}, gridLangs...)) {
		for _, f := range captionFormats {
			if c, ok := attempt(l, f); ok {
				return c, nil
			}
			if err := ctx.Err(); err != nil {
				return Caption{}, err
			}
		}
	}

	if !u.cfg.DisablePageScrape {
		c, err := u.fetchViaWatchPage(ctx, videoID, dedupe(append([]string{lang}, gridLangs...)))
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil {
			return Caption{}, ctx.Err()
		}
		slog.Debug("watch page scrape failed", slog.String("id", videoID), slog.Any("error", err))
	}

	return Caption{}, fmt.Errorf("%w: %s", ErrCaptionsNotFound, videoID)
}

// listTrackLangs returns the language codes YouTube advertises for videoID.
// Failures yield an empty list.
func (u *Upstream) listTrackLangs(ctx context.Context, videoID string) []string {
	q := url.Values{"v": {videoID}, "type": {"list"}}
	data, err := u.getWithRetry(ctx, u.cfg.BaseURL+"/api/timedtext?"+q.Encode())
	if err != nil {
		slog.Debug("track list unavailable", slog.String("id", videoID), slog.Any("error", err))
		return nil
	}
	var langs []string
	for _, m := range langCodeRe.FindAllSubmatch(data, -1) {
		langs = append(langs, string(m[1]))
	}
	return langs
}

func (u *Upstream) fetchTimedText(ctx context.Context, videoID, lang, format string) (Caption, error) {
	q := url.Values{"v": {videoID}, "lang": {lang}, "fmt": {format}}
	data, err := u.getWithRetry(ctx, u.cfg.BaseURL+"/api/timedtext?"+q.Encode())
	if err != nil {
		return Caption{}, err
	}
	if !acceptCaptionBody(data) {
		return Caption{}, errEmptyCaptions
	}
	return newCaption(data, lang, format), nil
}

// acceptCaptionBody reports whether data is a caption document with at least one cue.
func acceptCaptionBody(data []byte) bool {
	if !LooksLikeCaptionXML(data) && !LooksLikeVTT(data) {
		return false
	}
	segs, err := Normalize(data)
	return err == nil && len(segs) > 0
}

func newCaption(data []byte, lang, format string) Caption {
	ct := "application/xml"
	if LooksLikeVTT(data) {
		ct = "text/vtt"
	}
	return Caption{Body: data, ContentType: ct, Language: lang, Format: format}
}

// getWithRetry GETs rawURL, retrying transient failures per cfg.Retry.
// Any non-200 status is an *engine.HTTPStatusError.
func (u *Upstream) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	return engine.RetryDo(ctx, u.cfg.Retry, func() ([]byte, error) {
		data, status, err := u.get(ctx, rawURL)
		if err != nil {
			engine.IncrUpstreamErrors()
			return nil, err
		}
		if status != http.StatusOK {
			return nil, &engine.HTTPStatusError{StatusCode: status}
		}
		return data, nil
	})
}

// get performs a single GET through the browser client when configured,
// otherwise through the plain client.
func (u *Upstream) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if u.cfg.Browser != nil {
		headers := engine.ChromeHeaders()
		headers["accept-language"] = "en-US,en;q=0.9"
		data, _, status, err := u.cfg.Browser.Do(http.MethodGet, rawURL, headers, nil)
		if err != nil {
			return nil, 0, err
		}
		if int64(len(data)) > u.cfg.MaxBodyBytes {
			data = data[:u.cfg.MaxBodyBytes]
		}
		return data, status, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", engine.RandomUserAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := u.cfg.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, u.cfg.MaxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// dedupe drops repeats and blanks, keeping first occurrence order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
