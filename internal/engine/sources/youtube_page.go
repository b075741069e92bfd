package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/tidwall/gjson"
)

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

type captionTrack struct {
	BaseURL      string
	LanguageCode string
	Kind         string // "asr" = auto-generated
}

// fetchViaWatchPage scrapes the watch page, picks a caption track from
// ytInitialPlayerResponse and downloads its timedtext document.
func (u *Upstream) fetchViaWatchPage(ctx context.Context, videoID string, langs []string) (Caption, error) {
	engine.IncrPageScrapes()

	page, err := u.fetchWatchPage(ctx, videoID)
	if err != nil {
		return Caption{}, fmt.Errorf("watch page: %w", err)
	}
	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return Caption{}, err
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return Caption{}, errors.New("all tracks require PoToken")
	}

	data, err := u.getWithRetry(ctx, track.BaseURL)
	if err != nil {
		return Caption{}, fmt.Errorf("fetch track: %w", err)
	}
	if !acceptCaptionBody(data) {
		return Caption{}, errEmptyCaptions
	}
	return newCaption(data, track.LanguageCode, "track"), nil
}

// fetchWatchPage loads the watch HTML. Only 429/5xx and transport errors are retried.
func (u *Upstream) fetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	q := url.Values{"v": {videoID}}
	return u.getWithRetry(ctx, u.cfg.BaseURL+"/watch?"+q.Encode())
}

// parseCaptionTracks pulls captionTracks out of the embedded player response.
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	idx := bytes.Index(page, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	raw := extractJSON(page[idx+len(ytInitialPlayerResponseMarker):])
	if raw == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	list := gjson.GetBytes(raw, "captions.playerCaptionsTracklistRenderer.captionTracks")
	if !list.IsArray() {
		if reason := gjson.GetBytes(raw, "playabilityStatus.reason").String(); reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", reason)
		}
		return nil, errors.New("no captions in ytInitialPlayerResponse")
	}
	var tracks []captionTrack
	list.ForEach(func(_, t gjson.Result) bool {
		if base := t.Get("baseUrl").String(); base != "" {
			tracks = append(tracks, captionTrack{
				BaseURL:      base,
				LanguageCode: t.Get("languageCode").String(),
				Kind:         t.Get("kind").String(),
			})
		}
		return true
	})
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks in watch page")
	}
	return tracks, nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr, escaped := false, false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}
