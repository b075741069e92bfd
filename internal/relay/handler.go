package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/tidwall/gjson"
)

// Error bodies returned as {"error": "..."}.
const (
	msgVideoIDRequired = "videoId is required"
	msgInvalidJSON     = "Invalid JSON body"
	msgNotAvailable    = "Transcript not available for this video. The video may not have captions enabled."
	msgFetchFailed     = "Failed to fetch transcript"
)

const maxRequestBody = 64 * 1024

// CaptionFetcher retrieves a raw caption document. *sources.Upstream satisfies it.
type CaptionFetcher interface {
	Fetch(ctx context.Context, videoID, lang string) (sources.Caption, error)
}

// Handler serves the transcript relay endpoint.
type Handler struct {
	fetcher CaptionFetcher
}

func NewHandler(fetcher CaptionFetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

// Get handles GET ?videoId=..&lang=..
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serve(w, r, q.Get("videoId"), q.Get("lang"))
}

// Post handles a JSON body {"videoId": .., "lang"|"language": ..}.
// videoId may be a string or a number.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil || !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	var videoID string
	switch v := gjson.GetBytes(body, "videoId"); v.Type {
	case gjson.String:
		videoID = v.Str
	case gjson.Number:
		if v.Num != 0 {
			videoID = v.Raw
		}
	}

	var lang string
	for _, k := range []string{"lang", "language"} {
		if v := gjson.GetBytes(body, k); truthy(v) {
			lang = v.String()
			break
		}
	}
	h.serve(w, r, videoID, lang)
}

// Options answers bare OPTIONS requests; CORS preflights are handled by the middleware.
func (h *Handler) Options(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, videoID, lang string) {
	engine.IncrRelayRequests()
	if videoID == "" {
		writeError(w, http.StatusBadRequest, msgVideoIDRequired)
		return
	}
	lang = engine.NormLang(lang)

	caption, err := h.fetcher.Fetch(r.Context(), videoID, lang)
	if err != nil {
		if errors.Is(err, sources.ErrCaptionsNotFound) {
			engine.IncrRelayNotFound()
			writeError(w, http.StatusNotFound, msgNotAvailable)
			return
		}
		slog.Error("relay fetch failed",
			slog.String("id", videoID), slog.String("lang", lang), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	ct := caption.ContentType
	if ct == "" {
		ct = "application/xml"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	w.Write(caption.Body) //nolint:errcheck
}

// truthy mirrors loose JSON truthiness: null, false, 0 and "" are false.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True, gjson.JSON:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
