package sources

import (
	"bytes"
	"errors"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/tidwall/gjson"
)

// Caption normalization.
// Responses are sniffed, not trusted by declared kind: relays and proxies
// routinely return XML from "JSON" endpoints and vice versa.

var (
	errNotJSON       = errors.New("response is neither caption XML nor JSON")
	errEmptyCaptions = errors.New("no caption text in response")
)

// captionXMLMarkers identify YouTube timedtext bodies (srv1/srv2/srv3/ttml).
var captionXMLMarkers = [][]byte{
	[]byte("<transcript"),
	[]byte("<text"),
	[]byte("<timedtext"),
	[]byte("<tt "),
	[]byte("<tt>"),
}

var utf8BOM = []byte("\xef\xbb\xbf")

// LooksLikeCaptionXML reports whether body carries a timedtext tag marker.
func LooksLikeCaptionXML(body []byte) bool {
	for _, m := range captionXMLMarkers {
		if bytes.Contains(body, m) {
			return true
		}
	}
	return false
}

// LooksLikeVTT reports whether body is a WebVTT document.
func LooksLikeVTT(body []byte) bool {
	b := bytes.TrimPrefix(bytes.TrimSpace(body), utf8BOM)
	return bytes.HasPrefix(b, []byte("WEBVTT"))
}

// Normalize converts a caption response of unknown shape into non-blank segments.
// An empty result with nil error means the payload parsed but carried no captions.
func Normalize(body []byte) ([]engine.Segment, error) {
	trimmed := bytes.TrimPrefix(bytes.TrimSpace(body), utf8BOM)
	switch {
	case len(trimmed) == 0:
		return nil, errEmptyCaptions
	case trimmed[0] == '<' && LooksLikeCaptionXML(trimmed):
		segs, err := NormalizeXML(trimmed)
		return engine.NonBlank(segs), err
	case LooksLikeVTT(trimmed):
		return engine.NonBlank(NormalizeVTT(trimmed)), nil
	case gjson.ValidBytes(trimmed):
		return NormalizeJSON(trimmed), nil
	case LooksLikeCaptionXML(trimmed):
		segs, err := NormalizeXML(trimmed)
		return engine.NonBlank(segs), err
	}
	return nil, errNotJSON
}
