package sources

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/tidwall/gjson"
)

// Provider JSON envelopes differ per service and drift over time.
// Each probe recognises one family of shapes; the first probe whose
// blank-filtered result is non-empty wins.

type jsonProbe struct {
	name  string
	probe func(gjson.Result) []engine.Segment
}

var jsonProbes = []jsonProbe{
	{"proxy-wrapped", probeProxyWrapped},
	{"flat-array", probeFlatArray},
	{"wrapped-array", probeWrappedArray},
	{"full-text", probeFullText},
}

// Synonymous field names seen across providers, in priority order.
var (
	proxyBodyKeys  = []string{"contents", "body", "data"}
	itemTextKeys   = []string{"text", "transcript", "caption", "content"}
	itemStartKeys  = []string{"start", "startTime", "offset", "timestamp"}
	itemDurKeys    = []string{"duration", "dur"}
	wrapperKeys    = []string{"transcript", "segments", "captions", "items"}
	fullTextKeys   = []string{"text", "transcript"}
	defaultItemDur = 3.0
)

// Synthetic timing for full-text payloads, which carry none.
const fullTextCadence = 3.0

// NormalizeJSON runs the probe pipeline over a decoded payload of unknown shape.
func NormalizeJSON(body []byte) []engine.Segment {
	root := gjson.ParseBytes(body)
	for _, p := range jsonProbes {
		if segs := engine.NonBlank(p.probe(root)); len(segs) > 0 {
			slog.Debug("json shape matched", slog.String("probe", p.name), slog.Int("segments", len(segs)))
			return segs
		}
	}
	return nil
}

// probeProxyWrapped handles a CORS-proxy envelope whose string field holds the
// upstream body: json3 timed events ({"events":[{"tStartMs","dDurationMs","segs":[{"utf8"}]}]})
// or raw timedtext XML. Unwrapped json3 payloads are accepted as well.
func probeProxyWrapped(root gjson.Result) []engine.Segment {
	inner := root
	if root.IsObject() {
		for _, k := range proxyBodyKeys {
			v := root.Get(k)
			if v.Type != gjson.String {
				continue
			}
			if gjson.Valid(v.Str) {
				inner = gjson.Parse(v.Str)
				break
			}
			if LooksLikeCaptionXML([]byte(v.Str)) {
				segs, _ := NormalizeXML([]byte(v.Str))
				return segs
			}
		}
	}

	events := inner.Get("events")
	if !events.IsArray() {
		return nil
	}
	var segs []engine.Segment
	events.ForEach(func(_, ev gjson.Result) bool {
		runs := ev.Get("segs")
		if !runs.IsArray() {
			return true
		}
		var sb strings.Builder
		runs.ForEach(func(_, run gjson.Result) bool {
			sb.WriteString(run.Get("utf8").String())
			return true
		})
		segs = append(segs, engine.Segment{
			Text:     engine.CleanCaptionText(sb.String()),
			Start:    ev.Get("tStartMs").Float() / 1000,
			Duration: ev.Get("dDurationMs").Float() / 1000,
		})
		return true
	})
	return segs
}

// probeFlatArray handles [{"text":..,"start":..,"duration":..}, ...].
func probeFlatArray(root gjson.Result) []engine.Segment {
	if !root.IsArray() {
		return nil
	}
	return segmentsFromItems(root)
}

// probeWrappedArray handles {"transcript"|"segments"|"captions"|"items": [...]}.
func probeWrappedArray(root gjson.Result) []engine.Segment {
	if !root.IsObject() {
		return nil
	}
	for _, k := range wrapperKeys {
		v := root.Get(k)
		if !v.IsArray() {
			continue
		}
		if segs := engine.NonBlank(segmentsFromItems(v)); len(segs) > 0 {
			return segs
		}
	}
	return nil
}

// probeFullText handles {"text": "whole transcript"} by splitting it into
// synthetic segments at a fixed cadence.
func probeFullText(root gjson.Result) []engine.Segment {
	if !root.IsObject() {
		return nil
	}
	for _, k := range fullTextKeys {
		v := root.Get(k)
		if v.Type != gjson.String || strings.TrimSpace(v.Str) == "" {
			continue
		}
		parts := splitFullText(v.Str)
		segs := make([]engine.Segment, 0, len(parts))
		for i, p := range parts {
			segs = append(segs, engine.Segment{
				Text:     p,
				Start:    float64(i) * fullTextCadence,
				Duration: fullTextCadence,
			})
		}
		return segs
	}
	return nil
}

func segmentsFromItems(arr gjson.Result) []engine.Segment {
	var segs []engine.Segment
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		seg := engine.Segment{
			Text:     engine.CleanCaptionText(firstString(item, itemTextKeys)),
			Start:    firstNumber(item, itemStartKeys),
			Duration: firstNumber(item, itemDurKeys),
		}
		if seg.Duration == 0 {
			seg.Duration = defaultItemDur
		}
		segs = append(segs, seg)
		return true
	})
	return segs
}

// firstString returns the first non-empty string-ish value among keys.
func firstString(item gjson.Result, keys []string) string {
	for _, k := range keys {
		v := item.Get(k)
		if v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
		if v.Type == gjson.Number {
			return v.Raw
		}
	}
	return ""
}

// firstNumber returns the first non-zero numeric value among keys.
// Numeric strings ("12.5") are accepted; negatives are clamped to 0.
func firstNumber(item gjson.Result, keys []string) float64 {
	for _, k := range keys {
		if f := item.Get(k).Float(); f > 0 {
			return f
		}
	}
	return 0
}

var (
	lineBreakRe = regexp.MustCompile(`\s*\n\s*`)
	sentenceRe  = regexp.MustCompile(`[^.!?]+(?:[.!?]+["')\]]*|$)`)
)

// splitFullText splits on line breaks (blank lines included); text without
// line breaks is split on sentence terminators instead.
func splitFullText(s string) []string {
	var parts []string
	for _, p := range lineBreakRe.Split(strings.TrimSpace(s), -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 {
		return parts
	}
	var sentences []string
	for _, m := range sentenceRe.FindAllString(strings.TrimSpace(s), -1) {
		if m = strings.TrimSpace(m); m != "" {
			sentences = append(sentences, m)
		}
	}
	if len(sentences) == 0 {
		return parts
	}
	return sentences
}
