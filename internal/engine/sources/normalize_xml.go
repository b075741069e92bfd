package sources

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// NormalizeXML projects every caption node into a segment:
//
//	srv1: <transcript><text start="1.5" dur="2.0">Hello</text></transcript>   (seconds)
//	srv2: <timedtext><text t="1500" d="2000">Hello</text></timedtext>           (ms)
//	srv3: <timedtext><body><p t="1500" d="2000"><s>Hel</s><s>lo</s></p>...    (ms)
//	ttml: <tt><body><div><p begin="00:00:01.500" end="00:00:03.500">Hello</p>  (clock)
//
// Missing or unparseable timing defaults to 0. Blank nodes are kept.
func NormalizeXML(body []byte) ([]engine.Segment, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var segs []engine.Segment
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return segs, nil
		}
		if err != nil {
			if len(segs) > 0 {
				return segs, nil
			}
			return nil, fmt.Errorf("parse caption XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "text":
		case "p":
			_, hasT := attr(start, "t")
			_, hasBegin := attr(start, "begin")
			if !hasT && !hasBegin {
				continue
			}
		default:
			continue
		}
		seg := captionTiming(start)
		text, err := collectText(dec)
		if err != nil && len(text) == 0 {
			return segs, nil
		}
		seg.Text = engine.CleanCaptionText(text)
		segs = append(segs, seg)
	}
}

// captionTiming reads start/dur (seconds), t/d (milliseconds) or begin/end (clock).
func captionTiming(el xml.StartElement) engine.Segment {
	var seg engine.Segment
	if v, ok := attr(el, "begin"); ok {
		seg.Start = parseClock(v)
		if e, ok := attr(el, "end"); ok {
			seg.Duration = max(parseClock(e)-seg.Start, 0)
		} else if d, ok := attr(el, "dur"); ok {
			seg.Duration = parseClock(d)
		}
		return seg
	}
	if v, ok := attr(el, "start"); ok {
		seg.Start = parseSeconds(v)
		if d, ok := attr(el, "dur"); ok {
			seg.Duration = parseSeconds(d)
		}
		return seg
	}
	if v, ok := attr(el, "t"); ok {
		seg.Start = parseSeconds(v) / 1000
	}
	if d, ok := attr(el, "d"); ok {
		seg.Duration = parseSeconds(d) / 1000
	} else if d, ok := attr(el, "dur"); ok {
		seg.Duration = parseSeconds(d)
	}
	return seg
}

// collectText concatenates character data up to the end of the element.
func collectText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return sb.String(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "br" {
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseSeconds(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// parseClock accepts TTML offsets: "00:00:01.500", "1.5s", "1500ms" or bare seconds.
func parseClock(s string) float64 {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, ":"):
		v, ok := parseVTTTimestamp(s)
		if !ok {
			return 0
		}
		return v
	case strings.HasSuffix(s, "ms"):
		return parseSeconds(strings.TrimSuffix(s, "ms")) / 1000
	case strings.HasSuffix(s, "s"):
		return parseSeconds(strings.TrimSuffix(s, "s"))
	}
	return parseSeconds(s)
}
