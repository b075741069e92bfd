package sources

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// vttTimestampTagRe matches karaoke-style inline timestamps.
var vttTimestampTagRe = regexp.MustCompile(`<\d[^>]*>`)

// NormalizeVTT converts WebVTT cues into segments. Cue settings after the
// end timestamp and inline tags (<c>, <00:00:01.000>) are dropped.
func NormalizeVTT(body []byte) []engine.Segment {
	var (
		segs []engine.Segment
		cur  *engine.Segment
		text []string
	)
	flush := func() {
		if cur != nil {
			joined := vttTimestampTagRe.ReplaceAllString(strings.Join(text, "\n"), "")
			cur.Text = engine.CleanCaptionText(joined)
			segs = append(segs, *cur)
		}
		cur, text = nil, nil
	}

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			flush()
			start, end, ok := parseCueTiming(line)
			if !ok {
				continue
			}
			cur = &engine.Segment{Start: start, Duration: max(end-start, 0)}
		case cur != nil:
			text = append(text, line)
		}
	}
	flush()
	return segs
}

func parseCueTiming(line string) (start, end float64, ok bool) {
	left, right, found := strings.Cut(line, "-->")
	if !found {
		return 0, 0, false
	}
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, false
	}
	start, ok1 := parseVTTTimestamp(strings.TrimSpace(left))
	end, ok2 := parseVTTTimestamp(fields[0])
	return start, end, ok1 && ok2
}

// parseVTTTimestamp accepts hh:mm:ss.mmm and mm:ss.mmm.
func parseVTTTimestamp(s string) (float64, bool) {
	parts := strings.Split(strings.Replace(s, ",", ".", 1), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		if i < len(parts)-1 {
			total = (total + v) * 60
		} else {
			total += v
		}
	}
	return total, true
}
