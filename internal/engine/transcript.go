package engine

import (
	"fmt"
	"math"
	"strings"
)

// NonBlank drops segments whose trimmed text is empty.
func NonBlank(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterSegments returns segments containing query, case-insensitively.
// An empty query returns segs unchanged.
func FilterSegments(segs []Segment, query string) []Segment {
	if query == "" {
		return segs
	}
	q := strings.ToLower(query)
	var out []Segment
	for _, s := range segs {
		if strings.Contains(strings.ToLower(s.Text), q) {
			out = append(out, s)
		}
	}
	return out
}

// SegmentAt returns the index of the segment playing at t seconds
// (start <= t < start+duration), or -1.
func SegmentAt(segs []Segment, t float64) int {
	for i, s := range segs {
		if t >= s.Start && t < s.Start+s.Duration {
			return i
		}
	}
	return -1
}

// FormatTimestamp renders seconds as m:ss. Minutes are not wrapped into hours.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// CopyText joins segment texts with single spaces (clipboard form).
func CopyText(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// ExportText joins segment texts with blank lines (download form).
func ExportText(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Text
	}
	return strings.Join(parts, "\n\n")
}

// ExportTimestamped renders one "[m:ss] text" line per segment.
func ExportTimestamped(segs []Segment) string {
	var sb strings.Builder
	for i, s := range segs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s] %s", FormatTimestamp(s.Start), s.Text)
	}
	return sb.String()
}

// ExportFilename is the download name for a transcript export.
func ExportFilename(videoID string) string {
	return "youtube-transcript-" + videoID + ".txt"
}
