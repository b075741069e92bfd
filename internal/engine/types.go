package engine

// --- Core transcript types ---

// Segment is one timed unit of transcript text. Start and Duration are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// --- Tool inputs ---

type TranscriptInput struct {
	URL      string `json:"url" jsonschema:"YouTube watch, short or embed URL, or a bare 11-character video ID"`
	Language string `json:"language,omitempty" jsonschema:"Caption language code, e.g. en, es (default: en)"`
	Format   string `json:"format,omitempty" jsonschema:"Output shape: segments (default), text (blank-line separated), timestamped ([m:ss] per line), copy (single line)"`
}

type TranscriptSearchInput struct {
	URL      string `json:"url" jsonschema:"YouTube watch, short or embed URL, or a bare 11-character video ID"`
	Query    string `json:"query" jsonschema:"Case-insensitive text to find in the transcript"`
	Language string `json:"language,omitempty" jsonschema:"Caption language code (default: en)"`
}

type TranscriptAtInput struct {
	URL      string  `json:"url" jsonschema:"YouTube watch, short or embed URL, or a bare 11-character video ID"`
	Seconds  float64 `json:"seconds" jsonschema:"Playback position in seconds"`
	Language string  `json:"language,omitempty" jsonschema:"Caption language code (default: en)"`
}

// --- Tool outputs ---

type TranscriptOutput struct {
	VideoID  string    `json:"video_id"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments,omitempty"`
	Text     string    `json:"text,omitempty"`
	Filename string    `json:"filename,omitempty"`
}

// SearchMatch is a segment hit with its display timestamp.
type SearchMatch struct {
	Timestamp string  `json:"timestamp"` // m:ss
	Start     float64 `json:"start"`
	Text      string  `json:"text"`
}

type TranscriptSearchOutput struct {
	VideoID string        `json:"video_id"`
	Query   string        `json:"query"`
	Total   int           `json:"total"`
	Matches []SearchMatch `json:"matches"`
}

// TranscriptAtOutput reports the segment playing at a position; Segment is nil between captions.
type TranscriptAtOutput struct {
	VideoID   string   `json:"video_id"`
	Seconds   float64  `json:"seconds"`
	Index     int      `json:"index"` // -1 when nothing is playing
	Timestamp string   `json:"timestamp,omitempty"`
	Segment   *Segment `json:"segment,omitempty"`
}
