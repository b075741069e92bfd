package engine

import (
	"errors"
	"regexp"
)

// ErrInvalidVideoURL is returned when input contains no recognizable video ID.
var ErrInvalidVideoURL = errors.New("please enter a valid YouTube URL")

// Tried in order; the first capture group of the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractVideoID maps a pasted watch/short/embed URL or a bare ID to the video ID.
// Pure string matching, no IO.
func ExtractVideoID(input string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(input); len(m) >= 2 {
			return m[1], true
		}
	}
	return "", false
}

// ParseVideoID is ExtractVideoID returning ErrInvalidVideoURL on no match.
func ParseVideoID(input string) (string, error) {
	id, ok := ExtractVideoID(input)
	if !ok {
		return "", ErrInvalidVideoURL
	}
	return id, nil
}
