package sources

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PayloadKind is the response shape a source is expected to return.
type PayloadKind string

const (
	KindXML  PayloadKind = "xml"
	KindJSON PayloadKind = "json"
)

// SourceDescriptor is one entry of the ordered fallback chain.
// URL and Body are templates: {videoId} and {lang} are substituted
// (query-escaped in URL, JSON-escaped in Body).
type SourceDescriptor struct {
	Name   string      `yaml:"name" json:"name"`
	URL    string      `yaml:"url" json:"url"`
	Kind   PayloadKind `yaml:"kind" json:"kind"`
	Method string      `yaml:"method,omitempty" json:"method,omitempty"`
	Body   string      `yaml:"body,omitempty" json:"body,omitempty"`
}

// Default third-party endpoints, tried after the relay.
const (
	youtubeTranscriptsURL = "https://youtubetranscripts.app/api?videoId={videoId}&lang={lang}"
	tubeTextURL           = "https://tubetext.vercel.app/api/transcript?videoId={videoId}&lang={lang}"
	getVideoTranscriptURL = "https://getvideotranscript.com/api?videoId={videoId}&lang={lang}"
	ytTimedTextURL        = "https://www.youtube.com/api/timedtext?v={videoId}&lang={lang}"
)

// DefaultDescriptors returns the built-in chain: relay first (when relayURL is set),
// then third-party JSON APIs, then the direct YouTube timedtext endpoint.
func DefaultDescriptors(relayURL string) []SourceDescriptor {
	var ds []SourceDescriptor
	if relayURL != "" {
		ds = append(ds, SourceDescriptor{
			Name:   "relay",
			URL:    relayURL,
			Kind:   KindXML,
			Method: http.MethodPost,
			Body:   `{"videoId":"{videoId}","lang":"{lang}"}`,
		})
	}
	return append(ds,
		SourceDescriptor{Name: "youtubetranscripts", URL: youtubeTranscriptsURL, Kind: KindJSON},
		SourceDescriptor{Name: "tubetext", URL: tubeTextURL, Kind: KindJSON},
		SourceDescriptor{Name: "getvideotranscript", URL: getVideoTranscriptURL, Kind: KindJSON},
		SourceDescriptor{Name: "youtube-timedtext", URL: ytTimedTextURL, Kind: KindXML},
	)
}

// LoadDescriptors reads an ordered descriptor list from a YAML file:
//
//	sources:
//	  - name: relay
//	    url: http://127.0.0.1:8892/api/transcript
//	    kind: xml
//	    method: POST
//	    body: '{"videoId":"{videoId}","lang":"{lang}"}'
func LoadDescriptors(path string) ([]SourceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var doc struct {
		Sources []SourceDescriptor `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	out := make([]SourceDescriptor, 0, len(doc.Sources))
	for i, d := range doc.Sources {
		if d.URL == "" {
			return nil, fmt.Errorf("sources[%d]: url is required", i)
		}
		switch d.Kind {
		case KindXML, KindJSON:
		case "":
			d.Kind = KindJSON
		default:
			return nil, fmt.Errorf("sources[%d]: unknown kind %q", i, d.Kind)
		}
		if d.Name == "" {
			d.Name = fmt.Sprintf("source-%d", i+1)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sources file %s: no sources defined", path)
	}
	return out, nil
}

// Candidate is a descriptor expanded for one (video, language) pair.
type Candidate struct {
	Name     string
	URL      string
	Kind     PayloadKind
	Method   string
	Body     string
	Language string
}

// Expand substitutes videoID and lang into the descriptor templates.
func (d SourceDescriptor) Expand(videoID, lang string) Candidate {
	method := strings.ToUpper(d.Method)
	if method == "" {
		method = http.MethodGet
	}
	u := strings.NewReplacer(
		"{videoId}", url.QueryEscape(videoID),
		"{lang}", url.QueryEscape(lang),
	).Replace(d.URL)
	var body string
	if d.Body != "" {
		body = strings.NewReplacer(
			"{videoId}", jsonEscape(videoID),
			"{lang}", jsonEscape(lang),
		).Replace(d.Body)
	}
	return Candidate{Name: d.Name, URL: u, Kind: d.Kind, Method: method, Body: body, Language: lang}
}

// Candidates builds the ordered attempt list. A non-English request is
// followed by the whole chain again with the language forced to "en".
func Candidates(descriptors []SourceDescriptor, videoID, lang string) []Candidate {
	out := make([]Candidate, 0, 2*len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Expand(videoID, lang))
	}
	if lang != "en" {
		for _, d := range descriptors {
			out = append(out, d.Expand(videoID, "en"))
		}
	}
	return out
}

func jsonEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}
