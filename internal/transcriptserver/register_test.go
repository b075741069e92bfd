package transcriptserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	calls int
	lang  string
	segs  []engine.Segment
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, language string) ([]engine.Segment, error) {
	f.calls++
	f.lang = language
	return f.segs, f.err
}

var testSegments = []engine.Segment{
	{Text: "Welcome to the show", Start: 0, Duration: 4},
	{Text: "Today we talk about Go", Start: 4, Duration: 5},
	{Text: "go routines are cheap", Start: 75, Duration: 3},
}

func init() {
	engine.InitCache("", time.Minute, 100, time.Minute)
}

func TestRegisterToolsCount(t *testing.T) {
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	n := RegisterTools(server, &fakeResolver{segs: testSegments})

	clientT, serverT := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, n)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"youtube_transcript", "transcript_search", "transcript_at"}, names)
}

func TestTranscriptFormats(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		format string
		check  func(t *testing.T, out engine.TranscriptOutput)
	}{
		{"default segments", "aaaaaaaaaa1", "", func(t *testing.T, out engine.TranscriptOutput) {
			assert.Equal(t, testSegments, out.Segments)
			assert.Empty(t, out.Text)
		}},
		{"text", "aaaaaaaaaa2", "text", func(t *testing.T, out engine.TranscriptOutput) {
			assert.Equal(t, engine.ExportText(testSegments), out.Text)
			assert.Equal(t, "youtube-transcript-aaaaaaaaaa2.txt", out.Filename)
			assert.Empty(t, out.Segments)
		}},
		{"timestamped", "aaaaaaaaaa3", "Timestamped", func(t *testing.T, out engine.TranscriptOutput) {
			assert.Contains(t, out.Text, "[1:15] go routines are cheap")
		}},
		{"copy", "aaaaaaaaaa4", "copy", func(t *testing.T, out engine.TranscriptOutput) {
			assert.Equal(t, "Welcome to the show Today we talk about Go go routines are cheap", out.Text)
			assert.Empty(t, out.Filename)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{segs: testSegments}
			_, out, err := transcriptHandler(r)(context.Background(), nil, engine.TranscriptInput{
				URL:    "https://www.youtube.com/watch?v=" + tt.id,
				Format: tt.format,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.id, out.VideoID)
			assert.Equal(t, "en", out.Language)
			tt.check(t, out)
		})
	}
}

func TestTranscriptInvalidInput(t *testing.T) {
	r := &fakeResolver{segs: testSegments}

	_, _, err := transcriptHandler(r)(context.Background(), nil, engine.TranscriptInput{URL: "not a url"})
	assert.ErrorIs(t, err, engine.ErrInvalidVideoURL)

	_, _, err = transcriptHandler(r)(context.Background(), nil, engine.TranscriptInput{URL: "bbbbbbbbbb1", Format: "pdf"})
	assert.ErrorContains(t, err, "unknown format")

	assert.Zero(t, r.calls, "no resolution for malformed input")
}

func TestTranscriptCached(t *testing.T) {
	r := &fakeResolver{segs: testSegments}
	h := transcriptHandler(r)
	in := engine.TranscriptInput{URL: "https://youtu.be/ccccccccccc", Language: "de"}

	_, first, err := h(context.Background(), nil, in)
	require.NoError(t, err)
	_, second, err := h(context.Background(), nil, in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, "de", r.lang)
}

func TestTranscriptResolutionError(t *testing.T) {
	r := &fakeResolver{err: &sources.ResolutionError{VideoID: "ddddddddddd", Language: "en"}}
	_, _, err := transcriptHandler(r)(context.Background(), nil, engine.TranscriptInput{URL: "ddddddddddd"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sources.ErrNoTranscript)
	assert.Equal(t, sources.NoTranscriptMessage, err.Error())

	// failures are not cached
	r.err, r.segs = nil, testSegments
	_, out, err := transcriptHandler(r)(context.Background(), nil, engine.TranscriptInput{URL: "ddddddddddd"})
	require.NoError(t, err)
	assert.Len(t, out.Segments, 3)
}

func TestSearch(t *testing.T) {
	r := &fakeResolver{segs: testSegments}
	_, out, err := searchHandler(r)(context.Background(), nil, engine.TranscriptSearchInput{
		URL:   "https://www.youtube.com/embed/eeeeeeeeeee",
		Query: "GO",
	})
	require.NoError(t, err)
	assert.Equal(t, "eeeeeeeeeee", out.VideoID)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, []engine.SearchMatch{
		{Timestamp: "0:04", Start: 4, Text: "Today we talk about Go"},
		{Timestamp: "1:15", Start: 75, Text: "go routines are cheap"},
	}, out.Matches)
}

func TestSearchRequiresQuery(t *testing.T) {
	r := &fakeResolver{segs: testSegments}
	_, _, err := searchHandler(r)(context.Background(), nil, engine.TranscriptSearchInput{URL: "fffffffffff", Query: "  "})
	assert.ErrorContains(t, err, "query is required")
	assert.Zero(t, r.calls)
}

func TestAt(t *testing.T) {
	r := &fakeResolver{segs: testSegments}
	h := atHandler(r)

	_, out, err := h(context.Background(), nil, engine.TranscriptAtInput{URL: "ggggggggggg", Seconds: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Index)
	require.NotNil(t, out.Segment)
	assert.Equal(t, "Today we talk about Go", out.Segment.Text)
	assert.Equal(t, "0:04", out.Timestamp)

	_, out, err = h(context.Background(), nil, engine.TranscriptAtInput{URL: "ggggggggggg", Seconds: 30})
	require.NoError(t, err)
	assert.Equal(t, -1, out.Index)
	assert.Nil(t, out.Segment)

	_, _, err = h(context.Background(), nil, engine.TranscriptAtInput{URL: "ggggggggggg", Seconds: -1})
	assert.Error(t, err)
}

func TestResolverErrorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	r := &fakeResolver{err: boom}
	_, _, err := searchHandler(r)(context.Background(), nil, engine.TranscriptSearchInput{URL: "hhhhhhhhhhh", Query: "x"})
	assert.ErrorIs(t, err, boom)
}
