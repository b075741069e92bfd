package transcriptserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Output formats accepted by youtube_transcript.
const (
	FormatSegments    = "segments"
	FormatText        = "text"
	FormatTimestamped = "timestamped"
	FormatCopy        = "copy"
)

// RegisterTools registers the transcript tools on the given MCP server
// (youtube_transcript, transcript_search, transcript_at) and returns how
// many were registered.
func RegisterTools(server *mcp.Server, r toolutil.Resolver) int {
	registrations := []func(){
		func() {
			mcp.AddTool(server, &mcp.Tool{
				Name:        "youtube_transcript",
				Description: "Fetch the caption transcript of a YouTube video. Accepts watch, youtu.be and embed URLs or a bare video ID. Falls back across several transcript services and to English when the requested language is unavailable. Returns timed segments, plain text (paragraph per segment, or a single line with format=copy), or [m:ss] timestamped lines.",
				Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
			}, transcriptHandler(r))
		},
		func() {
			mcp.AddTool(server, &mcp.Tool{
				Name:        "transcript_search",
				Description: "Find every transcript segment of a YouTube video containing the query (case-insensitive). Returns matches with m:ss timestamps.",
				Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
			}, searchHandler(r))
		},
		func() {
			mcp.AddTool(server, &mcp.Tool{
				Name:        "transcript_at",
				Description: "Return the transcript segment playing at a given position (seconds) of a YouTube video.",
				Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
			}, atHandler(r))
		},
	}
	for _, register := range registrations {
		register()
	}
	return len(registrations)
}

func transcriptHandler(r toolutil.Resolver) func(context.Context, *mcp.CallToolRequest, engine.TranscriptInput) (*mcp.CallToolResult, engine.TranscriptOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TranscriptInput) (*mcp.CallToolResult, engine.TranscriptOutput, error) {
		format := strings.ToLower(strings.TrimSpace(input.Format))
		switch format {
		case "", FormatSegments, FormatText, FormatTimestamped, FormatCopy:
		default:
			return nil, engine.TranscriptOutput{}, fmt.Errorf("unknown format %q (want segments, text, timestamped or copy)", input.Format)
		}

		t, err := toolutil.ParseTarget(input.URL, input.Language)
		if err != nil {
			return nil, engine.TranscriptOutput{}, err
		}
		segs, err := toolutil.ResolveCached(ctx, r, t)
		if err != nil {
			return nil, engine.TranscriptOutput{}, err
		}

		out := engine.TranscriptOutput{VideoID: t.VideoID, Language: t.Language}
		switch format {
		case FormatText:
			out.Text = engine.ExportText(segs)
			out.Filename = engine.ExportFilename(t.VideoID)
		case FormatTimestamped:
			out.Text = engine.ExportTimestamped(segs)
			out.Filename = engine.ExportFilename(t.VideoID)
		case FormatCopy:
			out.Text = engine.CopyText(segs)
		default:
			out.Segments = segs
		}
		return nil, out, nil
	}
}

func searchHandler(r toolutil.Resolver) func(context.Context, *mcp.CallToolRequest, engine.TranscriptSearchInput) (*mcp.CallToolResult, engine.TranscriptSearchOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TranscriptSearchInput) (*mcp.CallToolResult, engine.TranscriptSearchOutput, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, engine.TranscriptSearchOutput{}, fmt.Errorf("query is required")
		}
		t, err := toolutil.ParseTarget(input.URL, input.Language)
		if err != nil {
			return nil, engine.TranscriptSearchOutput{}, err
		}
		segs, err := toolutil.ResolveCached(ctx, r, t)
		if err != nil {
			return nil, engine.TranscriptSearchOutput{}, err
		}

		hits := engine.FilterSegments(segs, query)
		matches := make([]engine.SearchMatch, 0, len(hits))
		for _, s := range hits {
			matches = append(matches, engine.SearchMatch{
				Timestamp: engine.FormatTimestamp(s.Start),
				Start:     s.Start,
				Text:      s.Text,
			})
		}
		return nil, engine.TranscriptSearchOutput{
			VideoID: t.VideoID,
			Query:   query,
			Total:   len(matches),
			Matches: matches,
		}, nil
	}
}

func atHandler(r toolutil.Resolver) func(context.Context, *mcp.CallToolRequest, engine.TranscriptAtInput) (*mcp.CallToolResult, engine.TranscriptAtOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TranscriptAtInput) (*mcp.CallToolResult, engine.TranscriptAtOutput, error) {
		if input.Seconds < 0 {
			return nil, engine.TranscriptAtOutput{}, fmt.Errorf("seconds must be non-negative")
		}
		t, err := toolutil.ParseTarget(input.URL, input.Language)
		if err != nil {
			return nil, engine.TranscriptAtOutput{}, err
		}
		segs, err := toolutil.ResolveCached(ctx, r, t)
		if err != nil {
			return nil, engine.TranscriptAtOutput{}, err
		}

		out := engine.TranscriptAtOutput{VideoID: t.VideoID, Seconds: input.Seconds, Index: engine.SegmentAt(segs, input.Seconds)}
		if out.Index >= 0 {
			seg := segs[out.Index]
			out.Segment = &seg
			out.Timestamp = engine.FormatTimestamp(seg.Start)
		}
		return nil, out, nil
	}
}
