package toolutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

type countingResolver struct {
	calls int
	err   error
}

func (c *countingResolver) Resolve(_ context.Context, _, _ string) ([]engine.Segment, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []engine.Segment{{Text: "hi", Start: 0, Duration: 1}}, nil
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget("https://youtu.be/dQw4w9WgXcQ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.VideoID != "dQw4w9WgXcQ" || got.Language != "en" {
		t.Errorf("ParseTarget = %+v", got)
	}
	if _, err := ParseTarget("hello", "en"); !errors.Is(err, engine.ErrInvalidVideoURL) {
		t.Errorf("expected ErrInvalidVideoURL, got %v", err)
	}
}

func TestResolveCached(t *testing.T) {
	engine.InitCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()
	target := Target{VideoID: "toolutil-01", Language: "en"}

	failing := &countingResolver{err: errors.New("down")}
	if _, err := ResolveCached(ctx, failing, target); err == nil {
		t.Fatal("expected error")
	}

	r := &countingResolver{}
	for i := 0; i < 3; i++ {
		segs, err := ResolveCached(ctx, r, target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(segs) != 1 {
			t.Fatalf("got %d segments", len(segs))
		}
	}
	if r.calls != 1 {
		t.Errorf("resolver called %d times, want 1", r.calls)
	}
}
