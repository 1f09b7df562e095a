package agent

import (
	"errors"
	"testing"

	"github.com/haasonsaas/tonari/pkg/models"
)

func collect(t *testing.T, events []models.ModelEvent) ([]models.ClientEvent, error) {
	t.Helper()
	in := make(chan models.ModelEvent, len(events))
	for _, ev := range events {
		in <- ev
	}
	close(in)

	d := NewDemux(in)
	var out []models.ClientEvent
	for d.Next() {
		out = append(out, d.Event())
	}
	return out, d.Err()
}

func text(s string) models.ModelEvent {
	return models.ModelEvent{Kind: models.ModelEventText, Text: s}
}

func tool(name string) models.ModelEvent {
	return models.ModelEvent{Kind: models.ModelEventToolUse, ToolName: name}
}

func TestDemuxBracketing(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{
		text("Hi "),
		tool("search"),
		tool("search"),
		text("found"),
		tool("calc"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []models.ClientEvent{
		models.TextChunk("Hi "),
		models.ToolStart("search"),
		models.ToolEnd(),
		models.TextChunk("found"),
		models.ToolStart("calc"),
		models.ToolEnd(),
	}
	assertEvents(t, out, want)
}

func TestDemuxCollapsesRepeatedToolNotifications(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{
		tool("search"), tool("search"), tool("search"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	starts := 0
	for _, ev := range out {
		if ev.Type == models.EventToolStart {
			starts++
		}
	}
	if starts != 1 {
		t.Errorf("ToolStart count = %d, want 1", starts)
	}
}

func TestDemuxToolSwitchClosesPrevious(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{tool("a"), tool("b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.ClientEvent{
		models.ToolStart("a"),
		models.ToolEnd(),
		models.ToolStart("b"),
		models.ToolEnd(),
	}
	assertEvents(t, out, want)
}

func TestDemuxEmptyStream(t *testing.T) {
	out, err := collect(t, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no events, got %v", out)
	}
}

func TestDemuxEmitsEmptyTextChunks(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{text("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEvents(t, out, []models.ClientEvent{models.TextChunk("")})
}

func TestDemuxTextEndsInFlightTool(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{tool("search"), text("done")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.ClientEvent{
		models.ToolStart("search"),
		models.ToolEnd(),
		models.TextChunk("done"),
	}
	assertEvents(t, out, want)
}

func TestDemuxSkipsUnknownEvents(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{
		{Kind: models.ModelEventUnknown},
		text("a"),
		{Kind: models.ModelEventUnknown},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEvents(t, out, []models.ClientEvent{models.TextChunk("a")})
}

func TestDemuxExplicitDone(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{
		tool("search"),
		{Kind: models.ModelEventDone},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.ClientEvent{models.ToolStart("search"), models.ToolEnd()}
	assertEvents(t, out, want)
}

func TestDemuxSkipsUnnamedToolEvents(t *testing.T) {
	out, err := collect(t, []models.ModelEvent{
		tool("search"),
		tool(""),
		{Kind: models.ModelEventToolUse},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The unnamed events must not reset the bracket state: exactly one
	// matching ToolEnd closes the stream.
	want := []models.ClientEvent{models.ToolStart("search"), models.ToolEnd()}
	assertEvents(t, out, want)
}

func TestDemuxStreamError(t *testing.T) {
	streamErr := errors.New("upstream outage")
	out, err := collect(t, []models.ModelEvent{
		text("partial"),
		{Kind: models.ModelEventError, Err: streamErr},
	})
	if !errors.Is(err, streamErr) {
		t.Fatalf("Err() = %v, want %v", err, streamErr)
	}
	assertEvents(t, out, []models.ClientEvent{models.TextChunk("partial")})
}

func assertEvents(t *testing.T, got, want []models.ClientEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count = %d, want %d (got %v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
