// Package models contains the wire-level types shared across the tonari
// runtime: the invocation request, the client-visible event union, and the
// raw model event union produced by inference providers.
package models

// ClientEventType identifies a client-visible streaming event.
type ClientEventType string

const (
	// EventText carries a (possibly empty) text delta.
	EventText ClientEventType = "text"

	// EventToolStart marks the beginning of a tool invocation.
	EventToolStart ClientEventType = "tool_use_start"

	// EventToolEnd marks the end of the in-flight tool invocation.
	EventToolEnd ClientEventType = "tool_use_end"
)

// ClientEvent is one event in the outbound response stream. Exactly one of
// the payload fields is meaningful, selected by Type.
type ClientEvent struct {
	Type ClientEventType `json:"type"`
	Text string          `json:"text,omitempty"`
	Tool string          `json:"tool,omitempty"`
}

// TextChunk builds a text delta event. Empty deltas are valid.
func TextChunk(text string) ClientEvent {
	return ClientEvent{Type: EventText, Text: text}
}

// ToolStart builds a tool boundary start event.
func ToolStart(name string) ClientEvent {
	return ClientEvent{Type: EventToolStart, Tool: name}
}

// ToolEnd builds a tool boundary end event.
func ToolEnd() ClientEvent {
	return ClientEvent{Type: EventToolEnd}
}

// ModelEventKind discriminates raw events emitted by an inference provider.
type ModelEventKind int

const (
	// ModelEventUnknown is any event shape the demultiplexer should skip.
	// Providers may emit it for forward-compatible event kinds.
	ModelEventUnknown ModelEventKind = iota

	// ModelEventText carries a textual output delta.
	ModelEventText

	// ModelEventToolUse reports that the model is using a named tool.
	ModelEventToolUse

	// ModelEventDone marks normal completion of the stream.
	ModelEventDone

	// ModelEventError carries a terminal stream error.
	ModelEventError
)

// ModelEvent is one raw event from the inference stream.
type ModelEvent struct {
	Kind     ModelEventKind
	Text     string
	ToolName string
	Err      error
}
