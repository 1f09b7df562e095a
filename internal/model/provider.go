// Package model defines the inference service boundary and its AWS Bedrock
// implementation. Providers emit a raw event stream that the agent layer
// demultiplexes into client-visible events.
package model

import (
	"context"

	"github.com/haasonsaas/tonari/internal/mcp"
	"github.com/haasonsaas/tonari/pkg/models"
)

// Provider streams a model response for one request.
//
// Implementations must close the returned channel when the stream ends.
// A request that fails before any event is produced returns an error
// directly; mid-stream failures are delivered as a ModelEventError event.
type Provider interface {
	Stream(ctx context.Context, req *Request) (<-chan models.ModelEvent, error)
}

// Request is one complete inference request.
type Request struct {
	// System is the system prompt, optionally extended with retrieved
	// long-term memory context.
	System string

	// Messages is the conversation so far, ending with the current turn.
	Messages []Message

	// Tools advertises the gateway tool set to the model. Empty for
	// degraded agents.
	Tools []mcp.Tool

	MaxTokens int
}

// Message is one conversation message.
type Message struct {
	// Role is "user" or "assistant".
	Role string

	Content models.Content
}
