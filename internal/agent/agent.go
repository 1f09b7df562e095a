// Package agent contains the stateful core of the runtime: the agent
// instance, the single-slot session resource cache, the content normalizer,
// and the streaming event demultiplexer.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/haasonsaas/tonari/internal/mcp"
	"github.com/haasonsaas/tonari/internal/memory"
	"github.com/haasonsaas/tonari/internal/model"
	"github.com/haasonsaas/tonari/pkg/models"
)

// Agent is one bound configuration: model provider, system prompt, memory
// session manager, and the tool set usable for its session key. Agents are
// built by the cache and exclusively owned by its slot; configuration is
// immutable after construction.
type Agent struct {
	provider     model.Provider
	systemPrompt string
	memory       *memory.SessionManager
	tools        []mcp.Tool
	maxTokens    int
	logger       *slog.Logger
}

// Tools returns the tool set bound to this agent. Empty for degraded agents.
func (a *Agent) Tools() []mcp.Tool {
	return a.tools
}

// Invoke runs one turn: it replays session history, retrieves long-term
// context, streams the model response, and records the exchanged turns.
// The returned channel is the raw model event stream; a failure to start
// the stream is the only error surfaced to the caller.
func (a *Agent) Invoke(ctx context.Context, content models.Content) (<-chan models.ModelEvent, error) {
	req := &model.Request{
		System:    a.systemPrompt,
		MaxTokens: a.maxTokens,
		Tools:     a.tools,
	}

	history, err := a.memory.History(ctx)
	if err != nil {
		// A history outage degrades to a context-free turn.
		a.logger.Warn("failed to load session history", "error", err)
		history = nil
	}
	for _, turn := range history {
		req.Messages = append(req.Messages, model.Message{
			Role:    turn.Role,
			Content: models.PlainContent(turn.Content),
		})
	}
	req.Messages = append(req.Messages, model.Message{Role: "user", Content: content})

	if block := memory.ContextBlock(a.memory.Retrieve(ctx, content.Text)); block != "" {
		if req.System != "" {
			req.System += "\n\n"
		}
		req.System += block
	}

	raw, err := a.provider.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.tee(ctx, content, raw), nil
}

// tee forwards the raw stream unchanged while accumulating the assistant
// text, then records both sides of the exchange when the stream ends.
func (a *Agent) tee(ctx context.Context, content models.Content, raw <-chan models.ModelEvent) <-chan models.ModelEvent {
	out := make(chan models.ModelEvent)
	go func() {
		defer close(out)

		var reply strings.Builder
		failed := false
		for ev := range raw {
			if ev.Kind == models.ModelEventText {
				reply.WriteString(ev.Text)
			}
			if ev.Kind == models.ModelEventError {
				failed = true
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				// Consumer is gone; the provider tears down the
				// underlying stream on the same cancellation.
				return
			}
		}

		if failed {
			return
		}
		// The caller cancels its context as soon as it consumes the final
		// event; recording must survive that.
		rctx := context.WithoutCancel(ctx)
		if err := a.memory.RecordTurn(rctx, "user", userText(content)); err != nil {
			a.logger.Warn("failed to record user turn", "error", err)
		}
		if err := a.memory.RecordTurn(rctx, "assistant", reply.String()); err != nil {
			a.logger.Warn("failed to record assistant turn", "error", err)
		}
	}()
	return out
}

func userText(content models.Content) string {
	if !content.Multipart() {
		return content.Text
	}
	for _, part := range content.Parts {
		if part.Image == nil {
			return part.Text
		}
	}
	return ""
}
