package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/haasonsaas/tonari/pkg/models"
)

// Connector opens gateway sessions. It is safe for concurrent use; each
// Connect call produces an independent session.
type Connector struct {
	cfg    Config
	logger *slog.Logger
}

// NewConnector creates a gateway connector.
func NewConnector(cfg Config, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		cfg:    cfg,
		logger: logger.With("component", "mcp"),
	}
}

// Connect performs the authenticated handshake and tool discovery for one
// conversation identity. The returned session owns the underlying transport
// and must be closed when the agent built with it is discarded.
func (c *Connector) Connect(ctx context.Context, key models.SessionKey) (*Session, error) {
	t := newTransport(c.cfg)

	initParams := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "tonari",
			"version": "1.0.0",
		},
	}
	raw, err := t.Call(ctx, "initialize", initParams)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	var initResult initializeResult
	if err := json.Unmarshal(raw, &initResult); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("parse initialize result: %w", err)
	}

	if err := t.Notify(ctx, "notifications/initialized"); err != nil {
		c.logger.Warn("failed to send initialized notification", "error", err)
	}

	tools, err := listTools(ctx, t)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("tool discovery: %w", err)
	}

	c.logger.Info("connected to gateway",
		"server", initResult.ServerInfo.Name,
		"session", key.String(),
		"tools", len(tools))

	return &Session{transport: t, tools: tools}, nil
}

// listTools pages through tools/list until the cursor is exhausted.
func listTools(ctx context.Context, t *transport) ([]Tool, error) {
	var tools []Tool
	cursor := ""
	for {
		params := map[string]any{}
		if cursor != "" {
			params["cursor"] = cursor
		}
		raw, err := t.Call(ctx, "tools/list", params)
		if err != nil {
			return nil, err
		}
		var result toolsListResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("parse tools/list result: %w", err)
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == "" {
			return tools, nil
		}
		cursor = result.NextCursor
	}
}

// Session is one open tool-calling channel plus its discovered tool list.
type Session struct {
	transport *transport
	tools     []Tool

	closeOnce sync.Once
	closeErr  error
}

// Tools returns the tools discovered during the handshake.
func (s *Session) Tools() []Tool {
	return s.tools
}

// Close tears down the gateway session. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.transport.Close()
	})
	return s.closeErr
}
