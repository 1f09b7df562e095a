// Package mcp implements the Model Context Protocol client used to reach
// the external tool-calling gateway. One gateway session is opened per
// conversation identity, discovers the callable tool list, and is closed
// when its owning agent is evicted.
package mcp

import (
	"encoding/json"
	"time"
)

const protocolVersion = "2024-11-05"

// Tool is one callable tool discovered from the gateway.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Config holds gateway connection settings.
type Config struct {
	// URL is the streamable-HTTP MCP endpoint.
	URL string

	// TokenURL, ClientID, ClientSecret and Scopes configure the OAuth2
	// client-credentials handshake used to authorize gateway calls. When
	// TokenURL is empty, requests are sent unauthenticated (IAM proxies
	// and local gateways).
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Timeout time.Duration
}

// JSONRPCRequest is an outbound JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is an inbound JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// initializeResult is the payload of the initialize response.
type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolsListResult is the payload of the tools/list response.
type toolsListResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}
