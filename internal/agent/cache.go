package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/haasonsaas/tonari/internal/mcp"
	"github.com/haasonsaas/tonari/internal/memory"
	"github.com/haasonsaas/tonari/internal/model"
	"github.com/haasonsaas/tonari/internal/observability"
	"github.com/haasonsaas/tonari/pkg/models"
)

// Connector opens tool-gateway sessions for a conversation identity.
type Connector interface {
	Connect(ctx context.Context, key models.SessionKey) (GatewaySession, error)
}

// GatewaySession is one open tool-calling channel and its discovered tools.
type GatewaySession interface {
	Tools() []mcp.Tool
	Close() error
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, key models.SessionKey) (GatewaySession, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, key models.SessionKey) (GatewaySession, error) {
	return f(ctx, key)
}

// Factory builds agent instances for a session key.
type Factory struct {
	Provider     model.Provider
	Store        *memory.Store
	SystemPrompt string
	MaxTokens    int
	HistoryLimit int
	Retrieval    map[string]memory.RetrievalConfig
	Logger       *slog.Logger
}

// Build constructs an agent bound to the given tool set. A nil or empty
// tool set produces a tool-less agent with the same memory integration.
func (f *Factory) Build(key models.SessionKey, tools []mcp.Tool) *Agent {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		provider:     f.Provider,
		systemPrompt: f.SystemPrompt,
		memory:       memory.NewSessionManager(f.Store, key, f.Retrieval, f.HistoryLimit, logger),
		tools:        tools,
		maxTokens:    f.MaxTokens,
		logger:       logger.With("component", "agent", "session", key.String()),
	}
}

// slot is the cache's single entry.
type slot struct {
	key     models.SessionKey
	agent   *Agent
	gateway GatewaySession
}

// Cache owns at most one live agent plus gateway connection per process,
// keyed by session identity. A new key always evicts the previous entry;
// the evicted gateway connection is closed best-effort before the rebuild.
//
// The slot is guarded by a mutex so concurrent turns for different keys
// cannot evict an entry out from under an in-progress build.
type Cache struct {
	mu        sync.Mutex
	slot      *slot
	connector Connector
	factory   *Factory
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCache creates the session resource cache. connector may be nil when no
// gateway is configured; agents are then built without tools. metrics may
// be nil.
func NewCache(connector Connector, factory *Factory, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		connector: connector,
		factory:   factory,
		logger:    logger.With("component", "session_cache"),
		metrics:   metrics,
	}
}

// GetOrCreate resolves the agent for a session key. An exact key match
// returns the cached agent with no new connection attempt and no tool
// re-discovery — a degraded agent stays degraded until its key is evicted.
// On key change the previous entry is evicted and a new agent is built;
// connector failures degrade to a tool-less agent and never propagate, so
// the returned agent is always usable.
func (c *Cache) GetOrCreate(ctx context.Context, key models.SessionKey) *Agent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slot != nil && c.slot.key == key {
		c.metrics.CacheHit()
		return c.slot.agent
	}

	if c.slot != nil {
		c.evictLocked()
	}
	c.metrics.CacheMiss()

	var (
		gateway GatewaySession
		tools   []mcp.Tool
	)
	if c.connector != nil {
		sess, err := c.connector.Connect(ctx, key)
		if err != nil {
			c.metrics.ConnectorFailure()
			c.logger.Warn("gateway connect failed, building tool-less agent",
				"session", key.String(), "error", err)
		} else {
			gateway = sess
			tools = sess.Tools()
		}
	}

	agent := c.factory.Build(key, tools)
	c.slot = &slot{key: key, agent: agent, gateway: gateway}
	return agent
}

// evictLocked closes the slot's gateway connection and clears the slot.
// Teardown failures are logged and never escalated. Caller holds c.mu.
func (c *Cache) evictLocked() {
	if c.slot.gateway != nil {
		if err := c.slot.gateway.Close(); err != nil {
			c.logger.Warn("gateway close failed during eviction",
				"session", c.slot.key.String(), "error", err)
		}
	}
	c.metrics.CacheEviction()
	c.slot = nil
}

// Close evicts the current entry, if any. Used at shutdown.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slot != nil {
		c.evictLocked()
	}
}
