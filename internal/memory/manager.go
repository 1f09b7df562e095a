package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/haasonsaas/tonari/pkg/models"
)

const defaultHistoryLimit = 40

// RetrievalConfig caps one namespace's retrieval: at most TopK results, each
// with a relevance score of at least MinScore.
type RetrievalConfig struct {
	TopK     int
	MinScore float64
}

// Namespace templates. {actorId} is expanded per session key, so every
// namespace is scoped to the durable actor and retrieval crosses sessions.
const (
	NamespacePreferences = "/preferences/{actorId}/"
	NamespaceFacts       = "/facts/{actorId}/"
	NamespaceSummaries   = "/summaries/{actorId}/"
	NamespaceEpisodes    = "/episodes/{actorId}/"
)

// DefaultRetrieval returns the retrieval configuration of the full agent
// build: user preferences, factual history, cross-session summaries, and
// episodic memory (reflections live under the episodes prefix).
func DefaultRetrieval() map[string]RetrievalConfig {
	return map[string]RetrievalConfig{
		NamespacePreferences: {TopK: 5, MinScore: 0.5},
		NamespaceFacts:       {TopK: 10, MinScore: 0.4},
		NamespaceSummaries:   {TopK: 3, MinScore: 0.6},
		NamespaceEpisodes:    {TopK: 5, MinScore: 0.5},
	}
}

// SessionManager binds one session key to the store and its retrieval
// policy. It is a constructor argument of an agent instance: the agent
// replays History into each request and records turns after each stream.
type SessionManager struct {
	store        *Store
	key          models.SessionKey
	retrieval    map[string]RetrievalConfig
	historyLimit int
	logger       *slog.Logger
}

// NewSessionManager creates a session manager. A nil retrieval map disables
// long-term recall (the light/degraded configuration).
func NewSessionManager(store *Store, key models.SessionKey, retrieval map[string]RetrievalConfig, historyLimit int, logger *slog.Logger) *SessionManager {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:        store,
		key:          key,
		retrieval:    retrieval,
		historyLimit: historyLimit,
		logger:       logger.With("component", "memory", "session", key.String()),
	}
}

// Key returns the session key this manager is bound to.
func (m *SessionManager) Key() models.SessionKey {
	return m.key
}

// History returns the session's prior turns in chronological order.
func (m *SessionManager) History(ctx context.Context) ([]Turn, error) {
	return m.store.RecentTurns(ctx, m.key, m.historyLimit)
}

// RecordTurn appends one turn to the session history. Empty content is not
// stored.
func (m *SessionManager) RecordTurn(ctx context.Context, role, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return m.store.AppendTurn(ctx, m.key, role, content)
}

// scored pairs a record with its relevance to a query.
type scored struct {
	record Record
	score  float64
}

// Retrieve pulls long-term context relevant to the query across all
// configured namespaces. Store errors degrade to partial (or empty) results;
// a memory outage must not fail the turn.
func (m *SessionManager) Retrieve(ctx context.Context, query string) []Record {
	if len(m.retrieval) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	var out []Record
	for template, cfg := range m.retrieval {
		namespace := m.expandNamespace(template)
		records, err := m.store.NamespaceRecords(ctx, namespace)
		if err != nil {
			m.logger.Warn("memory retrieval failed", "namespace", namespace, "error", err)
			continue
		}
		out = append(out, rank(records, query, cfg)...)
	}
	return out
}

func (m *SessionManager) expandNamespace(template string) string {
	return strings.ReplaceAll(template, "{actorId}", m.key.ActorID)
}

// rank scores records by term overlap with the query and applies the
// namespace's TopK and MinScore caps.
func rank(records []Record, query string, cfg RetrievalConfig) []Record {
	terms := termSet(query)
	if len(terms) == 0 {
		return nil
	}

	var hits []scored
	for _, r := range records {
		s := overlapScore(terms, r.Content)
		if s >= cfg.MinScore {
			hits = append(hits, scored{record: r, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if cfg.TopK > 0 && len(hits) > cfg.TopK {
		hits = hits[:cfg.TopK]
	}
	out := make([]Record, len(hits))
	for i, h := range hits {
		out[i] = h.record
	}
	return out
}

func termSet(text string) map[string]struct{} {
	terms := map[string]struct{}{}
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) >= 2 {
			terms[f] = struct{}{}
		}
	}
	return terms
}

// overlapScore is the fraction of query terms present in the content.
func overlapScore(terms map[string]struct{}, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// ContextBlock renders retrieved records as a system prompt extension.
// Returns "" when nothing was retrieved.
func ContextBlock(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant long-term memory:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- [%s] %s\n", r.Namespace, r.Content)
	}
	return b.String()
}
