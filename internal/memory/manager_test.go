package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/tonari/pkg/models"
)

func TestDefaultRetrieval(t *testing.T) {
	cfg := DefaultRetrieval()
	tests := []struct {
		namespace string
		topK      int
		minScore  float64
	}{
		{NamespacePreferences, 5, 0.5},
		{NamespaceFacts, 10, 0.4},
		{NamespaceSummaries, 3, 0.6},
		{NamespaceEpisodes, 5, 0.5},
	}
	for _, tt := range tests {
		got, ok := cfg[tt.namespace]
		if !ok {
			t.Errorf("namespace %s missing from default retrieval", tt.namespace)
			continue
		}
		if got.TopK != tt.topK || got.MinScore != tt.minScore {
			t.Errorf("%s = {%d, %v}, want {%d, %v}", tt.namespace, got.TopK, got.MinScore, tt.topK, tt.minScore)
		}
	}
	if len(cfg) != len(tests) {
		t.Errorf("default retrieval has %d namespaces, want %d", len(cfg), len(tests))
	}
}

func TestExpandNamespace(t *testing.T) {
	m := NewSessionManager(nil, models.SessionKey{SessionID: "s1", ActorID: "alice"}, nil, 0, nil)
	if got := m.expandNamespace(NamespaceFacts); got != "/facts/alice/" {
		t.Errorf("expandNamespace = %q, want /facts/alice/", got)
	}
}

func TestRecordTurnSkipsEmptyContent(t *testing.T) {
	s := openTestStore(t)
	key := models.SessionKey{SessionID: "s1", ActorID: "u1"}
	m := NewSessionManager(s, key, nil, 0, nil)
	ctx := context.Background()

	if err := m.RecordTurn(ctx, "assistant", "   "); err != nil {
		t.Fatalf("record turn: %v", err)
	}
	turns, err := m.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("blank turn was stored, got %d turns", len(turns))
	}
}

func TestRetrieveRanksAndFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := models.SessionKey{SessionID: "s1", ActorID: "u1"}

	for _, content := range []string{
		"the user prefers concise bullet-point answers",
		"the user enjoys hiking on weekends",
		"completely unrelated note about databases",
	} {
		if err := s.PutRecord(ctx, "/preferences/u1/", content); err != nil {
			t.Fatalf("put record: %v", err)
		}
	}

	m := NewSessionManager(s, key, map[string]RetrievalConfig{
		NamespacePreferences: {TopK: 5, MinScore: 0.5},
	}, 0, nil)

	records := m.Retrieve(ctx, "what answers does the user prefer")
	if len(records) == 0 {
		t.Fatal("expected at least one retrieved record")
	}
	for _, r := range records {
		if strings.Contains(r.Content, "databases") {
			t.Errorf("low-relevance record retrieved: %q", r.Content)
		}
	}
}

func TestRetrieveWithoutConfigOrQuery(t *testing.T) {
	s := openTestStore(t)
	key := models.SessionKey{SessionID: "s1", ActorID: "u1"}
	ctx := context.Background()

	noConfig := NewSessionManager(s, key, nil, 0, nil)
	if got := noConfig.Retrieve(ctx, "anything"); got != nil {
		t.Errorf("retrieval without config returned %d records", len(got))
	}

	withConfig := NewSessionManager(s, key, DefaultRetrieval(), 0, nil)
	if got := withConfig.Retrieve(ctx, "   "); got != nil {
		t.Errorf("retrieval with a blank query returned %d records", len(got))
	}
}

func TestRankTopK(t *testing.T) {
	records := []Record{
		{Content: "alpha beta gamma"},
		{Content: "alpha beta"},
		{Content: "alpha"},
	}
	got := rank(records, "alpha beta gamma", RetrievalConfig{TopK: 2, MinScore: 0.1})
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Content != "alpha beta gamma" {
		t.Errorf("best match = %q, want the full-overlap record", got[0].Content)
	}
}

func TestRankMinScore(t *testing.T) {
	records := []Record{
		{Content: "alpha beta gamma delta"},
		{Content: "nothing in common"},
	}
	got := rank(records, "alpha beta", RetrievalConfig{TopK: 10, MinScore: 0.5})
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
}

func TestOverlapScore(t *testing.T) {
	terms := termSet("Alpha, beta!")
	if len(terms) != 2 {
		t.Fatalf("termSet produced %d terms, want 2", len(terms))
	}
	if got := overlapScore(terms, "alpha only here"); got != 0.5 {
		t.Errorf("overlapScore = %v, want 0.5", got)
	}
	if got := overlapScore(terms, "ALPHA and BETA both"); got != 1.0 {
		t.Errorf("overlapScore = %v, want 1.0", got)
	}
}

func TestContextBlock(t *testing.T) {
	if got := ContextBlock(nil); got != "" {
		t.Errorf("empty retrieval rendered %q", got)
	}

	block := ContextBlock([]Record{
		{Namespace: "/facts/u1/", Content: "lives in Osaka"},
	})
	if !strings.HasPrefix(block, "Relevant long-term memory:\n") {
		t.Errorf("missing header: %q", block)
	}
	if !strings.Contains(block, "- [/facts/u1/] lives in Osaka") {
		t.Errorf("missing record line: %q", block)
	}
}
