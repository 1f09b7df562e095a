package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haasonsaas/tonari/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "memory.db"), "test-memory")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRequiresMemoryID(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "memory.db"), ""); err == nil {
		t.Fatal("expected an error for an empty memory ID")
	}
}

func TestTurnRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := models.SessionKey{SessionID: "s1", ActorID: "u1"}

	for _, msg := range []struct{ role, content string }{
		{"user", "hello"},
		{"assistant", "hi there"},
		{"user", "what's the weather?"},
	} {
		if err := s.AppendTurn(ctx, key, msg.role, msg.content); err != nil {
			t.Fatalf("append turn: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	turns, err := s.RecentTurns(ctx, key, 10)
	if err != nil {
		t.Fatalf("recent turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	if turns[0].Content != "hello" || turns[2].Content != "what's the weather?" {
		t.Errorf("turns not in chronological order: %q, %q", turns[0].Content, turns[2].Content)
	}
	if turns[1].Role != "assistant" {
		t.Errorf("turn role = %q, want assistant", turns[1].Role)
	}
}

func TestRecentTurnsLimitKeepsNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := models.SessionKey{SessionID: "s1", ActorID: "u1"}

	for _, content := range []string{"first", "second", "third"} {
		if err := s.AppendTurn(ctx, key, "user", content); err != nil {
			t.Fatalf("append turn: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	turns, err := s.RecentTurns(ctx, key, 2)
	if err != nil {
		t.Fatalf("recent turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Content != "second" || turns[1].Content != "third" {
		t.Errorf("limit dropped the wrong turns: %q, %q", turns[0].Content, turns[1].Content)
	}
}

func TestTurnsScopedBySessionKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	k1 := models.SessionKey{SessionID: "s1", ActorID: "u1"}
	k2 := models.SessionKey{SessionID: "s2", ActorID: "u1"}
	if err := s.AppendTurn(ctx, k1, "user", "for session one"); err != nil {
		t.Fatalf("append turn: %v", err)
	}

	turns, err := s.RecentTurns(ctx, k2, 10)
	if err != nil {
		t.Fatalf("recent turns: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("got %d turns for an unrelated key, want 0", len(turns))
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutRecord(ctx, "/facts/u1/", "the user lives in Osaka"); err != nil {
		t.Fatalf("put record: %v", err)
	}
	if err := s.PutRecord(ctx, "/preferences/u1/", "prefers short answers"); err != nil {
		t.Fatalf("put record: %v", err)
	}

	records, err := s.NamespaceRecords(ctx, "/facts/u1/")
	if err != nil {
		t.Fatalf("namespace records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Content != "the user lives in Osaka" {
		t.Errorf("record content = %q", records[0].Content)
	}
	if records[0].Namespace != "/facts/u1/" {
		t.Errorf("record namespace = %q", records[0].Namespace)
	}
}
