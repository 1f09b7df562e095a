// Package memory persists short-term conversation history and long-term
// memory records, and retrieves long-term context over semantic namespaces.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/haasonsaas/tonari/pkg/models"
)

// Turn is one stored conversation message.
type Turn struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Record is one long-term memory record.
type Record struct {
	ID        string
	Namespace string
	Content   string
	CreatedAt time.Time
}

// Store is the SQLite-backed persistence layer. Safe for concurrent use;
// database/sql serializes access to the underlying connection pool.
type Store struct {
	db       *sql.DB
	memoryID string
}

// Open opens (or creates) the store at path for the given memory resource.
func Open(path, memoryID string) (*Store, error) {
	if memoryID == "" {
		return nil, fmt.Errorf("memory ID is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	s := &Store{db: db, memoryID: memoryID}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS turns (
	id TEXT PRIMARY KEY,
	memory_id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(memory_id, session_id, actor_id, created_at);

CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	memory_id TEXT NOT NULL,
	namespace TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_namespace ON records(memory_id, namespace);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate memory store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTurn persists one conversation message for a session key.
func (s *Store) AppendTurn(ctx context.Context, key models.SessionKey, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, memory_id, session_id, actor_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), s.memoryID, key.SessionID, key.ActorID, role, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit most recent turns for a session key, in
// chronological order.
func (s *Store) RecentTurns(ctx context.Context, key models.SessionKey, limit int) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM turns
		 WHERE memory_id = ? AND session_id = ? AND actor_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		s.memoryID, key.SessionID, key.ActorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Reverse newest-first into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// PutRecord stores one long-term memory record in a namespace.
func (s *Store) PutRecord(ctx context.Context, namespace, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, memory_id, namespace, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), s.memoryID, namespace, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// NamespaceRecords returns all records under a namespace.
func (s *Store) NamespaceRecords(ctx context.Context, namespace string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, namespace, content, created_at FROM records
		 WHERE memory_id = ? AND namespace = ?
		 ORDER BY created_at DESC`,
		s.memoryID, namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Namespace, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
