package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteMemory is a single-file persistent memory.
//
// All role stores share one database file; the role column keeps them
// isolated. Embeddings are stored as JSON arrays and scored in-process,
// which is fine at the entry counts a per-role memory accumulates.
//
// Designed for:
//   - Local runs that must remember lessons across restarts
//   - Development against the same backend shape as MySQL
//
// WAL mode is enabled so reflection writes do not block debate reads.
type SQLiteMemory struct {
	db       *sql.DB
	embedder Embedder

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteMemory opens (or creates) the database at path.
//
// Use ":memory:" for a throwaway in-memory database.
func NewSQLiteMemory(path string, embedder Embedder) (*SQLiteMemory, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	m := &SQLiteMemory{db: db, embedder: embedder}
	if err := m.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return m, nil
}

func (m *SQLiteMemory) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS memory_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		situation TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		embedding TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_memory_entries_role ON memory_entries(role);
	`
	_, err := m.db.ExecContext(ctx, schema)
	return err
}

// Store returns the role-scoped store view.
func (m *SQLiteMemory) Store(role string) *SQLiteStore {
	return &SQLiteStore{backend: m, role: role}
}

// Close closes the underlying database.
func (m *SQLiteMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// SQLiteStore is one role's view of a SQLiteMemory. Implements Store.
type SQLiteStore struct {
	backend *SQLiteMemory
	role    string
}

// Add embeds the situation and inserts the entry.
func (s *SQLiteStore) Add(ctx context.Context, situation, recommendation string) error {
	m := s.backend

	vec, err := m.embedder.Embed(ctx, situation)
	if err != nil {
		return fmt.Errorf("failed to embed situation: %w", err)
	}
	encoded, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	_, err = m.db.ExecContext(ctx,
		`INSERT INTO memory_entries (role, situation, recommendation, embedding) VALUES (?, ?, ?, ?)`,
		s.role, situation, recommendation, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to insert memory entry: %w", err)
	}
	return nil
}

// Query loads the role's entries, scores them in-process and returns
// the k nearest, ascending by distance.
func (s *SQLiteStore) Query(ctx context.Context, situation string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	m := s.backend

	vec, err := m.embedder.Embed(ctx, situation)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT situation, recommendation, embedding FROM memory_entries WHERE role = ? ORDER BY id`,
		s.role)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory entries: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var entry Entry
		var encoded string
		if err := rows.Scan(&entry.Situation, &entry.Recommendation, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan memory entry: %w", err)
		}
		var stored []float32
		if err := json.Unmarshal([]byte(encoded), &stored); err != nil {
			return nil, fmt.Errorf("failed to decode embedding: %w", err)
		}
		matches = append(matches, Match{Entry: entry, Distance: cosineDistance(vec, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memory entries: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Len returns the role's entry count, or 0 when the count cannot be
// read.
func (s *SQLiteStore) Len() int {
	m := s.backend

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0
	}

	var count int
	err := m.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM memory_entries WHERE role = ?`, s.role).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}
