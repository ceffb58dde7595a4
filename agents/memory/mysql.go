package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLMemory is a MySQL/MariaDB-backed memory.
//
// Same schema and scoring as SQLiteMemory, on a shared server. Use it
// when several orchestrator processes must see one lesson history.
//
// The DSN format is the go-sql-driver one:
//
//	user:password@tcp(localhost:3306)/tradingagents?parseTime=true
//
// Credentials belong in the environment, never in source.
type MySQLMemory struct {
	db       *sql.DB
	embedder Embedder

	mu     sync.RWMutex
	closed bool
}

// NewMySQLMemory connects to the database and ensures the schema.
func NewMySQLMemory(dsn string, embedder Embedder) (*MySQLMemory, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m := &MySQLMemory{db: db, embedder: embedder}
	if err := m.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return m, nil
}

func (m *MySQLMemory) createTables(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS memory_entries (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		role VARCHAR(64) NOT NULL,
		situation TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		embedding MEDIUMTEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_memory_entries_role (role)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	_, err := m.db.ExecContext(ctx, schema)
	return err
}

// Store returns the role-scoped store view.
func (m *MySQLMemory) Store(role string) *MySQLStore {
	return &MySQLStore{backend: m, role: role}
}

// Close closes the connection pool.
func (m *MySQLMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// MySQLStore is one role's view of a MySQLMemory. Implements Store.
type MySQLStore struct {
	backend *MySQLMemory
	role    string
}

// Add embeds the situation and inserts the entry.
func (s *MySQLStore) Add(ctx context.Context, situation, recommendation string) error {
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
func (s *MySQLStore) Query(ctx context.Context, situation string, k int) ([]Match, error) {
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
func (s *MySQLStore) Len() int {
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
