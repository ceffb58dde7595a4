package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore is a process-local Store.
//
// Entries and their embeddings live on the heap; queries are a linear
// scan over all entries. Designed for:
//   - Development and testing with zero setup
//   - Single-process runs where memory need not survive restarts
//
// Safe for concurrent use.
type InMemoryStore struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []Entry
	vectors [][]float32
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore(embedder Embedder) (*InMemoryStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}
	return &InMemoryStore{embedder: embedder}, nil
}

// Add embeds the situation and appends the entry.
func (s *InMemoryStore) Add(ctx context.Context, situation, recommendation string) error {
	vec, err := s.embedder.Embed(ctx, situation)
	if err != nil {
		return fmt.Errorf("failed to embed situation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{Situation: situation, Recommendation: recommendation})
	s.vectors = append(s.vectors, vec)
	return nil
}

// Query returns up to k entries nearest the situation, ascending by
// distance.
func (s *InMemoryStore) Query(ctx context.Context, situation string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, situation)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Snapshot under the read lock, score outside it.
	s.mu.RLock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	vectors := make([][]float32, len(s.vectors))
	copy(vectors, s.vectors)
	s.mu.RUnlock()

	matches := make([]Match, len(entries))
	for i, entry := range entries {
		matches[i] = Match{Entry: entry, Distance: cosineDistance(vec, vectors[i])}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Len returns the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
