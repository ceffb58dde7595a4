package memory

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

// ChromemMemory is a chromem-go backed memory.
//
// chromem-go is an embeddable vector database in pure Go: no external
// service, no CGO. Each role's Store maps to one collection, so the
// five role memories stay isolated inside a single database.
//
// With an empty path the database is in-memory only; with a path it
// persists to disk and reloads on restart.
type ChromemMemory struct {
	db       *chromem.DB
	embedder Embedder
}

// NewChromemMemory opens (or creates) a chromem database.
//
// path "" selects a purely in-memory database. A non-empty path is a
// directory; it is created if missing.
func NewChromemMemory(path string, compress bool, embedder Embedder) (*ChromemMemory, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}

	if path == "" {
		return &ChromemMemory{db: chromem.NewDB(), embedder: embedder}, nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory %s: %w", path, err)
	}
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database: %w", err)
	}
	return &ChromemMemory{db: db, embedder: embedder}, nil
}

// Store returns the collection-backed store for one role.
func (m *ChromemMemory) Store(role string) (*ChromemStore, error) {
	if role == "" {
		return nil, fmt.Errorf("memory: role is required")
	}

	collection, err := m.db.GetOrCreateCollection("memory_"+role, nil,
		func(ctx context.Context, text string) ([]float32, error) {
			return m.embedder.Embed(ctx, text)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to open collection for %s: %w", role, err)
	}
	return &ChromemStore{collection: collection}, nil
}

// ChromemStore is one role's collection. Implements Store.
type ChromemStore struct {
	collection *chromem.Collection
}

// Add embeds and stores the situation with its recommendation.
func (s *ChromemStore) Add(ctx context.Context, situation, recommendation string) error {
	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:      uuid.NewString(),
		Content: situation,
		Metadata: map[string]string{
			"recommendation": recommendation,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add memory entry: %w", err)
	}
	return nil
}

// Query returns up to k nearest entries, ascending by distance.
func (s *ChromemStore) Query(ctx context.Context, situation string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	// chromem rejects nResults greater than the document count.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, situation, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Entry: Entry{
				Situation:      r.Content,
				Recommendation: r.Metadata["recommendation"],
			},
			Distance: 1.0 - float64(r.Similarity),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches, nil
}

// Len returns the collection's document count.
func (s *ChromemStore) Len() int {
	return s.collection.Count()
}
