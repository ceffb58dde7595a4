// Package memory provides per-role situation memory for trading agents.
//
// Each debating role keeps its own Store of past situations and the
// recommendation that was recorded for them. Before a new debate round
// a role queries its store with the current situation and receives the
// most similar past entries, nearest first.
//
// Backends:
//   - InMemoryStore: zero-setup, process-local (development and tests)
//   - ChromemStore: embedded vector database with optional persistence
//   - SQLiteMemory: single-file persistence
//   - MySQLMemory: shared persistence for multi-process deployments
package memory

import (
	"context"
	"errors"
	"math"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory: store is closed")

// Embedder converts a situation text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Entry is one remembered situation and the lesson recorded for it.
type Entry struct {
	// Situation is the market context the lesson was learned in.
	Situation string `json:"situation"`

	// Recommendation is the reflection text stored for that situation.
	Recommendation string `json:"recommendation"`
}

// Match is a query result: an entry plus its distance from the query.
//
// Distance is cosine distance (1 - cosine similarity); smaller is more
// similar. Results are always ordered ascending by Distance.
type Match struct {
	Entry
	Distance float64 `json:"distance"`
}

// Store holds one role's situation memory.
//
// Implementations must be safe for concurrent use: the reflection
// engine writes to several stores from separate goroutines.
type Store interface {
	// Add records a situation and its recommendation.
	Add(ctx context.Context, situation, recommendation string) error

	// Query returns up to k entries most similar to situation,
	// nearest first. An empty store yields an empty slice, not an
	// error.
	Query(ctx context.Context, situation string, k int) ([]Match, error)

	// Len reports the number of stored entries. Best effort for
	// remote backends: it returns 0 when the count cannot be read.
	Len() int
}

// cosineDistance returns 1 - cosine similarity of a and b.
//
// Mismatched lengths and zero vectors are treated as maximally
// distant rather than errors; a degenerate embedding should rank
// last, not abort the query.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
