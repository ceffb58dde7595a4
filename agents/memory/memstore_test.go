package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// axisEmbedder returns an embedder where each known text maps to a
// fixed point, so distances are predictable.
func axisEmbedder() *FakeEmbedder {
	return &FakeEmbedder{
		Vectors: map[string][]float32{
			"strong rally":    {1, 0, 0, 0},
			"mild rally":      {0.9, 0.1, 0, 0},
			"selloff":         {0, 1, 0, 0},
			"sideways market": {0, 0, 1, 0},
		},
	}
}

func TestInMemoryStore_RequiresEmbedder(t *testing.T) {
	if _, err := NewInMemoryStore(nil); err == nil {
		t.Fatal("expected error for nil embedder")
	}
}

func TestInMemoryStore_QueryOrdersByDistance(t *testing.T) {
	store, err := NewInMemoryStore(axisEmbedder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	for _, situation := range []string{"selloff", "mild rally", "sideways market"} {
		if err := store.Add(ctx, situation, "lesson for "+situation); err != nil {
			t.Fatalf("Add(%q): %v", situation, err)
		}
	}

	matches, err := store.Query(ctx, "strong rally", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Situation != "mild rally" {
		t.Errorf("nearest = %q, want %q", matches[0].Situation, "mild rally")
	}
	if matches[0].Recommendation != "lesson for mild rally" {
		t.Errorf("recommendation = %q", matches[0].Recommendation)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("matches not ascending by distance: %v then %v",
			matches[0].Distance, matches[1].Distance)
	}
}

func TestInMemoryStore_QueryClampsK(t *testing.T) {
	store, err := NewInMemoryStore(axisEmbedder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := store.Add(ctx, "selloff", "cut exposure"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := store.Query(ctx, "strong rally", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(matches))
	}

	matches, err = store.Query(ctx, "strong rally", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches for k=0, got %d", len(matches))
	}
}

func TestInMemoryStore_EmptyQuery(t *testing.T) {
	store, err := NewInMemoryStore(axisEmbedder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := store.Query(context.Background(), "strong rally", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty result, got %d matches", len(matches))
	}
}

func TestInMemoryStore_EmbedderErrorPropagates(t *testing.T) {
	embErr := errors.New("embedding service down")
	store, err := NewInMemoryStore(&FakeEmbedder{Err: embErr})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Add(context.Background(), "selloff", "lesson"); !errors.Is(err, embErr) {
		t.Errorf("Add error = %v, want wrapped %v", err, embErr)
	}
	if _, err := store.Query(context.Background(), "selloff", 1); !errors.Is(err, embErr) {
		t.Errorf("Query error = %v, want wrapped %v", err, embErr)
	}
	if store.Len() != 0 {
		t.Errorf("failed Add must not store an entry, Len = %d", store.Len())
	}
}

func TestInMemoryStore_ConcurrentAdd(t *testing.T) {
	store, err := NewInMemoryStore(&FakeEmbedder{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			situation := fmt.Sprintf("situation %d", i)
			if err := store.Add(ctx, situation, "lesson"); err != nil {
				t.Errorf("Add: %v", err)
			}
			if _, err := store.Query(ctx, situation, 3); err != nil {
				t.Errorf("Query: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Errorf("Len = %d, want 20", store.Len())
	}
}

func TestInMemoryStore_Isolation(t *testing.T) {
	bull, err := NewInMemoryStore(axisEmbedder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bear, err := NewInMemoryStore(axisEmbedder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := bull.Add(ctx, "strong rally", "ride the trend"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bear.Len() != 0 {
		t.Errorf("bear store must stay empty, Len = %d", bear.Len())
	}
	matches, err := bear.Query(ctx, "strong rally", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("bear store returned %d matches from bull's memory", len(matches))
	}
}
