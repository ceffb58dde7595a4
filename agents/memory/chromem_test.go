package memory

import (
	"context"
	"testing"
)

func newTestChromemMemory(t *testing.T) *ChromemMemory {
	t.Helper()

	mem, err := NewChromemMemory("", false, axisEmbedder())
	if err != nil {
		t.Fatalf("NewChromemMemory: %v", err)
	}
	return mem
}

func TestChromemMemory_RequiresEmbedder(t *testing.T) {
	if _, err := NewChromemMemory("", false, nil); err == nil {
		t.Fatal("expected error for nil embedder")
	}
}

func TestChromemMemory_AddAndQuery(t *testing.T) {
	mem := newTestChromemMemory(t)
	store, err := mem.Store("bull")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	ctx := context.Background()

	for _, situation := range []string{"selloff", "mild rally", "sideways market"} {
		if err := store.Add(ctx, situation, "lesson for "+situation); err != nil {
			t.Fatalf("Add(%q): %v", situation, err)
		}
	}
	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", store.Len())
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
		t.Errorf("matches not ascending by distance")
	}
}

func TestChromemMemory_QueryEmptyCollection(t *testing.T) {
	mem := newTestChromemMemory(t)
	store, err := mem.Store("bear")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	matches, err := store.Query(context.Background(), "strong rally", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty result, got %d matches", len(matches))
	}
}

func TestChromemMemory_QueryClampsK(t *testing.T) {
	mem := newTestChromemMemory(t)
	store, err := mem.Store("trader")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	ctx := context.Background()

	if err := store.Add(ctx, "selloff", "cut exposure"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	matches, err := store.Query(ctx, "selloff", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(matches))
	}
}

func TestChromemMemory_RoleIsolation(t *testing.T) {
	mem := newTestChromemMemory(t)
	ctx := context.Background()

	bull, err := mem.Store("bull")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	bear, err := mem.Store("bear")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := bull.Add(ctx, "strong rally", "ride the trend"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if bear.Len() != 0 {
		t.Errorf("bear Len = %d, want 0", bear.Len())
	}
}
