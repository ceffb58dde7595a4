package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

// MySQL tests run only against a real server:
//
//	export TEST_MYSQL_DSN="user:pass@tcp(localhost:3306)/test_db"
func newTestMySQLMemory(t *testing.T) *MySQLMemory {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL tests: TEST_MYSQL_DSN not set")
	}

	mem, err := NewMySQLMemory(dsn, axisEmbedder())
	if err != nil {
		t.Fatalf("NewMySQLMemory: %v", err)
	}
	t.Cleanup(func() { _ = mem.Close() })
	return mem
}

// uniqueRole keeps test entries apart on a shared server, where the
// memory_entries table outlives the test run.
func uniqueRole(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestMySQLMemory_AddAndQuery(t *testing.T) {
	mem := newTestMySQLMemory(t)
	store := mem.Store(uniqueRole("bull"))
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
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("matches not ascending by distance")
	}
}

func TestMySQLMemory_RoleIsolation(t *testing.T) {
	mem := newTestMySQLMemory(t)
	ctx := context.Background()

	bull := mem.Store(uniqueRole("bull"))
	bear := mem.Store(uniqueRole("bear"))

	if err := bull.Add(ctx, "strong rally", "ride the trend"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bear.Len() != 0 {
		t.Errorf("bear Len = %d, want 0", bear.Len())
	}
	matches, err := bear.Query(ctx, "strong rally", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("bear store returned %d matches from bull's memory", len(matches))
	}
}

func TestMySQLMemory_ClosedStore(t *testing.T) {
	mem := newTestMySQLMemory(t)
	store := mem.Store(uniqueRole("bull"))
	if err := mem.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := store.Add(context.Background(), "selloff", "lesson"); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after close = %v, want ErrClosed", err)
	}
	if _, err := store.Query(context.Background(), "selloff", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Query after close = %v, want ErrClosed", err)
	}
	if err := mem.Close(); err != nil {
		t.Errorf("double Close = %v, want nil", err)
	}
}
