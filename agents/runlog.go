package agents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RunLog persists terminal state snapshots as one JSON file per
// instrument, mapping trade date to snapshot.
//
// The mapping is append-only across runs: re-running the same date
// overwrites that date's entry, other dates are untouched. Writes go
// through a temp file plus rename so a crash never leaves a truncated
// log.
type RunLog struct {
	dir string
	mu  sync.Mutex
}

// NewRunLog creates a run log rooted at dir, creating it if needed.
func NewRunLog(dir string) (*RunLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("run log directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run log directory: %w", err)
	}
	return &RunLog{dir: dir}, nil
}

func (l *RunLog) path(instrument string) string {
	return filepath.Join(l.dir, instrument+".json")
}

// Append records the snapshot under its trade date in the instrument's
// log file.
func (l *RunLog) Append(instrument string, snap StateSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(instrument)
	if err != nil {
		return err
	}
	entries[snap.TradeDate] = snap

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run log: %w", err)
	}

	tmp := l.path(instrument) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	if err := os.Rename(tmp, l.path(instrument)); err != nil {
		return fmt.Errorf("failed to replace run log: %w", err)
	}
	return nil
}

// Load returns the instrument's logged snapshots keyed by trade date.
// A missing file yields an empty map.
func (l *RunLog) Load(instrument string) (map[string]StateSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load(instrument)
}

func (l *RunLog) load(instrument string) (map[string]StateSnapshot, error) {
	data, err := os.ReadFile(l.path(instrument))
	if os.IsNotExist(err) {
		return make(map[string]StateSnapshot), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	entries := make(map[string]StateSnapshot)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode run log: %w", err)
	}
	return entries, nil
}
