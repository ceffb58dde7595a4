package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// It captures every event and provides query capabilities over run
// history. This is the backend for streaming observation: the engine
// emits a state_update event per stage and callers read the buffer to
// follow run progress.
//
// Thread-safe. Events are organized by runID.
//
// Warning: all events are kept in memory. Clear finished runs when
// running many decisions in one process.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
}

// HistoryFilter specifies criteria for filtering run history.
//
// All fields are optional; set fields combine with AND logic.
type HistoryFilter struct {
	Stage   string // filter by stage name (empty = no filter)
	Msg     string // filter by event message (empty = no filter)
	MinStep *int   // minimum step number (nil = no filter)
	MaxStep *int   // maximum step number (nil = no filter)
}

// NewBufferedEmitter creates a new BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores the event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// History returns all events recorded for a run, in emission order.
// The returned slice is a copy and safe to retain.
func (b *BufferedEmitter) History(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// HistoryWithFilter returns the events for a run matching the filter.
func (b *BufferedEmitter) HistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, event := range b.events[runID] {
		if filter.Stage != "" && event.Stage != filter.Stage {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		if filter.MinStep != nil && event.Step < *filter.MinStep {
			continue
		}
		if filter.MaxStep != nil && event.Step > *filter.MaxStep {
			continue
		}
		out = append(out, event)
	}
	return out
}

// Clear removes all events for the given run.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.events, runID)
}

// ClearAll removes all buffered events.
func (b *BufferedEmitter) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = make(map[string][]Event)
}
