// Package emit provides observability for pipeline runs.
package emit

// Event represents an observability event emitted while a decision
// pipeline run progresses.
//
// The engine emits one event per stage transition plus run-level events
// (run_start, run_complete, run_error). In streaming mode it additionally
// emits a state_update event after every stage so callers can observe
// intermediate state without changing the computation.
type Event struct {
	// RunID identifies the pipeline run that emitted this event.
	// Runs are keyed by instrument and trade date.
	RunID string

	// Step is the sequential stage transition number (1-indexed).
	// Zero for run-level events.
	Step int

	// Stage names the pipeline stage that emitted this event.
	// Empty for run-level events.
	Stage string

	// Msg is a short event name, e.g. "stage_start", "stage_end",
	// "tool_call", "state_update", "run_complete".
	Msg string

	// Meta carries additional structured data. Common keys:
	//   - "duration_ms": stage execution duration
	//   - "error": error details
	//   - "tool": tool name for tool_call events
	//   - "signal": extracted signal on run_complete
	Meta map[string]interface{}
}
