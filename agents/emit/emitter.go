package emit

// Emitter receives and processes observability events from pipeline runs.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for tests and streaming observation
//
// Implementations should be:
//   - Non-blocking: avoid slowing down stage execution
//   - Thread-safe: independent runs may emit concurrently
//   - Resilient: handle backend failures without crashing the run
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit must not panic. Backend errors should be handled internally.
	Emit(event Event)
}
