// Package tool provides data-retrieval capabilities invoked by analyst stages.
package tool

import "context"

// Tool defines the interface for executable data-retrieval tools.
//
// Analyst stages expose tools to the language model; when the model
// requests one, the dispatcher executes it and appends the result to
// the run transcript.
//
// Implementations should:
//   - Validate input parameters
//   - Respect context cancellation and timeouts
//   - Return structured output as map[string]interface{}
//   - Return descriptive errors, never a silent empty result
type Tool interface {
	// Name returns the unique identifier for this tool, matching the
	// ToolSpec name advertised to the model.
	// Examples: "get_market_data", "get_global_news"
	Name() string

	// Call executes the tool with the provided input.
	//
	// input may be nil for parameterless tools. The output is any
	// structured data serializable to text for the transcript.
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

// ExecutionError reports a failed tool invocation.
//
// The dispatcher wraps every tool failure in an ExecutionError so the
// calling stage can distinguish retrieval failures from model failures.
type ExecutionError struct {
	// Tool is the name of the tool that failed.
	Tool string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return "tool " + e.Tool + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
