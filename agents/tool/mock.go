package tool

import (
	"context"
	"sync"
)

// MockTool is a test implementation of Tool.
//
// It returns a configured result or error and records every call.
// Safe for concurrent use.
type MockTool struct {
	// ToolName is the identifier returned by Name.
	ToolName string

	// Result is returned by Call when Err is nil.
	Result map[string]interface{}

	// Err, if set, is returned by Call.
	Err error

	mu    sync.Mutex
	calls []map[string]interface{}
}

// Name returns the configured tool name.
func (m *MockTool) Name() string {
	return m.ToolName
}

// Call records the input and returns the configured result or error.
func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// CallCount returns the number of recorded calls.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.calls)
}

// LastInput returns the input of the most recent call, or nil.
func (m *MockTool) LastInput() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
