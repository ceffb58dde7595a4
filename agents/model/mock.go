package model

import (
	"context"
	"sync"
)

// MockChatModel is a test implementation of ChatModel.
//
// Use it to verify pipeline behavior without real LLM calls. It provides
// scripted responses, call history capture, and error injection, and is
// safe for concurrent use.
//
// Example:
//
//	mock := &MockChatModel{
//	    Responses: []ChatOut{
//	        {Text: "First response"},
//	        {Text: "Second response"},
//	    },
//	}
//
// Each Chat call returns the next response; once exhausted, the last
// response repeats.
type MockChatModel struct {
	// Responses contains the sequence of responses to return.
	Responses []ChatOut

	// Err, if set, is returned by Chat instead of a response.
	Err error

	// Calls tracks the history of all Chat invocations.
	Calls []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records a single invocation of Chat.
type MockChatCall struct {
	Messages []Message
	Tools    []ToolSpec
}

// Chat implements the ChatModel interface.
//
// Always records the call in Calls, even when returning Err.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]Message, len(messages))
	copy(recorded, messages)
	m.Calls = append(m.Calls, MockChatCall{Messages: recorded, Tools: tools})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears the call history and restarts the response sequence.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of times Chat has been called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
