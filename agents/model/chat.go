// Package model provides LLM integration adapters for the decision pipeline.
package model

import (
	"context"
	"time"
)

// ChatModel defines the interface for LLM chat providers.
//
// It abstracts the differences between providers (OpenAI, Anthropic,
// Google) behind a single chat API with optional tool calling.
//
// Implementations should:
//   - Handle provider-specific authentication and message formats
//   - Respect context cancellation and the configured per-call timeout
//   - Retry transient failures with bounded attempts
type ChatModel interface {
	// Chat sends the conversation to the LLM and returns its response.
	//
	// tools is the optional set of tools the model may request; pass nil
	// to disallow tool calls for this turn. The model may respond with
	// text, tool calls, or both.
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}

// Message represents a single message in an LLM conversation.
//
// Messages follow the common chat format shared by the major providers.
// A message produced by the assistant may carry tool calls; a message
// with RoleTool carries the textual result of one tool invocation.
type Message struct {
	// Role identifies the message sender. Use the Role* constants.
	Role string `json:"role"`

	// Content contains the message text. May be empty for assistant
	// messages that only request tool calls.
	Content string `json:"content"`

	// ToolCalls holds tool invocations requested by an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolName names the tool that produced a RoleTool message.
	ToolName string `json:"tool_name,omitempty"`
}

// Standard role constants for LLM conversations.
const (
	// RoleSystem sets context or instructions, typically first.
	RoleSystem = "system"

	// RoleUser carries user input or framing data.
	RoleUser = "user"

	// RoleAssistant carries generated text or tool call requests.
	RoleAssistant = "assistant"

	// RoleTool carries the result of an executed tool call.
	RoleTool = "tool"
)

// ToolSpec describes a tool that an LLM can call.
//
// The Schema field follows JSON Schema and describes the expected input
// parameters. Optional for tools with no parameters.
type ToolSpec struct {
	// Name uniquely identifies the tool (alphanumeric + underscores).
	Name string

	// Description explains what the tool does. The LLM uses it to
	// decide when to call the tool.
	Description string

	// Schema defines the tool's input parameters (JSON Schema).
	Schema map[string]interface{}
}

// ChatOut represents the output of an LLM chat completion.
type ChatOut struct {
	// Text contains the generated response. May be empty if the model
	// only requested tool calls.
	Text string

	// ToolCalls contains tools the model wants to invoke. Empty for a
	// direct text response.
	ToolCalls []ToolCall
}

// ToolCall represents a request from the LLM to invoke a specific tool.
//
// The caller executes the tool with Input and appends the result to the
// conversation as a RoleTool message before re-invoking the model.
type ToolCall struct {
	// Name identifies which tool to call. Must match a ToolSpec.Name.
	Name string `json:"name"`

	// Input contains the parameters for the call. Structure matches
	// the ToolSpec.Schema. May be nil for parameterless tools.
	Input map[string]interface{} `json:"input,omitempty"`
}

// Settings holds the sampling and transport knobs honored by providers.
//
// Zero values select provider defaults.
type Settings struct {
	// Temperature is the sampling temperature. Zero means provider default.
	Temperature float64

	// MaxOutputTokens bounds the response length. Zero means provider default.
	MaxOutputTokens int

	// Timeout bounds each individual API call. Zero disables the
	// per-call deadline (the caller's context still applies).
	Timeout time.Duration
}
