// Package anthropic implements model.ChatModel on the official Anthropic Go SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/tradingagents-go/agents/model"
)

// defaultMaxTokens applies when the caller does not bound output length;
// the Anthropic API requires an explicit max_tokens value.
const defaultMaxTokens = 4096

// ChatModel implements model.ChatModel for Anthropic's Claude API.
//
// Anthropic takes the system prompt as a separate request parameter, so
// RoleSystem messages are extracted from the transcript before the call.
type ChatModel struct {
	client    anthropic.Client
	modelName string
	settings  model.Settings
}

// New creates an Anthropic-backed ChatModel. modelName defaults to
// claude-3-5-sonnet-latest when empty.
func New(apiKey, modelName string, settings model.Settings) *ChatModel {
	if modelName == "" {
		modelName = "claude-3-5-sonnet-latest"
	}
	return &ChatModel{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
		settings:  settings,
	}
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	if m.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.settings.Timeout)
		defer cancel()
	}

	system, converted := convertMessages(messages)

	maxTokens := int64(defaultMaxTokens)
	if m.settings.MaxOutputTokens > 0 {
		maxTokens = int64(m.settings.MaxOutputTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: maxTokens,
		Messages:  converted,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if m.settings.Temperature > 0 {
		params.Temperature = anthropic.Float(m.settings.Temperature)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic API error: %w", err)
	}
	if message == nil || len(message.Content) == 0 {
		return model.ChatOut{}, errors.New("no response from Anthropic API")
	}

	return convertResponse(message), nil
}

// convertMessages splits out the system prompt and maps the remaining
// transcript to Anthropic message params. Tool results are forwarded as
// user turns; the transcript does not track provider tool-use IDs.
func convertMessages(messages []model.Message) (string, []anthropic.MessageParam) {
	var system string
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case model.RoleAssistant:
			if msg.Content != "" {
				out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case model.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf("Result of %s:\n%s", msg.ToolName, msg.Content))))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return system, out
}

func convertTools(tools []model.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		tp := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
		}
		if props, ok := t.Schema["properties"].(map[string]interface{}); ok {
			tp.InputSchema = anthropic.ToolInputSchemaParam{Properties: props}
		}
		out[i] = anthropic.ToolUnionParam{OfTool: &tp}
	}
	return out
}

func convertResponse(message *anthropic.Message) model.ChatOut {
	var out model.ChatOut
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			input := map[string]interface{}{}
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &input)
			}
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				Name:  block.Name,
				Input: input,
			})
		}
	}
	return out
}
