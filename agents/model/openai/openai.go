// Package openai implements model.ChatModel on the official OpenAI Go SDK.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/tradingagents-go/agents/model"
)

// ChatModel implements model.ChatModel for OpenAI's chat completion API.
//
// It also serves OpenAI-compatible endpoints (OpenRouter, Ollama, vLLM,
// SiliconFlow, DeepSeek, ...) via a custom base URL.
//
// Transient errors (rate limits, 5xx, network) are retried with a
// bounded attempt count and linear backoff.
type ChatModel struct {
	client     openai.Client
	modelName  string
	settings   model.Settings
	maxRetries int
	retryDelay time.Duration
}

// New creates an OpenAI-backed ChatModel.
//
// baseURL may be empty for the default endpoint. modelName defaults to
// gpt-4o-mini when empty.
func New(apiKey, modelName, baseURL string, settings model.Settings) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &ChatModel{
		client:     openai.NewClient(opts...),
		modelName:  modelName,
		settings:   settings,
		maxRetries: 3,
		retryDelay: time.Second,
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

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.complete(ctx, messages, tools)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}

		select {
		case <-time.After(m.retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}

	return model.ChatOut{}, fmt.Errorf("OpenAI API failed after %d retries: %w", m.maxRetries, lastErr)
}

func (m *ChatModel) complete(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
	if m.settings.Temperature > 0 {
		params.Temperature = openai.Float(m.settings.Temperature)
	}
	if m.settings.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(m.settings.MaxOutputTokens))
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatOut{}, errors.New("no response from OpenAI API")
	}

	msg := completion.Choices[0].Message
	out := model.ChatOut{Text: msg.Content}
	for _, call := range msg.ToolCalls {
		input := map[string]interface{}{}
		if call.Function.Arguments != "" {
			// Malformed arguments degrade to an empty input rather than
			// failing the whole completion.
			_ = json.Unmarshal([]byte(call.Function.Arguments), &input)
		}
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			Name:  call.Function.Name,
			Input: input,
		})
	}
	return out, nil
}

// convertMessages converts pipeline messages to OpenAI's union format.
// Tool results are forwarded as user messages because the transcript
// does not track provider tool-call IDs.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			if msg.Content != "" {
				out = append(out, openai.AssistantMessage(msg.Content))
			}
		case model.RoleTool:
			out = append(out, openai.UserMessage(
				fmt.Sprintf("Result of %s:\n%s", msg.ToolName, msg.Content)))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
		}
		if t.Schema != nil {
			fn.Parameters = shared.FunctionParameters(t.Schema)
		}
		out[i] = openai.ChatCompletionToolParam{Function: fn}
	}
	return out
}

// isTransientError determines if an error should trigger a retry.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"network",
		"connection",
		"temporary",
		"rate limit",
		"429",
		"500",
		"502",
		"503",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
