// Package google implements model.ChatModel on the Google Gemini SDK.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/tradingagents-go/agents/model"
)

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// The SDK client is created per call: genai clients hold a transport
// bound to the call context and are cheap to construct.
type ChatModel struct {
	apiKey    string
	modelName string
	settings  model.Settings
}

// New creates a Gemini-backed ChatModel. modelName defaults to
// gemini-1.5-flash when empty.
func New(apiKey, modelName string, settings model.Settings) *ChatModel {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &ChatModel{
		apiKey:    apiKey,
		modelName: modelName,
		settings:  settings,
	}
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	if m.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.settings.Timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer func() { _ = client.Close() }()

	genModel := client.GenerativeModel(m.modelName)
	if m.settings.Temperature > 0 {
		genModel.SetTemperature(float32(m.settings.Temperature))
	}
	if m.settings.MaxOutputTokens > 0 {
		genModel.SetMaxOutputTokens(int32(m.settings.MaxOutputTokens))
	}
	if len(tools) > 0 {
		genModel.Tools = convertTools(tools)
	}

	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}

	return convertResponse(resp), nil
}

// convertMessages flattens the transcript into Gemini text parts.
// Gemini sets system instructions on the model; for this transcript
// shape, folding everything into ordered parts is equivalent.
func convertMessages(messages []model.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		content := msg.Content
		if msg.Role == model.RoleTool {
			content = fmt.Sprintf("Result of %s:\n%s", msg.ToolName, msg.Content)
		}
		if content != "" {
			parts = append(parts, genai.Text(content))
		}
	}
	return parts
}

func convertTools(tools []model.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Schema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertSchema maps a JSON-schema object with string properties to the
// genai schema type. The pipeline's tool schemas are flat string maps.
func convertSchema(schema map[string]interface{}) *genai.Schema {
	if schema == nil {
		return nil
	}

	result := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for key, val := range props {
			prop := &genai.Schema{Type: genai.TypeString}
			if propMap, ok := val.(map[string]interface{}); ok {
				if desc, ok := propMap["description"].(string); ok {
					prop.Description = desc
				}
			}
			result.Properties[key] = prop
		}
	}
	if required, ok := schema["required"].([]string); ok {
		result.Required = required
	}
	return result
}

func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	var out model.ChatOut
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				Name:  p.Name,
				Input: p.Args,
			})
		}
	}
	return out
}
