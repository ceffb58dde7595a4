package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPDataTool fetches one data endpoint over HTTP GET.
//
// It is the building block for the concrete retrieval tools: each tool
// instance is bound to one path on a data-service base URL, and string
// inputs are forwarded as query parameters.
//
// Output:
//   - "status_code": HTTP status code
//   - "body": response body as string, or decoded JSON under "data"
//     when the endpoint returns application/json
//
// Non-2xx responses are errors: a failed retrieval must surface as a
// typed error, never as a silent empty result.
type HTTPDataTool struct {
	name        string
	description string
	baseURL     string
	path        string
	client      *http.Client
}

// NewHTTPDataTool creates a data tool bound to baseURL+path.
func NewHTTPDataTool(name, description, baseURL, path string) *HTTPDataTool {
	return &HTTPDataTool{
		name:        name,
		description: description,
		baseURL:     strings.TrimRight(baseURL, "/"),
		path:        path,
		client:      &http.Client{
			// Timeout handled via context.
		},
	}
}

// Name returns the tool identifier.
func (h *HTTPDataTool) Name() string {
	return h.name
}

// Description returns the tool's model-facing description.
func (h *HTTPDataTool) Description() string {
	return h.description
}

// Call executes the HTTP fetch with the provided parameters.
func (h *HTTPDataTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	endpoint := h.baseURL + h.path

	query := url.Values{}
	for key, value := range input {
		query.Set(key, fmt.Sprintf("%v", value))
	}
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, h.path)
	}

	out := map[string]interface{}{
		"status_code": resp.StatusCode,
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var decoded interface{}
		if err := json.Unmarshal(body, &decoded); err == nil {
			out["data"] = decoded
			return out, nil
		}
	}
	out["body"] = string(body)
	return out, nil
}
