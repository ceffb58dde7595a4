package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/tradingagents-go/agents/model"
)

// Binding pairs a tool implementation with the spec advertised to the
// language model.
type Binding struct {
	Spec model.ToolSpec
	Impl Tool
}

// Dispatcher bundles the fixed, ordered tool set of one analyst category.
//
// One dispatcher exists per category (market, social, news,
// fundamentals). The stage node advertises the dispatcher's specs to the
// model and routes requested tool calls through Dispatch.
//
// The dispatcher imposes no retry policy; transient failures propagate
// to the calling stage, which decides whether to retry or degrade.
type Dispatcher struct {
	category string
	bindings []Binding
	index    map[string]Tool
}

// NewDispatcher creates a dispatcher for one analyst category.
//
// Binding order is preserved: it is the order tools are advertised to
// the model (unified first, then online, then offline variants).
func NewDispatcher(category string, bindings ...Binding) (*Dispatcher, error) {
	if category == "" {
		return nil, errors.New("dispatcher category cannot be empty")
	}

	index := make(map[string]Tool, len(bindings))
	for _, b := range bindings {
		if b.Impl == nil {
			return nil, fmt.Errorf("dispatcher %s: nil tool for %q", category, b.Spec.Name)
		}
		if b.Spec.Name != b.Impl.Name() {
			return nil, fmt.Errorf("dispatcher %s: spec name %q does not match tool name %q",
				category, b.Spec.Name, b.Impl.Name())
		}
		if _, exists := index[b.Spec.Name]; exists {
			return nil, fmt.Errorf("dispatcher %s: duplicate tool %q", category, b.Spec.Name)
		}
		index[b.Spec.Name] = b.Impl
	}

	return &Dispatcher{
		category: category,
		bindings: bindings,
		index:    index,
	}, nil
}

// Category returns the analyst category this dispatcher serves.
func (d *Dispatcher) Category() string {
	return d.category
}

// Has reports whether the dispatcher serves the named tool.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Specs returns the ordered tool specs to advertise to the model.
func (d *Dispatcher) Specs() []model.ToolSpec {
	specs := make([]model.ToolSpec, len(d.bindings))
	for i, b := range d.bindings {
		specs[i] = b.Spec
	}
	return specs
}

// Dispatch executes the requested tool call and returns its result
// serialized as text for the run transcript.
//
// Unknown tool names and tool failures are reported as *ExecutionError.
func (d *Dispatcher) Dispatch(ctx context.Context, call model.ToolCall) (string, error) {
	impl, ok := d.index[call.Name]
	if !ok {
		return "", &ExecutionError{
			Tool:  call.Name,
			Cause: fmt.Errorf("unknown tool in %s dispatcher", d.category),
		}
	}

	result, err := impl.Call(ctx, call.Input)
	if err != nil {
		return "", &ExecutionError{Tool: call.Name, Cause: err}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", &ExecutionError{
			Tool:  call.Name,
			Cause: fmt.Errorf("result not serializable: %w", err),
		}
	}
	return string(data), nil
}
