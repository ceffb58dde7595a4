package agents

import (
	"errors"
	"fmt"

	"github.com/dshills/tradingagents-go/agents/model"
)

// Propagator builds initial run state and supplies execution
// parameters to the engine.
type Propagator struct {
	cfg Config
}

// NewPropagator creates a Propagator for cfg.
func NewPropagator(cfg Config) *Propagator {
	return &Propagator{cfg: cfg}
}

// CreateInitialState validates the run inputs and returns a zeroed
// state with the framing message seeded into the transcript.
func (p *Propagator) CreateInitialState(instrument, tradeDate string) (*AgentState, error) {
	if instrument == "" {
		return nil, errors.New("instrument cannot be empty")
	}
	if tradeDate == "" {
		return nil, errors.New("trade date cannot be empty")
	}

	state := NewAgentState(instrument, tradeDate)
	state.Messages = append(state.Messages, model.Message{
		Role: model.RoleUser,
		Content: fmt.Sprintf(
			"Analyze %s as of %s and decide whether to buy, sell, or hold.",
			instrument, tradeDate),
	})
	return state, nil
}

// ExecutionConfig is the engine parameter surface.
type ExecutionConfig struct {
	// MaxSteps bounds total stage transitions.
	MaxSteps int

	// Streaming enables per-stage state_update events.
	Streaming bool
}

// GetExecutionConfig returns the engine parameters for this run.
func (p *Propagator) GetExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		MaxSteps:  p.cfg.MaxSteps,
		Streaming: p.cfg.Streaming,
	}
}
