package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/tradingagents-go/agents/emit"
)

// engine drives one pipeline run to its terminal stage.
//
// Execution is strictly sequential: each stage's model call depends on
// the transcript and debate history accumulated by its predecessors.
// The engine checks cancellation between stages (never mid-stage) and
// bounds total transitions with MaxSteps.
type engine struct {
	nodes   map[Stage]StageNode
	logic   *ConditionalLogic
	exec    ExecutionConfig
	emitter emit.Emitter
	metrics *Metrics
}

func newEngine(nodes map[Stage]StageNode, logic *ConditionalLogic,
	exec ExecutionConfig, emitter emit.Emitter, metrics *Metrics) *engine {

	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &engine{
		nodes:   nodes,
		logic:   logic,
		exec:    exec,
		emitter: emitter,
		metrics: metrics,
	}
}

// run executes stages from the start stage until StageTerminal.
//
// On any failure the state is considered abandoned: no terminal state
// exists and the caller must not publish it.
func (e *engine) run(ctx context.Context, runID string, state *AgentState) error {
	current := e.logic.StartStage()
	step := 0

	e.emitter.Emit(emit.Event{RunID: runID, Msg: "run_start"})

	for current != StageTerminal {
		if step >= e.exec.MaxSteps {
			e.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Stage: current.String(), Msg: "run_error",
				Meta: map[string]interface{}{"error": ErrMaxStepsExceeded.Error()},
			})
			return ErrMaxStepsExceeded
		}

		select {
		case <-ctx.Done():
			e.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Stage: current.String(), Msg: "run_error",
				Meta: map[string]interface{}{"error": ctx.Err().Error()},
			})
			return ctx.Err()
		default:
		}

		node, ok := e.nodes[current]
		if !ok {
			return fmt.Errorf("no node registered for stage %s", current)
		}
		step++

		e.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Stage: current.String(), Msg: "stage_start",
		})

		start := time.Now()
		err := node.Run(ctx, state)
		elapsed := time.Since(start)

		status := "success"
		meta := map[string]interface{}{
			"duration_ms": elapsed.Milliseconds(),
		}
		if err != nil {
			status = "error"
			meta["error"] = err.Error()
		}
		e.metrics.RecordStageLatency(current.String(), status, elapsed)

		e.emitter.Emit(emit.Event{
			RunID: runID, Step: step, Stage: current.String(), Msg: "stage_end", Meta: meta,
		})
		if err != nil {
			return err
		}

		if e.exec.Streaming {
			e.emitter.Emit(emit.Event{
				RunID: runID, Step: step, Stage: current.String(), Msg: "state_update",
				Meta: map[string]interface{}{"state": state.Snapshot()},
			})
		}

		current = e.logic.NextStage(state, current)
	}

	e.emitter.Emit(emit.Event{RunID: runID, Step: step, Msg: "run_complete"})
	return nil
}
