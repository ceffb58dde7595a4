package agents

import (
	"context"
	"sync"

	"github.com/dshills/tradingagents-go/agents/emit"
	"github.com/dshills/tradingagents-go/agents/memory"
	"github.com/dshills/tradingagents-go/agents/model"
	"github.com/dshills/tradingagents-go/agents/tool"
)

// Deps are the external capabilities a TradingGraph consumes.
type Deps struct {
	// QuickModel handles analysts, researchers, and risk debaters.
	QuickModel model.ChatModel

	// DeepModel handles the judges and the trader.
	DeepModel model.ChatModel

	// Dispatchers maps each enabled analyst category to its tool
	// bundle.
	Dispatchers map[string]*tool.Dispatcher

	// Memories maps reflecting roles to their stores. Missing roles
	// skip recall and reflection.
	Memories map[Role]memory.Store

	// ReflectionModel produces post-outcome critiques. Defaults to
	// DeepModel.
	ReflectionModel model.ChatModel

	// SignalModel is the optional model-assisted signal fallback.
	SignalModel model.ChatModel

	// Emitter receives run observability events. Defaults to a null
	// emitter.
	Emitter emit.Emitter

	// Metrics collects Prometheus metrics. Nil disables collection.
	Metrics *Metrics
}

// TradingGraph is the orchestrator facade.
//
// It owns the routing policy, the compiled stage graph, the reflection
// engine, and the signal extractor. Run executes one decision pipeline;
// ReflectAndRemember folds a realized outcome back into the role
// memories.
//
// A TradingGraph is safe for concurrent Run calls: runs share no state,
// and the stored "current" terminal state is guarded for the
// Run/ReflectAndRemember handoff.
type TradingGraph struct {
	cfg        Config
	propagator *Propagator
	logic      *ConditionalLogic
	nodes      map[Stage]StageNode
	reflector  *Reflector
	signals    *SignalProcessor
	emitter    emit.Emitter
	metrics    *Metrics
	runLog     *RunLog

	mu       sync.Mutex
	curState *AgentState
}

// New builds a TradingGraph from deps and options applied over
// DefaultConfig. Configuration defects surface here as *ConfigError,
// before any run starts.
func New(deps Deps, opts ...Option) (*TradingGraph, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setup := NewGraphSetup(cfg, deps.QuickModel, deps.DeepModel,
		deps.Dispatchers, deps.Memories, deps.Metrics)
	nodes, err := setup.Build()
	if err != nil {
		return nil, err
	}

	emitter := deps.Emitter
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}

	reflectionModel := deps.ReflectionModel
	if reflectionModel == nil {
		reflectionModel = deps.DeepModel
	}

	g := &TradingGraph{
		cfg:        cfg,
		propagator: NewPropagator(cfg),
		logic:      NewConditionalLogic(cfg),
		nodes:      nodes,
		reflector:  NewReflector(reflectionModel, deps.Memories, deps.Metrics),
		signals:    NewSignalProcessor(deps.SignalModel),
		emitter:    emitter,
		metrics:    deps.Metrics,
	}

	if cfg.RunLogDir != "" {
		runLog, err := NewRunLog(cfg.RunLogDir)
		if err != nil {
			return nil, err
		}
		g.runLog = runLog
	}
	return g, nil
}

// Run executes the pipeline for one instrument/date and returns the
// terminal state plus its canonical signal.
//
// A failed run returns a *RunError carrying the instrument/date
// context and leaves the stored current state unchanged; no partial
// terminal state is ever exposed.
func (g *TradingGraph) Run(ctx context.Context, instrument, tradeDate string) (*AgentState, Signal, error) {
	state, err := g.propagator.CreateInitialState(instrument, tradeDate)
	if err != nil {
		return nil, SignalUnknown, &RunError{Instrument: instrument, TradeDate: tradeDate, Cause: err}
	}

	eng := newEngine(g.nodes, g.logic, g.propagator.GetExecutionConfig(), g.emitter, g.metrics)
	runID := instrument + "/" + tradeDate
	if err := eng.run(ctx, runID, state); err != nil {
		return nil, SignalUnknown, &RunError{Instrument: instrument, TradeDate: tradeDate, Cause: err}
	}

	signal := g.signals.Extract(ctx, state.FinalDecision, instrument)

	if g.runLog != nil {
		if err := g.runLog.Append(instrument, state.Snapshot()); err != nil {
			return nil, SignalUnknown, &RunError{Instrument: instrument, TradeDate: tradeDate, Cause: err}
		}
	}

	// Publish only after the run has fully succeeded, run log
	// included, so a failed run is never reflectable.
	g.mu.Lock()
	g.curState = state
	g.mu.Unlock()

	g.metrics.RecordRun(signal)
	return state, signal, nil
}

// ProcessSignal classifies an arbitrary decision narrative.
func (g *TradingGraph) ProcessSignal(ctx context.Context, text, instrument string) Signal {
	return g.signals.Extract(ctx, text, instrument)
}

// CurrentState returns the most recent terminal state, or nil before
// the first completed run.
func (g *TradingGraph) CurrentState() *AgentState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.curState
}

// ReflectAndRemember critiques the most recent completed run against
// its realized return and writes each role's lesson to its memory
// store. Fails with ErrNoPriorRun before the first completed run.
func (g *TradingGraph) ReflectAndRemember(ctx context.Context, returnsLosses float64) error {
	g.mu.Lock()
	state := g.curState
	g.mu.Unlock()

	if state == nil {
		return ErrNoPriorRun
	}
	return g.reflector.ReflectAll(ctx, state, returnsLosses)
}
