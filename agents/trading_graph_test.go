package agents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/tradingagents-go/agents/emit"
	"github.com/dshills/tradingagents-go/agents/memory"
	"github.com/dshills/tradingagents-go/agents/model"
	"github.com/dshills/tradingagents-go/agents/tool"
)

func testMemories(t *testing.T) map[Role]memory.Store {
	t.Helper()

	stores := make(map[Role]memory.Store, len(Roles))
	for _, role := range Roles {
		store, err := memory.NewInMemoryStore(&memory.FakeEmbedder{})
		if err != nil {
			t.Fatalf("NewInMemoryStore: %v", err)
		}
		stores[role] = store
	}
	return stores
}

func newTestGraph(t *testing.T, quick, deep model.ChatModel,
	memories map[Role]memory.Store, opts ...Option) *TradingGraph {
	t.Helper()

	g, err := New(Deps{
		QuickModel:  quick,
		DeepModel:   deep,
		Dispatchers: testDispatchers(t),
		Memories:    memories,
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func holdModel() *model.MockChatModel {
	return &model.MockChatModel{
		Responses: []model.ChatOut{{Text: "HOLD, risk is balanced"}},
	}
}

// Full pipeline, all analysts, one round per panel, no tool calls.
func TestTradingGraph_EndToEndHold(t *testing.T) {
	g := newTestGraph(t, holdModel(), holdModel(), nil)

	state, signal, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if signal != SignalHold {
		t.Errorf("signal = %v, want HOLD", signal)
	}
	if state.FinalDecision == "" {
		t.Error("final decision must be set at terminal state")
	}

	for category, report := range map[string]string{
		"market":       state.MarketReport,
		"sentiment":    state.SentimentReport,
		"news":         state.NewsReport,
		"fundamentals": state.FundamentalsReport,
	} {
		if report == "" {
			t.Errorf("%s report empty after full run", category)
		}
	}

	if state.InvestDebate.Count != 1 {
		t.Errorf("invest debate count = %d, want 1", state.InvestDebate.Count)
	}
	if state.RiskDebate.Count != 1 {
		t.Errorf("risk debate count = %d, want 1", state.RiskDebate.Count)
	}

	exchanges := map[string]struct {
		history string
		label   string
	}{
		"bull":    {state.InvestDebate.BullHistory, "Bull Analyst:"},
		"bear":    {state.InvestDebate.BearHistory, "Bear Analyst:"},
		"risky":   {state.RiskDebate.RiskyHistory, "Risky Analyst:"},
		"safe":    {state.RiskDebate.SafeHistory, "Safe Analyst:"},
		"neutral": {state.RiskDebate.NeutralHistory, "Neutral Analyst:"},
	}
	for name, e := range exchanges {
		if got := strings.Count(e.history, e.label); got != 1 {
			t.Errorf("%s history has %d exchanges, want exactly 1:\n%s", name, got, e.history)
		}
	}

	if state.InvestDebate.JudgeDecision == "" || state.TraderPlan == "" {
		t.Error("judge decision and trader plan must be set")
	}
	if state.RiskDebate.LatestSpeaker != SpeakerNeutral {
		t.Errorf("latest speaker = %q, want neutral", state.RiskDebate.LatestSpeaker)
	}
	if g.CurrentState() != state {
		t.Error("terminal state not stored as current")
	}
}

// The market analyst requests one tool call before writing its report.
func TestTradingGraph_ToolCallPrecedesReport(t *testing.T) {
	quick := &model.MockChatModel{
		Responses: []model.ChatOut{
			{ToolCalls: []model.ToolCall{{
				Name:  "get_price_history_online",
				Input: map[string]interface{}{"symbol": "AAPL", "date": "2024-05-01"},
			}}},
			{Text: "Prices reviewed. HOLD, risk is balanced"},
		},
	}
	g := newTestGraph(t, quick, holdModel(), nil)

	state, _, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	toolIdx := -1
	for i, msg := range state.Messages {
		if msg.Role == model.RoleTool && msg.ToolName == "get_price_history_online" {
			toolIdx = i
			break
		}
	}
	if toolIdx < 0 {
		t.Fatal("transcript has no tool result message")
	}
	if !strings.Contains(state.Messages[toolIdx].Content, "stub market data") {
		t.Errorf("tool result not in transcript: %q", state.Messages[toolIdx].Content)
	}

	if state.MarketReport != "Prices reviewed. HOLD, risk is balanced" {
		t.Fatalf("market report = %q", state.MarketReport)
	}
	reportIdx := -1
	for i, msg := range state.Messages {
		if msg.Role == model.RoleAssistant && msg.Content == state.MarketReport {
			reportIdx = i
			break
		}
	}
	if reportIdx < 0 {
		t.Fatal("market report not present in transcript")
	}
	if reportIdx < toolIdx {
		t.Errorf("market report (index %d) precedes its tool result (index %d)", reportIdx, toolIdx)
	}
}

// A model that keeps requesting tools must still produce a report once
// the per-stage tool budget is spent; the run terminates normally.
func TestTradingGraph_ToolBudgetDegradesToReport(t *testing.T) {
	quick := &model.MockChatModel{
		Responses: []model.ChatOut{{
			Text: "Prices reviewed. HOLD, risk is balanced",
			ToolCalls: []model.ToolCall{{
				Name:  "get_price_history_online",
				Input: map[string]interface{}{"symbol": "AAPL", "date": "2024-05-01"},
			}},
		}},
	}
	g := newTestGraph(t, quick, holdModel(), nil,
		WithAnalysts(AnalystMarket),
		WithMaxToolCallsPerStage(1),
		WithMaxSteps(20))

	state, signal, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if signal != SignalHold {
		t.Errorf("signal = %v, want HOLD", signal)
	}
	if state.MarketReport != "Prices reviewed. HOLD, risk is balanced" {
		t.Errorf("market report = %q, want the degraded report text", state.MarketReport)
	}

	toolResults := 0
	for _, msg := range state.Messages {
		if msg.Role == model.RoleTool {
			toolResults++
		}
	}
	if toolResults != 1 {
		t.Errorf("transcript has %d tool results, want 1 (the stage budget)", toolResults)
	}
}

// stalledChatModel blocks until its call context expires.
type stalledChatModel struct{}

func (stalledChatModel) Chat(ctx context.Context, _ []model.Message, _ []model.ToolSpec) (model.ChatOut, error) {
	<-ctx.Done()
	return model.ChatOut{}, ctx.Err()
}

// A per-call deadline hit surfaces as ErrUpstreamTimeout wrapped in the
// stage's *UpstreamError, not as a bare context error.
func TestTradingGraph_ModelTimeout(t *testing.T) {
	g := newTestGraph(t, stalledChatModel{}, holdModel(), nil,
		WithModelTimeout(10*time.Millisecond),
		WithMaxModelRetries(0))

	_, _, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("err = %v, want ErrUpstreamTimeout", err)
	}

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatal("expected *UpstreamError carrying the failing stage")
	}
	if upstreamErr.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 with retries disabled", upstreamErr.Attempts)
	}
	if g.CurrentState() != nil {
		t.Error("failed run must not publish a current state")
	}
}

// maxSteps=1 cannot reach terminal: the run must fail, not truncate.
func TestTradingGraph_MaxStepsExceeded(t *testing.T) {
	g := newTestGraph(t, holdModel(), holdModel(), nil, WithMaxSteps(1))

	state, _, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Fatalf("err = %v, want ErrMaxStepsExceeded", err)
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatal("expected *RunError with run context")
	}
	if runErr.Instrument != "AAPL" || runErr.TradeDate != "2024-05-01" {
		t.Errorf("run context = %s/%s", runErr.Instrument, runErr.TradeDate)
	}

	if state != nil {
		t.Error("failed run must not return a state")
	}
	if g.CurrentState() != nil {
		t.Error("failed run must not publish a current state")
	}
}

// Reflection before any completed run.
func TestTradingGraph_ReflectBeforeRun(t *testing.T) {
	memories := testMemories(t)
	g := newTestGraph(t, holdModel(), holdModel(), memories)

	err := g.ReflectAndRemember(context.Background(), -0.05)
	if !errors.Is(err, ErrNoPriorRun) {
		t.Fatalf("err = %v, want ErrNoPriorRun", err)
	}

	for role, store := range memories {
		if store.Len() != 0 {
			t.Errorf("store %s mutated without a run: Len = %d", role, store.Len())
		}
	}
}

func TestTradingGraph_ReflectAndRemember(t *testing.T) {
	memories := testMemories(t)
	g := newTestGraph(t, holdModel(), holdModel(), memories)

	if _, _, err := g.Run(context.Background(), "AAPL", "2024-05-01"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := g.ReflectAndRemember(context.Background(), 0.03); err != nil {
		t.Fatalf("ReflectAndRemember: %v", err)
	}

	for role, store := range memories {
		if store.Len() != 1 {
			t.Errorf("store %s has %d entries after one reflection, want 1", role, store.Len())
		}
	}
}

func TestTradingGraph_NoAnalysts(t *testing.T) {
	g := newTestGraph(t, holdModel(), holdModel(), nil, WithAnalysts())

	state, signal, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if state.MarketReport != "" || state.SentimentReport != "" ||
		state.NewsReport != "" || state.FundamentalsReport != "" {
		t.Error("reports must stay empty with no analysts enabled")
	}
	if state.FinalDecision == "" {
		t.Error("run must still reach terminal state")
	}
	if signal != SignalHold {
		t.Errorf("signal = %v, want HOLD", signal)
	}
}

func TestTradingGraph_Cancellation(t *testing.T) {
	g := newTestGraph(t, holdModel(), holdModel(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, _, err := g.Run(ctx, "AAPL", "2024-05-01")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if state != nil || g.CurrentState() != nil {
		t.Error("aborted run must not yield a terminal state")
	}
}

func TestTradingGraph_UpstreamFailure(t *testing.T) {
	quick := &model.MockChatModel{Err: errors.New("provider unavailable")}
	g := newTestGraph(t, quick, holdModel(), nil, WithMaxModelRetries(0))

	_, _, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if g.CurrentState() != nil {
		t.Error("failed run must not publish a current state")
	}
}

func TestTradingGraph_InvalidRunInputs(t *testing.T) {
	g := newTestGraph(t, holdModel(), holdModel(), nil)

	for name, args := range map[string][2]string{
		"empty instrument": {"", "2024-05-01"},
		"empty date":       {"AAPL", ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := g.Run(context.Background(), args[0], args[1])
			if err == nil {
				t.Fatal("expected validation error")
			}
			var runErr *RunError
			if !errors.As(err, &runErr) {
				t.Errorf("expected *RunError, got %v", err)
			}
		})
	}
}

// A run whose log write fails is a failed run: no state returned, no
// current state published, nothing to reflect on.
func TestTradingGraph_RunLogFailureStaysUnpublished(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runlog")
	g := newTestGraph(t, holdModel(), holdModel(), nil, WithRunLogDir(dir))

	// Removing the directory out from under the log makes the append
	// fail after the pipeline itself has finished.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	state, _, err := g.Run(context.Background(), "AAPL", "2024-05-01")
	if err == nil {
		t.Fatal("expected run log failure to fail the run")
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Errorf("expected *RunError, got %v", err)
	}
	if state != nil {
		t.Error("failed run must not return a state")
	}
	if g.CurrentState() != nil {
		t.Error("failed run must not publish a current state")
	}
	if err := g.ReflectAndRemember(context.Background(), 0.01); !errors.Is(err, ErrNoPriorRun) {
		t.Errorf("reflect after failed run = %v, want ErrNoPriorRun", err)
	}
}

// Streaming is observational only: identical inputs produce an
// identical terminal state, streaming just adds state_update events.
func TestTradingGraph_StreamingEquivalence(t *testing.T) {
	run := func(streaming bool, emitter emit.Emitter) *AgentState {
		g, err := New(Deps{
			QuickModel:  holdModel(),
			DeepModel:   holdModel(),
			Dispatchers: testDispatchers(t),
			Emitter:     emitter,
		}, WithStreaming(streaming))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		state, _, err := g.Run(context.Background(), "AAPL", "2024-05-01")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return state
	}

	buffered := emit.NewBufferedEmitter()
	streamed := run(true, buffered)
	batch := run(false, nil)

	if streamed.Snapshot() != batch.Snapshot() {
		t.Error("streaming and batch runs diverged")
	}

	updates := buffered.HistoryWithFilter("AAPL/2024-05-01", emit.HistoryFilter{Msg: "state_update"})
	if len(updates) == 0 {
		t.Error("streaming run emitted no state_update events")
	}
}

func TestNew_ConfigErrors(t *testing.T) {
	deps := Deps{
		QuickModel:  holdModel(),
		DeepModel:   holdModel(),
		Dispatchers: testDispatchers(t),
	}

	t.Run("missing dispatcher", func(t *testing.T) {
		bad := deps
		bad.Dispatchers = map[string]*tool.Dispatcher{}
		_, err := New(bad)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected *ConfigError, got %v", err)
		}
	})

	t.Run("bad option", func(t *testing.T) {
		_, err := New(deps, WithAnalysts("astrology"))
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected *ConfigError, got %v", err)
		}
	})
}
