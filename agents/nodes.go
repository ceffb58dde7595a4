package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/tradingagents-go/agents/memory"
	"github.com/dshills/tradingagents-go/agents/model"
	"github.com/dshills/tradingagents-go/agents/tool"
)

// StageNode executes one stage of the pipeline, mutating state in
// place. Nodes never route; the routing policy owns transitions.
type StageNode interface {
	Stage() Stage
	Run(ctx context.Context, state *AgentState) error
}

// chatWithRetry calls the model with the per-call timeout and bounded
// retries from cfg. A deadline hit maps to ErrUpstreamTimeout; retry
// exhaustion escalates as *UpstreamError.
func chatWithRetry(ctx context.Context, m model.ChatModel, stage Stage, cfg Config,
	messages []model.Message, tools []model.ToolSpec, metrics *Metrics) (model.ChatOut, error) {

	attempts := cfg.MaxModelRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx := ctx
		cancel := func() {}
		if cfg.ModelTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, cfg.ModelTimeout)
		}

		out, err := m.Chat(callCtx, messages, tools)
		cancel()
		if err == nil {
			return out, nil
		}

		// The run itself was canceled; retrying cannot help.
		if ctx.Err() != nil {
			return model.ChatOut{}, ctx.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) {
			lastErr = fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		} else {
			lastErr = err
		}

		if attempt < attempts {
			metrics.RecordModelRetry(stage.String())
			select {
			case <-ctx.Done():
				return model.ChatOut{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}

	return model.ChatOut{}, &UpstreamError{
		Stage:    stage.String(),
		Attempts: attempts,
		Cause:    lastErr,
	}
}

func reportOrNA(report string) string {
	if report == "" {
		return "not available"
	}
	return report
}

// situationSummary is the memory query key: the four analyst reports
// concatenated, with disabled analysts marked not available.
func situationSummary(state *AgentState) string {
	return fmt.Sprintf(
		"Market report: %s\n\nSentiment report: %s\n\nNews report: %s\n\nFundamentals report: %s",
		reportOrNA(state.MarketReport),
		reportOrNA(state.SentimentReport),
		reportOrNA(state.NewsReport),
		reportOrNA(state.FundamentalsReport))
}

// recallLessons queries the role's store and formats past lessons for
// prompting. Empty when memory is disabled, the store is absent, or
// nothing similar is recorded.
func recallLessons(ctx context.Context, store memory.Store, cfg Config, situation string) (string, error) {
	if !cfg.MemoryEnabled || store == nil || cfg.MemoryTopK == 0 {
		return "", nil
	}

	matches, err := store.Query(ctx, situation, cfg.MemoryTopK)
	if err != nil {
		return "", fmt.Errorf("memory recall failed: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Lessons from similar past situations:\n")
	for i, match := range matches {
		fmt.Fprintf(&b, "%d. %s\n", i+1, match.Recommendation)
	}
	return b.String(), nil
}

// analystNode runs one analyst category's report stage.
//
// The stage is a suspend/resume loop driven by routing: when the model
// requests tools the node records the request and yields; the tool node
// appends results and routing re-enters this node. Once the per-stage
// tool budget is exhausted the model is called without tools, forcing a
// report from the transcript gathered so far.
type analystNode struct {
	stage      Stage
	category   string
	m          model.ChatModel
	dispatcher *tool.Dispatcher
	cfg        Config
	metrics    *Metrics
}

func (n *analystNode) Stage() Stage { return n.stage }

func (n *analystNode) Run(ctx context.Context, state *AgentState) error {
	system := model.Message{
		Role: model.RoleSystem,
		Content: fmt.Sprintf(
			"You are a %s analyst preparing a report on %s as of %s. "+
				"Use the available data tools as needed, then write a thorough report. "+
				"Reports from other analysts may be marked not available.",
			n.category, state.Instrument, state.TradeDate),
	}
	messages := append([]model.Message{system}, state.Messages...)

	var tools []model.ToolSpec
	if n.toolCallsUsed(state) < n.cfg.MaxToolCallsPerStage {
		tools = n.dispatcher.Specs()
	}

	out, err := chatWithRetry(ctx, n.m, n.stage, n.cfg, messages, tools, n.metrics)
	if err != nil {
		return err
	}

	// Some models request tools even when none were offered. With the
	// budget spent the request is dropped and the text stands as the
	// report, so the stage always terminates.
	if tools == nil {
		out.ToolCalls = nil
	}

	state.Messages = append(state.Messages, model.Message{
		Role:      model.RoleAssistant,
		Content:   out.Text,
		ToolCalls: out.ToolCalls,
	})

	if len(out.ToolCalls) == 0 {
		state.setReport(n.category, out.Text)
	}
	return nil
}

// toolCallsUsed counts tool results already produced for this category.
func (n *analystNode) toolCallsUsed(state *AgentState) int {
	used := 0
	for _, msg := range state.Messages {
		if msg.Role == model.RoleTool && n.dispatcher.Has(msg.ToolName) {
			used++
		}
	}
	return used
}

// toolDispatchNode executes the tool calls requested by the preceding
// analyst message and appends their results to the transcript.
//
// A failed tool surfaces its error text as the tool result so the
// analyst can degrade its report rather than abort the run.
type toolDispatchNode struct {
	stage      Stage
	dispatcher *tool.Dispatcher
	metrics    *Metrics
}

func (n *toolDispatchNode) Stage() Stage { return n.stage }

func (n *toolDispatchNode) Run(ctx context.Context, state *AgentState) error {
	last := state.LastMessage()
	for _, call := range last.ToolCalls {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := n.dispatcher.Dispatch(ctx, call)
		if err != nil {
			n.metrics.RecordToolCall(n.dispatcher.Category(), call.Name, "error")
			content = fmt.Sprintf("tool %s failed: %v", call.Name, err)
		} else {
			n.metrics.RecordToolCall(n.dispatcher.Category(), call.Name, "success")
		}

		state.Messages = append(state.Messages, model.Message{
			Role:     model.RoleTool,
			Content:  content,
			ToolName: call.Name,
		})
	}
	return nil
}

// researcherNode is one side of the bull/bear investment debate.
type researcherNode struct {
	stage   Stage
	side    string // "Bull" or "Bear"
	m       model.ChatModel
	store   memory.Store
	cfg     Config
	metrics *Metrics
}

func (n *researcherNode) Stage() Stage { return n.stage }

func (n *researcherNode) Run(ctx context.Context, state *AgentState) error {
	situation := situationSummary(state)
	lessons, err := recallLessons(ctx, n.store, n.cfg, situation)
	if err != nil {
		return err
	}

	goal := "argue for investing in"
	if n.side == "Bear" {
		goal = "argue against investing in"
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "%s\n\nDebate so far:\n%s\n", situation, state.InvestDebate.CombinedHistory)
	if state.InvestDebate.LastResponse != "" {
		fmt.Fprintf(&prompt, "\nOpponent's last argument:\n%s\n", state.InvestDebate.LastResponse)
	}
	if lessons != "" {
		prompt.WriteString("\n" + lessons)
	}

	messages := []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf(
			"You are the %s researcher. Based on the analyst reports, %s %s. "+
				"Engage directly with the opposing argument.",
			strings.ToLower(n.side), goal, state.Instrument)},
		{Role: model.RoleUser, Content: prompt.String()},
	}

	out, err := chatWithRetry(ctx, n.m, n.stage, n.cfg, messages, nil, n.metrics)
	if err != nil {
		return err
	}

	argument := fmt.Sprintf("%s Analyst: %s", n.side, out.Text)
	if n.side == "Bull" {
		state.InvestDebate.BullHistory += argument + "\n"
	} else {
		state.InvestDebate.BearHistory += argument + "\n"
		// The bear's reply completes one exchange.
		state.InvestDebate.Count++
	}
	state.InvestDebate.CombinedHistory += argument + "\n"
	state.InvestDebate.LastResponse = argument

	state.Messages = append(state.Messages, model.Message{
		Role:    model.RoleAssistant,
		Content: argument,
	})
	return nil
}

// investJudgeNode weighs the finished debate and issues the investment
// plan the trader works from.
type investJudgeNode struct {
	m       model.ChatModel
	store   memory.Store
	cfg     Config
	metrics *Metrics
}

func (n *investJudgeNode) Stage() Stage { return StageInvestJudge }

func (n *investJudgeNode) Run(ctx context.Context, state *AgentState) error {
	situation := situationSummary(state)
	lessons, err := recallLessons(ctx, n.store, n.cfg, situation)
	if err != nil {
		return err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "%s\n\nDebate:\n%s\n", situation, state.InvestDebate.CombinedHistory)
	if lessons != "" {
		prompt.WriteString("\n" + lessons)
	}

	messages := []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf(
			"You are the research manager judging the bull/bear debate on %s. "+
				"Pick a side decisively and state an actionable investment plan.",
			state.Instrument)},
		{Role: model.RoleUser, Content: prompt.String()},
	}

	out, err := chatWithRetry(ctx, n.m, StageInvestJudge, n.cfg, messages, nil, n.metrics)
	if err != nil {
		return err
	}

	state.InvestDebate.JudgeDecision = out.Text
	state.InvestmentPlan = out.Text
	state.Messages = append(state.Messages, model.Message{
		Role:    model.RoleAssistant,
		Content: out.Text,
	})
	return nil
}

// traderNode turns the investment plan into a concrete trade proposal.
type traderNode struct {
	m       model.ChatModel
	store   memory.Store
	cfg     Config
	metrics *Metrics
}

func (n *traderNode) Stage() Stage { return StageTrader }

func (n *traderNode) Run(ctx context.Context, state *AgentState) error {
	situation := situationSummary(state)
	lessons, err := recallLessons(ctx, n.store, n.cfg, situation)
	if err != nil {
		return err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "%s\n\nInvestment plan:\n%s\n", situation, state.InvestmentPlan)
	if lessons != "" {
		prompt.WriteString("\n" + lessons)
	}

	messages := []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf(
			"You are the trader responsible for %s. Based on the investment plan, "+
				"propose a concrete trade and end with FINAL TRANSACTION PROPOSAL: "+
				"**BUY**, **SELL**, or **HOLD**.",
			state.Instrument)},
		{Role: model.RoleUser, Content: prompt.String()},
	}

	out, err := chatWithRetry(ctx, n.m, StageTrader, n.cfg, messages, nil, n.metrics)
	if err != nil {
		return err
	}

	state.TraderPlan = out.Text
	state.Messages = append(state.Messages, model.Message{
		Role:    model.RoleAssistant,
		Content: out.Text,
	})
	return nil
}

// riskDebaterNode is one voice of the risky/safe/neutral panel.
type riskDebaterNode struct {
	stage   Stage
	speaker Speaker
	m       model.ChatModel
	cfg     Config
	metrics *Metrics
}

func (n *riskDebaterNode) Stage() Stage { return n.stage }

func (n *riskDebaterNode) Run(ctx context.Context, state *AgentState) error {
	stances := map[Speaker]string{
		SpeakerRisky:   "advocate for bold, high-reward positioning",
		SpeakerSafe:    "advocate for capital preservation and caution",
		SpeakerNeutral: "weigh both sides and push for a balanced view",
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Trader's plan for %s:\n%s\n\nRisk debate so far:\n%s\n",
		state.Instrument, state.TraderPlan, state.RiskDebate.CombinedHistory)

	messages := []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf(
			"You are the %s risk debater. Critique the trader's plan: %s.",
			n.speaker, stances[n.speaker])},
		{Role: model.RoleUser, Content: prompt.String()},
	}

	out, err := chatWithRetry(ctx, n.m, n.stage, n.cfg, messages, nil, n.metrics)
	if err != nil {
		return err
	}

	label := strings.ToUpper(string(n.speaker)[:1]) + string(n.speaker)[1:]
	argument := fmt.Sprintf("%s Analyst: %s", label, out.Text)

	switch n.speaker {
	case SpeakerRisky:
		state.RiskDebate.RiskyHistory += argument + "\n"
	case SpeakerSafe:
		state.RiskDebate.SafeHistory += argument + "\n"
	case SpeakerNeutral:
		state.RiskDebate.NeutralHistory += argument + "\n"
		// The neutral voice closes one risky/safe/neutral cycle.
		state.RiskDebate.Count++
	}
	state.RiskDebate.CombinedHistory += argument + "\n"
	state.RiskDebate.LatestSpeaker = n.speaker

	state.Messages = append(state.Messages, model.Message{
		Role:    model.RoleAssistant,
		Content: argument,
	})
	return nil
}

// riskJudgeNode closes the run: it weighs the risk debate and writes
// the final decision.
type riskJudgeNode struct {
	m       model.ChatModel
	store   memory.Store
	cfg     Config
	metrics *Metrics
}

func (n *riskJudgeNode) Stage() Stage { return StageRiskJudge }

func (n *riskJudgeNode) Run(ctx context.Context, state *AgentState) error {
	situation := situationSummary(state)
	lessons, err := recallLessons(ctx, n.store, n.cfg, situation)
	if err != nil {
		return err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "%s\n\nTrader's plan:\n%s\n\nRisk debate:\n%s\n",
		situation, state.TraderPlan, state.RiskDebate.CombinedHistory)
	if lessons != "" {
		prompt.WriteString("\n" + lessons)
	}

	messages := []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf(
			"You are the risk manager making the final call on %s. Weigh the "+
				"debate and issue the binding decision, ending with a clear "+
				"BUY, SELL, or HOLD.",
			state.Instrument)},
		{Role: model.RoleUser, Content: prompt.String()},
	}

	out, err := chatWithRetry(ctx, n.m, StageRiskJudge, n.cfg, messages, nil, n.metrics)
	if err != nil {
		return err
	}

	state.RiskDebate.JudgeDecision = out.Text
	state.FinalDecision = out.Text
	state.Messages = append(state.Messages, model.Message{
		Role:    model.RoleAssistant,
		Content: out.Text,
	})
	return nil
}
