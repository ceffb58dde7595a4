package agents

import (
	"github.com/dshills/tradingagents-go/agents/model"
)

// Speaker identifies the most recent risk-panel voice.
type Speaker string

const (
	SpeakerNone    Speaker = "none"
	SpeakerRisky   Speaker = "risky"
	SpeakerSafe    Speaker = "safe"
	SpeakerNeutral Speaker = "neutral"
)

// InvestDebateState tracks the bull/bear research debate.
//
// Histories are append-only logs. Count increments once per completed
// bull/bear exchange and is the only termination signal for the debate.
type InvestDebateState struct {
	BullHistory     string `json:"bull_history"`
	BearHistory     string `json:"bear_history"`
	CombinedHistory string `json:"history"`
	LastResponse    string `json:"current_response"`
	Count           int    `json:"count"`
	JudgeDecision   string `json:"judge_decision"`
}

// RiskDebateState tracks the risky/safe/neutral risk-panel debate.
//
// Count increments once per completed risky/safe/neutral cycle.
type RiskDebateState struct {
	RiskyHistory    string  `json:"risky_history"`
	SafeHistory     string  `json:"safe_history"`
	NeutralHistory  string  `json:"neutral_history"`
	CombinedHistory string  `json:"history"`
	LatestSpeaker   Speaker `json:"latest_speaker"`
	Count           int     `json:"count"`
	JudgeDecision   string  `json:"judge_decision"`
}

// AgentState is the decision record threaded through one pipeline run.
//
// It is exclusively owned by that run: stages mutate it in the order
// the routing policy selects, and nothing is shared across concurrent
// runs. Report fields are write-once; Messages and debate histories
// are append-only.
type AgentState struct {
	// Instrument and TradeDate are immutable once set.
	Instrument string `json:"company_of_interest"`
	TradeDate  string `json:"trade_date"`

	// Analyst reports, empty until the corresponding stage completes.
	MarketReport       string `json:"market_report"`
	SentimentReport    string `json:"sentiment_report"`
	NewsReport         string `json:"news_report"`
	FundamentalsReport string `json:"fundamentals_report"`

	InvestDebate InvestDebateState `json:"investment_debate_state"`

	// InvestmentPlan is the investment judge's verdict; TraderPlan is
	// the trader's concrete plan built on it.
	InvestmentPlan string `json:"investment_plan"`
	TraderPlan     string `json:"trader_investment_plan"`

	RiskDebate RiskDebateState `json:"risk_debate_state"`

	// FinalDecision is set exactly once, by the risk judge. Non-empty
	// if and only if the run reached the terminal stage.
	FinalDecision string `json:"final_trade_decision"`

	// Messages is the causal transcript consumed and extended by every
	// stage.
	Messages []model.Message `json:"messages"`
}

// NewAgentState returns a zeroed state for one instrument/date.
func NewAgentState(instrument, tradeDate string) *AgentState {
	return &AgentState{
		Instrument: instrument,
		TradeDate:  tradeDate,
		RiskDebate: RiskDebateState{LatestSpeaker: SpeakerNone},
	}
}

// Report returns the named category's report field.
func (s *AgentState) Report(category string) string {
	switch category {
	case AnalystMarket:
		return s.MarketReport
	case AnalystSocial:
		return s.SentimentReport
	case AnalystNews:
		return s.NewsReport
	case AnalystFundamentals:
		return s.FundamentalsReport
	}
	return ""
}

// setReport writes the named category's report field.
func (s *AgentState) setReport(category, report string) {
	switch category {
	case AnalystMarket:
		s.MarketReport = report
	case AnalystSocial:
		s.SentimentReport = report
	case AnalystNews:
		s.NewsReport = report
	case AnalystFundamentals:
		s.FundamentalsReport = report
	}
}

// LastMessage returns the newest transcript message, or a zero Message
// when the transcript is empty.
func (s *AgentState) LastMessage() model.Message {
	if len(s.Messages) == 0 {
		return model.Message{}
	}
	return s.Messages[len(s.Messages)-1]
}

// StateSnapshot is the JSON-serializable view of a terminal state
// persisted to the run log and surfaced by streaming events.
type StateSnapshot struct {
	Instrument         string `json:"company_of_interest"`
	TradeDate          string `json:"trade_date"`
	MarketReport       string `json:"market_report"`
	SentimentReport    string `json:"sentiment_report"`
	NewsReport         string `json:"news_report"`
	FundamentalsReport string `json:"fundamentals_report"`

	InvestDebate   InvestDebateState `json:"investment_debate_state"`
	InvestmentPlan string            `json:"investment_plan"`
	TraderPlan     string            `json:"trader_investment_plan"`
	RiskDebate     RiskDebateState   `json:"risk_debate_state"`
	FinalDecision  string            `json:"final_trade_decision"`
}

// Snapshot captures the state's reports, debate histories and
// decisions, without the raw transcript.
func (s *AgentState) Snapshot() StateSnapshot {
	return StateSnapshot{
		Instrument:         s.Instrument,
		TradeDate:          s.TradeDate,
		MarketReport:       s.MarketReport,
		SentimentReport:    s.SentimentReport,
		NewsReport:         s.NewsReport,
		FundamentalsReport: s.FundamentalsReport,
		InvestDebate:       s.InvestDebate,
		InvestmentPlan:     s.InvestmentPlan,
		TraderPlan:         s.TraderPlan,
		RiskDebate:         s.RiskDebate,
		FinalDecision:      s.FinalDecision,
	}
}
