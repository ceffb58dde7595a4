package agents

// Stage identifies one node of the decision state machine.
//
// Routing is a total function over this closed set: every stage has a
// defined successor rule, and StageTerminal has none. Dispatch over an
// enum (instead of string-keyed callbacks) makes the transition table
// exhaustively testable.
type Stage int

const (
	// StageTerminal marks run completion. No node executes for it.
	StageTerminal Stage = iota

	StageMarketAnalyst
	StageMarketTools
	StageSocialAnalyst
	StageSocialTools
	StageNewsAnalyst
	StageNewsTools
	StageFundamentalsAnalyst
	StageFundamentalsTools

	StageBullResearcher
	StageBearResearcher
	StageInvestJudge

	StageTrader

	StageRiskyDebater
	StageSafeDebater
	StageNeutralDebater
	StageRiskJudge
)

var stageNames = map[Stage]string{
	StageTerminal:            "terminal",
	StageMarketAnalyst:       "market_analyst",
	StageMarketTools:         "market_tools",
	StageSocialAnalyst:       "social_analyst",
	StageSocialTools:         "social_tools",
	StageNewsAnalyst:         "news_analyst",
	StageNewsTools:           "news_tools",
	StageFundamentalsAnalyst: "fundamentals_analyst",
	StageFundamentalsTools:   "fundamentals_tools",
	StageBullResearcher:      "bull_researcher",
	StageBearResearcher:      "bear_researcher",
	StageInvestJudge:         "invest_judge",
	StageTrader:              "trader",
	StageRiskyDebater:        "risky_debater",
	StageSafeDebater:         "safe_debater",
	StageNeutralDebater:      "neutral_debater",
	StageRiskJudge:           "risk_judge",
}

// String returns the stage's snake_case name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Analyst categories, in their canonical pipeline order.
const (
	AnalystMarket       = "market"
	AnalystSocial       = "social"
	AnalystNews         = "news"
	AnalystFundamentals = "fundamentals"
)

// analystStages maps each category to its analyst and tool stages.
var analystStages = map[string]struct {
	analyst Stage
	tools   Stage
}{
	AnalystMarket:       {StageMarketAnalyst, StageMarketTools},
	AnalystSocial:       {StageSocialAnalyst, StageSocialTools},
	AnalystNews:         {StageNewsAnalyst, StageNewsTools},
	AnalystFundamentals: {StageFundamentalsAnalyst, StageFundamentalsTools},
}

// KnownAnalyst reports whether category names a supported analyst.
func KnownAnalyst(category string) bool {
	_, ok := analystStages[category]
	return ok
}
