package agents

// ConditionalLogic is the routing policy: a pure function from
// (state, current stage) to the next stage.
//
// It never mutates state and holds no mutable fields of its own, so one
// instance is safe to share across concurrent runs. Determinism: the
// analyst order is fixed by configuration and the debate rotations are
// fixed cycles; identical inputs always yield the same next stage.
type ConditionalLogic struct {
	analysts        []string
	maxDebateRounds int
	maxRiskRounds   int
}

// NewConditionalLogic builds the routing policy for cfg.
func NewConditionalLogic(cfg Config) *ConditionalLogic {
	return &ConditionalLogic{
		analysts:        append([]string(nil), cfg.SelectedAnalysts...),
		maxDebateRounds: cfg.MaxDebateRounds,
		maxRiskRounds:   cfg.MaxRiskRounds,
	}
}

// StartStage returns the first stage of a run: the first enabled
// analyst, or the bull researcher when no analysts are enabled.
func (l *ConditionalLogic) StartStage() Stage {
	if len(l.analysts) == 0 {
		return StageBullResearcher
	}
	return analystStages[l.analysts[0]].analyst
}

// NextStage returns the stage that follows current given state.
func (l *ConditionalLogic) NextStage(state *AgentState, current Stage) Stage {
	switch current {
	case StageMarketAnalyst, StageSocialAnalyst, StageNewsAnalyst, StageFundamentalsAnalyst:
		return l.afterAnalyst(state, current)

	case StageMarketTools:
		return StageMarketAnalyst
	case StageSocialTools:
		return StageSocialAnalyst
	case StageNewsTools:
		return StageNewsAnalyst
	case StageFundamentalsTools:
		return StageFundamentalsAnalyst

	case StageBullResearcher:
		return StageBearResearcher
	case StageBearResearcher:
		// The bear closes an exchange; its stage increments Count.
		if state.InvestDebate.Count < l.maxDebateRounds {
			return StageBullResearcher
		}
		return StageInvestJudge
	case StageInvestJudge:
		return StageTrader

	case StageTrader:
		return StageRiskyDebater

	case StageRiskyDebater:
		return StageSafeDebater
	case StageSafeDebater:
		return StageNeutralDebater
	case StageNeutralDebater:
		// The neutral voice closes a cycle; its stage increments Count.
		if state.RiskDebate.Count < l.maxRiskRounds {
			return StageRiskyDebater
		}
		return StageRiskJudge
	case StageRiskJudge:
		return StageTerminal
	}
	return StageTerminal
}

// afterAnalyst routes an analyst stage: to its tool node when the last
// message requests tools, otherwise to the next enabled analyst or into
// the research debate.
func (l *ConditionalLogic) afterAnalyst(state *AgentState, current Stage) Stage {
	category := l.categoryOf(current)
	if len(state.LastMessage().ToolCalls) > 0 {
		return analystStages[category].tools
	}

	for i, enabled := range l.analysts {
		if enabled == category {
			if i+1 < len(l.analysts) {
				return analystStages[l.analysts[i+1]].analyst
			}
			break
		}
	}
	return StageBullResearcher
}

func (l *ConditionalLogic) categoryOf(stage Stage) string {
	for category, stages := range analystStages {
		if stages.analyst == stage {
			return category
		}
	}
	return ""
}
