package agents

import (
	"fmt"

	"github.com/dshills/tradingagents-go/agents/memory"
	"github.com/dshills/tradingagents-go/agents/model"
	"github.com/dshills/tradingagents-go/agents/tool"
)

// GraphSetup assembles the executable stage graph for one analyst
// selection.
//
// Assembly is purely structural: the node table carries no run state
// and is built once, then reused by every run with the same
// configuration.
type GraphSetup struct {
	cfg         Config
	quick       model.ChatModel
	deep        model.ChatModel
	dispatchers map[string]*tool.Dispatcher
	memories    map[Role]memory.Store
	metrics     *Metrics
}

// NewGraphSetup creates a graph builder.
//
// quick handles the high-volume stages (analysts, researchers, risk
// debaters); deep handles the judgment stages (judges, trader).
// memories may be nil or sparse; stages without a store simply skip
// recall.
func NewGraphSetup(cfg Config, quick, deep model.ChatModel,
	dispatchers map[string]*tool.Dispatcher, memories map[Role]memory.Store,
	metrics *Metrics) *GraphSetup {

	return &GraphSetup{
		cfg:         cfg,
		quick:       quick,
		deep:        deep,
		dispatchers: dispatchers,
		memories:    memories,
		metrics:     metrics,
	}
}

// Build returns the stage node table for the configured analyst
// selection. Unselected analyst categories are omitted entirely.
func (g *GraphSetup) Build() (map[Stage]StageNode, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}
	if g.quick == nil || g.deep == nil {
		return nil, &ConfigError{Field: "models", Reason: "quick and deep models are required"}
	}

	nodes := make(map[Stage]StageNode)

	for _, category := range g.cfg.SelectedAnalysts {
		dispatcher, ok := g.dispatchers[category]
		if !ok {
			return nil, &ConfigError{
				Field:  "dispatchers",
				Reason: fmt.Sprintf("no tool dispatcher for analyst category %q", category),
			}
		}
		stages := analystStages[category]
		nodes[stages.analyst] = &analystNode{
			stage:      stages.analyst,
			category:   category,
			m:          g.quick,
			dispatcher: dispatcher,
			cfg:        g.cfg,
			metrics:    g.metrics,
		}
		nodes[stages.tools] = &toolDispatchNode{
			stage:      stages.tools,
			dispatcher: dispatcher,
			metrics:    g.metrics,
		}
	}

	nodes[StageBullResearcher] = &researcherNode{
		stage: StageBullResearcher, side: "Bull",
		m: g.quick, store: g.memories[RoleBull], cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageBearResearcher] = &researcherNode{
		stage: StageBearResearcher, side: "Bear",
		m: g.quick, store: g.memories[RoleBear], cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageInvestJudge] = &investJudgeNode{
		m: g.deep, store: g.memories[RoleInvestJudge], cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageTrader] = &traderNode{
		m: g.deep, store: g.memories[RoleTrader], cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageRiskyDebater] = &riskDebaterNode{
		stage: StageRiskyDebater, speaker: SpeakerRisky, m: g.quick, cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageSafeDebater] = &riskDebaterNode{
		stage: StageSafeDebater, speaker: SpeakerSafe, m: g.quick, cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageNeutralDebater] = &riskDebaterNode{
		stage: StageNeutralDebater, speaker: SpeakerNeutral, m: g.quick, cfg: g.cfg, metrics: g.metrics,
	}
	nodes[StageRiskJudge] = &riskJudgeNode{
		m: g.deep, store: g.memories[RoleRiskManager], cfg: g.cfg, metrics: g.metrics,
	}

	return nodes, nil
}
