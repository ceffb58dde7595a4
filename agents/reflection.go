package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/tradingagents-go/agents/memory"
	"github.com/dshills/tradingagents-go/agents/model"
)

// Role identifies a reflecting pipeline role with its own memory store.
type Role string

const (
	RoleBull        Role = "bull"
	RoleBear        Role = "bear"
	RoleTrader      Role = "trader"
	RoleInvestJudge Role = "invest_judge"
	RoleRiskManager Role = "risk_manager"
)

// Roles lists every reflecting role.
var Roles = []Role{RoleBull, RoleBear, RoleTrader, RoleInvestJudge, RoleRiskManager}

// Reflector turns a realized outcome into per-role lessons and writes
// each lesson to that role's memory store.
//
// Roles are mutually independent: reflections run concurrently, and a
// failure in one role never blocks the others. All failures are
// aggregated and returned together.
type Reflector struct {
	m       model.ChatModel
	stores  map[Role]memory.Store
	metrics *Metrics
}

// NewReflector creates a reflection engine. Roles missing from stores
// are skipped.
func NewReflector(m model.ChatModel, stores map[Role]memory.Store, metrics *Metrics) *Reflector {
	return &Reflector{m: m, stores: stores, metrics: metrics}
}

// roleComponent extracts the portion of the terminal state the role is
// accountable for.
func roleComponent(role Role, state *AgentState) string {
	switch role {
	case RoleBull:
		return state.InvestDebate.BullHistory
	case RoleBear:
		return state.InvestDebate.BearHistory
	case RoleTrader:
		return state.TraderPlan
	case RoleInvestJudge:
		return state.InvestDebate.JudgeDecision
	case RoleRiskManager:
		return state.FinalDecision
	}
	return ""
}

// ReflectAll critiques every role's contribution to the finished run
// against the realized return and records the lessons.
//
// returnsLosses is the signed realized return of the decision; negative
// means the decision lost money.
func (r *Reflector) ReflectAll(ctx context.Context, state *AgentState, returnsLosses float64) error {
	situation := situationSummary(state)

	var wg sync.WaitGroup
	errs := make([]error, len(Roles))

	for i, role := range Roles {
		store, ok := r.stores[role]
		if !ok || store == nil {
			continue
		}

		wg.Add(1)
		go func(i int, role Role, store memory.Store) {
			defer wg.Done()

			if err := r.reflectRole(ctx, role, store, state, situation, returnsLosses); err != nil {
				r.metrics.RecordReflection(role, "error")
				errs[i] = fmt.Errorf("reflection for %s: %w", role, err)
				return
			}
			r.metrics.RecordReflection(role, "success")
		}(i, role, store)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (r *Reflector) reflectRole(ctx context.Context, role Role, store memory.Store,
	state *AgentState, situation string, returnsLosses float64) error {

	verdict := "profit"
	if returnsLosses < 0 {
		verdict = "loss"
	}

	prompt := fmt.Sprintf(
		"Decision context:\n%s\n\nYour contribution as %s:\n%s\n\n"+
			"Realized outcome: %.4f (%s). Write one concise lesson this role "+
			"should apply in similar future situations.",
		situation, role, roleComponent(role, state), returnsLosses, verdict)

	messages := []model.Message{
		{Role: model.RoleSystem, Content: "You review finished trading decisions and distill lessons."},
		{Role: model.RoleUser, Content: prompt},
	}

	out, err := r.m.Chat(ctx, messages, nil)
	if err != nil {
		return err
	}

	return store.Add(ctx, situation, out.Text)
}
