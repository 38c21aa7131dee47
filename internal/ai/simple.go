package ai

import (
	"sync/atomic"

	"github.com/freeeve/skirmish/pkg/rts"
)

// SimpleAI is a rule-based strategy: build up an economy, train a small
// army, then attack the enemy base.
type SimpleAI struct {
	Base
}

// NewSimpleAI constructs a SimpleAI.
func NewSimpleAI(opts Options) *SimpleAI {
	if opts.Name == "" {
		opts.Name = "ai_simple"
	}
	return &SimpleAI{Base: NewBase(opts)}
}

// Act decides one tick for the simple strategy.
func (a *SimpleAI) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	s := a.State()
	if !a.OnFrame(t) {
		return ErrSkipped
	}
	if cancelled(cancel) {
		return ErrCancelled
	}

	ExecuteStrategy(s, a.ID(), a.decide(s), act)
	return nil
}

func (a *SimpleAI) decide(s *rts.State) rts.StrategyID {
	p := a.ID()
	workers := s.UnitCount(p, rts.UnitWorker)
	army := s.ArmyCount(p)
	res := s.Resources[p]

	switch {
	case workers < 3 && res >= rts.Specs[rts.UnitWorker].Cost:
		return rts.StrategyBuildWorker
	case army >= 5:
		return rts.StrategyAttack
	case res >= rts.Specs[rts.UnitMelee].Cost:
		// Mix in the occasional ranged unit.
		if aiFloat64() < 0.3 {
			return rts.StrategyBuildRanged
		}
		return rts.StrategyBuildMelee
	default:
		return rts.StrategyAttackInRange
	}
}
