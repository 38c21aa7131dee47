package ai

import (
	"sync/atomic"

	"github.com/freeeve/skirmish/pkg/rts"
)

// HitAndRunAI is a rule-based strategy favoring ranged units that kite:
// engage at range, fall back when the enemy closes.
type HitAndRunAI struct {
	Base
}

// NewHitAndRunAI constructs a HitAndRunAI.
func NewHitAndRunAI(opts Options) *HitAndRunAI {
	if opts.Name == "" {
		opts.Name = "ai_hit_and_run"
	}
	return &HitAndRunAI{Base: NewBase(opts)}
}

// Act decides one tick for the hit-and-run strategy.
func (a *HitAndRunAI) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
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

func (a *HitAndRunAI) decide(s *rts.State) rts.StrategyID {
	p := a.ID()
	workers := s.UnitCount(p, rts.UnitWorker)
	ranged := s.UnitCount(p, rts.UnitRanged)
	res := s.Resources[p]

	switch {
	case workers < 2 && res >= rts.Specs[rts.UnitWorker].Cost:
		return rts.StrategyBuildWorker
	case ranged < 4 && res >= rts.Specs[rts.UnitRanged].Cost:
		return rts.StrategyBuildRanged
	case ranged >= 2:
		return rts.StrategyHitAndRun
	default:
		return rts.StrategyDefend
	}
}
