package ai

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/freeeve/skirmish/pkg/rts"
)

// scriptEnv is the observation surface exposed to policy scripts.
type scriptEnv struct {
	Tick      int `expr:"tick"`
	Workers   int `expr:"workers"`
	Melee     int `expr:"melee"`
	Ranged    int `expr:"ranged"`
	Army      int `expr:"army"`
	Resources int `expr:"resources"`
	EnemyArmy int `expr:"enemy_army"`
}

// DefaultScript is the policy used when a scripted backup is requested
// without a script: grow to three workers, build an army, attack at five.
const DefaultScript = `workers < 3 && resources >= 50 ? "build_worker" : (army >= 5 ? "attack" : (resources >= 100 ? "build_melee" : "attack_in_range"))`

// ScriptedAI evaluates a single policy expression each tick to pick a
// strategy. It stands in for embedded-scripting strategies: the script sees
// a compact observation of the bound state and must evaluate to a strategy
// name or index.
type ScriptedAI struct {
	Base
	program *vm.Program
}

// NewScriptedAI compiles the script and returns the agent. An empty script
// compiles DefaultScript.
func NewScriptedAI(opts Options, script string) (*ScriptedAI, error) {
	if opts.Name == "" {
		opts.Name = "ai_scripted"
	}
	if script == "" {
		script = DefaultScript
	}
	program, err := expr.Compile(script, expr.Env(scriptEnv{}))
	if err != nil {
		return nil, fmt.Errorf("ai: compile policy script: %w", err)
	}
	return &ScriptedAI{Base: NewBase(opts), program: program}, nil
}

// Act evaluates the policy script for this tick.
func (a *ScriptedAI) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	s := a.State()
	if !a.OnFrame(t) {
		return ErrSkipped
	}
	if cancelled(cancel) {
		return ErrCancelled
	}

	p := a.ID()
	env := scriptEnv{
		Tick:      int(t),
		Workers:   s.UnitCount(p, rts.UnitWorker),
		Melee:     s.UnitCount(p, rts.UnitMelee),
		Ranged:    s.UnitCount(p, rts.UnitRanged),
		Army:      s.ArmyCount(p),
		Resources: s.Resources[p],
		EnemyArmy: s.ArmyCount(p.Enemy()),
	}

	out, err := expr.Run(a.program, env)
	if err != nil {
		return fmt.Errorf("ai: run policy script: %w", err)
	}
	id, err := strategyFromScript(out)
	if err != nil {
		return err
	}

	ExecuteStrategy(s, p, id, act)
	return nil
}

// strategyFromScript coerces a script result into a StrategyID.
func strategyFromScript(out any) (rts.StrategyID, error) {
	switch v := out.(type) {
	case string:
		name := strings.ToLower(strings.TrimSpace(v))
		for id := rts.StrategyID(0); id < rts.NumStrategies; id++ {
			if id.String() == name {
				return id, nil
			}
		}
		return 0, fmt.Errorf("ai: script returned unknown strategy %q", v)
	case int:
		id := rts.StrategyID(v)
		if !id.Valid() {
			return 0, fmt.Errorf("ai: script returned strategy index %d out of range", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("ai: script returned %T, want string or int", out)
	}
}
