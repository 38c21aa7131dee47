package rts

// StrategyID is a discrete high-level strategy an agent can select for a
// tick. External decision processes return one of these; rule-based agents
// pick one internally. Unit commands are derived from the chosen strategy.
type StrategyID int

const (
	StrategyIdle StrategyID = iota
	StrategyBuildWorker
	StrategyBuildMelee
	StrategyBuildRanged
	StrategyAttack
	StrategyAttackInRange
	StrategyHitAndRun
	StrategyDefend
	StrategyGather
	NumStrategies
)

var strategyNames = [NumStrategies]string{
	"idle", "build_worker", "build_melee", "build_ranged",
	"attack", "attack_in_range", "hit_and_run", "defend", "gather",
}

// String returns the strategy name.
func (s StrategyID) String() string {
	if s < 0 || s >= NumStrategies {
		return "invalid"
	}
	return strategyNames[s]
}

// Valid reports whether s names a real strategy.
func (s StrategyID) Valid() bool { return s >= 0 && s < NumStrategies }

// CmdType is the kind of a per-unit command.
type CmdType int

const (
	CmdMove CmdType = iota
	CmdAttack
	CmdGather
	CmdBuild
)

// UnitCmd is a single command for one unit, produced by an agent and
// applied by the engine.
type UnitCmd struct {
	UnitID   int
	Cmd      CmdType
	TargetX  int
	TargetY  int
	TargetID int      // attack/gather target unit
	Build    UnitType // CmdBuild only
}

// Action is the per-tick output of an agent: the strategy it selected plus
// the concrete unit commands implementing it. One Action is constructed per
// Act call and owned exclusively by that call.
type Action struct {
	Player   PlayerID
	Strategy StrategyID
	Cmds     []UnitCmd
}

// Reset clears the action for reuse while keeping allocated capacity.
func (a *Action) Reset() {
	a.Player = NeutralPlayer
	a.Strategy = StrategyIdle
	a.Cmds = a.Cmds[:0]
}

// Append adds a unit command.
func (a *Action) Append(c UnitCmd) { a.Cmds = append(a.Cmds, c) }
