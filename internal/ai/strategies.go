package ai

import "github.com/freeeve/skirmish/pkg/rts"

// ExecuteStrategy translates a discrete strategy into concrete unit
// commands for the given player and writes them into act. Every agent
// variant funnels through this, so the engine only ever applies unit
// commands.
func ExecuteStrategy(s *rts.State, p rts.PlayerID, id rts.StrategyID, act *rts.Action) {
	act.Player = p
	act.Strategy = id

	switch id {
	case rts.StrategyIdle:
	case rts.StrategyBuildWorker:
		cmdBuild(s, p, rts.UnitWorker, act)
	case rts.StrategyBuildMelee:
		cmdBuild(s, p, rts.UnitMelee, act)
	case rts.StrategyBuildRanged:
		cmdBuild(s, p, rts.UnitRanged, act)
	case rts.StrategyAttack:
		cmdAttackBase(s, p, act)
	case rts.StrategyAttackInRange:
		cmdAttackInRange(s, p, act)
	case rts.StrategyHitAndRun:
		cmdHitAndRun(s, p, act)
	case rts.StrategyDefend:
		cmdDefend(s, p, act)
	case rts.StrategyGather:
	}

	// Idle workers gather regardless of the chosen strategy, so the economy
	// never stalls while the army maneuvers.
	cmdGather(s, p, act)
}

// cmdBuild queues a build at the player's base if affordable.
func cmdBuild(s *rts.State, p rts.PlayerID, t rts.UnitType, act *rts.Action) {
	base := s.BaseOf(p)
	if base == nil {
		return
	}
	if s.Resources[p] < rts.Specs[t].Cost {
		return
	}
	act.Append(rts.UnitCmd{UnitID: base.ID, Cmd: rts.CmdBuild, Build: t})
}

// cmdGather sends workers without pending commands to the nearest resource.
func cmdGather(s *rts.State, p rts.PlayerID, act *rts.Action) {
	busy := make(map[int]bool, len(act.Cmds))
	for _, c := range act.Cmds {
		busy[c.UnitID] = true
	}
	for _, u := range s.UnitsOf(p) {
		if u.Type != rts.UnitWorker || busy[u.ID] {
			continue
		}
		res := s.NearestResource(u.X, u.Y)
		if res == nil {
			continue
		}
		act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdGather, TargetID: res.ID, TargetX: res.X, TargetY: res.Y})
	}
}

// cmdAttackBase sends all combat units at the enemy base, or at the nearest
// visible enemy when the base is gone or hidden.
func cmdAttackBase(s *rts.State, p rts.PlayerID, act *rts.Action) {
	target := s.BaseOf(p.Enemy())
	for _, u := range s.UnitsOf(p) {
		if u.Type != rts.UnitMelee && u.Type != rts.UnitRanged {
			continue
		}
		tgt := target
		if tgt == nil {
			tgt = nearestEnemy(s, p, u.X, u.Y)
		}
		if tgt == nil {
			continue
		}
		act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdAttack, TargetID: tgt.ID, TargetX: tgt.X, TargetY: tgt.Y})
	}
}

// cmdAttackInRange has each combat unit engage the nearest enemy it can
// currently reach, holding position otherwise.
func cmdAttackInRange(s *rts.State, p rts.PlayerID, act *rts.Action) {
	for _, u := range s.UnitsOf(p) {
		if u.Type != rts.UnitMelee && u.Type != rts.UnitRanged {
			continue
		}
		tgt := nearestEnemy(s, p, u.X, u.Y)
		if tgt == nil || !u.InRange(tgt.X, tgt.Y) {
			continue
		}
		act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdAttack, TargetID: tgt.ID, TargetX: tgt.X, TargetY: tgt.Y})
	}
}

// cmdHitAndRun engages with ranged units but falls back toward the home
// base whenever an enemy closes inside a unit's attack range.
func cmdHitAndRun(s *rts.State, p rts.PlayerID, act *rts.Action) {
	home := s.BaseOf(p)
	for _, u := range s.UnitsOf(p) {
		if u.Type != rts.UnitMelee && u.Type != rts.UnitRanged {
			continue
		}
		tgt := nearestEnemy(s, p, u.X, u.Y)
		if tgt == nil {
			continue
		}
		d := u.Distance(tgt.X, tgt.Y)
		if d < u.Spec().Range && home != nil {
			// Too close: kite back toward home.
			act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdMove, TargetX: home.X, TargetY: home.Y})
			continue
		}
		act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdAttack, TargetID: tgt.ID, TargetX: tgt.X, TargetY: tgt.Y})
	}
}

// cmdDefend pulls combat units back to the base and engages anything that
// comes close to it.
func cmdDefend(s *rts.State, p rts.PlayerID, act *rts.Action) {
	home := s.BaseOf(p)
	if home == nil {
		cmdAttackInRange(s, p, act)
		return
	}
	for _, u := range s.UnitsOf(p) {
		if u.Type != rts.UnitMelee && u.Type != rts.UnitRanged {
			continue
		}
		if tgt := nearestEnemy(s, p, home.X, home.Y); tgt != nil && tgt.Distance(home.X, home.Y) <= 2*u.Spec().Sight {
			act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdAttack, TargetID: tgt.ID, TargetX: tgt.X, TargetY: tgt.Y})
			continue
		}
		if u.Distance(home.X, home.Y) > 2 {
			act.Append(rts.UnitCmd{UnitID: u.ID, Cmd: rts.CmdMove, TargetX: home.X, TargetY: home.Y})
		}
	}
}

// nearestEnemy returns the closest enemy unit to (x, y), or nil.
func nearestEnemy(s *rts.State, p rts.PlayerID, x, y int) *rts.Unit {
	var best *rts.Unit
	bestD := -1
	for i := range s.Units {
		u := &s.Units[i]
		if u.Owner == p || u.Owner == rts.NeutralPlayer {
			continue
		}
		d := u.Distance(x, y)
		if best == nil || d < bestD {
			best = u
			bestD = d
		}
	}
	return best
}
