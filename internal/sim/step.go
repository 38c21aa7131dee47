package sim

import "github.com/freeeve/skirmish/pkg/rts"

const gatherYield = 10

// apply executes one action's unit commands against the state. Commands
// referencing dead or foreign units are dropped.
func apply(s *rts.State, act *rts.Action) {
	for _, c := range act.Cmds {
		u := s.UnitByID(c.UnitID)
		if u == nil || u.Owner != act.Player {
			continue
		}
		switch c.Cmd {
		case rts.CmdMove:
			moveToward(s, u, c.TargetX, c.TargetY)
		case rts.CmdAttack:
			applyAttack(s, u, c)
		case rts.CmdGather:
			applyGather(s, u, c)
		case rts.CmdBuild:
			applyBuild(s, u, c)
		}
	}
}

// step removes dead units after all commands of the tick are applied.
func step(s *rts.State) {
	alive := s.Units[:0]
	for _, u := range s.Units {
		if u.HP > 0 {
			alive = append(alive, u)
		}
	}
	s.Units = alive
}

func applyAttack(s *rts.State, u *rts.Unit, c rts.UnitCmd) {
	tgt := s.UnitByID(c.TargetID)
	if tgt == nil || tgt.HP <= 0 || tgt.Owner == u.Owner {
		return
	}
	if u.InRange(tgt.X, tgt.Y) {
		tgt.HP -= u.Spec().Damage
		return
	}
	moveToward(s, u, tgt.X, tgt.Y)
}

func applyGather(s *rts.State, u *rts.Unit, c rts.UnitCmd) {
	res := s.UnitByID(c.TargetID)
	if res == nil || res.Type != rts.UnitResource || res.HP <= 0 {
		return
	}
	if u.Distance(res.X, res.Y) <= 1 {
		yield := gatherYield
		if res.HP < yield {
			yield = res.HP
		}
		res.HP -= yield
		s.Resources[u.Owner] += yield
		return
	}
	moveToward(s, u, res.X, res.Y)
}

func applyBuild(s *rts.State, u *rts.Unit, c rts.UnitCmd) {
	if u.Type != rts.UnitBase {
		return
	}
	cost := rts.Specs[c.Build].Cost
	if s.Resources[u.Owner] < cost {
		return
	}
	x, y, ok := freeCellNear(s, u.X, u.Y)
	if !ok {
		return
	}
	s.Resources[u.Owner] -= cost
	s.Spawn(c.Build, u.Owner, x, y)
}

// moveToward steps a unit one cell toward the target, respecting its speed
// and map bounds. Units may share cells; collision is not modeled.
func moveToward(s *rts.State, u *rts.Unit, tx, ty int) {
	speed := u.Spec().Speed
	for i := 0; i < speed; i++ {
		nx, ny := u.X, u.Y
		if tx > nx {
			nx++
		} else if tx < nx {
			nx--
		}
		if ty > ny {
			ny++
		} else if ty < ny {
			ny--
		}
		if !s.InBounds(nx, ny) {
			return
		}
		u.X, u.Y = nx, ny
	}
}

// freeCellNear finds an unoccupied cell adjacent to (x, y).
func freeCellNear(s *rts.State, x, y int) (int, int, bool) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if s.InBounds(nx, ny) && s.UnitAt(nx, ny) == nil {
				return nx, ny, true
			}
		}
	}
	return 0, 0, false
}
