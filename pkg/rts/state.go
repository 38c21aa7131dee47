// Package rts defines the game-state surface the AI subsystem reads and the
// action structure it produces. The simulation engine that advances the
// state lives elsewhere; agents only observe State and emit Actions.
package rts

// Tick is the discrete simulation time unit.
type Tick int

// PlayerID identifies a player. The neutral player owns resource nodes.
type PlayerID int

const (
	Player0       PlayerID = 0
	Player1       PlayerID = 1
	NeutralPlayer PlayerID = -1
	NumPlayers             = 2
)

// Enemy returns the opposing player in a two-player game.
func (p PlayerID) Enemy() PlayerID {
	if p == Player0 {
		return Player1
	}
	return Player0
}

// State is a snapshot of the game observable by agents. Agents treat it as
// read-only; only the engine mutates it.
type State struct {
	Tick      Tick
	Width     int
	Height    int
	Units     []Unit
	Resources map[PlayerID]int

	// Visibility holds one fog-of-war mask per player, row-major Width*Height.
	Visibility map[PlayerID][]bool

	Terminal bool
	Winner   PlayerID // valid only when Terminal; NeutralPlayer means draw

	nextUnitID int
}

// NewInitialState returns a symmetric two-player starting position on a
// w x h map: one base and two workers per player in opposite corners, with
// resource nodes near each base.
func NewInitialState(w, h int) *State {
	s := &State{
		Width:  w,
		Height: h,
		Resources: map[PlayerID]int{
			Player0: 100,
			Player1: 100,
		},
		Visibility: map[PlayerID][]bool{
			Player0: make([]bool, w*h),
			Player1: make([]bool, w*h),
		},
		Winner: NeutralPlayer,
	}

	s.Spawn(UnitBase, Player0, 1, 1)
	s.Spawn(UnitWorker, Player0, 2, 1)
	s.Spawn(UnitWorker, Player0, 1, 2)
	s.Spawn(UnitResource, NeutralPlayer, 0, 3)

	s.Spawn(UnitBase, Player1, w-2, h-2)
	s.Spawn(UnitWorker, Player1, w-3, h-2)
	s.Spawn(UnitWorker, Player1, w-2, h-3)
	s.Spawn(UnitResource, NeutralPlayer, w-1, h-4)

	s.RecomputeVisibility()
	return s
}

// Spawn adds a new unit at full HP and returns its ID.
func (s *State) Spawn(t UnitType, owner PlayerID, x, y int) int {
	id := s.nextUnitID
	s.nextUnitID++
	s.Units = append(s.Units, Unit{
		ID:    id,
		Type:  t,
		Owner: owner,
		X:     x,
		Y:     y,
		HP:    Specs[t].MaxHP,
	})
	return id
}

// UnitByID returns the unit with the given ID, or nil.
func (s *State) UnitByID(id int) *Unit {
	for i := range s.Units {
		if s.Units[i].ID == id {
			return &s.Units[i]
		}
	}
	return nil
}

// UnitAt returns the first unit occupying the cell, or nil.
func (s *State) UnitAt(x, y int) *Unit {
	for i := range s.Units {
		if s.Units[i].X == x && s.Units[i].Y == y {
			return &s.Units[i]
		}
	}
	return nil
}

// UnitsOf returns all units belonging to the given player.
func (s *State) UnitsOf(p PlayerID) []Unit {
	var out []Unit
	for _, u := range s.Units {
		if u.Owner == p {
			out = append(out, u)
		}
	}
	return out
}

// UnitCount returns the number of units of the given type owned by p.
func (s *State) UnitCount(p PlayerID, t UnitType) int {
	n := 0
	for _, u := range s.Units {
		if u.Owner == p && u.Type == t {
			n++
		}
	}
	return n
}

// ArmyCount returns the number of combat units (melee + ranged) owned by p.
func (s *State) ArmyCount(p PlayerID) int {
	return s.UnitCount(p, UnitMelee) + s.UnitCount(p, UnitRanged)
}

// BaseOf returns the player's base, or nil if destroyed.
func (s *State) BaseOf(p PlayerID) *Unit {
	for i := range s.Units {
		if s.Units[i].Owner == p && s.Units[i].Type == UnitBase {
			return &s.Units[i]
		}
	}
	return nil
}

// NearestResource returns the resource node closest to (x, y), or nil.
func (s *State) NearestResource(x, y int) *Unit {
	var best *Unit
	bestD := -1
	for i := range s.Units {
		u := &s.Units[i]
		if u.Type != UnitResource || u.HP <= 0 {
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

// InBounds reports whether the cell is on the map.
func (s *State) InBounds(x, y int) bool {
	return x >= 0 && x < s.Width && y >= 0 && y < s.Height
}

// Visible reports whether player p can currently see cell (x, y).
func (s *State) Visible(p PlayerID, x, y int) bool {
	if !s.InBounds(x, y) {
		return false
	}
	mask := s.Visibility[p]
	if mask == nil {
		return false
	}
	return mask[y*s.Width+x]
}

// RecomputeVisibility rebuilds each player's fog-of-war mask from unit
// sight radii. The engine calls this after every tick.
func (s *State) RecomputeVisibility() {
	for p, mask := range s.Visibility {
		for i := range mask {
			mask[i] = false
		}
		for _, u := range s.Units {
			if u.Owner != p {
				continue
			}
			sight := u.Spec().Sight
			for y := u.Y - sight; y <= u.Y+sight; y++ {
				for x := u.X - sight; x <= u.X+sight; x++ {
					if s.InBounds(x, y) {
						mask[y*s.Width+x] = true
					}
				}
			}
		}
	}
}
