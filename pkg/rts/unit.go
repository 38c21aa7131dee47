package rts

// UnitType identifies the kind of a unit on the map.
type UnitType int

const (
	UnitBase UnitType = iota
	UnitResource
	UnitWorker
	UnitMelee
	UnitRanged
	NumUnitTypes
)

// String returns the lowercase unit type name.
func (t UnitType) String() string {
	switch t {
	case UnitBase:
		return "base"
	case UnitResource:
		return "resource"
	case UnitWorker:
		return "worker"
	case UnitMelee:
		return "melee"
	case UnitRanged:
		return "ranged"
	}
	return "unknown"
}

// Unit is a single entity on the map. Resource nodes are units owned by
// NeutralPlayer.
type Unit struct {
	ID    int
	Type  UnitType
	Owner PlayerID
	X     int
	Y     int
	HP    int
}

// UnitSpec holds the static combat and production stats for a unit type.
type UnitSpec struct {
	MaxHP      int
	Damage     int
	Range      int // attack range in cells (Chebyshev)
	Sight      int // vision radius in cells (Chebyshev)
	Speed      int // cells per tick
	Cost       int // resource cost to build
	BuildTicks int
}

// Specs is the stats table for all unit types.
var Specs = map[UnitType]UnitSpec{
	UnitBase:     {MaxHP: 300, Damage: 0, Range: 0, Sight: 5, Speed: 0, Cost: 0, BuildTicks: 0},
	UnitResource: {MaxHP: 1000, Damage: 0, Range: 0, Sight: 0, Speed: 0, Cost: 0, BuildTicks: 0},
	UnitWorker:   {MaxHP: 30, Damage: 2, Range: 1, Sight: 3, Speed: 1, Cost: 50, BuildTicks: 20},
	UnitMelee:    {MaxHP: 100, Damage: 15, Range: 1, Sight: 3, Speed: 1, Cost: 100, BuildTicks: 30},
	UnitRanged:   {MaxHP: 50, Damage: 10, Range: 3, Sight: 4, Speed: 1, Cost: 100, BuildTicks: 30},
}

// Spec returns the stats for the unit's type.
func (u *Unit) Spec() UnitSpec { return Specs[u.Type] }

// IsCombat reports whether the unit can attack.
func (u *Unit) IsCombat() bool {
	return u.Type == UnitWorker || u.Type == UnitMelee || u.Type == UnitRanged
}

// chebyshev distance between two cells.
func chebyshev(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Distance returns the Chebyshev distance from the unit to a cell.
func (u *Unit) Distance(x, y int) int { return chebyshev(u.X, u.Y, x, y) }

// InRange reports whether the target cell is within the unit's attack range.
func (u *Unit) InRange(x, y int) bool { return u.Distance(x, y) <= u.Spec().Range }
