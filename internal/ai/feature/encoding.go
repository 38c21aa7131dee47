// Package feature encodes game-state snapshots into flat float32 tensors
// consumed by learned policies and external decision processes.
package feature

import "github.com/freeeve/skirmish/pkg/rts"

// FrameLen returns the length of one encoded frame for the given map size.
func FrameLen(s *rts.State) int { return NumChannels * s.Height * s.Width }

// Encode encodes the state as seen by player p into a flat
// [NumChannels * H * W] float32 frame (channel-major). When respectFOW is
// true, units on cells p cannot see are omitted and the HP plane covers
// visible cells only; when false the full ground truth is encoded.
func Encode(s *rts.State, p rts.PlayerID, respectFOW bool) []float32 {
	h, w := s.Height, s.Width
	frame := make([]float32, NumChannels*h*w)

	set := func(c, x, y int, v float32) {
		frame[c*h*w+y*w+x] = v
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if s.Visible(p, x, y) {
				set(ChanVisible, x, y, 1)
			}
		}
	}

	for i := range s.Units {
		u := &s.Units[i]
		if respectFOW && u.Owner != p && !s.Visible(p, u.X, u.Y) {
			continue
		}

		switch {
		case u.Type == rts.UnitResource:
			set(ChanResource, u.X, u.Y, 1)
		case u.Owner == p:
			set(ownChannel(u.Type), u.X, u.Y, 1)
		default:
			set(enemyChannel(u.Type), u.X, u.Y, 1)
		}

		if max := u.Spec().MaxHP; max > 0 {
			set(ChanHP, u.X, u.Y, float32(u.HP)/float32(max))
		}
	}

	return frame
}

func ownChannel(t rts.UnitType) int {
	switch t {
	case rts.UnitBase:
		return ChanOwnBase
	case rts.UnitWorker:
		return ChanOwnWorker
	case rts.UnitMelee:
		return ChanOwnMelee
	default:
		return ChanOwnRanged
	}
}

func enemyChannel(t rts.UnitType) int {
	switch t {
	case rts.UnitBase:
		return ChanEnemyBase
	case rts.UnitWorker:
		return ChanEnemyWorker
	case rts.UnitMelee:
		return ChanEnemyMelee
	default:
		return ChanEnemyRanged
	}
}
