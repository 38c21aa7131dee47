package feature

import (
	"testing"

	"github.com/freeeve/skirmish/pkg/rts"
)

func at(frame []float32, s *rts.State, c, x, y int) float32 {
	return frame[c*s.Height*s.Width+y*s.Width+x]
}

func TestEncode_OwnAndEnemyChannels(t *testing.T) {
	s := rts.NewInitialState(8, 8)
	frame := Encode(s, rts.Player0, false)

	if len(frame) != FrameLen(s) {
		t.Fatalf("frame len = %d, want %d", len(frame), FrameLen(s))
	}

	base0 := s.BaseOf(rts.Player0)
	if at(frame, s, ChanOwnBase, base0.X, base0.Y) != 1 {
		t.Error("own base not encoded in own-base channel")
	}

	base1 := s.BaseOf(rts.Player1)
	if at(frame, s, ChanEnemyBase, base1.X, base1.Y) != 1 {
		t.Error("enemy base not encoded in enemy-base channel")
	}
	if at(frame, s, ChanOwnBase, base1.X, base1.Y) != 0 {
		t.Error("enemy base leaked into own-base channel")
	}

	if hp := at(frame, s, ChanHP, base0.X, base0.Y); hp != 1 {
		t.Errorf("full-HP base encoded as %v, want 1", hp)
	}
}

func TestEncode_PerspectiveIsRelative(t *testing.T) {
	s := rts.NewInitialState(8, 8)
	f0 := Encode(s, rts.Player0, false)
	f1 := Encode(s, rts.Player1, false)

	base0 := s.BaseOf(rts.Player0)
	if at(f0, s, ChanOwnBase, base0.X, base0.Y) != 1 {
		t.Error("player 0 should see its base as own")
	}
	if at(f1, s, ChanEnemyBase, base0.X, base0.Y) != 1 {
		t.Error("player 1 should see player 0's base as enemy")
	}
}

func TestEncode_FogHidesUnseenEnemies(t *testing.T) {
	// On a big map the far corner is outside player 0's sight.
	s := rts.NewInitialState(20, 20)
	base1 := s.BaseOf(rts.Player1)
	if s.Visible(rts.Player0, base1.X, base1.Y) {
		t.Fatal("test setup: enemy base unexpectedly visible")
	}

	fogged := Encode(s, rts.Player0, true)
	if at(fogged, s, ChanEnemyBase, base1.X, base1.Y) != 0 {
		t.Error("fog-respecting encoding leaked hidden enemy base")
	}

	truth := Encode(s, rts.Player0, false)
	if at(truth, s, ChanEnemyBase, base1.X, base1.Y) != 1 {
		t.Error("ground-truth encoding missing enemy base")
	}
}

func TestEncode_VisibilityChannel(t *testing.T) {
	s := rts.NewInitialState(20, 20)
	frame := Encode(s, rts.Player0, true)

	base0 := s.BaseOf(rts.Player0)
	if at(frame, s, ChanVisible, base0.X, base0.Y) != 1 {
		t.Error("own base cell should be visible")
	}
	if at(frame, s, ChanVisible, 19, 19) != 0 {
		t.Error("far corner should be fogged")
	}
}

func TestEncode_ResourceChannel(t *testing.T) {
	s := rts.NewInitialState(8, 8)
	frame := Encode(s, rts.Player0, false)

	found := false
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if at(frame, s, ChanResource, x, y) == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Error("no resource nodes encoded")
	}
}
