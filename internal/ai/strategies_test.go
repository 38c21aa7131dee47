package ai

import (
	"sync/atomic"
	"testing"

	"github.com/freeeve/skirmish/pkg/rts"
)

func TestExecuteStrategy_BuildWorkerQueuesAtBase(t *testing.T) {
	s := rts.NewInitialState(8, 8)
	var act rts.Action
	act.Reset()
	ExecuteStrategy(s, rts.Player0, rts.StrategyBuildWorker, &act)

	base := s.BaseOf(rts.Player0)
	found := false
	for _, c := range act.Cmds {
		if c.Cmd == rts.CmdBuild {
			if c.UnitID != base.ID {
				t.Errorf("build queued at unit %d, want base %d", c.UnitID, base.ID)
			}
			if c.Build != rts.UnitWorker {
				t.Errorf("build type = %v, want worker", c.Build)
			}
			found = true
		}
	}
	if !found {
		t.Error("expected a build command")
	}
}

func TestExecuteStrategy_BuildUnaffordableProducesNoBuild(t *testing.T) {
	s := rts.NewInitialState(8, 8)
	s.Resources[rts.Player0] = 0
	var act rts.Action
	act.Reset()
	ExecuteStrategy(s, rts.Player0, rts.StrategyBuildMelee, &act)
	for _, c := range act.Cmds {
		if c.Cmd == rts.CmdBuild {
			t.Error("build command issued with zero resources")
		}
	}
}

func TestExecuteStrategy_IdleWorkersAlwaysGather(t *testing.T) {
	s := rts.NewInitialState(8, 8)
	var act rts.Action
	act.Reset()
	ExecuteStrategy(s, rts.Player0, rts.StrategyIdle, &act)

	gathers := 0
	for _, c := range act.Cmds {
		if c.Cmd == rts.CmdGather {
			gathers++
		}
	}
	if gathers != s.UnitCount(rts.Player0, rts.UnitWorker) {
		t.Errorf("gather commands = %d, want one per worker (%d)", gathers, s.UnitCount(rts.Player0, rts.UnitWorker))
	}
}

func TestExecuteStrategy_AttackTargetsEnemyBase(t *testing.T) {
	s := rts.NewInitialState(16, 16)
	s.Spawn(rts.UnitMelee, rts.Player0, 5, 5)
	var act rts.Action
	act.Reset()
	ExecuteStrategy(s, rts.Player0, rts.StrategyAttack, &act)

	enemyBase := s.BaseOf(rts.Player1)
	found := false
	for _, c := range act.Cmds {
		if c.Cmd == rts.CmdAttack && c.TargetID == enemyBase.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected an attack command on the enemy base")
	}
}

func TestSimpleAI_ActsOnInitialState(t *testing.T) {
	a := NewSimpleAI(Options{})
	a.SetID(rts.Player0)
	a.SetState(rts.NewInitialState(8, 8))

	var act rts.Action
	act.Reset()
	if err := a.Act(0, &act, nil); err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if act.Player != rts.Player0 {
		t.Errorf("act.Player = %v, want %v", act.Player, rts.Player0)
	}
	if len(act.Cmds) == 0 {
		t.Error("expected commands on the initial state")
	}
}

func TestSimpleAI_FrameSkip(t *testing.T) {
	a := NewSimpleAI(Options{FrameSkip: 5})
	a.SetID(rts.Player0)
	a.SetState(rts.NewInitialState(8, 8))

	var act rts.Action
	for _, tick := range []rts.Tick{1, 2, 3, 4} {
		act.Reset()
		if err := a.Act(tick, &act, nil); err != ErrSkipped {
			t.Errorf("tick %d: expected ErrSkipped, got %v", tick, err)
		}
	}
	act.Reset()
	if err := a.Act(5, &act, nil); err != nil {
		t.Errorf("tick 5: expected action, got %v", err)
	}
}

func TestHitAndRunAI_CancelObserved(t *testing.T) {
	a := NewHitAndRunAI(Options{})
	a.SetID(rts.Player0)
	a.SetState(rts.NewInitialState(8, 8))

	var cancel atomic.Bool
	cancel.Store(true)
	var act rts.Action
	act.Reset()
	if err := a.Act(0, &act, &cancel); err != ErrCancelled {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestForName_KnownAndUnknown(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"ai_simple", "ai_simple"},
		{"AI_SIMPLE", "ai_simple"},
		{"ai_hit_and_run", "ai_hit_and_run"},
		{"AI_HIT_AND_RUN", "ai_hit_and_run"},
		{"ai_scripted", "ai_scripted"},
	}
	for _, c := range cases {
		a := ForName(c.name, Options{})
		if a == nil {
			t.Errorf("ForName(%q) = nil, want agent", c.name)
			continue
		}
		if a.Name() != c.want {
			t.Errorf("ForName(%q).Name() = %q, want %q", c.name, a.Name(), c.want)
		}
	}

	if a := ForName("ai_unknown", Options{}); a != nil {
		t.Errorf("ForName(unknown) = %T, want nil", a)
	}
}
