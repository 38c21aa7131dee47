package sim

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freeeve/skirmish/internal/ai"
	"github.com/freeeve/skirmish/pkg/rts"
)

// idleAgent binds but never produces an action.
type idleAgent struct {
	ai.Base
	gameEnds int
}

func newIdleAgent(name string) *idleAgent {
	return &idleAgent{Base: ai.NewBase(ai.Options{Name: name})}
}

func (a *idleAgent) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	if cancel != nil && cancel.Load() {
		return ai.ErrCancelled
	}
	return ai.ErrNoDecision
}

func (a *idleAgent) GameEnd(t rts.Tick) bool {
	a.gameEnds++
	return true
}

// blockingAgent spins until the cancel flag is raised.
type blockingAgent struct {
	ai.Base
}

func (a *blockingAgent) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	for !cancel.Load() {
		time.Sleep(time.Millisecond)
	}
	return ai.ErrCancelled
}

func TestRun_DrawOnTickCap(t *testing.T) {
	p0 := newIdleAgent("idle0")
	p1 := newIdleAgent("idle1")

	res, err := Run(context.Background(), Config{MaxTicks: 50}, p0, p1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Winner != rts.NeutralPlayer {
		t.Errorf("winner = %v, want draw", res.Winner)
	}
	if res.Ticks != 50 {
		t.Errorf("ticks = %d, want 50", res.Ticks)
	}
	if !res.MainHandled {
		t.Error("MainHandled = false, want true")
	}
	if p0.gameEnds != 1 || p1.gameEnds != 1 {
		t.Errorf("GameEnd calls = %d/%d, want 1/1", p0.gameEnds, p1.gameEnds)
	}
}

func TestRun_SimpleBeatsIdle(t *testing.T) {
	p0 := ai.NewSimpleAI(ai.Options{Name: "simple"})
	p1 := newIdleAgent("idle")

	res, err := Run(context.Background(), Config{MaxTicks: 2000}, p0, p1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Winner != rts.Player0 {
		t.Errorf("winner = %v, want player 0", res.Winner)
	}
	if res.Ticks >= 2000 {
		t.Errorf("episode ran to the cap (%d ticks), expected a decisive win", res.Ticks)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		p0 := &blockingAgent{Base: ai.NewBase(ai.Options{Name: "block"})}
		p1 := newIdleAgent("idle")
		_, err := Run(ctx, Config{MaxTicks: 100}, p0, p1)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestRun_BindsAgents(t *testing.T) {
	p0 := newIdleAgent("idle0")
	p1 := newIdleAgent("idle1")

	if _, err := Run(context.Background(), Config{MaxTicks: 1}, p0, p1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if p0.ID() != rts.Player0 || p1.ID() != rts.Player1 {
		t.Errorf("ids = %v/%v, want 0/1", p0.ID(), p1.ID())
	}
	if !p0.Bound() || !p1.Bound() {
		t.Error("agents not bound after run")
	}
}
