// Package sim drives episodes: it binds agents to a fresh state, calls
// them once per tick, applies produced actions with a minimal rules step,
// and reports the outcome. It is a harness for the agents, not a full
// game engine.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/skirmish/internal/ai"
	"github.com/freeeve/skirmish/pkg/rts"
)

// Config configures one episode.
type Config struct {
	Width    int
	Height   int
	MaxTicks rts.Tick // tick cap before the episode is called a draw
}

// Result describes a finished episode.
type Result struct {
	Winner      rts.PlayerID // NeutralPlayer for a draw
	Ticks       rts.Tick
	MainHandled bool // player 0 agent's GameEnd result
}

// Run plays one episode between two agents. The context cancels the
// episode cooperatively: agents observe the cancel flag and the run
// returns the context's error.
func Run(ctx context.Context, cfg Config, p0, p1 ai.Agent) (*Result, error) {
	if cfg.Width == 0 {
		cfg.Width = 16
	}
	if cfg.Height == 0 {
		cfg.Height = 16
	}
	if cfg.MaxTicks == 0 {
		cfg.MaxTicks = 2000
	}

	state := rts.NewInitialState(cfg.Width, cfg.Height)

	agents := map[rts.PlayerID]ai.Agent{rts.Player0: p0, rts.Player1: p1}
	for id, a := range agents {
		a.SetID(id)
		a.SetState(state)
	}

	var cancelFlag atomic.Bool
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			cancelFlag.Store(true)
		case <-watchDone:
		}
	}()

	var act rts.Action
	for state.Tick < cfg.MaxTicks {
		for _, id := range []rts.PlayerID{rts.Player0, rts.Player1} {
			act.Reset()
			err := agents[id].Act(state.Tick, &act, &cancelFlag)
			switch {
			case err == nil:
				apply(state, &act)
			case errors.Is(err, ai.ErrCancelled):
				return nil, ctx.Err()
			case errors.Is(err, ai.ErrSkipped):
				// Off-frame tick, nothing to do.
			default:
				// A failed act means no action this tick, never a crash.
				log.Debug().Err(err).Int("player", int(id)).Int("tick", int(state.Tick)).Msg("no action")
			}
		}

		step(state)
		state.Tick++
		state.RecomputeVisibility()

		if winner, over := terminal(state); over {
			state.Terminal = true
			state.Winner = winner
			break
		}
	}

	if !state.Terminal {
		state.Terminal = true
		state.Winner = rts.NeutralPlayer
	}

	res := &Result{Winner: state.Winner, Ticks: state.Tick}
	res.MainHandled = p0.GameEnd(state.Tick)
	p1.GameEnd(state.Tick)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("episode interrupted: %w", ctx.Err())
	}
	return res, nil
}

// terminal reports whether the episode is over and who won.
func terminal(s *rts.State) (rts.PlayerID, bool) {
	b0 := s.BaseOf(rts.Player0)
	b1 := s.BaseOf(rts.Player1)
	switch {
	case b0 == nil && b1 == nil:
		return rts.NeutralPlayer, true
	case b0 == nil:
		return rts.Player1, true
	case b1 == nil:
		return rts.Player0, true
	}
	return rts.NeutralPlayer, false
}
