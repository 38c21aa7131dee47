// Package ai contains the decision-making agents for the simulation: the
// rule-based strategies, the communicating adapter that defers to an
// external decision process, and the composite agent that hands control
// from a scripted backup to a trainable main agent partway through each
// episode.
package ai

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/freeeve/skirmish/pkg/rts"
)

// Act outcome errors. A nil return from Act means an action was produced;
// any error means no action was taken this tick. ErrCancelled is
// distinguishable from exchange/decode failures so callers can decide
// whether to retry.
var (
	// ErrCancelled is returned when the cooperative cancel flag was
	// observed before a decision completed.
	ErrCancelled = errors.New("ai: act cancelled")

	// ErrNoDecision is returned when the decision process signalled that no
	// action should be taken (for example, it considers the episode over).
	ErrNoDecision = errors.New("ai: no decision for tick")

	// ErrSkipped is returned on ticks suppressed by the agent's frame skip.
	ErrSkipped = errors.New("ai: tick skipped by frame skip")
)

// Agent produces one action per simulated tick. Implementations must be
// bound (SetID, SetState) before the first Act call; acting on an unbound
// state is a construction-order bug and panics.
type Agent interface {
	Name() string

	// SetID binds the agent's player identity. Composite agents cascade the
	// binding to owned sub-agents.
	SetID(id rts.PlayerID)

	// SetState binds the read-only game-state reference. Composite agents
	// cascade the binding to owned sub-agents.
	SetState(s *rts.State)

	// Act produces an action for the given tick. cancel, when non-nil, is a
	// cooperative cancellation flag polled at safe points; agents observing
	// it return ErrCancelled promptly.
	Act(tick rts.Tick, act *rts.Action, cancel *atomic.Bool) error

	// GameEnd notifies the agent that the episode ended at tick. The return
	// value reports whether the agent handled the notification; composites
	// surface their main agent's result.
	GameEnd(tick rts.Tick) bool
}

// Options configures an agent at construction time.
type Options struct {
	Name      string
	FrameSkip int  // act every FrameSkip ticks; <=1 means every tick
	FOW       bool // respect fog of war when extracting features
	Frames    int  // history frames kept by communicating agents
	Args      string
}

// Base carries the identity and state binding shared by every agent
// variant. Binding is two-phase: constructed agents are unbound until
// SetID/SetState; rebinding is allowed and overwrites.
type Base struct {
	name      string
	frameSkip int

	id    rts.PlayerID
	idSet bool
	state *rts.State
	stSet bool
}

// NewBase returns a Base configured from opts.
func NewBase(opts Options) Base {
	fs := opts.FrameSkip
	if fs < 1 {
		fs = 1
	}
	return Base{name: opts.Name, frameSkip: fs}
}

// Name returns the agent's name.
func (b *Base) Name() string { return b.name }

// SetID binds the player identity.
func (b *Base) SetID(id rts.PlayerID) {
	b.id = id
	b.idSet = true
}

// SetState binds the game-state reference.
func (b *Base) SetState(s *rts.State) {
	if s == nil {
		panic("ai: SetState called with nil state")
	}
	b.state = s
	b.stSet = true
}

// ID returns the bound player identity, panicking if unbound.
func (b *Base) ID() rts.PlayerID {
	if !b.idSet {
		panic(fmt.Sprintf("ai: agent %q used before SetID", b.name))
	}
	return b.id
}

// State returns the bound game state, panicking if unbound.
func (b *Base) State() *rts.State {
	if !b.stSet {
		panic(fmt.Sprintf("ai: agent %q used before SetState", b.name))
	}
	return b.state
}

// Bound reports whether SetState has been called.
func (b *Base) Bound() bool { return b.stSet }

// HasID reports whether SetID has been called.
func (b *Base) HasID() bool { return b.idSet }

// OnFrame reports whether the agent acts on this tick under its frame skip.
func (b *Base) OnFrame(t rts.Tick) bool {
	return b.frameSkip <= 1 || int(t)%b.frameSkip == 0
}

// GameEnd is the default episode-end handler: acknowledge and report
// handled.
func (b *Base) GameEnd(rts.Tick) bool { return true }

// cancelled reports whether the cooperative cancel flag is set.
func cancelled(cancel *atomic.Bool) bool {
	return cancel != nil && cancel.Load()
}
