package ai

import (
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/skirmish/pkg/rts"
)

// MixedAI owns a rule-based backup agent and a main agent and hands
// control between them: each episode, ticks below a randomly drawn
// threshold are played by the backup, the rest by the main agent. The
// threshold's mean decays across episodes, so training converges to full
// main-agent control. Which agent controls a tick is a pure function of
// (tick, threshold); there is no separate mode variable.
type MixedAI struct {
	Base
	backup Agent
	main   Agent

	threshold   rts.Tick
	latestStart float64
	decay       float64

	rng *rand.Rand
}

// MixedOption configures a MixedAI at construction.
type MixedOption func(*MixedAI)

// WithRand sets the random source used to draw handoff thresholds. Tests
// inject a seeded source here; the default is seeded from wall-clock time.
func WithRand(rng *rand.Rand) MixedOption {
	return func(m *MixedAI) { m.rng = rng }
}

// NewMixedAI constructs a MixedAI from opts.Args, a pipe-separated
// key/value string, for example "start/200|decay/0.95|backup/ai_simple".
// Recognized keys: start (initial threshold mean), decay (per-episode
// multiplicative decay), backup (backup strategy name). Malformed pairs
// are dropped; unrecognized keys are logged and ignored. An unrecognized
// or absent backup leaves the main agent in control of every tick.
func NewMixedAI(opts Options, mopts ...MixedOption) *MixedAI {
	m := &MixedAI{Base: NewBase(opts)}

	for _, kv := range parseArgs(opts.Args) {
		switch kv.key {
		case "start":
			v, err := strconv.Atoi(kv.value)
			if err != nil {
				log.Warn().Str("value", kv.value).Msg("bad start value in mixed AI args")
				continue
			}
			if v < 0 {
				log.Warn().Str("value", kv.value).Msg("negative start value in mixed AI args, using 0")
				v = 0
			}
			m.latestStart = float64(v)
		case "decay":
			v, err := strconv.ParseFloat(kv.value, 64)
			if err != nil {
				log.Warn().Str("value", kv.value).Msg("bad decay value in mixed AI args")
				continue
			}
			m.decay = v
		case "backup":
			sub := Options{FrameSkip: opts.FrameSkip}
			m.backup = ForName(kv.value, sub)
		default:
			log.Warn().Str("key", kv.key).Str("value", kv.value).Msg("unrecognized mixed AI arg")
		}
	}

	for _, o := range mopts {
		o(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if m.backup != nil {
		m.cascade(m.backup)
	}
	m.redrawThreshold()
	return m
}

// SetMainAI installs the main agent, binding identity and state if already
// available. Re-installation replaces the previous main agent entirely.
func (m *MixedAI) SetMainAI(a Agent) {
	m.main = a
	m.cascade(a)
}

// Backup returns the installed backup agent, or nil.
func (m *MixedAI) Backup() Agent { return m.backup }

// Threshold returns the current episode's handoff tick.
func (m *MixedAI) Threshold() rts.Tick { return m.threshold }

// LatestStart returns the current threshold-distribution mean.
func (m *MixedAI) LatestStart() float64 { return m.latestStart }

// SetID binds identity and cascades to owned sub-agents.
func (m *MixedAI) SetID(id rts.PlayerID) {
	m.Base.SetID(id)
	if m.backup != nil {
		m.backup.SetID(id)
	}
	if m.main != nil {
		m.main.SetID(id)
	}
}

// SetState binds the game state and cascades to owned sub-agents.
func (m *MixedAI) SetState(s *rts.State) {
	m.Base.SetState(s)
	if m.backup != nil {
		m.backup.SetState(s)
	}
	if m.main != nil {
		m.main.SetState(s)
	}
}

// cascade applies any bindings the composite already holds to a newly
// installed sub-agent.
func (m *MixedAI) cascade(a Agent) {
	if m.HasID() {
		a.SetID(m.Base.id)
	}
	if m.Bound() {
		a.SetState(m.Base.state)
	}
}

// Act routes the tick to whichever sub-agent is in control. Sub-agent
// failures propagate unmasked.
func (m *MixedAI) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	if m.main == nil {
		panic("ai: MixedAI.Act before SetMainAI")
	}
	if m.backup != nil && t < m.threshold {
		return m.backup.Act(t, act, cancel)
	}
	return m.main.Act(t, act, cancel)
}

// GameEnd reports the main agent's episode-end result, notifies the backup
// (its result is not surfaced), decays the threshold mean, and redraws the
// threshold for the next episode.
func (m *MixedAI) GameEnd(t rts.Tick) bool {
	res := true
	if m.main != nil {
		res = m.main.GameEnd(t)
	}
	if m.backup != nil {
		m.backup.GameEnd(t)
	}

	// The threshold mean never goes negative, whatever decay was configured.
	m.latestStart *= m.decay
	if m.latestStart < 0 {
		m.latestStart = 0
	}
	m.redrawThreshold()
	return res
}

// redrawThreshold samples uniformly from [0, round(latestStart)].
func (m *MixedAI) redrawThreshold() {
	bound := int(m.latestStart + 0.5)
	m.threshold = rts.Tick(m.rng.Intn(bound + 1))
}

type kvPair struct {
	key   string
	value string
}

// parseArgs splits a pipe-separated key/value option string. Items without
// exactly one slash are dropped silently.
func parseArgs(args string) []kvPair {
	var out []kvPair
	for _, item := range strings.Split(args, "|") {
		if item == "" {
			continue
		}
		kv := strings.Split(item, "/")
		if len(kv) != 2 {
			continue
		}
		out = append(out, kvPair{key: kv[0], value: kv[1]})
	}
	return out
}
