package ai

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/freeeve/skirmish/internal/ai/feature"
	"github.com/freeeve/skirmish/internal/learner"
	"github.com/freeeve/skirmish/pkg/rts"
)

const (
	defaultDecideTimeout = 10 * time.Second
	cancelPollInterval   = 10 * time.Millisecond
)

// TrainedAI bridges a simulation tick to an external decision process: it
// extracts features from the bound state into a rolling frame history,
// sends the window over a learner.Client, and decodes the reply into an
// action. At most one exchange is outstanding at a time; the exchange
// blocks the calling tick until a reply, a timeout, or cancellation.
type TrainedAI struct {
	Base
	respectFOW bool
	history    *FrameHistory
	client     learner.Client
	timeout    time.Duration
}

// TrainedOption configures a TrainedAI.
type TrainedOption func(*TrainedAI)

// WithDecideTimeout sets the per-exchange deadline.
func WithDecideTimeout(d time.Duration) TrainedOption {
	return func(a *TrainedAI) { a.timeout = d }
}

// NewTrainedAI constructs the adapter. opts.Frames sets the history
// capacity (minimum 1); opts.FOW selects fog-of-war-respecting extraction.
func NewTrainedAI(opts Options, client learner.Client, topts ...TrainedOption) *TrainedAI {
	if opts.Name == "" {
		opts.Name = "ai_trained"
	}
	frames := opts.Frames
	if frames < 1 {
		frames = 1
	}
	a := &TrainedAI{
		Base:       NewBase(opts),
		respectFOW: opts.FOW,
		history:    NewFrameHistory(frames),
		client:     client,
		timeout:    defaultDecideTimeout,
	}
	for _, o := range topts {
		o(a)
	}
	return a
}

// History exposes the frame history for inspection.
func (a *TrainedAI) History() *FrameHistory { return a.history }

// Act extracts the current frame, performs a blocking exchange with the
// decision process, and decodes the reply. The pushed frame stays in the
// history even when the exchange fails; there is no rollback.
func (a *TrainedAI) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	s := a.State()
	if !a.OnFrame(t) {
		return ErrSkipped
	}
	if cancelled(cancel) {
		return ErrCancelled
	}

	a.history.Push(feature.Encode(s, a.ID(), a.respectFOW))

	req, err := a.buildRequest(s, t)
	if err != nil {
		return err
	}

	ctx, stop := context.WithTimeout(context.Background(), a.timeout)
	defer stop()

	// Bridge the cooperative cancel flag into the context so the exchange
	// unblocks within one polling interval.
	if cancel != nil {
		watchDone := make(chan struct{})
		defer close(watchDone)
		go func() {
			ticker := time.NewTicker(cancelPollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-watchDone:
					return
				case <-ticker.C:
					if cancel.Load() {
						stop()
						return
					}
				}
			}
		}()
	}

	resp, err := a.client.Decide(ctx, req)
	if cancelled(cancel) {
		return ErrCancelled
	}
	if err != nil {
		return fmt.Errorf("ai: decision exchange: %w", err)
	}

	return a.handleResponse(s, resp, act)
}

// buildRequest stacks the retained frames into a (k, C, H, W) tensor,
// zero-padding at the oldest side when fewer than k frames exist.
func (a *TrainedAI) buildRequest(s *rts.State, t rts.Tick) (*learner.Request, error) {
	k := a.history.Cap()
	frameLen := feature.FrameLen(s)
	frames := a.history.Frames()

	backing := make([]float32, k*frameLen)
	pad := k - len(frames)
	for i, f := range frames {
		if len(f) != frameLen {
			return nil, fmt.Errorf("ai: frame length %d does not match state %d", len(f), frameLen)
		}
		copy(backing[(pad+i)*frameLen:], f)
	}

	window := tensor.New(
		tensor.WithShape(k, feature.NumChannels, s.Height, s.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(backing),
	)

	return &learner.Request{
		AgentID: int(a.ID()),
		Tick:    int(t),
		Frames:  window,
		Meta: map[string]string{
			"name":   a.Name(),
			"frames": strconv.Itoa(len(frames)),
			"fow":    strconv.FormatBool(a.respectFOW),
		},
	}, nil
}

// handleResponse decodes the reply into unit commands.
func (a *TrainedAI) handleResponse(s *rts.State, resp *learner.Response, act *rts.Action) error {
	if resp.Done {
		return fmt.Errorf("%w: remote signalled episode end", ErrNoDecision)
	}
	id := rts.StrategyID(resp.Strategy)
	if !id.Valid() {
		return fmt.Errorf("ai: decode response: strategy index %d out of range", resp.Strategy)
	}
	ExecuteStrategy(s, a.ID(), id, act)
	return nil
}

// GameEnd notifies the decision process and always reports handled; the
// adapter is authoritative for episode-end reporting. The frame history is
// deliberately not reset here.
func (a *TrainedAI) GameEnd(t rts.Tick) bool {
	ctx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	if err := a.client.EpisodeEnd(ctx, int(a.ID()), int(t)); err != nil {
		log.Warn().Err(err).Int("agent", int(a.ID())).Msg("episode end notification failed")
	}
	return true
}
