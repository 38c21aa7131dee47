package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freeeve/skirmish/internal/ai/feature"
	"github.com/freeeve/skirmish/internal/learner"
	"github.com/freeeve/skirmish/pkg/rts"
)

// fakeClient is an in-memory learner.Client with scripted behavior.
type fakeClient struct {
	resp  *learner.Response
	err   error
	delay time.Duration

	reqs        []*learner.Request
	episodeEnds int
}

func (c *fakeClient) Decide(ctx context.Context, req *learner.Request) (*learner.Response, error) {
	c.reqs = append(c.reqs, req)
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.delay):
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func (c *fakeClient) EpisodeEnd(context.Context, int, int) error {
	c.episodeEnds++
	return nil
}

func (c *fakeClient) Close() error { return nil }

func newBoundTrained(t *testing.T, client learner.Client, frames int) *TrainedAI {
	t.Helper()
	a := NewTrainedAI(Options{Name: "trained", FOW: true, Frames: frames}, client)
	a.SetID(rts.Player0)
	a.SetState(rts.NewInitialState(8, 8))
	return a
}

func TestTrainedAI_ActDecodesResponse(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{Strategy: int(rts.StrategyBuildWorker)}}
	a := newBoundTrained(t, client, 2)

	var act rts.Action
	act.Reset()
	if err := a.Act(0, &act, nil); err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if act.Player != rts.Player0 {
		t.Errorf("act.Player = %v, want %v", act.Player, rts.Player0)
	}
	if act.Strategy != rts.StrategyBuildWorker {
		t.Errorf("act.Strategy = %v, want build_worker", act.Strategy)
	}
	if len(act.Cmds) == 0 {
		t.Error("expected unit commands from build_worker strategy")
	}
}

func TestTrainedAI_FailedExchangeKeepsPushedFrame(t *testing.T) {
	client := &fakeClient{err: errors.New("timeout")}
	a := newBoundTrained(t, client, 4)

	var act rts.Action
	act.Reset()
	err := a.Act(0, &act, nil)
	if err == nil {
		t.Fatal("expected Act to fail on exchange error")
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrNoDecision) {
		t.Errorf("exchange failure misclassified: %v", err)
	}
	// The snapshot pushed before the exchange stays; no rollback.
	if a.History().Len() != 1 {
		t.Errorf("history len = %d after failed exchange, want 1", a.History().Len())
	}
}

func TestTrainedAI_RemoteDoneIsNoDecision(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{Done: true}}
	a := newBoundTrained(t, client, 1)

	var act rts.Action
	act.Reset()
	if err := a.Act(0, &act, nil); !errors.Is(err, ErrNoDecision) {
		t.Errorf("expected ErrNoDecision for remote done, got %v", err)
	}
}

func TestTrainedAI_MalformedStrategyIsDecodeFailure(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{Strategy: 999}}
	a := newBoundTrained(t, client, 1)

	var act rts.Action
	act.Reset()
	err := a.Act(0, &act, nil)
	if err == nil {
		t.Fatal("expected decode failure for out-of-range strategy")
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrNoDecision) {
		t.Errorf("decode failure misclassified: %v", err)
	}
}

func TestTrainedAI_CancelBeforeExchange(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{}}
	a := newBoundTrained(t, client, 1)

	var cancel atomic.Bool
	cancel.Store(true)
	var act rts.Action
	act.Reset()
	if err := a.Act(0, &act, &cancel); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if len(client.reqs) != 0 {
		t.Errorf("expected no exchange after early cancel, got %d", len(client.reqs))
	}
}

func TestTrainedAI_CancelMidExchangeReturnsPromptly(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{}, delay: 2 * time.Second}
	a := newBoundTrained(t, client, 1)

	var cancel atomic.Bool
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel.Store(true)
	}()

	var act rts.Action
	act.Reset()
	start := time.Now()
	err := a.Act(0, &act, &cancel)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("cancellation took %v, expected prompt return", elapsed)
	}
}

func TestTrainedAI_RequestWindowZeroPadded(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{Strategy: int(rts.StrategyIdle)}}
	a := newBoundTrained(t, client, 3)

	var act rts.Action
	act.Reset()
	if err := a.Act(0, &act, nil); err != nil {
		t.Fatalf("Act failed: %v", err)
	}

	if len(client.reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(client.reqs))
	}
	req := client.reqs[0]
	shape := req.Frames.Shape()
	if len(shape) != 4 || shape[0] != 3 || shape[1] != feature.NumChannels || shape[2] != 8 || shape[3] != 8 {
		t.Fatalf("request shape = %v, want [3 %d 8 8]", shape, feature.NumChannels)
	}
	if req.Meta["frames"] != "1" {
		t.Errorf("meta frames = %q, want 1", req.Meta["frames"])
	}

	data := req.Frames.Data().([]float32)
	frameLen := feature.NumChannels * 8 * 8
	for i := 0; i < 2*frameLen; i++ {
		if data[i] != 0 {
			t.Fatalf("padding slot %d = %v, want 0", i, data[i])
		}
	}
	nonZero := false
	for _, v := range data[2*frameLen:] {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("newest frame slot is all zeros, expected encoded state")
	}
}

func TestTrainedAI_GameEndAlwaysHandledAndNotifies(t *testing.T) {
	client := &fakeClient{resp: &learner.Response{}}
	a := newBoundTrained(t, client, 2)

	var act rts.Action
	act.Reset()
	a.Act(0, &act, nil)
	before := a.History().Len()

	if !a.GameEnd(100) {
		t.Error("TrainedAI.GameEnd must report handled")
	}
	if client.episodeEnds != 1 {
		t.Errorf("episode end notifications = %d, want 1", client.episodeEnds)
	}
	// History is not implicitly cleared at episode boundaries.
	if a.History().Len() != before {
		t.Errorf("history len changed across GameEnd: %d -> %d", before, a.History().Len())
	}
}

func TestTrainedAI_ActBeforeBindPanics(t *testing.T) {
	a := NewTrainedAI(Options{Name: "trained"}, &fakeClient{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic acting before SetState")
		}
	}()
	var act rts.Action
	act.Reset()
	a.Act(0, &act, nil)
}
