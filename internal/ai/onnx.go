package ai

import (
	"fmt"
	"sync"
	"sync/atomic"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/freeeve/skirmish/internal/ai/feature"
	"github.com/freeeve/skirmish/pkg/rts"
)

// OnnxAI runs a trained policy locally with gonnx (pure Go ONNX runtime)
// instead of deferring to an external decision process. It keeps the same
// rolling frame window a TrainedAI would send, feeds it to the policy
// model, and argmaxes the strategy logits.
type OnnxAI struct {
	Base
	respectFOW bool
	history    *FrameHistory

	model *gonnx.Model
	mu    sync.Mutex
}

// NewOnnxAI loads the policy model from modelPath.
func NewOnnxAI(opts Options, modelPath string) (*OnnxAI, error) {
	if opts.Name == "" {
		opts.Name = "ai_onnx"
	}
	model, err := gonnx.NewModelFromFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ai: load policy model %s: %w", modelPath, err)
	}
	frames := opts.Frames
	if frames < 1 {
		frames = 1
	}
	return &OnnxAI{
		Base:       NewBase(opts),
		respectFOW: opts.FOW,
		history:    NewFrameHistory(frames),
		model:      model,
	}, nil
}

// NewOnnxOrSimple attempts to load an OnnxAI and falls back to SimpleAI
// when the model cannot be loaded, so a run can proceed without weights.
func NewOnnxOrSimple(opts Options, modelPath string) Agent {
	a, err := NewOnnxAI(opts, modelPath)
	if err != nil {
		log.Warn().Err(err).Str("path", modelPath).Msg("policy model load failed, falling back to ai_simple")
		return NewSimpleAI(opts)
	}
	return a
}

// Act encodes the current frame, runs the policy model, and executes the
// argmax strategy.
func (a *OnnxAI) Act(t rts.Tick, act *rts.Action, cancel *atomic.Bool) error {
	s := a.State()
	if !a.OnFrame(t) {
		return ErrSkipped
	}
	if cancelled(cancel) {
		return ErrCancelled
	}

	a.history.Push(feature.Encode(s, a.ID(), a.respectFOW))

	logits, err := a.runPolicy(s)
	if err != nil {
		return fmt.Errorf("ai: policy inference: %w", err)
	}
	if len(logits) < int(rts.NumStrategies) {
		return fmt.Errorf("ai: policy output has %d logits, want %d", len(logits), rts.NumStrategies)
	}

	best := 0
	for i := 1; i < int(rts.NumStrategies); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	ExecuteStrategy(s, a.ID(), rts.StrategyID(best), act)
	return nil
}

// runPolicy stacks the frame window and runs the model, returning flat
// strategy logits.
func (a *OnnxAI) runPolicy(s *rts.State) ([]float32, error) {
	k := a.history.Cap()
	frameLen := feature.FrameLen(s)
	frames := a.history.Frames()

	backing := make([]float32, k*frameLen)
	pad := k - len(frames)
	for i, f := range frames {
		copy(backing[(pad+i)*frameLen:], f)
	}

	window := tensor.New(
		tensor.WithShape(1, k, feature.NumChannels, s.Height, s.Width),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(backing),
	)

	a.mu.Lock()
	outputs, err := a.model.Run(gonnx.Tensors{"frames": window})
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out, ok := outputs["strategy_logits"]
	if !ok {
		for _, v := range outputs {
			out = v
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("no output tensor from policy model")
	}

	switch d := out.Data().(type) {
	case []float32:
		return d, nil
	case []float64:
		f32 := make([]float32, len(d))
		for i, v := range d {
			f32[i] = float32(v)
		}
		return f32, nil
	default:
		return nil, fmt.Errorf("unexpected policy output type %T", out.Data())
	}
}
