// Package learner implements the request/response channel between a
// communicating agent and an external decision process. Exactly one
// exchange may be outstanding per client at any time; channel failures
// surface as errors, never as crashes.
package learner

import (
	"context"
	"errors"

	"gorgonia.org/tensor"
)

// Request carries one tick's observation to the decision process.
type Request struct {
	AgentID int
	Tick    int

	// Frames is the rolling window of feature frames, shape
	// (k, channels, height, width), oldest frame first, zero-padded at the
	// oldest side when fewer than k frames exist.
	Frames *tensor.Dense

	Meta map[string]string
}

// Response is the decision process's reply for one request.
type Response struct {
	// Strategy is the selected discrete strategy index.
	Strategy int
	// Done signals that the remote side considers the episode over and no
	// action should be taken.
	Done bool
}

// Client is the transport to an external decision process.
type Client interface {
	// Decide performs one blocking request/response exchange. It returns
	// when a reply arrives, the context is cancelled, or its deadline
	// expires.
	Decide(ctx context.Context, req *Request) (*Response, error)

	// EpisodeEnd notifies the remote side that the episode ended at the
	// given tick. Best effort; errors are advisory.
	EpisodeEnd(ctx context.Context, agentID int, tick int) error

	Close() error
}

// wireRequest is the JSON encoding of a Request. The frame window is sent
// as an explicit shape plus flat row-major data.
type wireRequest struct {
	Type    string            `json:"type"` // "decide" or "episode_end"
	AgentID int               `json:"agent_id"`
	Tick    int               `json:"tick"`
	Shape   []int             `json:"shape,omitempty"`
	Data    []float32         `json:"data,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// wireResponse is the JSON encoding of a Response.
type wireResponse struct {
	Strategy int  `json:"strategy"`
	Done     bool `json:"done"`
}

func toWire(req *Request) (*wireRequest, error) {
	wr := &wireRequest{
		Type:    "decide",
		AgentID: req.AgentID,
		Tick:    req.Tick,
		Meta:    req.Meta,
	}
	if req.Frames != nil {
		wr.Shape = []int(req.Frames.Shape())
		data, ok := req.Frames.Data().([]float32)
		if !ok {
			return nil, errBadFrameDtype
		}
		wr.Data = data
	}
	return wr, nil
}

var errBadFrameDtype = errors.New("learner: frame tensor is not float32")
