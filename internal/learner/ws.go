package learner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSClient talks to a decision process over a WebSocket connection.
// It serializes exchanges: at most one Decide is in flight at a time. An
// exchange abandoned on context expiry tears the connection down; the next
// exchange redials transparently.
type WSClient struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// DialWS connects to a decision process at the given ws:// URL.
func DialWS(ctx context.Context, url string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("learner: dial %s: %w", url, err)
	}
	return &WSClient{url: url, conn: conn}, nil
}

// Decide sends the request and blocks until a reply arrives, the context is
// cancelled, or its deadline expires.
func (c *WSClient) Decide(ctx context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("learner: client is closed")
	}
	if err := c.ensureConn(ctx); err != nil {
		return nil, err
	}

	wr, err := toWire(req)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	}
	if err := c.conn.WriteJSON(wr); err != nil {
		return nil, fmt.Errorf("learner: write request: %w", err)
	}

	type result struct {
		resp wireResponse
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		var r wireResponse
		err := c.conn.ReadJSON(&r)
		ch <- result{resp: r, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("learner: read response: %w", r.err)
		}
		return &Response{Strategy: r.resp.Strategy, Done: r.resp.Done}, nil
	case <-ctx.Done():
		// The abandoned read leaves the connection unusable; drop it and
		// redial on the next exchange.
		c.conn.Close()
		<-ch
		c.conn = nil
		return nil, ctx.Err()
	}
}

// EpisodeEnd notifies the remote side that the episode is over.
func (c *WSClient) EpisodeEnd(ctx context.Context, agentID int, tick int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("learner: client is closed")
	}
	if err := c.ensureConn(ctx); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	}
	msg := wireRequest{Type: "episode_end", AgentID: agentID, Tick: tick}
	if err := c.conn.WriteJSON(&msg); err != nil {
		return fmt.Errorf("learner: write episode end: %w", err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn == nil {
		return nil
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// ensureConn redials after an abandoned exchange dropped the connection.
// Callers hold c.mu.
func (c *WSClient) ensureConn(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("learner: redial %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}
