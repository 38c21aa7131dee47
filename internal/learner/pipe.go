package learner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// PipeClient talks to a decision process launched as a child process,
// speaking a line protocol over stdin/stdout:
//
//	-> rts                    <- rtsok
//	-> isready                <- readyok
//	-> decide {json request}  <- action {json response}
//	-> episode_end <id> <tick>
//	-> quit
//
// Lines that are not protocol responses (info logging etc) are ignored.
type PipeClient struct {
	path string

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner

	mu     sync.Mutex
	closed bool

	// exited is closed when the process exits.
	exited chan struct{}
}

// StartPipe spawns the decision process and performs the handshake.
func StartPipe(path string) (*PipeClient, error) {
	c := &PipeClient{path: path}
	if err := c.start(); err != nil {
		return nil, fmt.Errorf("learner: start %s: %w", path, err)
	}
	if err := c.handshake(); err != nil {
		c.Close()
		return nil, fmt.Errorf("learner: handshake: %w", err)
	}
	return c, nil
}

func (c *PipeClient) start() error {
	c.cmd = exec.Command(c.path)

	var err error
	c.stdin, err = c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	c.scanner = bufio.NewScanner(stdout)
	c.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	c.exited = make(chan struct{})

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}

	// Track process exit in background so isAlive can check without blocking.
	go func() {
		c.cmd.Wait()
		close(c.exited)
	}()

	return nil
}

func (c *PipeClient) handshake() error {
	c.send("rts")
	if err := c.readUntil("rtsok", 10*time.Second); err != nil {
		return fmt.Errorf("waiting for rtsok: %w", err)
	}
	c.send("isready")
	if err := c.readUntil("readyok", 10*time.Second); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// Decide performs one exchange. It serializes callers and respects the
// context deadline by abandoning the read and reporting the context error.
func (c *PipeClient) Decide(ctx context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("learner: client is closed")
	}
	if !c.isAlive() {
		return nil, fmt.Errorf("learner: decision process is not running")
	}

	wr, err := toWire(req)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(wr)
	if err != nil {
		return nil, fmt.Errorf("learner: marshal request: %w", err)
	}
	c.send("decide " + string(payload))

	type result struct {
		resp wireResponse
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		for c.scanner.Scan() {
			line := c.scanner.Text()
			if !strings.HasPrefix(line, "action ") {
				continue
			}
			var r wireResponse
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "action ")), &r); err != nil {
				ch <- result{err: fmt.Errorf("parse action line %q: %w", line, err)}
				return
			}
			ch <- result{resp: r}
			return
		}
		if err := c.scanner.Err(); err != nil {
			ch <- result{err: fmt.Errorf("scanner: %w", err)}
		} else {
			ch <- result{err: fmt.Errorf("process closed stdout unexpectedly")}
		}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("learner: %w", r.err)
		}
		return &Response{Strategy: r.resp.Strategy, Done: r.resp.Done}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// EpisodeEnd tells the process the episode ended.
func (c *PipeClient) EpisodeEnd(_ context.Context, agentID int, tick int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("learner: client is closed")
	}
	c.send(fmt.Sprintf("episode_end %d %d", agentID, tick))
	return nil
}

// Close sends quit and waits for process exit, killing after 3 seconds.
func (c *PipeClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.stdin != nil {
		fmt.Fprintf(c.stdin, "quit\n")
	}
	c.closed = true
	c.mu.Unlock()

	if c.stdin != nil {
		c.stdin.Close()
	}

	if c.exited != nil {
		select {
		case <-c.exited:
		case <-time.After(3 * time.Second):
			log.Warn().Str("path", c.path).Msg("decision process did not exit within 3s, killing")
			if c.cmd != nil && c.cmd.Process != nil {
				c.cmd.Process.Kill()
			}
			<-c.exited
		}
	}
	return nil
}

// send writes a command line to the process's stdin. Callers hold c.mu or
// are in Close.
func (c *PipeClient) send(line string) {
	if c.stdin == nil {
		return
	}
	fmt.Fprintf(c.stdin, "%s\n", line)
}

// readUntil reads lines until the expected line is seen, ignoring others.
func (c *PipeClient) readUntil(expected string, timeout time.Duration) error {
	deadline := time.After(timeout)
	ch := make(chan struct{}, 1)
	errCh := make(chan error, 1)

	go func() {
		for c.scanner.Scan() {
			if c.scanner.Text() == expected {
				ch <- struct{}{}
				return
			}
		}
		if err := c.scanner.Err(); err != nil {
			errCh <- err
		} else {
			errCh <- fmt.Errorf("process closed stdout before sending %q", expected)
		}
	}()

	select {
	case <-ch:
		return nil
	case err := <-errCh:
		return err
	case <-deadline:
		return fmt.Errorf("timeout waiting for %q", expected)
	}
}

// isAlive checks whether the process is still running.
func (c *PipeClient) isAlive() bool {
	if c.exited == nil {
		return false
	}
	select {
	case <-c.exited:
		return false
	default:
		return true
	}
}
