// SPDX-License-Identifier: Apache-2.0

// Package chain supervises the local anvil test chain used for end-to-end
// runs. The supervisor guarantees no orphaned chain process survives it,
// combining a direct handle kill with a broad kill-by-name fallback: the
// handle can be lost across a crash, and the fallback is the only way to
// clean up after one. Both strategies run on every stop.
package chain

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/steelwright/steelwright/pkg/procrun"
)

// ErrNotReady indicates the chain process started but never passed its
// readiness check within the retry budget.
var ErrNotReady = errors.New("chain failed readiness check")

// blockNumberRequest is the JSON-RPC liveness probe body.
const blockNumberRequest = `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`

// Options configures a chain supervisor.
type Options struct {
	Binary     string        // chain executable name, default "anvil"
	Args       []string      // extra arguments to the chain process
	RPCURL     string        // endpoint polled for readiness
	Retries    int           // readiness attempts before giving up
	RetryDelay time.Duration // fixed delay between attempts
	Sink       procrun.LineSink

	// ReadyProbe overrides the JSON-RPC liveness check, for tests.
	ReadyProbe func(context.Context) bool
	// BroadKill overrides the kill-by-name fallback, for tests.
	BroadKill func() error
}

// Supervisor owns at most one live chain process at a time.
type Supervisor struct {
	opts Options

	mu  sync.Mutex
	cmd *exec.Cmd
}

// New creates a supervisor with defaults filled in.
func New(opts Options) *Supervisor {
	if opts.Binary == "" {
		opts.Binary = "anvil"
	}
	if opts.RPCURL == "" {
		opts.RPCURL = "http://127.0.0.1:8545"
	}
	if opts.Retries == 0 {
		opts.Retries = 10
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &Supervisor{opts: opts}
}

// Start terminates any leftover chain process, spawns a fresh one, and
// waits for it to pass the readiness check. On readiness failure the new
// process is killed again and ErrNotReady is returned.
func (s *Supervisor) Start(ctx context.Context) error {
	// Any prior instance, held or orphaned, must die first
	s.Stop()

	cmd := exec.Command(s.opts.Binary, s.opts.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var drains []io.Reader
	if s.opts.Sink != nil {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("failed to open chain stdout: %w", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return fmt.Errorf("failed to open chain stderr: %w", err)
		}
		drains = []io.Reader{stdout, stderr}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", procrun.ErrSpawn, s.opts.Binary, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	// Drain output, then reap, so a dying chain doesn't linger as a zombie
	go func() {
		var wg sync.WaitGroup
		for _, r := range drains {
			wg.Add(1)
			go func() {
				defer wg.Done()
				forwardLines(r, s.opts.Sink)
			}()
		}
		wg.Wait()
		cmd.Wait()
	}()

	for i := 0; i < s.opts.Retries; i++ {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-time.After(s.opts.RetryDelay):
		}

		if s.Ready(ctx) {
			log.Debugf("chain: %s ready after %d attempt(s)", s.opts.Binary, i+1)
			return nil
		}
	}

	s.Stop()
	return fmt.Errorf("%w after %d attempts", ErrNotReady, s.opts.Retries)
}

// Ready performs a single liveness probe against the chain's RPC endpoint.
func (s *Supervisor) Ready(ctx context.Context) bool {
	if s.opts.ReadyProbe != nil {
		return s.opts.ReadyProbe(ctx)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.RPCURL,
		bytes.NewReader([]byte(blockNumberRequest)))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Stop terminates the held process if present and always issues the broad
// kill-by-name fallback. It is idempotent: calling it with no process held,
// or repeatedly, is harmless.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	s.KillByName()
}

// KillByName is the broad termination fallback: it kills every process with
// the chain binary's name, whether or not this supervisor spawned it. Safe
// to call from a crash handler; it takes no locks and touches no handle
// state.
func (s *Supervisor) KillByName() {
	if s.opts.BroadKill != nil {
		s.opts.BroadKill()
		return
	}
	exec.Command("pkill", "-x", s.opts.Binary).Run()
}

func forwardLines(r io.Reader, sink procrun.LineSink) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sink.Line(scanner.Text())
	}
}
