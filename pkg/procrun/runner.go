// SPDX-License-Identifier: Apache-2.0
package procrun

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// ErrSpawn indicates the child process could not be started at all,
// typically because the executable is not on PATH.
var ErrSpawn = errors.New("failed to spawn process")

// ExitError indicates the child ran but exited with a non-zero status.
// Stderr holds the captured stderr output for diagnostics.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("process exited with status %d", e.Code)
	if e.Stderr != "" {
		msg += ": " + firstLine(e.Stderr)
	}
	return msg
}

// LineSink receives complete output lines from a running process.
// Lines from stdout and stderr are delivered from independent goroutines,
// so implementations must be safe for concurrent use and must not assume
// any ordering between the two streams.
type LineSink interface {
	Line(string)
}

// LineFunc adapts a function to the LineSink interface.
type LineFunc func(string)

func (f LineFunc) Line(s string) { f(s) }

// Command describes a single external command invocation.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory, empty for inherited
	Env  []string // KEY=VALUE pairs appended to the parent environment
}

// Output holds the captured result of a completed command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes cmd and blocks until it exits. When sink is non-nil, every
// complete line from stdout and stderr is forwarded to it as it arrives;
// output is captured either way. The child runs in its own process group so
// context cancellation kills the whole tree.
//
// Returns ErrSpawn (wrapped) when the command cannot start, and *ExitError
// when it exits non-zero. Failed commands are never retried here; that
// policy belongs to the caller.
func Run(ctx context.Context, c Command, sink LineSink) (*Output, error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	var stdout, stderr io.ReadCloser

	if sink != nil {
		var err error
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
		}
		stderr, err = cmd.StderrPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
		}
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, c.Name, err)
	}

	done := make(chan error, 1)
	go func() {
		if sink != nil {
			// Drain both streams before Wait; Wait closes the pipes.
			var g errgroup.Group
			g.Go(func() error { return drainLines(stdout, &stdoutBuf, sink) })
			g.Go(func() error { return drainLines(stderr, &stderrBuf, sink) })
			g.Wait()
		}
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		killGroup(cmd)
		<-done
		return nil, ctx.Err()
	case err := <-done:
		out := &Output{
			Stdout: stdoutBuf.String(),
			Stderr: stderrBuf.String(),
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				out.ExitCode = exitErr.ExitCode()
				return out, &ExitError{Code: exitErr.ExitCode(), Stderr: out.Stderr}
			}
			return nil, fmt.Errorf("command %s failed: %w", c.Name, err)
		}
		return out, nil
	}
}

// drainLines copies r into buf line by line, forwarding each line to sink.
func drainLines(r io.Reader, buf *bytes.Buffer, sink LineSink) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		sink.Line(line)
	}
	return scanner.Err()
}

// killGroup sends SIGKILL to the child's entire process group.
func killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
