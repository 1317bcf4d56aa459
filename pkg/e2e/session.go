// SPDX-License-Identifier: Apache-2.0

// Package e2e drives the end-to-end validation run for a provisioned
// project: environment preparation, supervised chain startup, the
// validation script, and cleanup. Cleanup runs exactly once per session no
// matter which phase failed.
package e2e

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/steelwright/steelwright/pkg/procrun"
)

// Phase is one ordered step of a test run.
type Phase int

const (
	PhasePrepare Phase = iota
	PhaseStartChain
	PhaseRunScript
	PhaseCleanup
	phaseCount
)

// NumPhases is the number of phases in a full run.
const NumPhases = int(phaseCount)

func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseStartChain:
		return "start-chain"
	case PhaseRunScript:
		return "run-script"
	case PhaseCleanup:
		return "cleanup"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Description returns the status line shown while the phase runs.
func (p Phase) Description() string {
	switch p {
	case PhasePrepare:
		return "Preparing test environment..."
	case PhaseStartChain:
		return "Starting local Ethereum chain..."
	case PhaseRunScript:
		return "Running end-to-end test..."
	case PhaseCleanup:
		return "Cleaning up..."
	default:
		return ""
	}
}

// Environment holds the variables injected into the validation script's
// subprocess. The credential stays in memory; nothing here is persisted or
// exported into the parent process environment.
type Environment struct {
	RPCURL           string
	WalletAddress    string
	WalletPrivateKey string
	BonsaiAPIKey     string
	BonsaiAPIURL     string
}

// Vars renders the environment as KEY=VALUE pairs for subprocess injection.
func (e Environment) Vars() []string {
	return []string{
		"ETH_RPC_URL=" + e.RPCURL,
		"ETH_WALLET_ADDRESS=" + e.WalletAddress,
		"ETH_WALLET_PRIVATE_KEY=" + e.WalletPrivateKey,
		"BONSAI_API_KEY=" + e.BonsaiAPIKey,
		"BONSAI_API_URL=" + e.BonsaiAPIURL,
	}
}

// ChainSupervisor is the slice of the chain supervisor a session needs.
type ChainSupervisor interface {
	Start(ctx context.Context) error
	Stop()
}

// Session is a single test-run invocation over a provisioned project.
type Session struct {
	projectDir string
	env        Environment
	chain      ChainSupervisor
	sink       procrun.LineSink

	run      runFunc
	vars     []string
	cleaned  bool
	scriptOK bool
}

type runFunc func(ctx context.Context, c procrun.Command, sink procrun.LineSink) (*procrun.Output, error)

// NewSession creates a test session for the project at projectDir.
func NewSession(projectDir string, env Environment, chain ChainSupervisor, sink procrun.LineSink) *Session {
	return &Session{
		projectDir: projectDir,
		env:        env,
		chain:      chain,
		sink:       sink,
		run:        procrun.Run,
	}
}

// RunPhase executes exactly one phase and returns its outcome. Callers
// advance phase by phase; on any error they must still invoke the cleanup
// phase, which is idempotent within the session.
func (s *Session) RunPhase(ctx context.Context, p Phase) error {
	log.Debugf("e2e: phase %s", p)

	switch p {
	case PhasePrepare:
		return s.prepare()
	case PhaseStartChain:
		return s.chain.Start(ctx)
	case PhaseRunScript:
		return s.runScript(ctx)
	case PhaseCleanup:
		s.Cleanup()
		return nil
	default:
		return fmt.Errorf("unknown phase %d", int(p))
	}
}

// prepare assembles the subprocess environment. The variables never touch
// the parent process environment.
func (s *Session) prepare() error {
	if s.env.WalletAddress == "" || s.env.WalletPrivateKey == "" {
		return fmt.Errorf("test environment is missing wallet settings")
	}
	s.vars = s.env.Vars()
	return nil
}

// runScript builds the project artifacts and executes the validation
// script, all inside the project directory with the prepared environment.
func (s *Session) runScript(ctx context.Context) error {
	commands := []procrun.Command{
		{Name: "cargo", Args: []string{"build"}, Env: append([]string{"RUST_LOG=info,risc0_steel=debug"}, s.vars...)},
		{Name: "forge", Args: []string{"build"}},
		{Name: "chmod", Args: []string{"+x", "e2e-test.sh"}},
		{Name: "bash", Args: []string{"e2e-test.sh"}, Env: append([]string{"RUST_LOG=info,risc0_steel=debug"}, s.vars...)},
	}

	for _, c := range commands {
		c.Dir = s.projectDir
		if _, err := s.run(ctx, c, s.sink); err != nil {
			return fmt.Errorf("%s failed: %w", c.Name, err)
		}
	}

	s.scriptOK = true
	return nil
}

// Cleanup stops the supervised chain. It runs at most once per session;
// later calls are no-ops so error paths can invoke it unconditionally.
func (s *Session) Cleanup() {
	if s.cleaned {
		return
	}
	s.cleaned = true
	s.chain.Stop()
}

// Succeeded reports whether the validation script completed.
func (s *Session) Succeeded() bool {
	return s.scriptOK
}
