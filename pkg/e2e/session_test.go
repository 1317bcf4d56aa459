// SPDX-License-Identifier: Apache-2.0

package e2e

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/steelwright/steelwright/pkg/procrun"
)

type fakeChain struct {
	startErr error
	starts   int
	stops    int
}

func (f *fakeChain) Start(ctx context.Context) error {
	f.starts++
	return f.startErr
}

func (f *fakeChain) Stop() { f.stops++ }

func testEnv() Environment {
	return Environment{
		RPCURL:           "http://127.0.0.1:8545",
		WalletAddress:    "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		WalletPrivateKey: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		BonsaiAPIURL:     "https://api.bonsai.xyz/",
	}
}

func TestRunPhase_FullSequence(t *testing.T) {
	chain := &fakeChain{}
	s := NewSession(t.TempDir(), testEnv(), chain, nil)

	var names []string
	s.run = func(ctx context.Context, c procrun.Command, sink procrun.LineSink) (*procrun.Output, error) {
		names = append(names, c.Name)
		return &procrun.Output{}, nil
	}

	for p := PhasePrepare; p < Phase(NumPhases); p++ {
		if err := s.RunPhase(context.Background(), p); err != nil {
			t.Fatalf("phase %s: %v", p, err)
		}
	}

	want := []string{"cargo", "forge", "chmod", "bash"}
	if len(names) != len(want) {
		t.Fatalf("ran commands %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("command %d = %q, want %q", i, names[i], n)
		}
	}
	if chain.starts != 1 || chain.stops != 1 {
		t.Errorf("chain starts=%d stops=%d, want 1/1", chain.starts, chain.stops)
	}
	if !s.Succeeded() {
		t.Error("Succeeded() = false after a clean run")
	}
}

func TestRunPhase_ScriptCommandsSeeEnvironment(t *testing.T) {
	s := NewSession(t.TempDir(), testEnv(), &fakeChain{}, nil)

	var envs [][]string
	s.run = func(ctx context.Context, c procrun.Command, sink procrun.LineSink) (*procrun.Output, error) {
		envs = append(envs, c.Env)
		return &procrun.Output{}, nil
	}

	if err := s.RunPhase(context.Background(), PhasePrepare); err != nil {
		t.Fatal(err)
	}
	if err := s.RunPhase(context.Background(), PhaseRunScript); err != nil {
		t.Fatal(err)
	}

	// cargo build and the script itself carry the wallet settings.
	for _, idx := range []int{0, 3} {
		found := false
		for _, kv := range envs[idx] {
			if kv == "ETH_RPC_URL=http://127.0.0.1:8545" {
				found = true
			}
		}
		if !found {
			t.Errorf("command %d env missing ETH_RPC_URL: %v", idx, envs[idx])
		}
	}
}

func TestRunPhase_ScriptErrorAborts(t *testing.T) {
	chain := &fakeChain{}
	s := NewSession(t.TempDir(), testEnv(), chain, nil)

	s.run = func(ctx context.Context, c procrun.Command, sink procrun.LineSink) (*procrun.Output, error) {
		if c.Name == "forge" {
			return nil, fmt.Errorf("compile error")
		}
		return &procrun.Output{}, nil
	}

	if err := s.RunPhase(context.Background(), PhasePrepare); err != nil {
		t.Fatal(err)
	}
	if err := s.RunPhase(context.Background(), PhaseStartChain); err != nil {
		t.Fatal(err)
	}
	err := s.RunPhase(context.Background(), PhaseRunScript)
	if err == nil {
		t.Fatal("expected script phase to fail")
	}
	if s.Succeeded() {
		t.Error("Succeeded() = true after failed script")
	}

	// Error paths still run cleanup, and only once.
	s.Cleanup()
	s.Cleanup()
	if chain.stops != 1 {
		t.Errorf("chain stops = %d, want 1", chain.stops)
	}
}

func TestRunPhase_ChainStartFailure(t *testing.T) {
	chain := &fakeChain{startErr: errors.New("port in use")}
	s := NewSession(t.TempDir(), testEnv(), chain, nil)

	if err := s.RunPhase(context.Background(), PhasePrepare); err != nil {
		t.Fatal(err)
	}
	if err := s.RunPhase(context.Background(), PhaseStartChain); err == nil {
		t.Fatal("expected start-chain phase to fail")
	}
	s.Cleanup()
	if chain.stops != 1 {
		t.Errorf("chain stops = %d, want 1", chain.stops)
	}
}

func TestPrepare_RequiresWallet(t *testing.T) {
	env := testEnv()
	env.WalletPrivateKey = ""
	s := NewSession(t.TempDir(), env, &fakeChain{}, nil)

	if err := s.RunPhase(context.Background(), PhasePrepare); err == nil {
		t.Fatal("expected prepare to reject missing wallet key")
	}
}

func TestCleanupPhase_Idempotent(t *testing.T) {
	chain := &fakeChain{}
	s := NewSession(t.TempDir(), testEnv(), chain, nil)

	for i := 0; i < 3; i++ {
		if err := s.RunPhase(context.Background(), PhaseCleanup); err != nil {
			t.Fatal(err)
		}
	}
	if chain.stops != 1 {
		t.Errorf("chain stops = %d, want 1", chain.stops)
	}
}

func TestPhaseStrings(t *testing.T) {
	for p := PhasePrepare; p < Phase(NumPhases); p++ {
		if p.String() == "" || p.Description() == "" {
			t.Errorf("phase %d has empty labels", int(p))
		}
	}
}
