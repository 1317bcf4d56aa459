// SPDX-License-Identifier: Apache-2.0
package deps

import (
	"context"
	"strings"
	"testing"
)

func TestProbe_ToolMissing(t *testing.T) {
	status := Probe(context.Background(), ToolSpec{
		Name:        "Ghost",
		Command:     "definitely-not-a-real-binary-xyz",
		Args:        []string{"--version"},
		InstallHint: "https://example.com/install",
	})

	if status.Satisfied {
		t.Error("expected unsatisfied status for missing tool")
	}
	if !strings.Contains(status.Message, "not found") {
		t.Errorf("expected 'not found' message, got %q", status.Message)
	}
	if !strings.Contains(status.Message, "https://example.com/install") {
		t.Errorf("expected install hint in message, got %q", status.Message)
	}
}

func TestProbe_NoConstraint(t *testing.T) {
	// echo stands in for a version query without a constraint
	status := Probe(context.Background(), ToolSpec{
		Name:    "Echo",
		Command: "echo",
		Args:    []string{"echo 9.9.9"},
	})

	if !status.Satisfied {
		t.Errorf("expected satisfied status, got %q", status.Message)
	}
	if status.Detected != "9.9.9" {
		t.Errorf("expected detected version 9.9.9, got %q", status.Detected)
	}
}

func TestProbe_ConstraintSatisfied(t *testing.T) {
	status := Probe(context.Background(), ToolSpec{
		Name:       "Fake",
		Command:    "echo",
		Args:       []string{"fake-tool 1.2.5"},
		Constraint: "~> 1.2.0",
	})

	if !status.Satisfied {
		t.Errorf("expected satisfied status, got %q", status.Message)
	}
	if status.Detected != "1.2.5" {
		t.Errorf("expected detected 1.2.5, got %q", status.Detected)
	}
}

func TestProbe_ConstraintViolated(t *testing.T) {
	status := Probe(context.Background(), ToolSpec{
		Name:       "Fake",
		Command:    "echo",
		Args:       []string{"fake-tool 1.3.0"},
		Constraint: "~> 1.2.0",
	})

	if status.Satisfied {
		t.Error("expected unsatisfied status for version outside constraint")
	}
	if !strings.Contains(status.Message, "Unsupported") {
		t.Errorf("expected version mismatch message, got %q", status.Message)
	}
	// A wrong version must still report what was detected
	if status.Detected != "1.3.0" {
		t.Errorf("expected detected 1.3.0, got %q", status.Detected)
	}
}

func TestProbe_NoVersionInOutput(t *testing.T) {
	status := Probe(context.Background(), ToolSpec{
		Name:       "Fake",
		Command:    "echo",
		Args:       []string{"no version here"},
		Constraint: "~> 1.2.0",
	})

	if status.Satisfied {
		t.Error("expected unsatisfied status when no version is parseable")
	}
	if !strings.Contains(status.Message, "(unknown)") {
		t.Errorf("expected unknown version marker, got %q", status.Message)
	}
}

func TestProbeAll_Freshness(t *testing.T) {
	// Two probes of the same spec must not share state: the probe layer
	// holds no cache, so a tool appearing between cycles is picked up.
	spec := ToolSpec{Name: "Echo", Command: "echo", Args: []string{"1.0.0"}}

	first := ProbeAll(context.Background(), []ToolSpec{spec})
	second := ProbeAll(context.Background(), []ToolSpec{spec})

	if !AllSatisfied(first) || !AllSatisfied(second) {
		t.Error("expected both probe cycles to be satisfied")
	}
}

func TestAllSatisfied_Empty(t *testing.T) {
	if AllSatisfied(nil) {
		t.Error("expected empty status list to be unsatisfied")
	}
}

func TestDefaultTools(t *testing.T) {
	tools := DefaultTools()
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	for _, tool := range tools {
		if tool.InstallHint == "" {
			t.Errorf("tool %s missing install hint", tool.Name)
		}
	}
	// Only the RISC0 toolchain is version-pinned
	if tools[2].Constraint == "" {
		t.Error("expected version constraint on RISC0 toolchain")
	}
}
