// SPDX-License-Identifier: Apache-2.0
package deps

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/steelwright/steelwright/pkg/procrun"
)

// ToolSpec describes one external tool the wizard depends on.
type ToolSpec struct {
	Name        string   // display name, e.g. "Foundry"
	Command     string   // executable to probe
	Args        []string // version-query arguments
	Constraint  string   // optional go-version constraint, e.g. "~> 1.2.0"
	InstallHint string   // where to get the tool when missing
}

// Status is an immutable snapshot of a single probe outcome. A missing
// executable and an unacceptable version both leave Satisfied false, but
// the Message distinguishes them for display.
type Status struct {
	Name       string
	Constraint string
	Detected   string
	Satisfied  bool
	Message    string
}

// versionPattern extracts the first dotted version number from tool output.
var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// DefaultTools returns the fixed set of tools required to scaffold and test
// a Steel project.
func DefaultTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "Rust",
			Command:     "rustc",
			Args:        []string{"--version"},
			InstallHint: "https://www.rust-lang.org/tools/install",
		},
		{
			Name:        "Foundry",
			Command:     "forge",
			Args:        []string{"--version"},
			InstallHint: "https://book.getfoundry.sh/getting-started/installation",
		},
		{
			Name:        "RISC0",
			Command:     "cargo",
			Args:        []string{"risczero", "--version"},
			Constraint:  "~> 1.2.0",
			InstallHint: "https://dev.risczero.com/api/zkvm/install",
		},
	}
}

// Probe runs the tool's version query and applies its acceptance rule.
// It never mutates anything and never retries; callers re-probe by
// calling it again.
func Probe(ctx context.Context, spec ToolSpec) Status {
	status := Status{Name: spec.Name, Constraint: spec.Constraint}

	out, err := procrun.Run(ctx, procrun.Command{Name: spec.Command, Args: spec.Args}, nil)
	if err != nil {
		status.Message = fmt.Sprintf("%s not found. Visit: %s", spec.Name, spec.InstallHint)
		return status
	}

	detected := versionPattern.FindString(out.Stdout)
	if detected == "" {
		detected = versionPattern.FindString(out.Stderr)
	}
	status.Detected = detected

	if spec.Constraint == "" {
		status.Satisfied = true
		status.Message = fmt.Sprintf("%s is installed", spec.Name)
		return status
	}

	constraint, err := goversion.NewConstraint(spec.Constraint)
	if err != nil {
		status.Message = fmt.Sprintf("invalid version constraint %q for %s", spec.Constraint, spec.Name)
		return status
	}

	v, err := goversion.NewVersion(detected)
	if err != nil || !constraint.Check(v) {
		status.Message = fmt.Sprintf("Unsupported %s version %s. Version %s is required",
			spec.Name, displayVersion(detected), spec.Constraint)
		return status
	}

	status.Satisfied = true
	status.Message = fmt.Sprintf("%s %s detected", spec.Name, detected)
	return status
}

// ProbeAll probes every spec in order and returns the snapshots.
func ProbeAll(ctx context.Context, specs []ToolSpec) []Status {
	statuses := make([]Status, len(specs))
	for i, spec := range specs {
		statuses[i] = Probe(ctx, spec)
	}
	return statuses
}

// AllSatisfied reports whether every probed tool passed.
func AllSatisfied(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Satisfied {
			return false
		}
	}
	return len(statuses) > 0
}

func displayVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(unknown)"
	}
	return v
}
