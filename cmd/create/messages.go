// SPDX-License-Identifier: Apache-2.0
package create

import (
	"github.com/steelwright/steelwright/pkg/deps"
	"github.com/steelwright/steelwright/pkg/e2e"
	"github.com/steelwright/steelwright/pkg/scaffold"
)

// probesDoneMsg carries the toolchain probe results
type probesDoneMsg struct {
	Statuses []deps.Status
}

// outputLineMsg carries one line of subprocess output
type outputLineMsg struct {
	Line string
}

// outputClosedMsg signals the line channel was closed
type outputClosedMsg struct{}

// installStepMsg carries the pipeline state after one step ran
type installStepMsg struct {
	State scaffold.State
}

// testPhaseMsg carries the outcome of one test-run phase
type testPhaseMsg struct {
	Phase e2e.Phase
	Err   error
}
