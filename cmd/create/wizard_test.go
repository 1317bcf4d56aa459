// SPDX-License-Identifier: Apache-2.0
package create

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/steelwright/steelwright/pkg/deps"
	"github.com/steelwright/steelwright/pkg/e2e"
	"github.com/steelwright/steelwright/pkg/scaffold"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func satisfiedProbes() []deps.Status {
	return []deps.Status{
		{Name: "Rust", Satisfied: true},
		{Name: "Foundry", Satisfied: true},
		{Name: "RISC0", Satisfied: true, Detected: "1.2.1"},
	}
}

func TestNewWizard_InitialState(t *testing.T) {
	m := NewWizard(t.TempDir(), "prefilled")

	if m.state != stateProbing {
		t.Errorf("initial state = %v, want stateProbing", m.state)
	}
	if m.nameInput.Value() != "prefilled" {
		t.Errorf("name prompt = %q, want prefilled", m.nameInput.Value())
	}
}

func TestProbesDone_AllSatisfied(t *testing.T) {
	m := NewWizard(t.TempDir(), "")

	updated, _ := m.Update(probesDoneMsg{Statuses: satisfiedProbes()})
	m = updated.(*Wizard)

	if m.state != stateName {
		t.Errorf("state = %v, want stateName", m.state)
	}
}

func TestProbesDone_MissingToolKeepsProbing(t *testing.T) {
	m := NewWizard(t.TempDir(), "")

	statuses := satisfiedProbes()
	statuses[1] = deps.Status{Name: "Foundry", Message: "Foundry not found"}

	updated, cmd := m.Update(probesDoneMsg{Statuses: statuses})
	m = updated.(*Wizard)

	if m.state != stateProbing {
		t.Errorf("state = %v, want stateProbing", m.state)
	}
	if cmd == nil {
		t.Error("expected another probe cycle to be scheduled")
	}
	if m.err != nil {
		t.Errorf("missing tools are not an error: %v", m.err)
	}
	if len(m.statuses) != len(statuses) {
		t.Error("probe results should be kept for display")
	}
}

func TestProbesDone_ToolAppearsOnLaterCycle(t *testing.T) {
	m := NewWizard(t.TempDir(), "")

	missing := satisfiedProbes()
	missing[1] = deps.Status{Name: "Foundry", Message: "Foundry not found"}

	updated, _ := m.Update(probesDoneMsg{Statuses: missing})
	m = updated.(*Wizard)

	// The tool shows up on a later cycle; no stale result blocks progress
	updated, _ = m.Update(probesDoneMsg{Statuses: satisfiedProbes()})
	m = updated.(*Wizard)

	if m.state != stateName {
		t.Errorf("state = %v, want stateName once all tools are present", m.state)
	}
}

func TestSubmitName_Validation(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateName

	cases := []string{"", "   ", "bad/name", "-leading"}
	for _, name := range cases {
		m.nameInput.SetValue(name)
		updated, _ := m.Update(keyMsg("enter"))
		m = updated.(*Wizard)

		if m.state != stateName {
			t.Errorf("name %q: state = %v, want stateName", name, m.state)
		}
		if m.nameError == "" {
			t.Errorf("name %q: expected a validation message", name)
		}
	}
}

func TestSubmitName_ExistingDirectory(t *testing.T) {
	parent := t.TempDir()
	if err := os.Mkdir(filepath.Join(parent, "taken"), 0755); err != nil {
		t.Fatal(err)
	}

	m := NewWizard(parent, "")
	m.state = stateName
	m.nameInput.SetValue("taken")

	updated, _ := m.Update(keyMsg("enter"))
	m = updated.(*Wizard)

	if m.state != stateConfirmOverwrite {
		t.Errorf("state = %v, want stateConfirmOverwrite", m.state)
	}
}

func TestOverwriteMenu_SkipToTestMenu(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateConfirmOverwrite
	m.projectName = "taken"
	m.outputLog.Append("stale output from an earlier screen")

	// Second choice skips the install and opens the test menu
	updated, _ := m.Update(keyMsg("down"))
	m = updated.(*Wizard)
	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(*Wizard)

	if m.state != stateTestMenu {
		t.Errorf("state = %v, want stateTestMenu", m.state)
	}
	if m.menuIndex != 0 {
		t.Errorf("menuIndex = %d, want 0", m.menuIndex)
	}
	if m.outputLog.Len() != 0 {
		t.Error("output log should be cleared when opening the test menu")
	}
}

func TestOverwriteMenu_Cancel(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateConfirmOverwrite
	m.menuIndex = len(overwriteChoices) - 1

	updated, cmd := m.Update(keyMsg("enter"))
	m = updated.(*Wizard)

	if !m.cancelled {
		t.Error("expected cancellation")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestInstallStep_Failure(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateInstalling

	updated, cmd := m.Update(installStepMsg{State: scaffold.State{Index: 2, Err: errors.New("clone failed")}})
	m = updated.(*Wizard)

	if m.state != stateInstallFailed {
		t.Errorf("state = %v, want stateInstallFailed", m.state)
	}
	if m.err == nil {
		t.Error("expected the step error to be kept")
	}
	if cmd != nil {
		t.Error("no further steps should run after a failure")
	}
}

func TestInstallStep_Done(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateInstalling

	updated, _ := m.Update(installStepMsg{State: scaffold.State{Index: 5, Done: true}})
	m = updated.(*Wizard)

	if m.state != stateInstallDone {
		t.Errorf("state = %v, want stateInstallDone", m.state)
	}

	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(*Wizard)

	if m.state != stateTestMenu {
		t.Errorf("state after ack = %v, want stateTestMenu", m.state)
	}
}

func TestInstallStep_Continues(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateInstalling
	m.pipeline = scaffold.New(scaffold.Options{ProjectName: "p", ParentDir: t.TempDir()})

	updated, cmd := m.Update(installStepMsg{State: scaffold.State{Index: 1}})
	m = updated.(*Wizard)

	if m.state != stateInstalling {
		t.Errorf("state = %v, want stateInstalling", m.state)
	}
	if cmd == nil {
		t.Error("expected the next step to be scheduled")
	}
}

func TestTestMenu_Skip(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateTestMenu
	m.menuIndex = 1

	updated, _ := m.Update(keyMsg("enter"))
	m = updated.(*Wizard)

	if m.state != stateDone {
		t.Errorf("state = %v, want stateDone", m.state)
	}
	if m.err != nil {
		t.Errorf("skipping the test is not an error: %v", m.err)
	}
}

func TestTestPhase_AdvancesInOrder(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateRunningTest
	m.testPhase = e2e.PhasePrepare

	updated, cmd := m.Update(testPhaseMsg{Phase: e2e.PhasePrepare})
	m = updated.(*Wizard)

	if m.testPhase != e2e.PhaseStartChain {
		t.Errorf("testPhase = %v, want PhaseStartChain", m.testPhase)
	}
	if cmd == nil {
		t.Error("expected the next phase to be scheduled")
	}
}

func TestTestPhase_FailureStillCleansUp(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateRunningTest

	updated, cmd := m.Update(testPhaseMsg{Phase: e2e.PhaseRunScript, Err: errors.New("script failed")})
	m = updated.(*Wizard)

	if m.state != stateRunningTest {
		t.Errorf("state = %v, cleanup should still be pending", m.state)
	}
	if cmd == nil {
		t.Error("expected a cleanup command after the failure")
	}

	// Cleanup completing returns to the test menu with the error logged
	updated, _ = m.Update(testPhaseMsg{Phase: e2e.PhaseCleanup})
	m = updated.(*Wizard)

	if m.state != stateTestMenu {
		t.Errorf("state = %v, want stateTestMenu", m.state)
	}
	if !logContains(m, "script failed") {
		t.Error("failure message missing from the output log")
	}
	if m.testPassed {
		t.Error("a failed run must not be recorded as passed")
	}
}

func TestTestPhase_CleanupReturnsToMenu(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateRunningTest

	updated, _ := m.Update(testPhaseMsg{Phase: e2e.PhaseCleanup})
	m = updated.(*Wizard)

	if m.state != stateTestMenu {
		t.Errorf("state = %v, want stateTestMenu", m.state)
	}
	if !m.testPassed {
		t.Error("a clean run should be recorded as passed")
	}

	// Finishing is an explicit menu choice, never automatic
	m.menuIndex = 1
	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(*Wizard)

	if m.state != stateDone {
		t.Errorf("state after finish = %v, want stateDone", m.state)
	}
}

func logContains(m *Wizard, substr string) bool {
	for _, line := range m.outputLog.Window(m.outputLog.Len()) {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestOutputLine_AppendsAndRearms(t *testing.T) {
	m := NewWizard(t.TempDir(), "")

	updated, cmd := m.Update(outputLineMsg{Line: "Cloning into 'demo'..."})
	m = updated.(*Wizard)

	if m.outputLog.Len() != 1 {
		t.Errorf("log length = %d, want 1", m.outputLog.Len())
	}
	if cmd == nil {
		t.Error("expected the listener to re-arm")
	}
}

func TestScrollKeys_DuringInstall(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateInstalling
	for i := 0; i < 30; i++ {
		m.outputLog.Append("line")
	}

	updated, _ := m.Update(keyMsg("pgup"))
	m = updated.(*Wizard)
	updated, _ = m.Update(keyMsg("pgdown"))
	m = updated.(*Wizard)

	if m.state != stateInstalling {
		t.Errorf("scrolling must not change state, got %v", m.state)
	}
}

func TestEsc_Cancels(t *testing.T) {
	m := NewWizard(t.TempDir(), "")
	m.state = stateName

	updated, cmd := m.Update(keyMsg("esc"))
	m = updated.(*Wizard)

	if !m.cancelled || !m.quitting {
		t.Error("esc should cancel and quit")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestWindowSize(t *testing.T) {
	m := NewWizard(t.TempDir(), "")

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(*Wizard)

	if m.width != 120 || m.height != 40 {
		t.Errorf("dimensions = %dx%d, want 120x40", m.width, m.height)
	}
}
