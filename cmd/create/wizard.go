// SPDX-License-Identifier: Apache-2.0
package create

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/steelwright/steelwright/pkg/chain"
	"github.com/steelwright/steelwright/pkg/config"
	"github.com/steelwright/steelwright/pkg/crashguard"
	"github.com/steelwright/steelwright/pkg/deps"
	"github.com/steelwright/steelwright/pkg/e2e"
	"github.com/steelwright/steelwright/pkg/procrun"
	"github.com/steelwright/steelwright/pkg/scaffold"
	"github.com/steelwright/steelwright/pkg/ui"
)

// ErrUserCancelled is returned when the user cancels the wizard
var ErrUserCancelled = fmt.Errorf("cancelled by user")

// wizardState is the closed set of screens the wizard moves through.
// Probing loops on itself until the toolchain is complete, and test runs
// always come back to the test menu; everything else moves forward.
type wizardState int

const (
	stateProbing wizardState = iota
	stateName
	stateConfirmOverwrite
	stateInstalling
	stateInstallFailed
	stateInstallDone
	stateTestMenu
	stateCredential
	stateRunningTest
	stateDone
)

// projectNamePattern restricts names to a single safe path component.
var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

const outputWindowHeight = 12

// reprobeDelay paces the probe loop while required tools are missing.
const reprobeDelay = time.Second

var overwriteChoices = []string{
	"Overwrite it",
	"Skip install and open the test menu",
	"Cancel",
}

var testChoices = []string{
	"Run the end-to-end test",
	"Finish",
}

// Wizard is the interactive project-creation flow: toolchain probes, name
// entry, installation, and an optional end-to-end validation run.
type Wizard struct {
	width  int
	height int
	state  wizardState

	spinner   spinner.Model
	nameInput textinput.Model
	credInput textinput.Model
	nameError string

	statuses []deps.Status

	parentDir   string
	projectName string

	pipeline     *scaffold.Pipeline
	installState scaffold.State

	// Subprocess output streaming. One channel serves the whole session;
	// a single listener command is re-armed per received line.
	outputLog *ui.OutputLog
	lineChan  chan string

	menuIndex int

	session    *e2e.Session
	chainSup   *chain.Supervisor
	testPhase  e2e.Phase
	testPassed bool

	runCtx    context.Context
	runCancel context.CancelFunc

	err       error
	quitting  bool
	cancelled bool
}

// NewWizard creates the wizard. A non-empty name pre-fills the name prompt.
func NewWizard(parentDir, name string) *Wizard {
	theme := config.CurrentTheme

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.GetPrimaryColor())

	ni := textinput.New()
	ni.Placeholder = "my-steel-app"
	ni.CharLimit = 64
	ni.SetValue(name)

	ci := textinput.New()
	ci.Placeholder = "Bonsai API key"
	ci.EchoMode = textinput.EchoPassword
	ci.CharLimit = 128

	ctx, cancel := context.WithCancel(context.Background())

	return &Wizard{
		state:     stateProbing,
		spinner:   sp,
		nameInput: ni,
		credInput: ci,
		parentDir: parentDir,
		outputLog: ui.NewOutputLog(),
		lineChan:  make(chan string, 256),
		runCtx:    ctx,
		runCancel: cancel,
	}
}

// Init starts the spinner and the toolchain probes
func (m *Wizard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.probeTools())
}

// probeTools runs all dependency probes off the render loop
func (m *Wizard) probeTools() tea.Cmd {
	return func() tea.Msg {
		return probesDoneMsg{Statuses: deps.ProbeAll(m.runCtx, deps.DefaultTools())}
	}
}

// reprobeTools schedules the next probe cycle after a short pause, so a
// tool installed while the wizard waits is picked up on a later tick.
func (m *Wizard) reprobeTools() tea.Cmd {
	return tea.Tick(reprobeDelay, func(time.Time) tea.Msg {
		return probesDoneMsg{Statuses: deps.ProbeAll(m.runCtx, deps.DefaultTools())}
	})
}

// listenLines delivers the next streamed subprocess line as a message.
// The handler re-arms it, so exactly one listener is outstanding.
func (m *Wizard) listenLines() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.lineChan
		if !ok {
			return outputClosedMsg{}
		}
		return outputLineMsg{Line: line}
	}
}

// Update handles messages
func (m *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nameInput.Width = min(48, msg.Width-8)
		m.credInput.Width = min(48, msg.Width-8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case probesDoneMsg:
		m.statuses = msg.Statuses
		if !deps.AllSatisfied(m.statuses) {
			// Missing tools block progress but are never fatal; stay
			// here and probe again until they show up.
			return m, m.reprobeTools()
		}
		m.state = stateName
		m.nameInput.Focus()
		return m, textinput.Blink

	case outputLineMsg:
		m.outputLog.Append(msg.Line)
		return m, m.listenLines()

	case outputClosedMsg:
		return m, nil

	case installStepMsg:
		return m.handleInstallStep(msg)

	case testPhaseMsg:
		return m.handleTestPhase(msg)
	}

	return m, nil
}

// handleKey routes key presses by wizard state
func (m *Wizard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global exit. During active work this aborts the run; cleanup of the
	// test chain still happens before the program leaves.
	if key == "esc" || key == "ctrl+c" {
		m.abort()
		m.cancelled = true
		m.quitting = true
		return m, tea.Quit
	}

	// Output scrolling is live whenever subprocess output is on screen
	if m.state == stateInstalling || m.state == stateRunningTest ||
		m.state == stateInstallFailed || m.state == stateTestMenu {
		if b := ui.OutputScrollKeyBindings().Match(key); b != nil {
			switch key {
			case "pgup":
				m.outputLog.ScrollUp(outputWindowHeight)
			case "pgdown":
				m.outputLog.ScrollDown(outputWindowHeight)
			case "end":
				m.outputLog.ScrollToEnd()
			}
			return m, nil
		}
	}

	switch m.state {
	case stateName:
		if key == "enter" {
			return m.submitName()
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd

	case stateConfirmOverwrite:
		return m.handleMenuKey(key, len(overwriteChoices), func(choice int) (tea.Model, tea.Cmd) {
			switch choice {
			case 0: // overwrite, the pipeline removes the old workspace first
				return m, m.startInstall()
			case 1: // the workspace already exists, go straight to testing it
				m.outputLog.Clear()
				m.state = stateTestMenu
				m.menuIndex = 0
				return m, nil
			default: // cancel
				m.cancelled = true
				m.quitting = true
				return m, tea.Quit
			}
		})

	case stateInstallFailed:
		if key == "enter" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case stateInstallDone:
		if key == "enter" {
			m.outputLog.Clear()
			m.state = stateTestMenu
			m.menuIndex = 0
		}
		return m, nil

	case stateTestMenu:
		return m.handleMenuKey(key, len(testChoices), func(choice int) (tea.Model, tea.Cmd) {
			if choice == 1 {
				m.state = stateDone
				return m, nil
			}
			if config.GetBonsaiAPIKey() == "" {
				m.state = stateCredential
				m.credInput.Focus()
				return m, textinput.Blink
			}
			return m, m.startTest(config.GetBonsaiAPIKey())
		})

	case stateCredential:
		if key == "enter" {
			apiKey := strings.TrimSpace(m.credInput.Value())
			if apiKey == "" {
				return m, nil
			}
			return m, m.startTest(apiKey)
		}
		var cmd tea.Cmd
		m.credInput, cmd = m.credInput.Update(msg)
		return m, cmd

	case stateDone:
		if key == "enter" || key == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// handleMenuKey applies list navigation and invokes onSelect for enter
func (m *Wizard) handleMenuKey(key string, count int, onSelect func(int) (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < count-1 {
			m.menuIndex++
		}
	case "enter":
		return onSelect(m.menuIndex)
	}
	return m, nil
}

// submitName validates the entered project name and moves on
func (m *Wizard) submitName() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.nameInput.Value())
	if name == "" {
		m.nameError = "Project name cannot be empty"
		return m, nil
	}
	if !projectNamePattern.MatchString(name) {
		m.nameError = "Use letters, digits, '.', '_' and '-' only"
		return m, nil
	}

	m.nameError = ""
	m.projectName = name

	if _, err := os.Stat(filepath.Join(m.parentDir, name)); err == nil {
		m.state = stateConfirmOverwrite
		m.menuIndex = 0
		return m, nil
	}

	return m, m.startInstall()
}

// startInstall builds the pipeline and kicks off the first step
func (m *Wizard) startInstall() tea.Cmd {
	sink := procrun.LineFunc(func(line string) {
		m.lineChan <- line
	})

	m.pipeline = scaffold.New(scaffold.Options{
		ProjectName:    m.projectName,
		ParentDir:      m.parentDir,
		TemplateRepo:   config.GetTemplateRepo(),
		TemplateBranch: config.GetTemplateBranch(),
		TemplateSubdir: config.GetTemplateSubdir(),
		Sink:           sink,
	})
	m.installState = scaffold.State{}
	m.state = stateInstalling

	log.Debugf("wizard: installing %q from %s", m.projectName, config.GetTemplateRepo())

	return tea.Batch(m.advanceInstall(), m.listenLines())
}

// advanceInstall runs exactly one pipeline step off the render loop
func (m *Wizard) advanceInstall() tea.Cmd {
	p, st := m.pipeline, m.installState
	return func() tea.Msg {
		return installStepMsg{State: p.Advance(m.runCtx, st)}
	}
}

func (m *Wizard) handleInstallStep(msg installStepMsg) (tea.Model, tea.Cmd) {
	m.installState = msg.State

	if msg.State.Err != nil {
		m.err = msg.State.Err
		m.state = stateInstallFailed
		return m, nil
	}
	if msg.State.Done {
		m.state = stateInstallDone
		return m, nil
	}
	return m, m.advanceInstall()
}

// startTest assembles the test session and runs its first phase. The chain
// supervisor's broad kill is registered as crash cleanup until the session
// finishes.
func (m *Wizard) startTest(apiKey string) tea.Cmd {
	sink := procrun.LineFunc(func(line string) {
		m.lineChan <- line
	})

	m.chainSup = chain.New(chain.Options{
		RPCURL:     config.GetChainRPCURL(),
		Retries:    config.GetChainRetries(),
		RetryDelay: config.GetChainRetryDelay(),
		Sink:       sink,
	})

	env := e2e.Environment{
		RPCURL:           config.GetChainRPCURL(),
		WalletAddress:    config.GetWalletAddress(),
		WalletPrivateKey: config.GetWalletPrivateKey(),
		BonsaiAPIKey:     apiKey,
		BonsaiAPIURL:     config.GetBonsaiAPIURL(),
	}

	// The workspace may predate this run when the user skipped the install,
	// so the project root is derived from the name rather than the pipeline.
	projectDir := filepath.Join(m.parentDir, m.projectName)
	m.session = e2e.NewSession(projectDir, env, m.chainSup, sink)
	m.testPhase = e2e.PhasePrepare
	m.testPassed = false
	m.err = nil
	m.state = stateRunningTest

	sup := m.chainSup
	crashguard.Register(func() { sup.KillByName() })

	return m.runPhase(e2e.PhasePrepare)
}

// runPhase executes one test phase off the render loop
func (m *Wizard) runPhase(p e2e.Phase) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return testPhaseMsg{Phase: p, Err: s.RunPhase(m.runCtx, p)}
	}
}

// handleTestPhase drives the phase sequence. A failed phase skips straight
// to cleanup; once cleanup has run, in either outcome, the wizard returns
// to the test menu rather than terminating.
func (m *Wizard) handleTestPhase(msg testPhaseMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil && msg.Phase != e2e.PhaseCleanup {
		m.err = msg.Err
		return m, m.runPhase(e2e.PhaseCleanup)
	}

	if msg.Phase == e2e.PhaseCleanup {
		if m.err == nil {
			m.err = msg.Err
		}
		crashguard.Register(nil)
		if m.err != nil {
			m.outputLog.Append(fmt.Sprintf("Error: %v", m.err))
			m.err = nil
		} else {
			m.testPassed = true
		}
		m.state = stateTestMenu
		m.menuIndex = 0
		return m, nil
	}

	m.testPhase = msg.Phase + 1
	return m, m.runPhase(m.testPhase)
}

// abort tears down any in-flight work so exiting never leaks the chain
func (m *Wizard) abort() {
	m.runCancel()
	if m.session != nil {
		m.session.Cleanup()
	}
	crashguard.Register(nil)
}

// View renders the wizard
func (m *Wizard) View() string {
	if m.quitting {
		return ""
	}

	theme := config.CurrentTheme
	var b strings.Builder

	b.WriteString(theme.RenderHeader(m.width, "CREATE", m.stateLabel()))
	b.WriteString("\n\n")

	switch m.state {
	case stateProbing:
		if m.statuses != nil && !deps.AllSatisfied(m.statuses) {
			b.WriteString(theme.WarningMessage("Waiting for required tools"))
			b.WriteString("\n\n")
			for _, st := range m.statuses {
				if st.Satisfied {
					b.WriteString(fmt.Sprintf("%s %s\n", theme.CompleteIndicator(), st.Name))
				} else {
					b.WriteString(fmt.Sprintf("%s %s\n", theme.ErrorIndicator(), st.Message))
				}
			}
			b.WriteString(fmt.Sprintf("\n%s Re-checking...\n", m.spinner.View()))
			break
		}
		if m.width > 0 && m.height > 0 {
			return ui.RenderProgressModal(
				"Toolchain Check",
				"Probing for rust, foundry and the RISC Zero toolchain",
				m.spinner.View(),
				"ESC to cancel",
				m.width, m.height, 56,
			)
		}
		b.WriteString(fmt.Sprintf("%s Checking required tools...\n", m.spinner.View()))

	case stateName:
		b.WriteString("Name your project:\n\n")
		b.WriteString(m.nameInput.View())
		b.WriteString("\n")
		if m.nameError != "" {
			b.WriteString("\n" + theme.ErrorMessage(m.nameError) + "\n")
		}

	case stateConfirmOverwrite:
		b.WriteString(theme.WarningMessage(fmt.Sprintf("Directory '%s' already exists.", m.projectName)))
		b.WriteString("\n\n")
		b.WriteString(ui.RenderMenu(overwriteChoices, m.menuIndex))
		b.WriteString("\n")

	case stateInstalling:
		b.WriteString(m.renderSteps())
		b.WriteString("\n")
		b.WriteString(m.renderOutput())

	case stateInstallFailed:
		b.WriteString(theme.ErrorMessage("Installation failed"))
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(theme.SubtleStyle().Render(m.err.Error()))
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderOutput())
		b.WriteString("\n")
		b.WriteString(theme.SubtleStyle().Render("Press ENTER to exit"))
		b.WriteString("\n")

	case stateInstallDone:
		b.WriteString(theme.SuccessMessage(fmt.Sprintf("Project '%s' is ready", m.projectName)))
		b.WriteString("\n\n")
		b.WriteString(theme.SubtleStyle().Render("Press ENTER to continue"))
		b.WriteString("\n")

	case stateTestMenu:
		b.WriteString("Validate the new project against a local chain?\n\n")
		b.WriteString(ui.RenderMenu(testChoices, m.menuIndex))
		b.WriteString("\n")
		if m.testPassed {
			b.WriteString("\n" + theme.SuccessMessage("End-to-end test passed") + "\n")
		}
		// A failed run's output stays visible until the next one starts
		if out := m.renderOutput(); out != "" {
			b.WriteString("\n")
			b.WriteString(out)
			b.WriteString("\n")
		}

	case stateCredential:
		b.WriteString("Enter your Bonsai API key (kept in memory only):\n\n")
		b.WriteString(m.credInput.View())
		b.WriteString("\n")

	case stateRunningTest:
		b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), m.testPhase.Description()))
		b.WriteString(m.renderOutput())

	case stateDone:
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
		b.WriteString(theme.SubtleStyle().Render("Press ENTER to exit"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// stateLabel names the current screen for the header banner
func (m *Wizard) stateLabel() string {
	switch m.state {
	case stateProbing:
		return "TOOLCHAIN"
	case stateName, stateConfirmOverwrite:
		return "NAME"
	case stateInstalling, stateInstallFailed, stateInstallDone:
		return "INSTALL"
	case stateTestMenu, stateCredential, stateRunningTest:
		return "TEST"
	default:
		return "DONE"
	}
}

// renderSteps shows the pipeline with per-step status markers
func (m *Wizard) renderSteps() string {
	theme := config.CurrentTheme
	var b strings.Builder

	for i, step := range m.pipeline.Steps() {
		var marker string
		switch {
		case m.installState.Err != nil && i == m.installState.Index:
			marker = theme.ErrorIndicator()
		case m.installState.Done || i < m.installState.Index:
			marker = theme.CompleteIndicator()
		case i == m.installState.Index:
			marker = m.spinner.View()
		default:
			marker = theme.PendingIndicator()
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, step.Description))
	}

	return b.String()
}

// renderOutput shows the tail (or scrolled window) of subprocess output
func (m *Wizard) renderOutput() string {
	theme := config.CurrentTheme

	lines := m.outputLog.Window(outputWindowHeight)
	if len(lines) == 0 {
		return ""
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.GetMutedColor()).
		Padding(0, 1).
		Width(max(20, m.width-4)).
		Render(theme.SubtleStyle().Render(strings.Join(lines, "\n")))
}

// renderSummary is the final screen, reached from the test menu
func (m *Wizard) renderSummary() string {
	theme := config.CurrentTheme
	var b strings.Builder

	b.WriteString(theme.SuccessMessage(fmt.Sprintf("Project '%s' created", m.projectName)))
	b.WriteString("\n")
	if m.testPassed {
		b.WriteString(theme.SuccessMessage("End-to-end test passed"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Next: cd %s\n", filepath.Join(m.parentDir, m.projectName)))
	return b.String()
}

// renderFooter shows the key bindings active in the current state
func (m *Wizard) renderFooter() string {
	theme := config.CurrentTheme
	style := theme.SubtleStyle()

	set := ui.WizardKeyBindings()
	switch m.state {
	case stateConfirmOverwrite, stateTestMenu:
		set = set.With(ui.MenuKeyBindings())
	case stateInstalling, stateRunningTest:
		set = set.With(ui.OutputScrollKeyBindings())
	}

	return theme.RenderFooter(m.width, set.RenderInline(style))
}

// RunWizard runs the interactive create flow to completion
func RunWizard(parentDir, name string) error {
	m := NewWizard(parentDir, name)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if wizard, ok := finalModel.(*Wizard); ok {
		if wizard.cancelled {
			return ErrUserCancelled
		}
		return wizard.err
	}

	return fmt.Errorf("unexpected model type")
}
