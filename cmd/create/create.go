// SPDX-License-Identifier: Apache-2.0
package create

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steelwright/steelwright/pkg/chain"
	"github.com/steelwright/steelwright/pkg/config"
	"github.com/steelwright/steelwright/pkg/crashguard"
	"github.com/steelwright/steelwright/pkg/deps"
	"github.com/steelwright/steelwright/pkg/e2e"
	"github.com/steelwright/steelwright/pkg/procrun"
	"github.com/steelwright/steelwright/pkg/scaffold"
	"github.com/steelwright/steelwright/pkg/ui"
)

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	var (
		createName  string
		createDir   string
		createForce bool
		createTest  bool
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new Steel project",
		Long: `Provision a new project from the Steel template repository.

Checks the required toolchain, downloads and restructures the template,
rewrites its manifests and Forge configuration, and can validate the
result end to end against a local test chain.

With no name and an interactive terminal, a wizard walks through the
whole flow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := createName
			if name == "" && len(args) > 0 {
				name = args[0]
			}

			if createDir == "." && config.IsProjectMode() {
				return fmt.Errorf("already inside a steelwright project, pick another directory with --dir")
			}

			if isInteractive() {
				err := RunWizard(createDir, name)
				if err == ErrUserCancelled {
					return nil
				}
				return err
			}

			// Non-interactive path: name is mandatory, output goes to stdout
			if name == "" {
				return fmt.Errorf("a project name is required when running without a terminal (use --name)")
			}
			if !projectNamePattern.MatchString(name) {
				return fmt.Errorf("invalid project name %q", name)
			}

			return runHeadless(cmd, name, createDir, createForce, createTest)
		},
	}

	cmd.Flags().StringVarP(&createName, "name", "n", "", "Project name (skips the name prompt)")
	cmd.Flags().StringVarP(&createDir, "dir", "d", ".", "Parent directory for the new project")
	cmd.Flags().BoolVarP(&createForce, "force", "f", false, "Overwrite an existing directory without asking")
	cmd.Flags().BoolVarP(&createTest, "test", "t", false, "Run the end-to-end test after installation")

	return cmd
}

// isInteractive checks if stdin is connected to a terminal AND the user wants TUI mode
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && config.GetUseTUI()
}

// runHeadless provisions a project without the TUI, printing streamed
// output directly.
func runHeadless(cmd *cobra.Command, name, dir string, force, test bool) error {
	ctx := cmd.Context()
	theme := config.CurrentTheme

	statuses := deps.ProbeAll(ctx, deps.DefaultTools())
	for _, st := range statuses {
		if !st.Satisfied {
			fmt.Println(theme.ErrorMessage(st.Message))
		}
	}
	if !deps.AllSatisfied(statuses) {
		return fmt.Errorf("required tools are missing or unsupported")
	}

	if _, err := os.Stat(filepath.Join(dir, name)); err == nil && !force {
		// A terminal without use-tui still gets a plain prompt
		if term.IsTerminal(int(os.Stdin.Fd())) {
			ok, err := ui.Confirm(fmt.Sprintf("Directory '%s' already exists. Overwrite it?", name))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		} else {
			return fmt.Errorf("directory '%s' already exists (use --force to overwrite)", name)
		}
	}

	sink := procrun.LineFunc(func(line string) {
		fmt.Println(line)
	})

	pipeline := scaffold.New(scaffold.Options{
		ProjectName:    name,
		ParentDir:      dir,
		TemplateRepo:   config.GetTemplateRepo(),
		TemplateBranch: config.GetTemplateBranch(),
		TemplateSubdir: config.GetTemplateSubdir(),
		Sink:           sink,
	})

	for _, step := range pipeline.Steps() {
		log.Debugf("create: step %s", step.ID)
	}

	if err := pipeline.RunAll(ctx); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(theme.SuccessMessage(fmt.Sprintf("Project '%s' is ready", name)))

	if !test {
		return nil
	}

	return runHeadlessTest(cmd, pipeline.Root(), sink)
}

// runHeadlessTest drives the full test-phase sequence without the TUI
func runHeadlessTest(cmd *cobra.Command, projectDir string, sink procrun.LineSink) error {
	ctx := cmd.Context()
	theme := config.CurrentTheme

	sup := chain.New(chain.Options{
		RPCURL:     config.GetChainRPCURL(),
		Retries:    config.GetChainRetries(),
		RetryDelay: config.GetChainRetryDelay(),
		Sink:       sink,
	})

	apiKey := config.GetBonsaiAPIKey()
	if apiKey == "" {
		var err error
		apiKey, err = ui.SecretInput("Bonsai API key", "kept in memory only")
		if err != nil {
			return err
		}
	}

	env := e2e.Environment{
		RPCURL:           config.GetChainRPCURL(),
		WalletAddress:    config.GetWalletAddress(),
		WalletPrivateKey: config.GetWalletPrivateKey(),
		BonsaiAPIKey:     apiKey,
		BonsaiAPIURL:     config.GetBonsaiAPIURL(),
	}

	session := e2e.NewSession(projectDir, env, sup, sink)
	defer session.Cleanup()

	crashguard.Register(func() { sup.KillByName() })
	defer crashguard.Register(nil)

	for p := e2e.PhasePrepare; p < e2e.Phase(e2e.NumPhases); p++ {
		fmt.Println(theme.InfoMessage(p.Description()))
		if err := session.RunPhase(ctx, p); err != nil {
			return fmt.Errorf("test run failed: %w", err)
		}
	}

	fmt.Println()
	fmt.Println(theme.SuccessMessage("End-to-end test passed"))
	return nil
}
