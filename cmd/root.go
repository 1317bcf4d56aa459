// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steelwright/steelwright/cmd/create"
	"github.com/steelwright/steelwright/cmd/doctor"
	"github.com/steelwright/steelwright/cmd/version"
	"github.com/steelwright/steelwright/pkg/config"
)

// Version is set at build time via
// -ldflags "-X github.com/steelwright/steelwright/cmd.Version=x.y.z"
var Version string

var (
	logLevel string
	useTUI   bool
)

var rootCmd = &cobra.Command{
	Use:   "steelwright",
	Short: "Interactive scaffolding for Steel proving projects",
	Long: `Steelwright - interactive scaffolding for Steel proving projects

Provisions a ready-to-build project from the Steel template repository,
checks the required toolchain, and can validate the result end to end
against a local test chain.`,
	PersistentPreRunE: setup,
}

// setup prepares directories, config and logging before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.InitDirs(); err != nil {
		return err
	}
	if err := config.LoadConfig(); err != nil {
		return err
	}
	useTUI = config.GetUseTUI()

	// The flag is bound to viper, so config files and env are honored too.
	logLevel = config.GetLogLevel()
	if logLevel == "disabled" {
		log.SetOutput(io.Discard)
		return nil
	}
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		level = log.DebugLevel
	}

	// The terminal belongs to the TUI, so logs always go to a file.
	f, err := os.OpenFile(config.LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetDefault(log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
		Level:           level,
		ReportCaller:    true,
		Formatter:       log.JSONFormatter,
	}))
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		style := config.CurrentTheme.ErrorStyle()
		fmt.Fprintf(os.Stderr, "%s %s\n", style.Render("Error:"), err.Error())
		os.Exit(1)
	}
}

func init() {
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)

	config.InitViper()

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "debug", "Log level: disabled, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "use-tui", true, "Enable terminal UI mode")
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(create.NewCreateCmd())
	rootCmd.AddCommand(doctor.NewDoctorCmd())
	rootCmd.AddCommand(version.NewVersionCmd(Version))

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdown(helpMarkdown(cmd, true))
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		renderMarkdown(helpMarkdown(cmd, false))
		return nil
	})
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd())
}

// completionCmd builds bash/zsh/fish completion subcommands. PowerShell is
// deliberately absent; the supervised toolchain is unix-only anyway.
func completionCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "completion [shell]",
		Short:             "Generate the autocompletion script for the specified shell",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	shells := []struct {
		name string
		hint string
		gen  func(cmd *cobra.Command) error
	}{
		{
			name: "bash",
			hint: "source <(%[1]s completion bash)",
			gen: func(cmd *cobra.Command) error {
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			},
		},
		{
			name: "zsh",
			hint: "%[1]s completion zsh > \"${fpath[1]}/_%[1]s\"",
			gen: func(cmd *cobra.Command) error {
				return cmd.Root().GenZshCompletion(os.Stdout)
			},
		},
		{
			name: "fish",
			hint: "%[1]s completion fish > ~/.config/fish/completions/%[1]s.fish",
			gen: func(cmd *cobra.Command) error {
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			},
		},
	}

	for _, sh := range shells {
		gen := sh.gen
		root.AddCommand(&cobra.Command{
			Use:   sh.name,
			Short: fmt.Sprintf("Generate the autocompletion script for %s", sh.name),
			Long: fmt.Sprintf("Generate the autocompletion script for the %s shell.\n\nTo load completions:\n\n\t"+sh.hint+"\n",
				sh.name, rootCmd.Name()),
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			ValidArgsFunction:     cobra.NoFileCompletions,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(cmd)
			},
		})
	}
	return root
}

// helpMarkdown assembles a command's help (or bare usage) as markdown.
func helpMarkdown(cmd *cobra.Command, full bool) string {
	var md strings.Builder

	if full {
		md.WriteString(fmt.Sprintf("# %s\n\n", cmd.Name()))
		if cmd.Long != "" {
			md.WriteString(cmd.Long + "\n\n")
		} else if cmd.Short != "" {
			md.WriteString(cmd.Short + "\n\n")
		}
	}

	if cmd.Runnable() {
		md.WriteString("## Usage\n\n")
		md.WriteString(fmt.Sprintf("```\n%s\n```\n\n", cmd.UseLine()))
	}

	if full && len(cmd.Aliases) > 0 {
		md.WriteString("## Aliases\n\n")
		md.WriteString(fmt.Sprintf("`%s`\n\n", strings.Join(cmd.Aliases, "`, `")))
	}

	var subs []string
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() && !sub.IsAdditionalHelpTopicCommand() {
			subs = append(subs, fmt.Sprintf("- **%s** - %s", sub.Name(), sub.Short))
		}
	}
	if len(subs) > 0 {
		md.WriteString("## Available Commands\n\n")
		md.WriteString(strings.Join(subs, "\n") + "\n\n")
	}

	if cmd.HasAvailableLocalFlags() {
		md.WriteString("## Flags\n\n")
		md.WriteString(fmt.Sprintf("```\n%s\n```\n\n", cmd.LocalFlags().FlagUsages()))
	}
	if cmd.HasAvailableInheritedFlags() {
		md.WriteString("## Global Flags\n\n")
		md.WriteString(fmt.Sprintf("```\n%s\n```\n\n", cmd.InheritedFlags().FlagUsages()))
	}

	if full {
		md.WriteString(fmt.Sprintf("Use `%s [command] --help` for more information about a command.\n", cmd.CommandPath()))
	}
	return md.String()
}

// renderMarkdown prints markdown through glamour, falling back to plain text.
func renderMarkdown(markdown string) {
	width := 100
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		fmt.Println(markdown)
		return
	}
	rendered, err := r.Render(markdown)
	if err != nil {
		fmt.Println(markdown)
		return
	}
	fmt.Println(strings.TrimRight(rendered, " \n"))
}
