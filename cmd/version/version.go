// SPDX-License-Identifier: Apache-2.0
package version

import (
	"fmt"

	"github.com/spf13/cobra"
	latest "github.com/tcnksm/go-latest"
)

const (
	githubOwner = "steelwright"
	githubRepo  = "steelwright"
)

// NewVersionCmd creates the version command
func NewVersionCmd(version string) *cobra.Command {
	var checkLatest bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version of steelwright.`,
		Run: func(cmd *cobra.Command, args []string) {
			if version == "" {
				version = "dev"
			}
			fmt.Printf("steelwright version %s\n", version)

			if checkLatest && version != "dev" {
				checkForUpdate(version)
			}
		},
	}

	cmd.Flags().BoolVar(&checkLatest, "check", false, "Check GitHub for a newer release")

	return cmd
}

// checkForUpdate compares the running version against the newest release
// tag. Network errors are ignored; the check is informational only.
func checkForUpdate(current string) {
	githubTag := &latest.GithubTag{
		Owner:      githubOwner,
		Repository: githubRepo,
	}

	res, err := latest.Check(githubTag, current)
	if err != nil {
		return
	}

	if res.Outdated {
		fmt.Printf("\nA new version is available: %s (you have %s)\n", res.Current, current)
		fmt.Printf("Download it from https://github.com/%s/%s/releases\n", githubOwner, githubRepo)
	}
}
