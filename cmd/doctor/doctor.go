// SPDX-License-Identifier: Apache-2.0
package doctor

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/steelwright/steelwright/pkg/config"
	"github.com/steelwright/steelwright/pkg/deps"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the required toolchain is installed",
		Long: `Probe the external tools steelwright depends on (rustc, forge,
cargo-risczero) and report which are missing or too old.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := config.CurrentTheme

			statuses := deps.ProbeAll(cmd.Context(), deps.DefaultTools())
			for _, st := range statuses {
				log.Debugf("doctor: %s detected=%q satisfied=%v", st.Name, st.Detected, st.Satisfied)

				if st.Satisfied {
					detail := st.Detected
					if detail == "" {
						detail = "installed"
					}
					if st.Constraint != "" {
						detail = fmt.Sprintf("%s (%s)", detail, st.Constraint)
					}
					fmt.Printf("%s  %-16s %s\n", theme.CompleteIndicator(), st.Name, detail)
					continue
				}

				fmt.Printf("%s  %-16s %s\n", theme.ErrorIndicator(), st.Name, st.Message)
			}

			if !deps.AllSatisfied(statuses) {
				return fmt.Errorf("some required tools are missing or unsupported")
			}

			fmt.Println()
			fmt.Println(theme.SuccessMessage("All required tools are available"))
			return nil
		},
	}
}
