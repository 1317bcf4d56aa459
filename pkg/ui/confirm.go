// SPDX-License-Identifier: Apache-2.0
package ui

import "github.com/charmbracelet/huh"

// Confirm asks a yes/no question on the terminal and blocks until answered.
func Confirm(prompt string) (bool, error) {
	var yes bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&yes),
	)).Run()
	if err != nil {
		return false, err
	}
	return yes, nil
}
