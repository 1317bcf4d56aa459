// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// SecretInput prompts for a secret with masked echo. When stdin is a pipe
// the first line is consumed instead, which keeps scripted runs working.
func SecretInput(title, placeholder string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return readSecretLine(os.Stdin)
	}

	var secret string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Placeholder(placeholder).
			EchoMode(huh.EchoModePassword).
			Value(&secret),
	)).Run()
	if err != nil {
		return "", err
	}
	return secret, nil
}

func readSecretLine(r *os.File) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read secret from stdin: %w", err)
	}
	return "", fmt.Errorf("no secret provided on stdin")
}
