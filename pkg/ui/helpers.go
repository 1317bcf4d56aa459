// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/steelwright/steelwright/pkg/config"
)

// RenderCenteredModal draws content inside a rounded border, centered in a
// width x height terminal.
func RenderCenteredModal(content string, width, height int, borderColor lipgloss.Color, modalWidth int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Width(modalWidth).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// RenderProgressModal is a centered modal with a title line, an optional
// status line, a spinner cell and a help line.
func RenderProgressModal(title, status, indicator, help string, width, height, modalWidth int) string {
	theme := config.CurrentTheme
	subtle := theme.SubtleStyle()

	rows := []string{
		lipgloss.NewStyle().Foreground(theme.GetPrimaryColor()).Bold(true).Render(title),
	}
	if status != "" {
		rows = append(rows, subtle.Render(status))
	}
	if indicator != "" {
		rows = append(rows, "", indicator)
	}
	if help == "" {
		help = "Please wait..."
	}
	rows = append(rows, "", subtle.Render(help))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return RenderCenteredModal(content, width, height, theme.GetPrimaryColor(), modalWidth)
}

// RenderMenu renders a vertical single-choice menu with a cursor on the
// selected row.
func RenderMenu(items []string, selected int) string {
	theme := config.CurrentTheme
	active := lipgloss.NewStyle().Foreground(theme.GetPrimaryColor()).Bold(true)
	inactive := theme.SubtleStyle()

	rows := make([]string, len(items))
	for i, item := range items {
		if i == selected {
			rows[i] = active.Render("▸ " + item)
		} else {
			rows[i] = inactive.Render("  " + item)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
