// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the application color scheme.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// CurrentTheme is the active theme used throughout the application.
// Steel blue with ember accents.
var CurrentTheme = Theme{
	Primary: lipgloss.Color("#6FA8DC"),
	Accent:  lipgloss.Color("#E69138"),
	Muted:   lipgloss.Color("#6a6e7e"),
	Success: lipgloss.Color("#7ED491"),
	Warning: lipgloss.Color("#FFD166"),
	Error:   lipgloss.Color("#EF5D60"),
}

func (t Theme) GetPrimaryColor() lipgloss.Color { return t.Primary }
func (t Theme) GetMutedColor() lipgloss.Color   { return t.Muted }

func (t Theme) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

func (t Theme) SubtleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted)
}

// Message formatters prefix text with a status glyph in the matching color.

func (t Theme) SuccessMessage(text string) string {
	return t.SuccessStyle().Render("✓ " + text)
}

func (t Theme) InfoMessage(text string) string {
	return lipgloss.NewStyle().Foreground(t.Accent).Render("ℹ " + text)
}

func (t Theme) WarningMessage(text string) string {
	return lipgloss.NewStyle().Foreground(t.Warning).Render("⚠ " + text)
}

func (t Theme) ErrorMessage(text string) string {
	return t.ErrorStyle().Render("✗ " + text)
}

// Indicators are single-glyph step markers for pipeline and probe listings.

func (t Theme) PendingIndicator() string {
	return t.SubtleStyle().Render("○")
}

func (t Theme) CompleteIndicator() string {
	return t.SuccessStyle().Render("✓")
}

func (t Theme) ErrorIndicator() string {
	return t.ErrorStyle().Render("✗")
}

// RenderHeader renders the banner line shown at the top of every screen,
// "  STEELWRIGHT  ▸  SECTION  ▸  [CONTEXT]  ".
func (t Theme) RenderHeader(width int, section, context string) string {
	banner := fmt.Sprintf("  STEELWRIGHT  ▸  %s  ▸  [%s]  ", section, context)
	return lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Width(width).
		Align(lipgloss.Center).
		Render(banner)
}

// RenderFooter renders the closing line with the active key bindings,
// "╰─ [content] ─╯".
func (t Theme) RenderFooter(width int, content string) string {
	return lipgloss.NewStyle().
		Foreground(t.Muted).
		Width(width).
		Align(lipgloss.Center).
		Render("╰─ " + content + " ─╯")
}
