// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyBinding maps one or more bubbletea key names to an action label.
type KeyBinding struct {
	Key  string   // display label: "ENTER", "PGUP", "ESC"
	Keys []string // key names that trigger it: ["esc", "ctrl+c"]
	Help string
}

// KeyBindingSet is the group of bindings active on one screen.
type KeyBindingSet []KeyBinding

// Match returns the binding triggered by a key press, or nil.
func (s KeyBindingSet) Match(key string) *KeyBinding {
	for i := range s {
		for _, k := range s[i].Keys {
			if k == key {
				return &s[i]
			}
		}
	}
	return nil
}

// With prepends another set, so screen-specific bindings render before the
// global ones.
func (s KeyBindingSet) With(extra KeyBindingSet) KeyBindingSet {
	merged := make(KeyBindingSet, 0, len(s)+len(extra))
	merged = append(merged, extra...)
	return append(merged, s...)
}

// RenderInline formats the set for the footer, "Key: action | Key: action".
func (s KeyBindingSet) RenderInline(style lipgloss.Style) string {
	if len(s) == 0 {
		return ""
	}
	caser := cases.Title(language.Und, cases.NoLower)
	parts := make([]string, len(s))
	for i, b := range s {
		parts[i] = fmt.Sprintf("%s: %s", caser.String(b.Keys[0]), strings.ToLower(b.Help))
	}
	return style.Render(strings.Join(parts, " | "))
}

// WizardKeyBindings are active on every wizard screen.
func WizardKeyBindings() KeyBindingSet {
	return KeyBindingSet{
		{Key: "ESC", Keys: []string{"esc", "ctrl+c"}, Help: "Exit"},
	}
}

// OutputScrollKeyBindings drive the streamed-output pane.
func OutputScrollKeyBindings() KeyBindingSet {
	return KeyBindingSet{
		{Key: "PGUP", Keys: []string{"pgup"}, Help: "Scroll Up"},
		{Key: "PGDN", Keys: []string{"pgdown"}, Help: "Scroll Down"},
		{Key: "END", Keys: []string{"end"}, Help: "Follow Output"},
	}
}

// MenuKeyBindings drive list menus.
func MenuKeyBindings() KeyBindingSet {
	return KeyBindingSet{
		{Key: "UP/DOWN", Keys: []string{"up", "down", "j", "k"}, Help: "Choose"},
		{Key: "ENTER", Keys: []string{"enter"}, Help: "Select"},
	}
}
