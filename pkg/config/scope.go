// SPDX-License-Identifier: Apache-2.0
package config

// ConfigScope identifies which of the two config files a key lives in.
type ConfigScope int

const (
	// ScopeProject is ./steelwright.yaml, committed alongside the project.
	ScopeProject ConfigScope = iota
	// ScopeUser is ~/.config/steelwright/config.yaml, personal settings.
	ScopeUser
)

func (s ConfigScope) String() string {
	if s == ScopeUser {
		return "user"
	}
	return "project"
}

// flattenKeys walks a viper settings tree and returns dot-notation keys.
func flattenKeys(m map[string]any, prefix string) []string {
	var keys []string
	for k, v := range m {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			keys = append(keys, flattenKeys(nested, full)...)
			continue
		}
		keys = append(keys, full)
	}
	return keys
}
