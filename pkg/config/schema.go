// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"regexp"
	"slices"
)

type keyType string

const (
	typeBool   keyType = "bool"
	typeInt    keyType = "int"
	typeString keyType = "string"
	typeEnum   keyType = "enum"
)

// ScopeConstraints narrows what a key accepts in one scope. A non-nil
// Pattern or EnumValues overrides the key's global rule for that scope.
type ScopeConstraints struct {
	Forbidden  bool
	EnumValues []string
	Pattern    string
}

// ConfigKeyDefinition is one entry in the key registry.
type ConfigKeyDefinition struct {
	Key         string
	Type        keyType
	Default     any
	Description string

	EnumValues []string // for typeEnum
	Pattern    string   // for typeString, validated only when the value is non-empty

	UserConstraints    *ScopeConstraints
	ProjectConstraints *ScopeConstraints
}

// scoped returns the constraints applying in the given scope, or nil.
func (d *ConfigKeyDefinition) scoped(scope ConfigScope) *ScopeConstraints {
	if scope == ScopeUser {
		return d.UserConstraints
	}
	return d.ProjectConstraints
}

func (d *ConfigKeyDefinition) effectivePattern(scope ConfigScope) string {
	if c := d.scoped(scope); c != nil && c.Pattern != "" {
		return c.Pattern
	}
	return d.Pattern
}

func (d *ConfigKeyDefinition) effectiveEnums(scope ConfigScope) []string {
	if c := d.scoped(scope); c != nil && c.EnumValues != nil {
		return c.EnumValues
	}
	return d.EnumValues
}

// ConfigRegistry holds every key steelwright understands. Keys without
// scope constraints may live in either config file; Forbidden keeps
// credentials out of the project file that gets committed.
var ConfigRegistry = map[string]ConfigKeyDefinition{
	"use-tui": {
		Key:         "use-tui",
		Type:        typeBool,
		Default:     true,
		Description: "Use TUI for interactive prompts",
	},

	"log-level": {
		Key:         "log-level",
		Type:        typeEnum,
		Default:     "debug",
		Description: "Log verbosity level",
		EnumValues:  []string{"disabled", "debug", "info", "warn", "error"},
	},

	"template.repo": {
		Key:         "template.repo",
		Type:        typeString,
		Default:     DefaultTemplateRepo,
		Description: "Git repository to provision new projects from",
		Pattern:     `^(https://|git@).+`,
	},

	"template.branch": {
		Key:         "template.branch",
		Type:        typeString,
		Default:     DefaultTemplateBranch,
		Description: "Branch of the template repository to check out",
	},

	"template.subdir": {
		Key:         "template.subdir",
		Type:        typeString,
		Default:     DefaultTemplateSubdir,
		Description: "Subdirectory of the template repository that becomes the project root",
	},

	"chain.rpc-url": {
		Key:         "chain.rpc-url",
		Type:        typeString,
		Default:     DefaultChainRPCURL,
		Description: "JSON-RPC endpoint of the local test chain",
		Pattern:     `^https?://.+`,
	},

	"chain.retries": {
		Key:         "chain.retries",
		Type:        typeInt,
		Default:     10,
		Description: "Readiness probe attempts before giving up on the test chain",
	},

	"chain.retry-delay": {
		Key:         "chain.retry-delay",
		Type:        typeString,
		Default:     "500ms",
		Description: "Delay between test chain readiness probes",
		Pattern:     `^[0-9]+(ms|s)$`,
	},

	"wallet.address": {
		Key:         "wallet.address",
		Type:        typeString,
		Default:     DefaultWalletAddr,
		Description: "Wallet address handed to the end-to-end test",
		Pattern:     `^0x[0-9a-fA-F]{40}$`,
	},

	"wallet.private-key": {
		Key:                "wallet.private-key",
		Type:               typeString,
		Default:            DefaultWalletKey,
		Description:        "Wallet private key handed to the end-to-end test (local chain only)",
		Pattern:            `^0x[0-9a-fA-F]{64}$`,
		ProjectConstraints: &ScopeConstraints{Forbidden: true},
	},

	"bonsai.api-url": {
		Key:         "bonsai.api-url",
		Type:        typeString,
		Default:     DefaultBonsaiAPIURL,
		Description: "Proving service endpoint",
		Pattern:     `^https?://.+`,
	},

	"bonsai.api-key": {
		Key:                "bonsai.api-key",
		Type:               typeString,
		Default:            "",
		Description:        "Proving service API key",
		ProjectConstraints: &ScopeConstraints{Forbidden: true},
	},
}

// GetKeyDefinition returns the definition for a key, or nil for unknown keys.
func GetKeyDefinition(key string) *ConfigKeyDefinition {
	if def, ok := ConfigRegistry[key]; ok {
		return &def
	}
	return nil
}

// ValidateKeyScope rejects keys that must not appear in the given scope.
func ValidateKeyScope(key string, scope ConfigScope) error {
	def := GetKeyDefinition(key)
	if def == nil {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	c := def.scoped(scope)
	if c == nil || !c.Forbidden {
		return nil
	}

	if scope == ScopeProject {
		return fmt.Errorf(
			"key '%s' is sensitive and cannot be set in project config\n\n"+
				"Set it in the user config instead: %s/%s%s\n"+
				"The project file is meant to be committed to version control.",
			key, GlobalPaths.ConfigDir, ConfigFileName, DefaultConfigExt,
		)
	}
	return fmt.Errorf(
		"key '%s' cannot be set in user config, use the project file ./%s%s",
		key, LocalConfigFile, DefaultConfigExt,
	)
}

// ValidateValue type-checks a value against the key's definition, applying
// any scope-specific pattern or enum overrides.
func ValidateValue(key string, value any, scope ConfigScope) error {
	def := GetKeyDefinition(key)
	if def == nil {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	switch def.Type {
	case typeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("key '%s' must be a boolean", key)
		}
	case typeInt:
		if _, ok := value.(int); !ok {
			return fmt.Errorf("key '%s' must be an integer", key)
		}
	case typeString:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a string", key)
		}
		return validatePattern(def, key, str, scope)
	case typeEnum:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("key '%s' must be a string", key)
		}
		allowed := def.effectiveEnums(scope)
		if !slices.Contains(allowed, str) {
			return fmt.Errorf("key '%s' must be one of %v in %s scope (got '%s')",
				key, allowed, scope, str)
		}
	}
	return nil
}

func validatePattern(def *ConfigKeyDefinition, key, str string, scope ConfigScope) error {
	pattern := def.effectivePattern(scope)
	if pattern == "" || str == "" {
		return nil
	}
	matched, err := regexp.MatchString(pattern, str)
	if err != nil {
		return fmt.Errorf("pattern validation error: %w", err)
	}
	if !matched {
		return fmt.Errorf("key '%s' value '%s' does not match required format for %s scope",
			key, str, scope)
	}
	return nil
}
