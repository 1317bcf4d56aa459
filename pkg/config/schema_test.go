// SPDX-License-Identifier: Apache-2.0
package config

import (
	"strings"
	"testing"
)

func TestConfigRegistry_ContainsUseTUI(t *testing.T) {
	def, ok := ConfigRegistry["use-tui"]
	if !ok {
		t.Fatal("ConfigRegistry should contain 'use-tui' key")
	}
	if def.Type != "bool" {
		t.Errorf("use-tui type = %v, want bool", def.Type)
	}
	if def.Default != true {
		t.Errorf("use-tui default = %v, want true", def.Default)
	}
	if def.UserConstraints != nil || def.ProjectConstraints != nil {
		t.Error("use-tui should have no scope constraints")
	}
}

func TestConfigRegistry_ContainsLogLevel(t *testing.T) {
	def, ok := ConfigRegistry["log-level"]
	if !ok {
		t.Fatal("ConfigRegistry should contain 'log-level' key")
	}
	if def.Type != "enum" {
		t.Errorf("log-level type = %v, want enum", def.Type)
	}
	expectedEnums := []string{"disabled", "debug", "info", "warn", "error"}
	if len(def.EnumValues) != len(expectedEnums) {
		t.Errorf("log-level enum count = %d, want %d", len(def.EnumValues), len(expectedEnums))
	}
}

func TestConfigRegistry_SensitiveKeysForbiddenInProject(t *testing.T) {
	for _, key := range []string{"bonsai.api-key", "wallet.private-key"} {
		def, ok := ConfigRegistry[key]
		if !ok {
			t.Fatalf("ConfigRegistry should contain '%s' key", key)
		}
		if def.ProjectConstraints == nil || !def.ProjectConstraints.Forbidden {
			t.Errorf("%s must be forbidden in project scope", key)
		}
	}
}

func TestValidateKeyScope_ForbiddenInProject(t *testing.T) {
	err := ValidateKeyScope("bonsai.api-key", ScopeProject)
	if err == nil {
		t.Fatal("expected error for bonsai.api-key in project scope")
	}
	if !strings.Contains(err.Error(), "sensitive") {
		t.Errorf("error should mention sensitivity: %v", err)
	}

	if err := ValidateKeyScope("bonsai.api-key", ScopeUser); err != nil {
		t.Errorf("bonsai.api-key in user scope: %v", err)
	}
}

func TestValidateKeyScope_UnknownKey(t *testing.T) {
	if err := ValidateKeyScope("no-such-key", ScopeUser); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestValidateValue_Types(t *testing.T) {
	cases := []struct {
		key     string
		value   interface{}
		wantErr bool
	}{
		{"use-tui", true, false},
		{"use-tui", "yes", true},
		{"chain.retries", 5, false},
		{"chain.retries", "5", true},
		{"log-level", "info", false},
		{"log-level", "verbose", true},
		{"template.repo", "https://github.com/risc0/risc0-ethereum", false},
		{"template.repo", "not-a-url", true},
		{"chain.rpc-url", "http://127.0.0.1:8545", false},
		{"chain.rpc-url", "ftp://example.com", true},
		{"chain.retry-delay", "250ms", false},
		{"chain.retry-delay", "fast", true},
		{"wallet.address", DefaultWalletAddr, false},
		{"wallet.address", "0x1234", true},
		{"wallet.private-key", DefaultWalletKey, false},
		{"wallet.private-key", "hunter2", true},
		{"bonsai.api-key", "", false}, // empty means prompt later
	}

	for _, tc := range cases {
		err := ValidateValue(tc.key, tc.value, ScopeUser)
		if tc.wantErr && err == nil {
			t.Errorf("ValidateValue(%s, %v) = nil, want error", tc.key, tc.value)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("ValidateValue(%s, %v) = %v, want nil", tc.key, tc.value, err)
		}
	}
}

func TestRegistryDefaultsPassValidation(t *testing.T) {
	for key, def := range ConfigRegistry {
		if err := ValidateValue(key, def.Default, ScopeUser); err != nil {
			t.Errorf("default for %s fails its own validation: %v", key, err)
		}
	}
}

func TestFlattenKeys(t *testing.T) {
	settings := map[string]interface{}{
		"use-tui": true,
		"chain": map[string]interface{}{
			"rpc-url": "http://127.0.0.1:8545",
			"retries": 10,
		},
	}

	keys := flattenKeys(settings, "")
	want := map[string]bool{"use-tui": true, "chain.rpc-url": true, "chain.retries": true}
	if len(keys) != len(want) {
		t.Fatalf("flattenKeys = %v, want 3 keys", keys)
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected key %q", k)
		}
	}
}
