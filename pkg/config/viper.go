// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// InitViper initializes Viper configuration with defaults and search paths
// Precedence order: ENV > dir-conf > user-conf > defaults
func InitViper() {
	viper.SetConfigType(ConfigType)

	// Set defaults (lowest precedence)
	for key, def := range ConfigRegistry {
		viper.SetDefault(key, def.Default)
	}

	// Enable environment variable support (highest precedence)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// LoadConfig reads config files in precedence order
// Precedence: ENV > ./steelwright.yaml > ~/.config/steelwright/config.yaml > defaults
func LoadConfig() error {
	// First, try to read user config from XDG config directory
	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(GlobalPaths.ConfigDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read user config file: %w", err)
		}
		// Config file not found is OK
	} else {
		warnMisplacedKeys(ScopeUser)
	}

	// Then, try to merge in local directory config (overrides user config)
	viper.SetConfigName(LocalConfigFile)
	viper.AddConfigPath(".")

	if err := viper.MergeInConfig(); err != nil {
		// Ignore if local config doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read project config file: %w", err)
		}
	} else {
		// Reject forbidden keys in project config
		if err := validateConfigFile(ScopeProject); err != nil {
			return err
		}
		warnMisplacedKeys(ScopeProject)
	}

	return nil
}

// GetUseTUI returns the use-tui configuration value
func GetUseTUI() bool {
	return viper.GetBool("use-tui")
}

// GetLogLevel returns the log-level configuration value
func GetLogLevel() string {
	return viper.GetString("log-level")
}

// GetTemplateRepo returns the template.repo configuration value
func GetTemplateRepo() string {
	return viper.GetString("template.repo")
}

// GetTemplateBranch returns the template.branch configuration value
func GetTemplateBranch() string {
	return viper.GetString("template.branch")
}

// GetTemplateSubdir returns the template.subdir configuration value
func GetTemplateSubdir() string {
	return viper.GetString("template.subdir")
}

// GetChainRPCURL returns the chain.rpc-url configuration value
func GetChainRPCURL() string {
	return viper.GetString("chain.rpc-url")
}

// GetChainRetries returns the chain.retries configuration value
func GetChainRetries() int {
	return viper.GetInt("chain.retries")
}

// GetChainRetryDelay returns the chain.retry-delay configuration value
func GetChainRetryDelay() time.Duration {
	return viper.GetDuration("chain.retry-delay")
}

// GetWalletAddress returns the wallet.address configuration value
func GetWalletAddress() string {
	return viper.GetString("wallet.address")
}

// GetWalletPrivateKey returns the wallet.private-key configuration value
// Priority: ENV:STEELWRIGHT_WALLET_PRIVATE_KEY > user config > default
func GetWalletPrivateKey() string {
	return viper.GetString("wallet.private-key")
}

// GetBonsaiAPIURL returns the bonsai.api-url configuration value
func GetBonsaiAPIURL() string {
	return viper.GetString("bonsai.api-url")
}

// GetBonsaiAPIKey returns the bonsai.api-key configuration value
// Empty means the wizard prompts for it before a proving run
func GetBonsaiAPIKey() string {
	return viper.GetString("bonsai.api-key")
}

// readScopedFile loads one scope's config file into a throwaway viper
// instance so its keys can be inspected in isolation. Returns nil when the
// file does not exist.
func readScopedFile(scope ConfigScope) (*viper.Viper, error) {
	path := configFilePath(scope)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(ConfigType)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// validateConfigFile rejects forbidden or malformed keys in one scope's file.
func validateConfigFile(scope ConfigScope) error {
	v, err := readScopedFile(scope)
	if err != nil {
		return fmt.Errorf("failed to read config file for validation: %w", err)
	}
	if v == nil {
		return nil
	}

	path := configFilePath(scope)
	for _, key := range flattenKeys(v.AllSettings(), "") {
		if err := ValidateKeyScope(key, scope); err != nil {
			return fmt.Errorf("invalid key in config file %s: %w", path, err)
		}
		if err := ValidateValue(key, v.Get(key), scope); err != nil {
			return fmt.Errorf("invalid value in config file %s: %w", path, err)
		}
	}
	return nil
}

// warnMisplacedKeys logs keys that would conventionally live in the other
// scope's file. Precedence still resolves conflicts, so this never blocks.
func warnMisplacedKeys(scope ConfigScope) {
	v, err := readScopedFile(scope)
	if err != nil || v == nil {
		return
	}

	for _, key := range flattenKeys(v.AllSettings(), "") {
		def := GetKeyDefinition(key)
		if def == nil {
			log.Debugf("Unknown key '%s' in %s config", key, scope)
			continue
		}
		// A key forbidden in the opposite scope clearly belongs here.
		home := scope
		if c := def.scoped(ScopeProject); c != nil && c.Forbidden {
			home = ScopeUser
		} else if c := def.scoped(ScopeUser); c != nil && c.Forbidden {
			home = ScopeProject
		}
		if home != scope {
			log.Debugf("Key '%s' in %s config (typically in %s config: %s)",
				key, scope, home, configFilePath(home))
		}
	}
}

// configFilePath returns the config file path for a scope
func configFilePath(scope ConfigScope) string {
	if scope == ScopeUser {
		return filepath.Join(GlobalPaths.ConfigDir, ConfigFileName+DefaultConfigExt)
	}
	return filepath.Join(".", LocalConfigFile+DefaultConfigExt)
}

// BindFlags binds the persistent cobra flags that mirror registry keys.
func BindFlags(flags *pflag.FlagSet) error {
	for _, name := range []string{"use-tui", "log-level"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
