// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Template repository the wizard provisions projects from
	DefaultTemplateRepo   = "https://github.com/risc0/risc0-ethereum"
	DefaultTemplateBranch = "release-1.3"
	DefaultTemplateSubdir = "examples/erc20-counter"

	// Development chain defaults. The wallet values are the first
	// well-known account of the local test chain, safe to ship as
	// defaults because they only ever hold local funds.
	DefaultChainRPCURL  = "http://127.0.0.1:8545"
	DefaultWalletAddr   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	DefaultWalletKey    = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DefaultBonsaiAPIURL = "https://api.bonsai.xyz/"

	// Configuration
	EnvPrefix        = "STEELWRIGHT" // Environment variable prefix for Viper
	ConfigFileName   = "config"      // Config file name for XDG config dir (without extension)
	LocalConfigFile  = "steelwright" // Config file name for current directory (without extension)
	ConfigType       = "yaml"        // Config file type
	DefaultConfigExt = ".yaml"       // Default config file extension
)

// Paths holds the XDG base directories steelwright writes under.
type Paths struct {
	DataDir   string
	CacheDir  string
	ConfigDir string
	LogDir    string
}

// GlobalPaths is resolved once at startup.
var GlobalPaths = GetPaths()

// xdgDir resolves one XDG base directory, falling back to the conventional
// location under the home directory when the variable is unset.
func xdgDir(envVar string, fallback ...string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get home directory: %v\n", err)
		os.Exit(1)
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// GetPaths returns the XDG-compliant directory layout.
func GetPaths() *Paths {
	cacheDir := filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), "steelwright")
	return &Paths{
		DataDir:   filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "steelwright"),
		CacheDir:  cacheDir,
		ConfigDir: filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "steelwright"),
		LogDir:    filepath.Join(cacheDir, "logs"),
	}
}

// LogFilePath returns the path of the JSON log file
func LogFilePath() string {
	return filepath.Join(GlobalPaths.LogDir, "steelwright.log")
}

// IsProjectMode returns true when a steelwright.yaml exists in the current
// working directory, meaning the CLI is operating within a provisioned project.
func IsProjectMode() bool {
	_, err := os.Stat(filepath.Join(".", LocalConfigFile+DefaultConfigExt))
	return err == nil
}

// InitDirs creates the config, data, cache and log directories.
func InitDirs() error {
	for _, dir := range []string{GlobalPaths.ConfigDir, GlobalPaths.DataDir, GlobalPaths.CacheDir, GlobalPaths.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
