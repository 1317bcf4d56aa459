// SPDX-License-Identifier: Apache-2.0
package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Solidity libraries installed as git submodules under lib/.
var submodules = []struct {
	name   string
	repo   string
	branch string // empty for default branch
	dest   string
}{
	{name: "forge-std", repo: "https://github.com/foundry-rs/forge-std", dest: "lib/forge-std"},
	{name: "openzeppelin-contracts", repo: "https://github.com/OpenZeppelin/openzeppelin-contracts", dest: "lib/openzeppelin-contracts"},
	{name: "risc0-ethereum", repo: "https://github.com/risc0/risc0-ethereum", branch: "release-1.3", dest: "lib/risc0-ethereum"},
}

// remappingSubstitutions translate the template's relative-path remappings
// into the standalone project layout.
var remappingSubstitutions = [][2]string{
	{"forge-std/=../../lib/forge-std/src/", "forge-std/=lib/forge-std/src/"},
	{"openzeppelin/=../../lib/openzeppelin-contracts/", "openzeppelin/=lib/openzeppelin-contracts/"},
	{"risc0/=../../contracts/src/", "risc0/=lib/risc0-ethereum/contracts/src/"},
}

const ozContractsRemapping = "openzeppelin-contracts/=lib/openzeppelin-contracts/contracts"

// defaultRemappings is written when the template ships no remappings file.
const defaultRemappings = `forge-std/=lib/forge-std/src/
openzeppelin/=lib/openzeppelin-contracts/
openzeppelin-contracts/=lib/openzeppelin-contracts/contracts
risc0/=lib/risc0-ethereum/contracts/src/
`

// defaultFoundryToml is written when the template ships no build config.
const defaultFoundryToml = `[profile.default]
auto_detect_remappings = false
libs = ["lib"]
`

// RewriteRemappings adjusts an existing remappings file for the standalone
// layout and guarantees the openzeppelin-contracts mapping is present.
func RewriteRemappings(content string) string {
	for _, sub := range remappingSubstitutions {
		content = strings.ReplaceAll(content, sub[0], sub[1])
	}
	if !strings.Contains(content, "openzeppelin-contracts/=") {
		content = strings.TrimRight(content, "\n") + "\n" + ozContractsRemapping + "\n"
	}
	return content
}

// RewriteFoundryToml adjusts an existing foundry.toml for the standalone
// layout: lib paths point at the local lib/ directory and remapping
// auto-detection is pinned off so the rewritten remappings file wins.
func RewriteFoundryToml(content string) string {
	content = strings.ReplaceAll(content,
		`libs = ["../../lib", "../../contracts/src"]`,
		`libs = ["lib"]`,
	)
	if !strings.Contains(content, "auto_detect_remappings") {
		if strings.Contains(content, "[profile.default]") {
			content = strings.Replace(content,
				"[profile.default]",
				"[profile.default]\nauto_detect_remappings = false",
				1,
			)
		} else {
			content = strings.TrimRight(content, "\n") + "\n\n[profile.default]\nauto_detect_remappings = false\n"
		}
	}
	return content
}

// initSubmodules re-initializes the workspace as a standalone git repository
// and installs the Solidity dependency submodules, then rewrites the Foundry
// configuration files for the new layout.
func (p *Pipeline) initSubmodules(ctx context.Context) error {
	root := p.Root()
	p.emit("Starting Forge setup (this may take a few minutes)...")

	// The clone's history belongs to the template, not the new project
	os.RemoveAll(filepath.Join(root, ".git"))

	if err := p.git(ctx, root, "init"); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(root, "lib"), 0755); err != nil {
		return err
	}

	for i, sm := range submodules {
		p.emit("Adding %s (%d/%d)...", sm.name, i+1, len(submodules))
		args := []string{"submodule", "add"}
		if sm.branch != "" {
			args = append(args, "-b", sm.branch)
		}
		args = append(args, sm.repo, sm.dest)
		if err := p.git(ctx, root, args...); err != nil {
			return err
		}
	}

	p.emit("Updating submodules recursively (this may take a while)...")
	if err := p.git(ctx, root, "submodule", "update", "--init", "--recursive", "--quiet"); err != nil {
		return err
	}
	if err := p.git(ctx, root, "reset"); err != nil {
		return err
	}

	if err := p.writeBuildConfig(root, "remappings.txt", defaultRemappings, RewriteRemappings); err != nil {
		return err
	}
	if err := p.writeBuildConfig(root, "foundry.toml", defaultFoundryToml, RewriteFoundryToml); err != nil {
		return err
	}

	p.emit("Forge setup completed successfully")
	return nil
}

// writeBuildConfig rewrites an existing config file in place, or creates it
// fresh from the fallback content when the template did not ship one.
func (p *Pipeline) writeBuildConfig(root, name, fallback string, rewrite func(string) string) error {
	path := filepath.Join(root, name)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		p.emit("%s not found, creating default", name)
		return os.WriteFile(path, []byte(fallback), 0644)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(rewrite(string(data))), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	p.emit("Updated %s", name)
	return nil
}
