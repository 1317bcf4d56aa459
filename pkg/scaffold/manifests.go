// SPDX-License-Identifier: Apache-2.0
package scaffold

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// manifestName is the dependency manifest matched across the workspace tree.
const manifestName = "Cargo.toml"

// rewriteDeps are the template dependencies that must be switched from
// local path references to git references after extraction.
var rewriteDeps = []string{
	"risc0-build-ethereum",
	"risc0-ethereum-contracts",
	"risc0-steel",
}

// hostFeatureDep gets an extra feature flag in apps-context manifests.
const hostFeatureDep = "risc0-steel"

var (
	workspacePatterns = compileDepPatterns(`(?m)^\s*%s\s*=\s*\{\s*path\s*=\s*".*"\s*\}`)
	plainPatterns     = compileDepPatterns(`(?m)^%s\s*=.*$`)
)

func compileDepPatterns(format string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(rewriteDeps))
	for _, dep := range rewriteDeps {
		patterns[dep] = regexp.MustCompile(fmt.Sprintf(format, regexp.QuoteMeta(dep)))
	}
	return patterns
}

// gitDependency renders the replacement declaration for a dependency.
// Manifests under an apps/ directory build host-side binaries and need the
// host feature on risc0-steel; every other context gets the unflagged form.
func gitDependency(dep, repo, branch string, apps bool) string {
	if apps && dep == hostFeatureDep {
		return fmt.Sprintf(`%s = { git = %q, branch = %q, features = ["host"] }`, dep, repo, branch)
	}
	return fmt.Sprintf(`%s = { git = %q, branch = %q }`, dep, repo, branch)
}

// RewriteManifest substitutes path dependencies with git dependencies in a
// single manifest. It returns the rewritten content and the names of the
// dependencies that were actually replaced; unrecognized declarations are
// left untouched rather than treated as errors.
func RewriteManifest(content, repo, branch string, apps bool) (string, []string) {
	patterns := plainPatterns
	if strings.Contains(content, "[workspace]") {
		patterns = workspacePatterns
	}

	var replaced []string
	for _, dep := range rewriteDeps {
		re := patterns[dep]
		if !re.MatchString(content) {
			continue
		}
		content = re.ReplaceAllString(content, gitDependency(dep, repo, branch, apps))
		replaced = append(replaced, dep)
	}
	return content, replaced
}

// findManifests returns every dependency manifest under root, in walk order.
func findManifests(root string) ([]string, error) {
	var manifests []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && d.Name() == manifestName {
			manifests = append(manifests, path)
		}
		return nil
	})
	return manifests, err
}

// rewriteManifests walks the workspace and rewrites every discovered
// manifest. Files without recognized patterns are logged and skipped.
func (p *Pipeline) rewriteManifests(ctx context.Context) error {
	root := p.Root()

	manifests, err := findManifests(root)
	if err != nil {
		return fmt.Errorf("failed to scan for manifests: %w", err)
	}

	p.emit("Updating %s files with git dependencies...", manifestName)

	for _, path := range manifests {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		apps := strings.Contains(filepath.ToSlash(path), "/apps/")
		rewritten, replaced := RewriteManifest(string(data), p.opts.TemplateRepo, p.opts.TemplateBranch, apps)

		if len(replaced) == 0 {
			p.emit("No template dependencies in %s, leaving unchanged", path)
			continue
		}

		if err := os.WriteFile(path, []byte(rewritten), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		p.emit("Updated dependencies in: %s", path)
	}

	p.emit("All %s files have been updated with git dependencies", manifestName)
	return nil
}
