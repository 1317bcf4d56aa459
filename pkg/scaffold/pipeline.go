// SPDX-License-Identifier: Apache-2.0
package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/steelwright/steelwright/pkg/procrun"
)

// Options configures a scaffolding pipeline run.
type Options struct {
	ProjectName    string
	ParentDir      string // directory the project is created under, "." when empty
	TemplateRepo   string // git URL of the template repository
	TemplateBranch string
	TemplateSubdir string // subtree to extract, e.g. "examples/erc20-counter"
	Sink           procrun.LineSink
}

// Step is one atomic unit of the installation sequence.
type Step struct {
	ID          string
	Description string
	Run         func(ctx context.Context) error
}

// State tracks pipeline progress. Index is the next step to execute;
// Done marks terminal success; Err halts all further advancement.
type State struct {
	Index int
	Done  bool
	Err   error
}

// Pipeline executes the fixed, ordered installation steps. A failed run is
// not resumable: the caller restarts from a fresh workspace.
type Pipeline struct {
	opts  Options
	steps []Step
	run   runFunc
}

type runFunc func(ctx context.Context, c procrun.Command, sink procrun.LineSink) (*procrun.Output, error)

// New builds a pipeline for the given options.
func New(opts Options) *Pipeline {
	if opts.ParentDir == "" {
		opts.ParentDir = "."
	}
	p := &Pipeline{opts: opts, run: procrun.Run}
	p.steps = []Step{
		{ID: "clone", Description: "Downloading template", Run: p.cloneTemplate},
		{ID: "sparse", Description: "Extracting example subtree", Run: p.sparseCheckout},
		{ID: "restructure", Description: "Setting up project structure", Run: p.restructureLayout},
		{ID: "manifests", Description: "Configuring dependencies", Run: p.rewriteManifests},
		{ID: "submodules", Description: "Installing Forge components", Run: p.initSubmodules},
	}
	return p
}

// Steps returns the ordered step list for display purposes.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Root returns the workspace directory being provisioned.
func (p *Pipeline) Root() string {
	return filepath.Join(p.opts.ParentDir, p.opts.ProjectName)
}

// Advance executes exactly the current step and returns the next state.
// On success the state points at the following step, or is marked Done
// after the last one. On failure the returned state carries the error and
// all later steps are skipped, including on repeated calls.
func (p *Pipeline) Advance(ctx context.Context, s State) State {
	if s.Err != nil || s.Done {
		return s
	}
	if s.Index < 0 || s.Index >= len(p.steps) {
		return State{Index: s.Index, Err: fmt.Errorf("step index %d out of range", s.Index)}
	}

	step := p.steps[s.Index]
	log.Debugf("pipeline: running step %d (%s)", s.Index, step.ID)

	if err := step.Run(ctx); err != nil {
		return State{Index: s.Index, Err: fmt.Errorf("%s: %w", step.ID, err)}
	}

	next := State{Index: s.Index + 1}
	if next.Index == len(p.steps) {
		next.Done = true
	}
	return next
}

// RunAll drives the pipeline to completion, for non-interactive use.
func (p *Pipeline) RunAll(ctx context.Context) error {
	s := State{}
	for !s.Done {
		s = p.Advance(ctx, s)
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// emit forwards a status line to the sink if one is configured.
func (p *Pipeline) emit(format string, args ...interface{}) {
	if p.opts.Sink != nil {
		p.opts.Sink.Line(fmt.Sprintf(format, args...))
	}
}

// git runs a git subcommand inside dir, streaming output to the sink.
func (p *Pipeline) git(ctx context.Context, dir string, args ...string) error {
	_, err := p.run(ctx, procrun.Command{Name: "git", Args: args, Dir: dir}, p.opts.Sink)
	return err
}

// cloneTemplate acquires a fresh working copy of the template repository.
// Any existing directory at the target path is destroyed first, so the
// pipeline always starts from scratch.
func (p *Pipeline) cloneTemplate(ctx context.Context) error {
	root := p.Root()
	if _, err := os.Stat(root); err == nil {
		p.emit("Removing existing directory '%s'...", p.opts.ProjectName)
		if err := os.RemoveAll(root); err != nil {
			return fmt.Errorf("failed to remove existing workspace: %w", err)
		}
	}

	return p.git(ctx, p.opts.ParentDir,
		"clone",
		"-b", p.opts.TemplateBranch,
		p.opts.TemplateRepo,
		p.opts.ProjectName,
		"--single-branch",
		"--depth", "1",
	)
}

// sparseCheckout narrows the clone to the template subtree.
func (p *Pipeline) sparseCheckout(ctx context.Context) error {
	root := p.Root()

	if err := p.git(ctx, root, "sparse-checkout", "set", p.opts.TemplateSubdir); err != nil {
		return err
	}
	if err := p.git(ctx, root, "checkout"); err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(root, p.opts.TemplateSubdir)); err != nil {
		return fmt.Errorf("%s directory not found after checkout", p.opts.TemplateSubdir)
	}
	return nil
}

// restructureLayout hoists the template subtree to the workspace root and
// discards everything else from the clone.
func (p *Pipeline) restructureLayout(ctx context.Context) error {
	root := p.Root()
	p.emit("Moving template files to root directory...")

	// Move the subtree out of its parent, then drop the parent entirely
	staging := filepath.Join(root, filepath.Base(p.opts.TemplateSubdir))
	if err := os.Rename(filepath.Join(root, p.opts.TemplateSubdir), staging); err != nil {
		return fmt.Errorf("failed to stage template subtree: %w", err)
	}
	topDir := firstPathComponent(p.opts.TemplateSubdir)
	if topDir != "" && topDir != filepath.Base(p.opts.TemplateSubdir) {
		if err := os.RemoveAll(filepath.Join(root, topDir)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", topDir, err)
		}
	}

	// Remove leftover root-level files from the clone (directories stay)
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			if err := os.Remove(filepath.Join(root, entry.Name())); err != nil {
				return err
			}
		}
	}

	// Hoist the staged subtree contents, hidden files included
	staged, err := os.ReadDir(staging)
	if err != nil {
		return err
	}
	for _, entry := range staged {
		src := filepath.Join(staging, entry.Name())
		dst := filepath.Join(root, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s: %w", entry.Name(), err)
		}
	}
	if err := os.Remove(staging); err != nil {
		return err
	}

	p.emit("Project structure set up successfully")
	return nil
}

func firstPathComponent(p string) string {
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return p
}
