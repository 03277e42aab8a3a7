// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cabloy/frontbuild/internal/buildconf"
	"github.com/cabloy/frontbuild/internal/config"
	"github.com/cabloy/frontbuild/internal/dag"
	"github.com/cabloy/frontbuild/internal/discovery"
	"github.com/cabloy/frontbuild/internal/envload"
	"github.com/cabloy/frontbuild/internal/fragment"
	"github.com/cabloy/frontbuild/internal/issue"
	"github.com/cabloy/frontbuild/internal/merge"
	"github.com/cabloy/frontbuild/internal/meta"
	"github.com/cabloy/frontbuild/internal/metafile"
	"github.com/cabloy/frontbuild/internal/persist"
)

const (
	fragmentPrefix = "config"
	fragmentExt    = ".cue"
	defaultName    = "default"
	metaKey        = "meta"
)

// ErrNoProjectRoot is returned by New without a project root.
var ErrNoProjectRoot = errors.New("pipeline: project root is required")

type (
	// Options configures a Pipeline. Nil collaborators get defaults.
	Options struct {
		ProjectRoot string
		// Args are the host CLI arguments, searched for --flavor.
		Args      []string
		Config    *config.Config
		Compiler  *fragment.Compiler
		Persister *persist.Persister
		Discovery *discovery.Discovery
		Renderer  *metafile.Renderer
	}

	// Pipeline resolves and writes the build configuration.
	Pipeline struct {
		root      string
		args      []string
		cfg       *config.Config
		compiler  *fragment.Compiler
		persister *persist.Persister
		discovery *discovery.Discovery
		renderer  *metafile.Renderer
	}

	// Result is everything a run produced.
	Result struct {
		Meta     meta.BuildMeta
		Env      envload.Env
		EnvFiles []string
		// Fragments are the compiled entries in merge order.
		Fragments       []string
		Config          map[string]any
		ConfigPath      string
		Modules         []*discovery.Module
		Diagnostics     []discovery.Diagnostic
		ModulesMetaPath string
		Settings        buildconf.Settings
	}

	// Entry is a fragment file of a run.
	Entry struct {
		Path     string
		Required bool
		// Issue is reported when a required entry is missing.
		Issue issue.Id
	}
)

// New creates a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.ProjectRoot == "" {
		return nil, ErrNoProjectRoot
	}
	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	p := &Pipeline{
		root:      root,
		args:      opts.Args,
		cfg:       opts.Config,
		compiler:  opts.Compiler,
		persister: opts.Persister,
		discovery: opts.Discovery,
		renderer:  opts.Renderer,
	}
	if p.cfg == nil {
		p.cfg = config.DefaultConfig()
	}
	if p.compiler == nil {
		p.compiler = fragment.NewCompiler()
	}
	if p.persister == nil {
		p.persister = persist.New(nil)
	}
	if p.discovery == nil {
		p.discovery = discovery.New()
	}
	if p.renderer == nil {
		var rOpts []metafile.Option
		if tmpl := p.cfg.Paths.ModulesMetaTemplatePath(root); tmpl != "" {
			rOpts = append(rOpts, metafile.WithTemplateFile(tmpl))
		}
		if p.renderer, err = metafile.New(rOpts...); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ProjectRoot returns the absolute project root.
func (p *Pipeline) ProjectRoot() string {
	return p.root
}

// Register wires p to both lifecycle events of hooks. report, when not nil,
// receives the result of every successful run.
func Register(hooks *Hooks, p *Pipeline, report func(Event, *Result)) {
	for _, event := range []Event{EventBeforeDev, EventBeforeBuild} {
		hooks.On(event, func(ctx context.Context, bc meta.BuildContext) error {
			res, err := p.Run(ctx, event.Command(), bc)
			if err != nil {
				return err
			}
			if report != nil {
				report(event, res)
			}
			return nil
		})
	}
}

// Entries returns the fragment files for m in merge order. The default and
// flavor fragments are required; config.<flavor>.<mode>.cue is optional.
func (p *Pipeline) Entries(m meta.BuildMeta) []Entry {
	dir := p.cfg.Paths.ConfigDirPath(p.root)
	return []Entry{
		{Path: filepath.Join(dir, fragmentPrefix+"."+defaultName+fragmentExt), Required: true, Issue: issue.ConfigDirMissingId},
		{Path: filepath.Join(dir, fragmentPrefix+"."+m.Flavor+fragmentExt), Required: true, Issue: issue.FlavorConfigMissingId},
		{Path: filepath.Join(dir, fragmentPrefix+"."+m.Flavor+"."+string(m.Mode)+fragmentExt)},
	}
}

// Run executes the pipeline for command ("dev" or "build").
func (p *Pipeline) Run(ctx context.Context, command string, bc meta.BuildContext) (*Result, error) {
	m := meta.Resolve(p.args, bc)
	res := &Result{Meta: m}
	slog.Debug("resolved build meta", "flavor", m.Flavor, "mode", m.Mode, "appMode", m.AppMode)

	loaded, err := envload.Load(m, p.cfg.Paths.EnvDirPath(p.root), envload.DefaultPrefix)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load environment files").
			WithResource(p.cfg.Paths.EnvDirPath(p.root)).
			WithSuggestion("Every non-comment line must have the form KEY=value").
			WithIssue(issue.EnvLoadFailedId).
			Wrap(err).
			BuildError()
	}
	res.Env, res.EnvFiles = loaded.Env, loaded.Files

	entries, err := p.checkEntries(m)
	if err != nil {
		return nil, err
	}

	inv := fragment.Invocation{
		Context: fragment.Context{Meta: m, Env: loaded.Env},
		Build:   fragment.BuildInfo{ProjectRoot: p.root, Command: command},
	}
	merged := map[string]any{metaKey: m.Map()}
	for _, entry := range entries {
		inv.Build.Entry = entry
		frag, err := p.compiler.Load(ctx, entry, inv)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("compile config fragment").
				WithResource(entry).
				WithSuggestion("Run 'cue vet' on the fragment to see every error").
				WithIssue(issue.FragmentCompileFailedId).
				Wrap(err).
				BuildError()
		}
		merged = merge.Fold(merged, frag)
		res.Fragments = append(res.Fragments, entry)
	}

	res.ConfigPath = p.cfg.Paths.ConfigArtifactPath(p.root)
	if res.Config, err = p.persister.WriteConfig(res.ConfigPath, merged); err != nil {
		return nil, writeError(res.ConfigPath, err)
	}
	slog.Debug("wrote config artifact", "path", res.ConfigPath, "fragments", len(res.Fragments))

	if err := p.writeModulesMeta(ctx, res); err != nil {
		return nil, err
	}

	res.Settings, err = buildconf.Extend(res.Env, buildconf.Settings{
		PublicPath: p.cfg.Build.PublicPath,
		RouterMode: p.cfg.Build.RouterMode,
		RouterBase: p.cfg.Build.RouterBase,
		Alias:      p.cfg.Build.Alias,
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkEntries returns the fragment files to compile, or a FatalError when a
// required one is missing.
func (p *Pipeline) checkEntries(m meta.BuildMeta) ([]string, error) {
	dir := p.cfg.Paths.ConfigDirPath(p.root)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, issue.NewFatal(issue.ConfigDirMissingId, dir, "front-end config directory not found")
	}

	var out []string
	for _, e := range p.Entries(m) {
		_, err := os.Stat(e.Path)
		switch {
		case err == nil:
			out = append(out, e.Path)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, &issue.FatalError{IssueID: e.Issue, Message: "cannot access config fragment", Path: e.Path, Cause: err}
		case e.Required && e.Issue == issue.FlavorConfigMissingId:
			return nil, issue.NewFatal(e.Issue, e.Path, "flavor %q config file not found", m.Flavor)
		case e.Required:
			return nil, issue.NewFatal(e.Issue, e.Path, "default config file not found")
		}
	}
	return out, nil
}

func (p *Pipeline) writeModulesMeta(ctx context.Context, res *Result) error {
	req, err := discovery.RequestFromConfig(p.root, res.Config)
	if err != nil {
		return fmt.Errorf("read disabled modules: %w", err)
	}

	found, err := p.discovery.Discover(ctx, req)
	if found != nil {
		res.Diagnostics = found.Diagnostics
	}
	if err != nil {
		if errors.Is(err, dag.ErrCycle) {
			return issue.NewErrorContext().
				WithOperation("order front-end modules").
				WithResource(p.root).
				WithSuggestion("Remove one of the dependencies listed in the cycle").
				WithIssue(issue.ModuleDependencyCycleId).
				Wrap(err).
				BuildError()
		}
		return fmt.Errorf("discover modules: %w", err)
	}
	res.Modules = found.Modules

	outPath := p.cfg.Paths.ModulesMetaArtifactPath(p.root)
	data, err := p.renderer.RenderBytes(filepath.Dir(outPath), res.Modules)
	if err != nil {
		return err
	}
	if err := p.persister.WriteFile(outPath, data); err != nil {
		return writeError(outPath, err)
	}
	res.ModulesMetaPath = outPath
	slog.Debug("wrote modules meta", "path", outPath, "modules", len(res.Modules))
	return nil
}

func writeError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write generated file").
		WithResource(path).
		WithSuggestion("Check the permissions of the generated directory").
		WithIssue(issue.ArtifactWriteFailedId).
		Wrap(err).
		BuildError()
}
