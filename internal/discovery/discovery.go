// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/cabloy/frontbuild/internal/dag"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const (
	// SourceModule is src/module/<name>.
	SourceModule Source = iota
	// SourceSuite is src/suite/<suite>/modules/<name>.
	SourceSuite
	// SourceModuleVendor is src/module-vendor/<name>.
	SourceModuleVendor
	// SourceSuiteVendor is src/suite-vendor/<suite>/modules/<name>.
	SourceSuiteVendor
	// SourcePackage is node_modules/cabloy-module-front-<name>.
	SourcePackage

	// PackagePrefix is the npm name prefix of published front-end modules.
	PackagePrefix = "cabloy-module-front-"

	manifestName = "package.json"
)

// ErrNoProjectRoot is returned when a Request has no project root.
var ErrNoProjectRoot = errors.New("project root is required")

type (
	// Source tells where a module was found. Lower values take precedence.
	Source int

	// Module describes one discovered front-end module.
	Module struct {
		// Name is the module name, e.g. "a-base".
		Name string `json:"name"`
		// PackageName is the "name" of package.json, if set.
		PackageName string `json:"packageName,omitempty"`
		Version     string `json:"version,omitempty"`
		// Root is the absolute module directory.
		Root string `json:"root"`
		// RelRoot is Root relative to the project root, slash-separated.
		RelRoot string `json:"relRoot"`
		// Suite is the owning suite, empty outside suites.
		Suite  string `json:"suite,omitempty"`
		Source Source `json:"source"`
		// Dependencies lists module names from cabloyModule.dependencies.
		Dependencies []string `json:"dependencies,omitempty"`
	}

	// Request selects the project and the disabled modules and suites.
	Request struct {
		ProjectRoot     string
		DisabledModules []string
		DisabledSuites  []string
	}

	// Result holds the ordered modules and everything worth reporting.
	Result struct {
		Modules     []*Module
		Diagnostics []Diagnostic
	}

	// Discovery scans a project for modules.
	Discovery struct {
		concurrency int
	}

	// Option configures a Discovery.
	Option func(*Discovery)

	sourcePattern struct {
		source Source
		glob   string
	}

	// candidate is a manifest found on disk, before it is read.
	candidate struct {
		source   Source
		relPath  string
		name     string
		suite    string
		manifest *manifest
		err      error
	}

	manifest struct {
		Name         string `json:"name"`
		Version      string `json:"version"`
		CabloyModule struct {
			Dependencies map[string]any `json:"dependencies"`
		} `json:"cabloyModule"`
	}
)

var sourcePatterns = []sourcePattern{
	{SourceModule, "src/module/*/" + manifestName},
	{SourceSuite, "src/suite/*/modules/*/" + manifestName},
	{SourceModuleVendor, "src/module-vendor/*/" + manifestName},
	{SourceSuiteVendor, "src/suite-vendor/*/modules/*/" + manifestName},
	{SourcePackage, "node_modules/" + PackagePrefix + "*/" + manifestName},
}

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceModule:
		return "module"
	case SourceSuite:
		return "suite"
	case SourceModuleVendor:
		return "module-vendor"
	case SourceSuiteVendor:
		return "suite-vendor"
	case SourcePackage:
		return "package"
	default:
		return "unknown"
	}
}

// MarshalText encodes the source by name.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WithConcurrency bounds how many manifests are read at once.
func WithConcurrency(n int) Option {
	return func(d *Discovery) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New creates a Discovery.
func New(opts ...Option) *Discovery {
	d := &Discovery{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover scans req.ProjectRoot and returns the enabled modules in
// dependency order. A dependency cycle is an error wrapping dag.ErrCycle.
func (d *Discovery) Discover(ctx context.Context, req Request) (*Result, error) {
	if req.ProjectRoot == "" {
		return nil, ErrNoProjectRoot
	}
	root, err := filepath.Abs(req.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	candidates, err := scan(os.DirFS(root))
	if err != nil {
		return nil, err
	}

	disabledModules := toSet(req.DisabledModules)
	disabledSuites := toSet(req.DisabledSuites)
	candidates = slices.DeleteFunc(candidates, func(c *candidate) bool {
		if disabledModules[c.name] || (c.suite != "" && disabledSuites[c.suite]) {
			slog.Debug("module disabled", "module", c.name, "suite", c.suite)
			return true
		}
		return false
	})

	if err := d.readManifests(ctx, os.DirFS(root), candidates); err != nil {
		return nil, err
	}

	result := &Result{}
	byName := make(map[string]*Module, len(candidates))
	var modules []*Module
	for _, c := range candidates {
		if c.err != nil {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeManifestUnreadable,
				Message:  fmt.Sprintf("skipping module %q: unreadable %s", c.name, manifestName),
				Path:     filepath.Join(root, filepath.FromSlash(c.relPath)),
				Cause:    c.err,
			})
			continue
		}
		if first, ok := byName[c.name]; ok {
			result.Diagnostics = append(result.Diagnostics, warning(CodeDuplicateModule,
				filepath.Join(root, filepath.FromSlash(path.Dir(c.relPath))),
				"module %q already found in %s; ignoring the %s copy", c.name, first.RelRoot, c.source))
			continue
		}
		m := newModule(root, c)
		byName[m.Name] = m
		modules = append(modules, m)
	}

	ordered, diags, err := order(modules, byName)
	result.Diagnostics = append(result.Diagnostics, diags...)
	if err != nil {
		return result, err
	}
	result.Modules = ordered
	return result, nil
}

// scan lists manifest candidates in precedence order; within one source
// they are sorted by path.
func scan(fsys fs.FS) ([]*candidate, error) {
	var out []*candidate
	for _, sp := range sourcePatterns {
		matches, err := doublestar.Glob(fsys, sp.glob, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", sp.glob, err)
		}
		slices.Sort(matches)
		for _, rel := range matches {
			out = append(out, newCandidate(sp.source, rel))
		}
	}
	return out, nil
}

func newCandidate(source Source, relPath string) *candidate {
	dir := path.Dir(relPath)
	c := &candidate{source: source, relPath: relPath, name: path.Base(dir)}
	switch source {
	case SourceSuite, SourceSuiteVendor:
		// src/suite/<suite>/modules/<name>
		c.suite = path.Base(path.Dir(path.Dir(dir)))
	case SourcePackage:
		c.name = strings.TrimPrefix(c.name, PackagePrefix)
	}
	return c
}

// readManifests decodes every candidate's package.json concurrently. Each
// goroutine only writes its own candidate, so order is untouched.
func (d *Discovery) readManifests(ctx context.Context, fsys fs.FS, candidates []*candidate) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.manifest, c.err = readManifest(fsys, c.relPath)
			return nil
		})
	}
	return g.Wait()
}

func readManifest(fsys fs.FS, name string) (*manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &m, nil
}

func newModule(root string, c *candidate) *Module {
	relRoot := path.Dir(c.relPath)
	m := &Module{
		Name:        c.name,
		PackageName: c.manifest.Name,
		Version:     c.manifest.Version,
		Root:        filepath.Join(root, filepath.FromSlash(relRoot)),
		RelRoot:     relRoot,
		Suite:       c.suite,
		Source:      c.source,
	}
	for dep := range c.manifest.CabloyModule.Dependencies {
		m.Dependencies = append(m.Dependencies, strings.TrimPrefix(dep, PackagePrefix))
	}
	slices.Sort(m.Dependencies)
	return m
}

// order sorts modules so dependencies come first, keeping discovery order
// among independent modules.
func order(modules []*Module, byName map[string]*Module) ([]*Module, []Diagnostic, error) {
	g := dag.New()
	var diags []Diagnostic
	for _, m := range modules {
		g.AddNode(m.Name)
	}
	for _, m := range modules {
		for _, dep := range m.Dependencies {
			if _, ok := byName[dep]; !ok {
				diags = append(diags, warning(CodeMissingDependency, m.Root,
					"module %q depends on %q, which is missing or disabled", m.Name, dep))
				continue
			}
			g.AddEdge(dep, m.Name)
		}
	}

	names, err := g.TopologicalSort()
	if err != nil {
		return nil, diags, fmt.Errorf("order modules: %w", err)
	}
	out := make([]*Module, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, diags, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
