// SPDX-License-Identifier: MPL-2.0

package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cabloy/frontbuild/internal/meta"

	"github.com/goccy/go-json"
)

const (
	// ContextField is the fragment field that receives the invocation context.
	ContextField = "context"
	// BuildInfoField is the fragment field that receives the build info.
	BuildInfoField = "buildInfo"

	artifactPattern = "fragment-*.json"
)

// ErrCompile is the sentinel wrapped by CompileError.
var ErrCompile = errors.New("config fragment compile failed")

type (
	// Fragment is one unit of configuration produced by a fragment file.
	Fragment = map[string]any

	// Context is what a fragment sees under the `context` field.
	Context struct {
		Meta meta.BuildMeta
		Env  map[string]string
	}

	// BuildInfo is what a fragment sees under the `buildInfo` field.
	BuildInfo struct {
		ProjectRoot string
		// Command is "dev" or "build".
		Command string
		// Entry is the fragment file being evaluated.
		Entry string
	}

	// Invocation is the argument pair handed to a fragment factory.
	Invocation struct {
		Context Context
		Build   BuildInfo
	}

	// Engine compiles an entry file, invokes it with inv and writes the
	// resulting fragment as JSON to w.
	Engine interface {
		Compile(ctx context.Context, entry string, inv Invocation, w io.Writer) error
	}

	// CompileError reports a fragment that failed to compile, evaluate or load.
	CompileError struct {
		Entry string
		Err   error
	}

	// Compiler turns fragment files into Fragments.
	Compiler struct {
		engine  Engine
		tempDir string
	}

	// Option configures a Compiler.
	Option func(*Compiler)
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile config fragment %s: %v", e.Entry, e.Err)
}

// Unwrap exposes both ErrCompile and the underlying cause.
func (e *CompileError) Unwrap() []error {
	return []error{ErrCompile, e.Err}
}

// WithEngine replaces the default CUE engine.
func WithEngine(engine Engine) Option {
	return func(c *Compiler) {
		c.engine = engine
	}
}

// WithTempDir sets where compiled artifacts are staged. The default is
// os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *Compiler) {
		c.tempDir = dir
	}
}

// NewCompiler creates a Compiler backed by the CUE engine unless overridden.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{engine: &CUEEngine{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Map returns the context as the plain mapping injected into fragments.
func (c Context) Map() map[string]any {
	env := make(map[string]any, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}
	return map[string]any{
		"meta": c.Meta.Map(),
		"env":  env,
	}
}

// Map returns the build info as the plain mapping injected into fragments.
func (b BuildInfo) Map() map[string]any {
	return map[string]any{
		"projectRoot": b.ProjectRoot,
		"command":     b.Command,
		"entry":       b.Entry,
	}
}

// Load compiles entry into a distinct temporary artifact, loads the artifact
// and returns the fragment it holds. The artifact is removed before Load
// returns, on every path. Errors are returned as *CompileError and are never
// retried.
func (c *Compiler) Load(ctx context.Context, entry string, inv Invocation) (Fragment, error) {
	f, err := os.CreateTemp(c.tempDir, artifactPattern)
	if err != nil {
		return nil, fmt.Errorf("create fragment artifact: %w", err)
	}
	artifact := f.Name()
	defer removeArtifact(artifact)
	closed := false
	defer func() {
		if !closed {
			_ = f.Close()
		}
	}()

	slog.Debug("compiling config fragment", "entry", entry, "artifact", artifact)

	compileErr := c.engine.Compile(ctx, entry, inv, f)
	closeErr := f.Close()
	closed = true
	if compileErr != nil {
		return nil, &CompileError{Entry: entry, Err: compileErr}
	}
	if closeErr != nil {
		return nil, &CompileError{Entry: entry, Err: closeErr}
	}

	frag, err := loadArtifact(artifact)
	if err != nil {
		return nil, &CompileError{Entry: entry, Err: err}
	}
	return frag, nil
}

// loadArtifact decodes a compiled fragment. Numbers keep their literal form.
func loadArtifact(path string) (Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fragment artifact: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var frag Fragment
	if err := dec.Decode(&frag); err != nil {
		return nil, fmt.Errorf("load fragment artifact: %w", err)
	}
	if frag == nil {
		frag = Fragment{}
	}
	return frag, nil
}

func removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove fragment artifact", "path", path, "error", err)
	}
}
