// SPDX-License-Identifier: MPL-2.0

package fragment

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cabloy/frontbuild/internal/meta"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

type failingEngine struct {
	partial string
	err     error
}

func (e failingEngine) Compile(_ context.Context, _ string, _ Invocation, w io.Writer) error {
	if e.partial != "" {
		if _, err := io.WriteString(w, e.partial); err != nil {
			return err
		}
	}
	return e.err
}

// panickingEngine panics mid-compile, recording the writer it was given.
type panickingEngine struct {
	seen *io.Writer
}

func (e panickingEngine) Compile(_ context.Context, _ string, _ Invocation, w io.Writer) error {
	if e.seen != nil {
		*e.seen = w
	}
	panic("factory exploded")
}

func testInvocation(root string) Invocation {
	return Invocation{
		Context: Context{
			Meta: meta.BuildMeta{Flavor: "web", Mode: meta.ModeDevelopment, AppMode: ""},
			Env:  map[string]string{"APP_TITLE": "Cabloy"},
		},
		Build: BuildInfo{ProjectRoot: root, Command: "dev"},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertNoArtifacts(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "fragment-*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("fragment artifacts left behind: %v", matches)
	}
}

func TestCompilerLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tmp := t.TempDir()
	entry := filepath.Join(root, "config.web.cue")
	writeFile(t, entry, `package config

app: {
	title:  context.env.APP_TITLE
	flavor: context.meta.flavor
	dev:    context.meta.mode == "development"
	port:   9000
}
build: command: buildInfo.command
`)

	c := NewCompiler(WithTempDir(tmp))
	got, err := c.Load(t.Context(), entry, testInvocation(root))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := Fragment{
		"app": map[string]any{
			"title":  "Cabloy",
			"flavor": "web",
			"dev":    true,
			"port":   json.Number("9000"),
		},
		"build": map[string]any{"command": "dev"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assertNoArtifacts(t, tmp)
}

func TestCompilerLoadEmptyFragment(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tmp := t.TempDir()
	entry := filepath.Join(root, "config.default.cue")
	writeFile(t, entry, "package config\n")

	got, err := NewCompiler(WithTempDir(tmp)).Load(t.Context(), entry, testInvocation(root))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %v, want empty fragment", got)
	}
	assertNoArtifacts(t, tmp)
}

func TestCompilerLoadEngineFailureRemovesArtifact(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	cause := errors.New("factory failed")
	c := NewCompiler(WithTempDir(tmp), WithEngine(failingEngine{partial: `{"half":`, err: cause}))

	_, err := c.Load(t.Context(), "config.web.cue", Invocation{})
	if err == nil {
		t.Fatal("Load() expected error")
	}
	if !errors.Is(err, ErrCompile) {
		t.Errorf("errors.Is(err, ErrCompile) = false for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false for %v", err)
	}
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Entry != "config.web.cue" {
		t.Errorf("errors.As(*CompileError) entry = %v", ce)
	}
	assertNoArtifacts(t, tmp)
}

func TestCompilerLoadPanicRemovesArtifact(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	c := NewCompiler(WithTempDir(tmp), WithEngine(panickingEngine{}))

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Load() expected panic to propagate")
			}
		}()
		_, _ = c.Load(t.Context(), "config.web.cue", Invocation{})
	}()
	assertNoArtifacts(t, tmp)
}

func TestCompilerLoadPanicClosesArtifact(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	var seen io.Writer
	c := NewCompiler(WithTempDir(tmp), WithEngine(panickingEngine{seen: &seen}))

	func() {
		defer func() { _ = recover() }()
		_, _ = c.Load(t.Context(), "config.web.cue", Invocation{})
	}()

	f, ok := seen.(*os.File)
	if !ok {
		t.Fatalf("engine writer is %T, want *os.File", seen)
	}
	if _, err := f.Write([]byte("{}")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Write() after panic error = %v, want os.ErrClosed", err)
	}
	assertNoArtifacts(t, tmp)
}

func TestCompilerLoadMalformedArtifact(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	c := NewCompiler(WithTempDir(tmp), WithEngine(failingEngine{partial: `not json`}))

	if _, err := c.Load(t.Context(), "config.web.cue", Invocation{}); !errors.Is(err, ErrCompile) {
		t.Errorf("Load() error = %v, want ErrCompile", err)
	}
	assertNoArtifacts(t, tmp)
}

func TestCUEEngineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: "package config\n\napp: {\n",
			wantErr: "config.web.cue",
		},
		{
			name:    "conflicting values",
			content: "package config\n\napp: port: 1\napp: port: 2\n",
			wantErr: "app.port",
		},
		{
			name:    "incomplete value",
			content: "package config\n\napp: port: int\n",
			wantErr: "app.port",
		},
		{
			name:    "unknown env key",
			content: "package config\n\napp: secret: context.env.MISSING\n",
			wantErr: "config.web.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			tmp := t.TempDir()
			entry := filepath.Join(root, "config.web.cue")
			writeFile(t, entry, tt.content)

			_, err := NewCompiler(WithTempDir(tmp)).Load(t.Context(), entry, testInvocation(root))
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !errors.Is(err, ErrCompile) {
				t.Errorf("errors.Is(err, ErrCompile) = false for %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			assertNoArtifacts(t, tmp)
		})
	}
}

func TestCUEEngineCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	tmp := t.TempDir()
	_, err := NewCompiler(WithTempDir(tmp)).Load(ctx, "config.web.cue", Invocation{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
	assertNoArtifacts(t, tmp)
}

func TestCUEEngineFileTooLarge(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := filepath.Join(root, "config.web.cue")
	writeFile(t, entry, "package config\n\napp: title: \"a long enough title\"\n")

	c := NewCompiler(WithTempDir(t.TempDir()), WithEngine(&CUEEngine{MaxFileSize: 8}))
	_, err := c.Load(t.Context(), entry, testInvocation(root))
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("Load() error = %v, want size error", err)
	}
}

func TestCompilerLoadIsolation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := filepath.Join(root, "config.web.cue")
	writeFile(t, entry, "package config\n\nflavor: context.meta.flavor\n")

	c := NewCompiler(WithTempDir(t.TempDir()))

	web := testInvocation(root)
	mobile := testInvocation(root)
	mobile.Context.Meta.Flavor = "mobile"

	first, err := c.Load(t.Context(), entry, web)
	if err != nil {
		t.Fatalf("Load(web) error: %v", err)
	}
	second, err := c.Load(t.Context(), entry, mobile)
	if err != nil {
		t.Fatalf("Load(mobile) error: %v", err)
	}
	if first["flavor"] != "web" || second["flavor"] != "mobile" {
		t.Errorf("flavors = %v, %v; want web, mobile", first["flavor"], second["flavor"])
	}
}

func TestCUEEngineWithoutPackageClause(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := filepath.Join(root, "config.default.cue")
	writeFile(t, entry, "title: context.env.APP_TITLE\ncommand: buildInfo.command\n")

	got, err := NewCompiler(WithTempDir(t.TempDir())).Load(t.Context(), entry, testInvocation(root))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Fragment{"title": "Cabloy", "command": "dev"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(root, injectedFile)); !os.IsNotExist(err) {
		t.Errorf("%s exists on disk, want overlay only (stat err = %v)", injectedFile, err)
	}
}

// writeCUEModule lays out a CUE module at root whose "shared" package holds
// greeting, and returns the path of a fragment importing it.
func writeCUEModule(t *testing.T, root, greeting string) string {
	t.Helper()
	writeFile(t, filepath.Join(root, "cue.mod", "module.cue"),
		"module: \"example.com/app@v0\"\nlanguage: version: \"v0.15.0\"\n")
	writeFile(t, filepath.Join(root, "shared", "shared.cue"),
		"package shared\n\ngreeting: \""+greeting+"\"\n")

	entry := filepath.Join(root, "src", "front", "config", "config.web.cue")
	writeFile(t, entry, `package config

import "example.com/app/shared"

greeting: shared.greeting
flavor:   context.meta.flavor
`)
	return entry
}

func TestCompilerLoadLocalImport(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entry := writeCUEModule(t, root, "hello")
	tmp := t.TempDir()

	got, err := NewCompiler(WithTempDir(tmp)).Load(t.Context(), entry, testInvocation(root))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Fragment{"greeting": "hello", "flavor": "web"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assertNoArtifacts(t, tmp)
}

func TestCompilerLoadSameNamedLocalPackages(t *testing.T) {
	t.Parallel()

	rootA := t.TempDir()
	rootB := t.TempDir()
	entryA := writeCUEModule(t, rootA, "from a")
	entryB := writeCUEModule(t, rootB, "from b")

	tmp := t.TempDir()
	c := NewCompiler(WithTempDir(tmp))

	for _, tc := range []struct {
		entry, root, want string
	}{
		{entryA, rootA, "from a"},
		{entryB, rootB, "from b"},
		{entryA, rootA, "from a"},
	} {
		got, err := c.Load(t.Context(), tc.entry, testInvocation(tc.root))
		if err != nil {
			t.Fatalf("Load(%s) error: %v", tc.entry, err)
		}
		if got["greeting"] != tc.want {
			t.Errorf("Load(%s) greeting = %v, want %q", tc.entry, got["greeting"], tc.want)
		}
	}
	assertNoArtifacts(t, tmp)
}
