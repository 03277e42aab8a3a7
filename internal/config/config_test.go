// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cabloy/frontbuild/internal/issue"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(t.Context(), LoadOptions{ProjectRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want defaults only", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProjectFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	want := writeConfig(t, root, `
paths: {
	env_dir: "config/env"
	generated_dir: ".generated"
}
manual_chunk: {
	debug: true
	vendors: [
		{match: ["echarts", "zrender"], output: "charts"},
		{match: ["re:node_modules/@tiptap/"], output: "editor"},
	]
}
build: {
	router_mode: "history"
	alias: "@": "./src"
}
watch: debounce: "1s"
`)

	cfg, path, err := loadWithOptions(t.Context(), LoadOptions{ProjectRoot: root})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	expected := DefaultConfig()
	expected.Paths.EnvDir = "config/env"
	expected.Paths.GeneratedDir = ".generated"
	expected.ManualChunk = ManualChunkConfig{
		Debug: true,
		Vendors: []VendorRule{
			{Match: []string{"echarts", "zrender"}, Output: "charts"},
			{Match: []string{"re:node_modules/@tiptap/"}, Output: "editor"},
		},
	}
	expected.Build = BuildConfig{RouterMode: "history", Alias: map[string]string{"@": "./src"}}
	expected.Watch.Debounce = time.Second

	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"wrong type", `ui: verbose: "yes"`, "ui.verbose"},
		{"bad router mode", `build: router_mode: "memory"`, "build.router_mode"},
		{"empty vendor match", `manual_chunk: vendors: [{match: [], output: "x"}]`, "manual_chunk.vendors"},
		{"bad debounce", `watch: debounce: "soon"`, "watch.debounce"},
		{"syntax error", `paths: {`, ConfigFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeConfig(t, root, tt.content)

			_, _, err := loadWithOptions(t.Context(), LoadOptions{ProjectRoot: root})
			if err == nil {
				t.Fatal("loadWithOptions() expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("error is %T, want *issue.ActionableError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte(`ui: verbose: true`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path, ProjectRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true from explicit file")
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}

	_, err = NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.cue")})
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `manual_chunk: debug: false`)

	t.Setenv("FRONTBUILD_MANUAL_CHUNK_DEBUG", "true")
	t.Setenv("FRONTBUILD_PATHS_GENERATED_DIR", "out")
	t.Setenv("FRONTBUILD_WATCH_DEBOUNCE", "2s")

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ProjectRoot: root})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.ManualChunk.Debug {
		t.Error("ManualChunk.Debug = false, want env override")
	}
	if cfg.Paths.GeneratedDir != "out" {
		t.Errorf("Paths.GeneratedDir = %q, want out", cfg.Paths.GeneratedDir)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch.Debounce = %v, want 2s", cfg.Watch.Debounce)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ManualChunk.Vendors = []VendorRule{{Match: []string{"vue", "glob:**/pinia/**"}, Output: "vue"}}
	cfg.Build = BuildConfig{PublicPath: "/static/", RouterBase: "/app", Alias: map[string]string{"@": "./src"}}
	cfg.UI.Verbose = true

	root := t.TempDir()
	writeConfig(t, root, GenerateCUE(cfg))

	got, _, err := loadWithOptions(t.Context(), LoadOptions{ProjectRoot: root})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path, created, err := CreateDefaultConfig(root)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if !created || path != filepath.Join(root, "frontbuild.cue") {
		t.Errorf("CreateDefaultConfig() = (%q, %v)", path, created)
	}

	_, created, err = CreateDefaultConfig(root)
	if err != nil || created {
		t.Errorf("second CreateDefaultConfig() = (created %v, err %v), want existing file kept", created, err)
	}
}

func TestPathsResolution(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/project")
	p := DefaultConfig().Paths

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config dir", p.ConfigDirPath(root), filepath.FromSlash("/project/src/front/config")},
		{"env dir", p.EnvDirPath(root), filepath.FromSlash("/project/env")},
		{"config artifact", p.ConfigArtifactPath(root), filepath.FromSlash("/project/.quasar/cabloy/config.js")},
		{"modules meta", p.ModulesMetaArtifactPath(root), filepath.FromSlash("/project/.quasar/cabloy/modules-meta.js")},
		{"no template", p.ModulesMetaTemplatePath(root), ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	abs := PathsConfig{EnvDir: filepath.FromSlash("/etc/app/env")}
	if got := abs.EnvDirPath(root); got != filepath.FromSlash("/etc/app/env") {
		t.Errorf("absolute EnvDirPath = %q", got)
	}
}
