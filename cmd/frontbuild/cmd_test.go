// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cabloy/frontbuild/internal/issue"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func TestHostArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		flavor string
		args   []string
		want   []string
	}{
		{"no flavor", "", []string{"--port", "9000"}, []string{"--port", "9000"}},
		{"flavor flag", "app", nil, []string{"--flavor=app"}},
		{"flag wins over host args", "app", []string{"--flavor", "web"}, []string{"--flavor", "web", "--flavor=app"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lf := &lifecycleFlagValues{flavor: tt.flavor}
			if diff := cmp.Diff(tt.want, lf.hostArgs(tt.args)); diff != "" {
				t.Errorf("hostArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelTo(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "project")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(root, ".quasar", "cabloy", "config.js"), ".quasar/cabloy/config.js"},
		{root, "."},
		{filepath.Join(filepath.Dir(root), "elsewhere"), filepath.ToSlash(filepath.Join(filepath.Dir(root), "elsewhere"))},
	}
	for _, tt := range tests {
		if got := relTo(root, tt.path); got != tt.want {
			t.Errorf("relTo(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFailRendersFatalIssue(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &stderr})
	cmd := &cobra.Command{}

	fatal := issue.NewFatal(issue.FlavorConfigMissingId, "src/front/config/config.ios.cue", "flavor %q config file not found", "ios")
	err := app.fail(cmd, fatal, false)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("fail() = %v, want ExitError with code 1", err)
	}
	if !issue.IsFatal(err) {
		t.Error("ExitError does not unwrap to the fatal error")
	}
	if !cmd.SilenceErrors || !cmd.SilenceUsage {
		t.Error("fail() did not silence cobra error output")
	}
	if !strings.Contains(stderr.String(), `flavor "ios" config file not found`) {
		t.Errorf("stderr = %q, want the fatal message", stderr.String())
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	ae := issue.NewErrorContext().
		WithOperation("load environment files").
		WithResource("env").
		WithSuggestion("Every non-comment line must have the form KEY=value").
		Wrap(errors.New("env/.env.local: bad line")).
		Build()

	got := formatErrorForDisplay(ae, false)
	if !strings.Contains(got, "failed to load environment files: env") || !strings.Contains(got, "KEY=value") {
		t.Errorf("formatErrorForDisplay() = %q", got)
	}
	if strings.Contains(got, "Caused by") {
		t.Error("non-verbose output includes the error chain")
	}
	if !strings.Contains(formatErrorForDisplay(ae, true), "Caused by") {
		t.Error("verbose output lacks the error chain")
	}
	if got := formatErrorForDisplay(errors.New("plain"), true); got != "plain" {
		t.Errorf("formatErrorForDisplay(plain) = %q", got)
	}
}

// TestCommandTxtarCoverage checks that every runnable leaf command is
// exercised by at least one script in testdata.
func TestCommandTxtarCoverage(t *testing.T) {
	t.Parallel()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file path")
	}
	scripts, err := filepath.Glob(filepath.Join(filepath.Dir(thisFile), "testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	var corpus strings.Builder
	for _, path := range scripts {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		corpus.Write(data)
	}

	root := NewRootCommand(NewApp(Dependencies{}))
	var leaves []string
	var walk func(c *cobra.Command, prefix string)
	walk = func(c *cobra.Command, prefix string) {
		for _, sub := range c.Commands() {
			if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
				continue
			}
			name := strings.TrimSpace(prefix + " " + sub.Name())
			if sub.HasSubCommands() {
				walk(sub, name)
				continue
			}
			leaves = append(leaves, name)
		}
	}
	walk(root, "")

	for _, leaf := range leaves {
		if !strings.Contains(corpus.String(), "exec frontbuild "+leaf) {
			t.Errorf("command %q has no testscript coverage", leaf)
		}
	}
}
