// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cabloy/frontbuild/internal/config"
	"github.com/cabloy/frontbuild/internal/issue"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and writes through its streams.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// project is the resolved context of one command invocation.
	project struct {
		root    string
		cfg     *config.Config
		cfgPath string
		verbose bool
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadProject resolves the project root, loads the tool configuration and
// installs the process logger.
func (a *App) loadProject(ctx context.Context, flags *rootFlagValues) (*project, error) {
	root := flags.projectDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	loaded, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, ProjectRoot: root})
	if err != nil {
		return nil, err
	}

	p := &project{
		root:    root,
		cfg:     loaded.Config,
		cfgPath: loaded.Path,
		verbose: flags.verbose || loaded.UI.Verbose,
	}
	slog.SetDefault(newLogger(a.stderr, p.verbose))
	return p, nil
}

// newLogger returns a slog logger backed by charmbracelet/log.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: config.AppName,
	})
	return slog.New(handler)
}

// fail prints err with its catalog remediation and converts it into an ExitError so
// fang does not print it a second time.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	if err == nil {
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprintln(a.stderr, ErrorStyle.Render(errorIcon+" ")+formatErrorForDisplay(err, verbose))

	if id, ok := issue.CatalogID(err); ok {
		if known := issue.Get(id); known != nil {
			if rendered, renderErr := known.Render("dark"); renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}
	return &ExitError{Code: 1, Err: err}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own layout; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
