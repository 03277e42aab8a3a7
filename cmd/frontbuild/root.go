// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the frontbuild command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	verbose    bool
	configPath string
	projectDir string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "frontbuild",
		Short: "Resolve front-end build configuration",
		Long: TitleStyle.Render("frontbuild") + SubtitleStyle.Render(" - front-end build configuration resolver") + `

frontbuild evaluates the layered CUE fragments under src/front/config,
merges them with the build meta and environment, and writes the result
to .quasar/cabloy/config.js before the bundler starts. It also writes the
front-end module manifest and classifies module ids into vendor chunks.

` + SubtitleStyle.Render("Examples:") + `
  frontbuild dev --flavor web       Resolve the config for a dev server
  frontbuild build --flavor app     Resolve the config for a production build
  frontbuild chunk node_modules/vue/index.js
  frontbuild config show            Show the tool configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "tool config file (default is <project>/frontbuild.cue)")
	rootCmd.PersistentFlags().StringVarP(&flags.projectDir, "project", "C", "", "project root (default is the working directory)")

	rootCmd.AddCommand(
		newLifecycleCommand(app, flags, lifecycleDev),
		newLifecycleCommand(app, flags, lifecycleBuild),
		newChunkCommand(app, flags),
		newEnvCommand(app, flags),
		newModulesCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}
