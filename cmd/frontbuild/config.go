// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cabloy/frontbuild/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `frontbuild config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage frontbuild configuration",
		Long: `Manage frontbuild configuration.

The tool configuration lives in frontbuild.cue at the project root. Every
setting is optional; FRONTBUILD_* environment variables override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.loadProject(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			app.showConfig(p)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.loadProject(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(p.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration and artifact paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.loadProject(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			cfgFile := p.cfgPath
			if cfgFile == "" {
				cfgFile = "(none, using defaults)"
			}
			fmt.Fprintf(app.stdout, "Config file: %s\n", cfgFile)
			fmt.Fprintf(app.stdout, "Fragments: %s\n", p.cfg.Paths.ConfigDirPath(p.root))
			fmt.Fprintf(app.stdout, "Env files: %s\n", p.cfg.Paths.EnvDirPath(p.root))
			fmt.Fprintf(app.stdout, "Config artifact: %s\n", p.cfg.Paths.ConfigArtifactPath(p.root))
			fmt.Fprintf(app.stdout, "Modules meta: %s\n", p.cfg.Paths.ModulesMetaArtifactPath(p.root))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create frontbuild.cue with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.loadProject(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			path, created, err := config.CreateDefaultConfig(p.root)
			if err != nil {
				return app.fail(cmd, err, p.verbose)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render(warningIcon), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render(successIcon), path)
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(p *project) {
	cfg := p.cfg
	kv := func(indent, key string, value any) {
		fmt.Fprintf(a.stdout, "%s%s: %s\n", indent, KeyStyle.Render(key), ValueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if p.cfgPath != "" {
		kv("", "Config file", p.cfgPath)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", KeyStyle.Render("paths"))
	kv("  ", "src", cfg.Paths.Src)
	kv("  ", "config_dir", cfg.Paths.ConfigDir)
	kv("  ", "env_dir", cfg.Paths.EnvDir)
	kv("  ", "generated_dir", cfg.Paths.GeneratedDir)

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", KeyStyle.Render("manual_chunk"))
	kv("  ", "debug", cfg.ManualChunk.Debug)
	if len(cfg.ManualChunk.Vendors) == 0 {
		fmt.Fprintf(a.stdout, "  %s\n", SubtitleStyle.Render("(no project vendor rules)"))
	}
	for _, v := range cfg.ManualChunk.Vendors {
		fmt.Fprintf(a.stdout, "  - %s <- %s\n", chunkNameStyle.Render(v.Output), strings.Join(v.Match, ", "))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", KeyStyle.Render("build"))
	if cfg.Build.RouterMode != "" {
		kv("  ", "router_mode", cfg.Build.RouterMode)
	}
	if cfg.Build.PublicPath != "" {
		kv("  ", "public_path", cfg.Build.PublicPath)
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Build.Alias)) {
		kv("  ", "alias "+name, cfg.Build.Alias[name])
	}

	fmt.Fprintln(a.stdout)
	kv("", "watch.debounce", cfg.Watch.Debounce)
	kv("", "ui.verbose", cfg.UI.Verbose)
}
