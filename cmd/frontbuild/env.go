// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/cabloy/frontbuild/internal/buildconf"
	"github.com/cabloy/frontbuild/internal/envload"
	"github.com/cabloy/frontbuild/internal/meta"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newEnvCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	lf := &lifecycleFlagValues{}
	var settings bool

	cmd := &cobra.Command{
		Use:   "env [-- host-args...]",
		Short: "Show the environment a build variant resolves to",
		Long: `Show the environment a build variant resolves to.

Dotenv layers are read from the env directory, most specific last, and the
META_* variables are added on top. With --settings the derived bundler
settings (public path, router, aliases) are printed as JSON instead.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.loadProject(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}

			m := meta.Resolve(lf.hostArgs(args), lf.buildContext())
			loaded, err := envload.Load(m, p.cfg.Paths.EnvDirPath(p.root), envload.DefaultPrefix)
			if err != nil {
				return app.fail(cmd, err, p.verbose)
			}

			if !settings {
				for _, key := range loaded.Env.Keys() {
					fmt.Fprintf(app.stdout, "%s=%s\n", key, loaded.Env[key])
				}
				return nil
			}

			s, err := buildconf.Extend(loaded.Env, buildconf.Settings{
				PublicPath: p.cfg.Build.PublicPath,
				RouterMode: p.cfg.Build.RouterMode,
				RouterBase: p.cfg.Build.RouterBase,
				Alias:      p.cfg.Build.Alias,
			})
			if err != nil {
				return app.fail(cmd, err, p.verbose)
			}
			data, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return app.fail(cmd, err, p.verbose)
			}
			fmt.Fprintln(app.stdout, string(data))
			return nil
		},
	}

	lf.register(cmd, false)
	cmd.Flags().BoolVar(&settings, "settings", false, "print the derived bundler settings as JSON")
	return cmd
}
