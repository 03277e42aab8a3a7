// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/cabloy/frontbuild/internal/discovery"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newModulesCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var (
		asJSON   bool
		disabled []string
	)

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List front-end modules in load order",
		Long: `List front-end modules in load order.

Modules are discovered under the source tree and in installed packages, then
ordered so that every module follows its dependencies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.loadProject(cmd.Context(), rootFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}

			res, err := discovery.New().Discover(cmd.Context(), discovery.Request{
				ProjectRoot:     p.root,
				DisabledModules: disabled,
			})
			if err != nil {
				return app.fail(cmd, err, p.verbose)
			}

			for _, d := range res.Diagnostics {
				fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render(warningIcon), d.String())
			}

			if asJSON {
				data, err := json.MarshalIndent(res.Modules, "", "  ")
				if err != nil {
					return app.fail(cmd, err, p.verbose)
				}
				fmt.Fprintln(app.stdout, string(data))
				return nil
			}

			if len(res.Modules) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no modules found)"))
				return nil
			}
			for i, m := range res.Modules {
				line := fmt.Sprintf("%3d. %s %s", i+1, KeyStyle.Render(m.Name), ValueStyle.Render("["+m.Source.String()+"]"))
				if len(m.Dependencies) > 0 {
					line += " -> " + strings.Join(m.Dependencies, ", ")
				}
				fmt.Fprintln(app.stdout, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print modules as JSON")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "module names to leave out")
	return cmd
}

