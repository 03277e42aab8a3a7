// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cabloy/frontbuild/internal/meta"
	"github.com/cabloy/frontbuild/internal/pipeline"
	"github.com/cabloy/frontbuild/internal/watch"

	"github.com/spf13/cobra"
)

type (
	// lifecycle describes one host build-tool hook exposed as a command.
	lifecycle struct {
		event       pipeline.Event
		short       string
		defaultProd bool
		canWatch    bool
	}

	lifecycleFlagValues struct {
		flavor   string
		prod     bool
		modeName string
		watch    bool
	}
)

var (
	lifecycleDev = lifecycle{
		event:    pipeline.EventBeforeDev,
		short:    "Resolve the build configuration before the dev server starts",
		canWatch: true,
	}
	lifecycleBuild = lifecycle{
		event:       pipeline.EventBeforeBuild,
		short:       "Resolve the build configuration before a production build",
		defaultProd: true,
	}
)

func newLifecycleCommand(app *App, rootFlags *rootFlagValues, lc lifecycle) *cobra.Command {
	lf := &lifecycleFlagValues{}

	cmd := &cobra.Command{
		Use:   lc.event.Command() + " [-- host-args...]",
		Short: lc.short,
		Long: lc.short + `.

Arguments after -- are the host build tool's own arguments; a --flavor among
them is honored when the flag is not given directly.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, app, rootFlags, lf, lc, args)
		},
	}

	lf.register(cmd, lc.defaultProd)
	if lc.canWatch {
		cmd.Flags().BoolVarP(&lf.watch, "watch", "w", false, "re-resolve when fragments, env files or manifests change")
	}
	return cmd
}

// register adds the flags that select the build variant.
func (lf *lifecycleFlagValues) register(cmd *cobra.Command, defaultProd bool) {
	cmd.Flags().StringVar(&lf.flavor, meta.FlavorFlag, "", "build flavor (default "+meta.DefaultFlavor+")")
	cmd.Flags().BoolVar(&lf.prod, "prod", defaultProd, "production mode")
	cmd.Flags().StringVar(&lf.modeName, "mode-name", "spa", "host app mode (spa, ssr, pwa, ...)")
}

// hostArgs returns the argument list the pipeline searches for --flavor.
func (lf *lifecycleFlagValues) hostArgs(args []string) []string {
	out := append([]string(nil), args...)
	if lf.flavor != "" {
		out = append(out, "--"+meta.FlavorFlag+"="+lf.flavor)
	}
	return out
}

func (lf *lifecycleFlagValues) buildContext() meta.BuildContext {
	return meta.BuildContext{Prod: lf.prod, ModeName: lf.modeName}
}

func runLifecycle(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, lf *lifecycleFlagValues, lc lifecycle, args []string) error {
	ctx := cmd.Context()

	p, err := app.loadProject(ctx, rootFlags)
	if err != nil {
		return app.fail(cmd, err, rootFlags.verbose)
	}

	pl, err := pipeline.New(pipeline.Options{
		ProjectRoot: p.root,
		Args:        lf.hostArgs(args),
		Config:      p.cfg,
	})
	if err != nil {
		return app.fail(cmd, err, p.verbose)
	}

	hooks := pipeline.NewHooks()
	pipeline.Register(hooks, pl, func(_ pipeline.Event, res *pipeline.Result) {
		app.printResult(p.root, res)
	})

	if err := hooks.Fire(ctx, lc.event, lf.buildContext()); err != nil {
		return app.fail(cmd, err, p.verbose)
	}

	if !lf.watch {
		return nil
	}
	return app.fail(cmd, runWatch(ctx, app, p, hooks, lc.event, lf.buildContext()), p.verbose)
}

// runWatch fires event again whenever a pipeline input changes, until ctx is
// canceled.
func runWatch(ctx context.Context, app *App, p *project, hooks *pipeline.Hooks, event pipeline.Event, bc meta.BuildContext) error {
	w, err := watch.New(watch.Config{
		BaseDir: p.root,
		Patterns: watch.ProjectPatterns(
			relTo(p.root, p.cfg.Paths.ConfigDirPath(p.root)),
			relTo(p.root, p.cfg.Paths.EnvDirPath(p.root)),
			relTo(p.root, p.cfg.Paths.SrcPath(p.root)),
		),
		Ignore:   []string{relTo(p.root, p.cfg.Paths.GeneratedDirPath(p.root)) + "/**"},
		Debounce: p.cfg.Watch.Debounce,
		OnChange: func(ctx context.Context, changed []string) error {
			slog.Info("inputs changed, resolving again", "files", len(changed))
			if err := hooks.Fire(ctx, event, bc); err != nil {
				fmt.Fprintln(app.stderr, ErrorStyle.Render(errorIcon+" ")+formatErrorForDisplay(err, p.verbose))
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	slog.Info("watching for changes", "root", p.root)
	return w.Run(ctx)
}

func (a *App) printResult(root string, res *pipeline.Result) {
	fragments := make([]string, 0, len(res.Fragments))
	for _, f := range res.Fragments {
		fragments = append(fragments, filepath.Base(f))
	}

	fmt.Fprintf(a.stdout, "%s config written to %s (flavor %s, mode %s)\n",
		SuccessStyle.Render(successIcon), relTo(root, res.ConfigPath), res.Meta.Flavor, res.Meta.Mode)
	fmt.Fprintf(a.stdout, "  %s %s\n", KeyStyle.Render("fragments:"), strings.Join(fragments, ", "))
	fmt.Fprintf(a.stdout, "%s modules meta written to %s (%d modules)\n",
		SuccessStyle.Render(successIcon), relTo(root, res.ModulesMetaPath), len(res.Modules))

	for _, d := range res.Diagnostics {
		fmt.Fprintf(a.stderr, "%s %s\n", WarningStyle.Render(warningIcon), d.String())
	}
}

// relTo returns path relative to root in slash form, or path unchanged when
// it lies elsewhere.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
