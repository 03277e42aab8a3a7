// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/cabloy/frontbuild/internal/chunk"
	"github.com/cabloy/frontbuild/internal/config"
	"github.com/cabloy/frontbuild/internal/issue"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var errNoModuleIDs = errors.New("no module ids given")

type (
	chunkFlagValues struct {
		stdin bool
		json  bool
	}

	// chunkResult is one classified id in --json output.
	chunkResult struct {
		ID          string `json:"id"`
		Chunk       string `json:"chunk"`
		Module      string `json:"module,omitempty"`
		InlineLimit *int   `json:"inlineLimit,omitempty"`
	}
)

func newChunkCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cf := &chunkFlagValues{}

	cmd := &cobra.Command{
		Use:   "chunk [module-id...]",
		Short: "Classify module ids into output chunks",
		Long: `Classify module ids into output chunks.

Project rules from manual_chunk.vendors in frontbuild.cue are tried first,
then the built-in vendor rules. Ids matching no rule land in the "` + chunk.DefaultChunk + `" chunk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd, app, rootFlags, cf, args)
		},
	}

	cmd.Flags().BoolVar(&cf.stdin, "stdin", false, "read additional ids from stdin, one per line")
	cmd.Flags().BoolVar(&cf.json, "json", false, "print results as JSON")
	return cmd
}

func runChunk(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, cf *chunkFlagValues, args []string) error {
	p, err := app.loadProject(cmd.Context(), rootFlags)
	if err != nil {
		return app.fail(cmd, err, rootFlags.verbose)
	}

	classifier, err := newClassifier(p)
	if err != nil {
		return app.fail(cmd, err, p.verbose)
	}

	if p.verbose {
		fmt.Fprintln(app.stderr, SubtitleStyle.Render("chunk rules, first match wins:"))
		for i, rule := range classifier.Rules() {
			fmt.Fprintf(app.stderr, "%3d. %s\n", i+1, rule)
		}
	}

	ids := append([]string(nil), args...)
	if cf.stdin {
		scanner := bufio.NewScanner(app.stdin)
		for scanner.Scan() {
			if id := strings.TrimSpace(scanner.Text()); id != "" {
				ids = append(ids, id)
			}
		}
		if err := scanner.Err(); err != nil {
			return app.fail(cmd, fmt.Errorf("read stdin: %w", err), p.verbose)
		}
	}
	if len(ids) == 0 {
		return app.fail(cmd, errNoModuleIDs, p.verbose)
	}

	results := make([]chunkResult, 0, len(ids))
	for _, id := range ids {
		res := chunkResult{ID: id, Chunk: classifier.Classify(id)}
		if name, ok := chunk.ModuleName(id); ok {
			res.Module = name
		}
		if limit, ok := chunk.InlineLimit(id); ok {
			res.InlineLimit = &limit
		}
		results = append(results, res)
	}

	if cf.json {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return app.fail(cmd, err, p.verbose)
		}
		fmt.Fprintln(app.stdout, string(data))
		return nil
	}

	for _, res := range results {
		fmt.Fprintf(app.stdout, "%s\t%s\n", chunkNameStyle.Render(res.Chunk), res.ID)
	}
	return nil
}

// newClassifier builds a classifier from the project's manual chunk rules.
func newClassifier(p *project) (*chunk.Classifier, error) {
	rules := make([]chunk.Rule, 0, len(p.cfg.ManualChunk.Vendors))
	for i, v := range p.cfg.ManualChunk.Vendors {
		rule, err := chunk.ParseRule(v.Match, v.Output)
		if err != nil {
			return nil, vendorRuleError(p, i, err)
		}
		rules = append(rules, rule)
	}
	return chunk.NewClassifier(chunk.Options{
		Vendors: rules,
		Debug:   p.cfg.ManualChunk.Debug,
	})
}

func vendorRuleError(p *project, index int, err error) error {
	resource := p.cfgPath
	if resource == "" {
		resource = config.ConfigFileName + "." + config.ConfigFileExt
	}
	return issue.NewErrorContext().
		WithOperation(fmt.Sprintf("parse manual_chunk.vendors[%d]", index)).
		WithResource(resource).
		WithSuggestion(`Prefix regular expressions with "re:" and globs with "glob:"`).
		Wrap(err).
		BuildError()
}
