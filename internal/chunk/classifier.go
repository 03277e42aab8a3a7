// SPDX-License-Identifier: MPL-2.0

package chunk

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultChunk receives every id no rule claims.
	DefaultChunk = "vendor"

	defaultCacheSize = 4096
)

var (
	moduleLibs = []*regexp.Regexp{
		regexp.MustCompile(`src/module/([^/]*?)/`),
		regexp.MustCompile(`src/module-vendor/([^/]*?)/`),
		regexp.MustCompile(`src/suite/.*/modules/([^/]*?)/`),
		regexp.MustCompile(`src/suite-vendor/.*/modules/([^/]*?)/`),
		regexp.MustCompile(`node_modules/cabloy-module-front-([^/]*?)/`),
	}

	svgIconPattern = regexp.MustCompile(`assets/icons/groups/.*?\.svg`)
)

type (
	// Options configures a Classifier.
	Options struct {
		// Vendors are the project rules, tried before the defaults.
		Vendors []Rule
		// Debug logs every id that falls back to DefaultChunk.
		Debug bool
		// Logger defaults to slog.Default().
		Logger *slog.Logger
		// CacheSize bounds the memo of classified ids; zero picks a default.
		CacheSize int
	}

	// Classifier maps module ids to chunk names. It is safe for concurrent use.
	Classifier struct {
		rules  []Rule
		debug  bool
		logger *slog.Logger
		memo   *lru.Cache[string, string]
	}
)

// NewClassifier composes the rule table once: project vendors followed by
// DefaultRules.
func NewClassifier(opts Options) (*Classifier, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	memo, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create chunk cache: %w", err)
	}

	defaults := DefaultRules()
	rules := make([]Rule, 0, len(opts.Vendors)+len(defaults))
	rules = append(rules, opts.Vendors...)
	rules = append(rules, defaults...)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		rules:  rules,
		debug:  opts.Debug,
		logger: logger,
		memo:   memo,
	}, nil
}

// Rules returns a copy of the composed rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the chunk for id. Backslashes are treated as path
// separators.
func (c *Classifier) Classify(id string) string {
	id = strings.ReplaceAll(id, `\`, "/")
	if chunk, ok := c.memo.Get(id); ok {
		return chunk
	}
	chunk := c.classify(id)
	c.memo.Add(id, chunk)
	return chunk
}

func (c *Classifier) classify(id string) string {
	if name, ok := ModuleName(id); ok {
		return name
	}
	for _, rule := range c.rules {
		if rule.Matches(id) {
			return rule.Output
		}
	}
	if c.debug {
		c.logger.Info("chunk fallback", "id", id, "chunk", DefaultChunk)
	}
	return DefaultChunk
}

// ModuleName extracts the front-end module owning id, if any.
func ModuleName(id string) (string, bool) {
	for _, re := range moduleLibs {
		if m := re.FindStringSubmatch(id); m != nil {
			return m[1], m[1] != ""
		}
	}
	return "", false
}

// InlineLimit reports the asset inlining limit for path. Icon group SVGs are
// never inlined; ok is false when the bundler default should apply.
func InlineLimit(path string) (limit int, ok bool) {
	if svgIconPattern.MatchString(strings.ReplaceAll(path, `\`, "/")) {
		return 0, true
	}
	return 0, false
}
