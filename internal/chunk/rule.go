// SPDX-License-Identifier: MPL-2.0

package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyOutput is returned for a rule without an output chunk name.
var ErrEmptyOutput = errors.New("chunk rule has no output")

// Rule sends ids matched by any of Match to the Output chunk.
type Rule struct {
	Match  []Matcher
	Output string
}

// Matches reports whether any matcher accepts id.
func (r Rule) Matches(id string) bool {
	for _, m := range r.Match {
		if m.Match(id) {
			return true
		}
	}
	return false
}

// String renders the rule as "output <- m1, m2".
func (r Rule) String() string {
	names := make([]string, len(r.Match))
	for i, m := range r.Match {
		names[i] = m.String()
	}
	return r.Output + " <- " + strings.Join(names, ", ")
}

// ParseRule builds a Rule from its configuration form.
func ParseRule(match []string, output string) (Rule, error) {
	if output == "" {
		return Rule{}, ErrEmptyOutput
	}
	rule := Rule{Output: output, Match: make([]Matcher, 0, len(match))}
	for _, s := range match {
		m, err := ParseMatcher(s)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: %w", output, err)
		}
		rule.Match = append(rule.Match, m)
	}
	return rule, nil
}

func literals(output string, names ...string) Rule {
	rule := Rule{Output: output, Match: make([]Matcher, 0, len(names))}
	for _, name := range names {
		rule.Match = append(rule.Match, Literal(name))
	}
	return rule
}

// DefaultRules returns the built-in vendor rules. A fresh slice is returned
// on every call.
func DefaultRules() []Rule {
	return []Rule{
		literals("vue", "vue", "@vue", "vue-router", "pinia", "@cabloy/vue-runtime-core"),
		literals("quasar", "quasar", "@quasar"),
		literals("cabloy", "@cabloy"),
		literals("axios", "axios"),
		literals("lodash", "lodash", "lodash-es"),
		literals("echarts", "echarts", "zrender"),
	}
}
