// SPDX-License-Identifier: MPL-2.0

package chunk

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func mustRule(t *testing.T, output string, match ...string) Rule {
	t.Helper()
	r, err := ParseRule(match, output)
	if err != nil {
		t.Fatalf("ParseRule(%v, %q) error: %v", match, output, err)
	}
	return r
}

func newClassifier(t *testing.T, opts Options) *Classifier {
	t.Helper()
	c, err := NewClassifier(opts)
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}
	return c
}

func TestClassify(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, Options{
		Vendors: []Rule{
			mustRule(t, "charts", "re:node_modules/(echarts|zrender)/"),
			mustRule(t, "editor", "glob:**/node_modules/@tiptap/**"),
			mustRule(t, "markdown", "markdown-it"),
			mustRule(t, "vue-router", "vue-router"),
		},
	})

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"local module", "/proj/src/module/a-base/front/src/main.js", "a-base"},
		{"module vendor", "/proj/src/module-vendor/test-party/front/index.js", "test-party"},
		{"suite module", "/proj/src/suite/a-demo/modules/demo-card/front/src/x.vue", "demo-card"},
		{"suite vendor module", "/proj/src/suite-vendor/cms/modules/cms-sitecommunity/front/y.js", "cms-sitecommunity"},
		{"npm module package", "/proj/node_modules/cabloy-module-front-a-login/dist/index.js", "a-login"},
		{"module pattern wins over vendor rule", "/proj/src/module/vue/front/src/main.js", "vue"},
		{"windows separators", `C:\proj\src\module\a-base\front\src\main.js`, "a-base"},
		{"project regexp rule beats default", "/proj/node_modules/echarts/lib/echarts.js", "charts"},
		{"project glob rule", "/proj/node_modules/@tiptap/core/dist/index.js", "editor"},
		{"project literal rule", "/proj/node_modules/markdown-it/index.js", "markdown"},
		{"default vue rule", "/proj/node_modules/vue/dist/vue.runtime.esm-bundler.js", "vue"},
		{"default scoped vue rule", "/proj/node_modules/@vue/runtime-core/dist/runtime-core.js", "vue"},
		{"relative local module", "src/module/reports/index.ts", "reports"},
		{"project rule claims vue-router", "node_modules/vue-router/dist/index.mjs", "vue-router"},
		{"default quasar rule", "/proj/node_modules/quasar/src/components/btn/QBtn.js", "quasar"},
		{"pnpm layout", "/proj/node_modules/.pnpm/axios@1.7.0/node_modules/axios/index.js", "axios"},
		{"unlisted package", "node_modules/some-unlisted-pkg/index.js", DefaultChunk},
		{"virtual id", "\x00vite/preload-helper", DefaultChunk},
		{"empty id", "", DefaultChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := c.Classify(tt.id); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, Options{
		Vendors: []Rule{
			mustRule(t, "first", "shared-lib"),
			mustRule(t, "second", "shared-lib"),
			mustRule(t, "own-vue", "vue"),
		},
	})

	if got := c.Classify("/node_modules/shared-lib/index.js"); got != "first" {
		t.Errorf("Classify() = %q, want first matching rule", got)
	}
	if got := c.Classify("/node_modules/vue/index.js"); got != "own-vue" {
		t.Errorf("Classify() = %q, project rule should precede defaults", got)
	}

	defaults := newClassifier(t, Options{})
	if got := defaults.Classify("/proj/node_modules/vue-router/dist/vue-router.mjs"); got != "vue" {
		t.Errorf("Classify() = %q, want vue from the default rules", got)
	}
}

func TestClassifyIsPure(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, Options{CacheSize: 2})
	ids := []string{
		"/node_modules/vue/index.js",
		"/src/module/a-base/front/x.js",
		"/node_modules/left-pad/index.js",
		"/node_modules/quasar/index.js",
	}
	want := make([]string, len(ids))
	for i, id := range ids {
		want[i] = c.Classify(id)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				for i, id := range ids {
					if got := c.Classify(id); got != want[i] {
						t.Errorf("Classify(%q) = %q, want %q", id, got, want[i])
						return
					}
				}
			}
		})
	}
	wg.Wait()
}

func TestClassifyDebugLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	quiet := newClassifier(t, Options{Logger: logger})
	quiet.Classify("node_modules/some-unlisted-pkg/index.js")
	if buf.Len() != 0 {
		t.Errorf("unexpected log output without debug: %s", buf.String())
	}

	loud := newClassifier(t, Options{Logger: logger, Debug: true})
	loud.Classify("/node_modules/vue/index.js")
	if buf.Len() != 0 {
		t.Errorf("matched id should not be logged: %s", buf.String())
	}
	loud.Classify("node_modules/some-unlisted-pkg/index.js")
	if !strings.Contains(buf.String(), "some-unlisted-pkg") {
		t.Errorf("fallback id not logged: %s", buf.String())
	}
}

func TestRulesIsCopy(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, Options{Vendors: []Rule{mustRule(t, "x", "x")}})
	rules := c.Rules()
	if len(rules) != 1+len(DefaultRules()) {
		t.Fatalf("len(Rules()) = %d", len(rules))
	}
	rules[0] = Rule{Output: "mutated"}
	if c.Rules()[0].Output != "x" {
		t.Error("Rules() exposes the internal table")
	}
}

func TestRuleString(t *testing.T) {
	t.Parallel()

	r := mustRule(t, "charts", "echarts", "re:zrender/", "glob:**/d3-*/**")
	if got, want := r.String(), "charts <- echarts, re:zrender/, glob:**/d3-*/**"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"src/module/a-base/x.js", "a-base", true},
		{"src/module//x.js", "", false},
		{"src/module/a-base", "", false},
		{"node_modules/cabloy-module-front-test-note/x.js", "test-note", true},
		{"node_modules/cabloy-module-api-test-note/x.js", "", false},
	}

	for _, tt := range tests {
		got, ok := ModuleName(tt.id)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ModuleName(%q) = (%q, %v), want (%q, %v)", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestInlineLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		wantOK bool
	}{
		{"/proj/src/module/a-icon/assets/icons/groups/default/add.svg", true},
		{`C:\proj\assets\icons\groups\social\github.svg`, true},
		{"/proj/src/assets/icons/add.svg", false},
		{"/proj/assets/icons/groups/default/add.png", false},
	}

	for _, tt := range tests {
		limit, ok := InlineLimit(tt.path)
		if ok != tt.wantOK || limit != 0 {
			t.Errorf("InlineLimit(%q) = (%d, %v), want (0, %v)", tt.path, limit, ok, tt.wantOK)
		}
	}
}
