// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cabloy/frontbuild/internal/issue"
	"github.com/cabloy/frontbuild/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "frontbuild"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "frontbuild"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. FRONTBUILD_UI_VERBOSE.
	EnvPrefix = "FRONTBUILD"
)

// ErrConfigNotFound is returned when an explicitly requested file is missing.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema string

// Resolve returns the config file that opts selects, or "" when the project
// has none and defaults apply.
func Resolve(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	path := filepath.Join(root, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, nil
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading and also returns the
// path that was read ("" for defaults only).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := Resolve(opts)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'frontbuild config init' to create a frontbuild.cue with defaults").
			WithIssue(issue.ToolConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'frontbuild config show' to see the effective configuration").
				WithIssue(issue.ToolConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ManualChunk.Vendors == nil {
		cfg.ManualChunk.Vendors = []VendorRule{}
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("paths.src", defaults.Paths.Src)
	v.SetDefault("paths.config_dir", defaults.Paths.ConfigDir)
	v.SetDefault("paths.env_dir", defaults.Paths.EnvDir)
	v.SetDefault("paths.generated_dir", defaults.Paths.GeneratedDir)
	v.SetDefault("paths.config_artifact", defaults.Paths.ConfigArtifact)
	v.SetDefault("paths.modules_meta_artifact", defaults.Paths.ModulesMetaArtifact)
	v.SetDefault("paths.modules_meta_template", defaults.Paths.ModulesMetaTemplate)
	v.SetDefault("manual_chunk.debug", defaults.ManualChunk.Debug)
	v.SetDefault("manual_chunk.vendors", defaults.ManualChunk.Vendors)
	v.SetDefault("build.public_path", defaults.Build.PublicPath)
	v.SetDefault("build.router_mode", defaults.Build.RouterMode)
	v.SetDefault("build.router_base", defaults.Build.RouterBase)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// loadCUEIntoViper validates a CUE file against the #Config schema and merges
// its contents into Viper. Fields are optional, so values need not be
// concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecode[map[string]any]([]byte(configSchema), data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes frontbuild.cue with defaults into projectRoot
// unless it already exists. It returns the path and whether it was created.
func CreateDefaultConfig(projectRoot string) (string, bool, error) {
	path := filepath.Join(projectRoot, ConfigFileName+"."+ConfigFileExt)
	if fileExists(path) {
		return path, false, nil
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// frontbuild configuration\n\n")

	sb.WriteString("paths: {\n")
	fmt.Fprintf(&sb, "\tsrc:                   %q\n", filepath.ToSlash(cfg.Paths.Src))
	fmt.Fprintf(&sb, "\tconfig_dir:            %q\n", filepath.ToSlash(cfg.Paths.ConfigDir))
	fmt.Fprintf(&sb, "\tenv_dir:               %q\n", filepath.ToSlash(cfg.Paths.EnvDir))
	fmt.Fprintf(&sb, "\tgenerated_dir:         %q\n", filepath.ToSlash(cfg.Paths.GeneratedDir))
	fmt.Fprintf(&sb, "\tconfig_artifact:       %q\n", cfg.Paths.ConfigArtifact)
	fmt.Fprintf(&sb, "\tmodules_meta_artifact: %q\n", cfg.Paths.ModulesMetaArtifact)
	if cfg.Paths.ModulesMetaTemplate != "" {
		fmt.Fprintf(&sb, "\tmodules_meta_template: %q\n", filepath.ToSlash(cfg.Paths.ModulesMetaTemplate))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nmanual_chunk: {\n")
	fmt.Fprintf(&sb, "\tdebug: %v\n", cfg.ManualChunk.Debug)
	if len(cfg.ManualChunk.Vendors) == 0 {
		sb.WriteString("\tvendors: []\n")
	} else {
		sb.WriteString("\tvendors: [\n")
		for _, rule := range cfg.ManualChunk.Vendors {
			quoted := make([]string, 0, len(rule.Match))
			for _, m := range rule.Match {
				quoted = append(quoted, fmt.Sprintf("%q", m))
			}
			fmt.Fprintf(&sb, "\t\t{match: [%s], output: %q},\n", strings.Join(quoted, ", "), rule.Output)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	if cfg.Build.PublicPath != "" || cfg.Build.RouterMode != "" || cfg.Build.RouterBase != "" || len(cfg.Build.Alias) > 0 {
		sb.WriteString("\nbuild: {\n")
		if cfg.Build.PublicPath != "" {
			fmt.Fprintf(&sb, "\tpublic_path: %q\n", cfg.Build.PublicPath)
		}
		if cfg.Build.RouterMode != "" {
			fmt.Fprintf(&sb, "\trouter_mode: %q\n", cfg.Build.RouterMode)
		}
		if cfg.Build.RouterBase != "" {
			fmt.Fprintf(&sb, "\trouter_base: %q\n", cfg.Build.RouterBase)
		}
		if len(cfg.Build.Alias) > 0 {
			sb.WriteString("\talias: {\n")
			for _, k := range slices.Sorted(maps.Keys(cfg.Build.Alias)) {
				fmt.Fprintf(&sb, "\t\t%q: %q\n", k, cfg.Build.Alias[k])
			}
			sb.WriteString("\t}\n")
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
