// SPDX-License-Identifier: MPL-2.0

package config

import (
	"path/filepath"
	"time"
)

type (
	// Config is the effective frontbuild configuration.
	Config struct {
		Paths       PathsConfig       `json:"paths" mapstructure:"paths"`
		ManualChunk ManualChunkConfig `json:"manual_chunk" mapstructure:"manual_chunk"`
		Build       BuildConfig       `json:"build" mapstructure:"build"`
		Watch       WatchConfig       `json:"watch" mapstructure:"watch"`
		UI          UIConfig          `json:"ui" mapstructure:"ui"`
	}

	// PathsConfig locates inputs and generated artifacts. Relative paths are
	// resolved against the project root.
	PathsConfig struct {
		Src                 string `json:"src" mapstructure:"src"`
		ConfigDir           string `json:"config_dir" mapstructure:"config_dir"`
		EnvDir              string `json:"env_dir" mapstructure:"env_dir"`
		GeneratedDir        string `json:"generated_dir" mapstructure:"generated_dir"`
		ConfigArtifact      string `json:"config_artifact" mapstructure:"config_artifact"`
		ModulesMetaArtifact string `json:"modules_meta_artifact" mapstructure:"modules_meta_artifact"`
		ModulesMetaTemplate string `json:"modules_meta_template,omitempty" mapstructure:"modules_meta_template"`
	}

	// ManualChunkConfig configures chunk classification.
	ManualChunkConfig struct {
		Debug   bool         `json:"debug" mapstructure:"debug"`
		Vendors []VendorRule `json:"vendors" mapstructure:"vendors"`
	}

	// VendorRule is the configuration form of a chunk rule.
	VendorRule struct {
		Match  []string `json:"match" mapstructure:"match"`
		Output string   `json:"output" mapstructure:"output"`
	}

	// BuildConfig overrides settings derived from the environment.
	BuildConfig struct {
		PublicPath string            `json:"public_path,omitempty" mapstructure:"public_path"`
		RouterMode string            `json:"router_mode,omitempty" mapstructure:"router_mode"`
		RouterBase string            `json:"router_base,omitempty" mapstructure:"router_base"`
		Alias      map[string]string `json:"alias,omitempty" mapstructure:"alias"`
	}

	// WatchConfig configures dev --watch.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Src:                 "src",
			ConfigDir:           filepath.Join("src", "front", "config"),
			EnvDir:              "env",
			GeneratedDir:        filepath.Join(".quasar", "cabloy"),
			ConfigArtifact:      "config.js",
			ModulesMetaArtifact: "modules-meta.js",
		},
		ManualChunk: ManualChunkConfig{
			Vendors: []VendorRule{},
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// ConfigDirPath returns the fragment directory under root.
func (p PathsConfig) ConfigDirPath(root string) string {
	return resolve(root, p.ConfigDir)
}

// SrcPath returns the front-end source directory under root.
func (p PathsConfig) SrcPath(root string) string {
	return resolve(root, p.Src)
}

// EnvDirPath returns the dotenv directory under root.
func (p PathsConfig) EnvDirPath(root string) string {
	return resolve(root, p.EnvDir)
}

// GeneratedDirPath returns the artifact directory under root.
func (p PathsConfig) GeneratedDirPath(root string) string {
	return resolve(root, p.GeneratedDir)
}

// ConfigArtifactPath returns where the merged config module is written.
func (p PathsConfig) ConfigArtifactPath(root string) string {
	return filepath.Join(p.GeneratedDirPath(root), p.ConfigArtifact)
}

// ModulesMetaArtifactPath returns where the modules-meta module is written.
func (p PathsConfig) ModulesMetaArtifactPath(root string) string {
	return filepath.Join(p.GeneratedDirPath(root), p.ModulesMetaArtifact)
}

// ModulesMetaTemplatePath returns the template override, or "" for the
// built-in template.
func (p PathsConfig) ModulesMetaTemplatePath(root string) string {
	if p.ModulesMetaTemplate == "" {
		return ""
	}
	return resolve(root, p.ModulesMetaTemplate)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
