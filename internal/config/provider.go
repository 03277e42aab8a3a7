// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ProjectRoot is searched for frontbuild.cue when ConfigFilePath is empty.
		ProjectRoot string
	}

	// Loaded is an effective configuration and the file it was read from.
	Loaded struct {
		*Config
		// Path is empty when no config file exists and only defaults apply.
		Path string
	}

	// Provider loads the tool configuration for a project.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}
)

// NewProvider returns a Provider that reads frontbuild.cue files, applies
// FRONTBUILD_* environment overrides and falls back to DefaultConfig.
func NewProvider() Provider {
	return fileProvider{}
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Path: path}, nil
}
