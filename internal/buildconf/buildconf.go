// SPDX-License-Identifier: MPL-2.0

// Package buildconf derives the settings frontbuild hands to the host build
// tool: public path, router mode and base, aliases and the environment.
package buildconf

import (
	"fmt"
	"maps"

	"github.com/cabloy/frontbuild/internal/envload"

	"dario.cat/mergo"
)

const (
	// EnvPublicPath is the environment key for the public path.
	EnvPublicPath = "APP_PUBLIC_PATH"
	// EnvRouterMode is the environment key for the router history mode.
	EnvRouterMode = "APP_ROUTER_MODE"
	// EnvRouterBase is the environment key for the router base.
	EnvRouterBase = "APP_ROUTER_BASE"
)

// Settings is what the host build tool receives.
type Settings struct {
	PublicPath string            `json:"publicPath,omitempty"`
	RouterMode string            `json:"vueRouterMode,omitempty"`
	RouterBase string            `json:"vueRouterBase,omitempty"`
	Alias      map[string]string `json:"alias"`
	Env        map[string]string `json:"env"`
}

// DefaultAlias returns the module aliases every build needs.
func DefaultAlias() map[string]string {
	return map[string]string{
		"@vue/runtime-core": "@cabloy/vue-runtime-core",
	}
}

// Extend derives Settings from env and then applies overrides: non-empty
// override fields win and override aliases are added to the defaults.
func Extend(env envload.Env, overrides Settings) (Settings, error) {
	s := Settings{
		PublicPath: env[EnvPublicPath],
		RouterMode: env[EnvRouterMode],
		RouterBase: env[EnvRouterBase],
		Alias:      DefaultAlias(),
		Env:        maps.Clone(map[string]string(env)),
	}
	if s.Env == nil {
		s.Env = map[string]string{}
	}

	if err := mergo.Merge(&s, overrides, mergo.WithOverride); err != nil {
		return Settings{}, fmt.Errorf("apply build overrides: %w", err)
	}
	return s, nil
}
