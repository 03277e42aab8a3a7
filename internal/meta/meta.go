// SPDX-License-Identifier: MPL-2.0

package meta

import (
	"io"

	"github.com/spf13/pflag"
)

const (
	// DefaultFlavor is used when no --flavor argument is given.
	DefaultFlavor = "web"

	// ModeDevelopment is the mode of dev-server builds.
	ModeDevelopment Mode = "development"
	// ModeProduction is the mode of production builds.
	ModeProduction Mode = "production"

	// FlavorFlag is the only command-line flag this package reads.
	FlavorFlag = "flavor"
)

type (
	// Mode is the build mode.
	Mode string

	// BuildContext carries the flags the host build tool reports for the
	// current invocation.
	BuildContext struct {
		// Prod is true for production builds.
		Prod bool
		// ModeName is the host's human-readable app mode (e.g. "spa", "ssr", "pwa").
		ModeName string
	}

	// BuildMeta identifies the build variant. It is created once per
	// lifecycle invocation and never changes afterwards.
	BuildMeta struct {
		Flavor  string `json:"flavor"`
		Mode    Mode   `json:"mode"`
		AppMode string `json:"appMode"`
	}
)

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// ModeOf maps the production flag of the host build context to a Mode.
func ModeOf(prod bool) Mode {
	if prod {
		return ModeProduction
	}
	return ModeDevelopment
}

// FlavorFromArgs returns the value of --flavor in args, or DefaultFlavor when
// the flag is absent or empty. Every other argument is ignored.
func FlavorFromArgs(args []string) string {
	fs := pflag.NewFlagSet("flavor", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	flavor := fs.String(FlavorFlag, "", "build flavor")

	// Unknown flags and stray values are not this package's concern; a parse
	// error only means --flavor itself was malformed (e.g. missing value).
	if err := fs.Parse(args); err != nil {
		return DefaultFlavor
	}
	if *flavor == "" {
		return DefaultFlavor
	}
	return *flavor
}

// Resolve builds the BuildMeta for one lifecycle invocation. The flavor is
// accepted as-is; a flavor without a configuration fragment is reported later
// by the pipeline.
func Resolve(args []string, bc BuildContext) BuildMeta {
	return BuildMeta{
		Flavor:  FlavorFromArgs(args),
		Mode:    ModeOf(bc.Prod),
		AppMode: bc.ModeName,
	}
}

// EnvVars exposes the meta to environment consumers.
func (m BuildMeta) EnvVars() map[string]string {
	return map[string]string{
		"META_FLAVOR":   m.Flavor,
		"META_MODE":     string(m.Mode),
		"META_APP_MODE": m.AppMode,
	}
}

// Map returns the meta as the plain mapping that seeds the merged configuration.
func (m BuildMeta) Map() map[string]any {
	return map[string]any{
		"flavor":  m.Flavor,
		"mode":    string(m.Mode),
		"appMode": m.AppMode,
	}
}
