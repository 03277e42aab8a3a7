// SPDX-License-Identifier: MPL-2.0

package meta

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlavorFromArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "absent", args: nil, want: DefaultFlavor},
		{name: "equals form", args: []string{"--flavor=mobile"}, want: "mobile"},
		{name: "separate value", args: []string{"--flavor", "admin"}, want: "admin"},
		{name: "empty value", args: []string{"--flavor="}, want: DefaultFlavor},
		{name: "unknown flags ignored", args: []string{"dev", "-m", "spa", "--port=9000", "--flavor=mobile"}, want: "mobile"},
		{name: "unknown flavor accepted as-is", args: []string{"--flavor=does-not-exist"}, want: "does-not-exist"},
		{name: "missing value falls back", args: []string{"--flavor"}, want: DefaultFlavor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FlavorFromArgs(tt.args); got != tt.want {
				t.Errorf("FlavorFromArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	got := Resolve([]string{"--flavor=mobile"}, BuildContext{Prod: true, ModeName: "pwa"})
	want := BuildMeta{Flavor: "mobile", Mode: ModeProduction, AppMode: "pwa"}
	if got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}

	dev := Resolve(nil, BuildContext{ModeName: "spa"})
	if dev.Mode != ModeDevelopment || dev.Flavor != DefaultFlavor {
		t.Errorf("Resolve() dev = %+v", dev)
	}
}

func TestBuildMeta_EnvVarsAndMap(t *testing.T) {
	t.Parallel()

	m := BuildMeta{Flavor: "web", Mode: ModeDevelopment, AppMode: "spa"}

	wantEnv := map[string]string{"META_FLAVOR": "web", "META_MODE": "development", "META_APP_MODE": "spa"}
	if diff := cmp.Diff(wantEnv, m.EnvVars()); diff != "" {
		t.Errorf("EnvVars() mismatch (-want +got):\n%s", diff)
	}

	wantMap := map[string]any{"flavor": "web", "mode": "development", "appMode": "spa"}
	if diff := cmp.Diff(wantMap, m.Map()); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}
