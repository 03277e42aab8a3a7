// SPDX-License-Identifier: MPL-2.0

// Package envload reads the layered dotenv files of a front-end project.
//
// Files are read in increasing specificity and later files override earlier
// ones key by key, so `.env.web.production` wins over `.env.web`, which wins
// over `.env`. Each layer may have a `.local` companion that is meant to stay
// out of version control and overrides its layer.
package envload

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cabloy/frontbuild/internal/meta"

	"github.com/subosito/gotenv"
)

// DefaultPrefix is the base name of every dotenv file.
const DefaultPrefix = ".env"

// localSuffix marks the uncommitted companion of a layer.
const localSuffix = ".local"

type (
	// Env is a set of environment key/value pairs.
	Env map[string]string

	// Result is the outcome of Load.
	Result struct {
		// Env is the merged environment, META_* variables included.
		Env Env
		// Files lists the files that were read, in load order.
		Files []string
	}
)

// Keys returns the keys of e in sorted order.
func (e Env) Keys() []string {
	return slices.Sorted(maps.Keys(e))
}

// Layers returns the dotenv file names for m, least specific first.
func Layers(m meta.BuildMeta, prefix string) []string {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	parts := []string{prefix}
	for _, p := range []string{m.Flavor, string(m.Mode), m.AppMode} {
		if p == "" {
			break
		}
		parts = append(parts, parts[len(parts)-1]+"."+p)
	}

	names := make([]string, 0, len(parts)*2)
	for _, p := range parts {
		names = append(names, p, p+localSuffix)
	}
	return names
}

// Load reads every existing layer for m from dir and merges them. Missing
// files are skipped; a file that cannot be read or parsed is an error naming
// that file. The META_* variables of m are applied last.
func Load(m meta.BuildMeta, dir, prefix string) (*Result, error) {
	res := &Result{Env: make(Env)}

	for _, name := range Layers(m, prefix) {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
		}

		if err := parseInto(res.Env, content, path); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}

	maps.Copy(res.Env, m.EnvVars())
	return res, nil
}

// parseInto parses dotenv content and merges it into env, overriding keys
// that are already present.
func parseInto(env Env, content []byte, filename string) error {
	parsed, err := gotenv.StrictParse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	for k, v := range parsed {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%s: empty variable name", filename)
		}
		env[k] = v
	}
	return nil
}
