// SPDX-License-Identifier: MPL-2.0

// Package config handles frontbuild's own configuration using Viper with CUE
// as the file format.
//
// The configuration lives in frontbuild.cue at the project root (or at the
// path given with --config). It is validated against the embedded
// config_schema.cue, layered over built-in defaults, and can be overridden
// per key with FRONTBUILD_* environment variables, e.g.
// FRONTBUILD_MANUAL_CHUNK_DEBUG=true. A project without frontbuild.cue runs
// on defaults.
package config
