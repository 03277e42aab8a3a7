// SPDX-License-Identifier: MPL-2.0

// Package pipeline resolves the build configuration on every lifecycle event
// of the host build tool.
//
// A run resolves the build meta, loads the env files, checks that the
// default and flavor fragments exist, compiles the fragments one after
// another, merges them over {meta}, writes the config artifact, discovers
// the enabled modules and writes the modules-meta artifact. A missing
// fragment stops the run with an issue.FatalError before anything is
// compiled or written.
package pipeline
