// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Errors raised while preparing a front-end build carry the operation that
// failed, the file involved and remediation hints. Configuration problems that
// leave no sensible default (a missing config directory, an unknown flavor)
// are reported as FatalError so the CLI can stop the build with a non-zero
// exit status instead of continuing with a partial configuration.
package issue
