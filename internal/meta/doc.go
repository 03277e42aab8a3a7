// SPDX-License-Identifier: MPL-2.0

// Package meta derives the identity of the build variant (flavor, mode and
// app mode) from the command line and the host build context.
package meta
