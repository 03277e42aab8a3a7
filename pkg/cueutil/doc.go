// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// Two packages compile CUE: internal/config validates frontbuild.cue against
// an embedded schema, and internal/fragment evaluates user-authored
// configuration fragments. Both report errors through FormatError so messages
// carry the file and the JSON path of the offending value:
//
//	result, err := cueutil.ParseAndDecode[map[string]any](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("frontbuild.cue"),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
