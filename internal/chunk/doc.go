// SPDX-License-Identifier: MPL-2.0

// Package chunk decides which output chunk a bundled source module joins.
//
// Classification is ordered. Paths inside a front-end module (src/module,
// src/module-vendor, suite modules and cabloy-module-front-* packages) go to
// the chunk named after the module. Everything else is checked against the
// vendor rules, project rules first and built-in defaults after, and the
// first matching rule names the chunk. Unmatched ids land in "vendor".
package chunk
