// SPDX-License-Identifier: MPL-2.0

// Package discovery finds the front-end modules that take part in a build.
//
// Modules are directories holding a package.json, found in this precedence
// order:
//   - src/module/<name>
//   - src/suite/<suite>/modules/<name>
//   - src/module-vendor/<name>
//   - src/suite-vendor/<suite>/modules/<name>
//   - node_modules/cabloy-module-front-<name>
//
// Disabled modules and every module of a disabled suite are left out. The
// result is ordered so that each module follows the modules it depends on.
// Non-fatal problems are reported as Diagnostics rather than logged, so the
// CLI decides how to render them.
package discovery
