// SPDX-License-Identifier: MPL-2.0

// Package fragment compiles user-authored configuration fragments.
//
// A fragment is a CUE file such as src/front/config/config.web.cue. It may
// import local packages of the project's CUE module; they are bundled while
// the entry is loaded. The build injects two fields before evaluation:
//
//	context:   {meta: {flavor, mode, appMode}, env: {...}}
//	buildInfo: {projectRoot, command, entry}
//
// so a fragment reads like a factory of its configuration:
//
//	package config
//
//	base: disabledModules: [if context.meta.flavor == "mobile" {"a-desktop"}]
//	app: title: context.env.APP_TITLE
//
// Every call evaluates in a fresh cue.Context and goes through its own
// temporary artifact, which is removed whether loading succeeds or not.
package fragment
