// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ConfigDirMissingId Id = iota + 1
	FlavorConfigMissingId
	FragmentCompileFailedId
	ToolConfigLoadFailedId
	EnvLoadFailedId
	ModuleDependencyCycleId
	ArtifactWriteFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configDirMissingIssue = &Issue{
		id: ConfigDirMissingId,
		mdMsg: `
# Front-end configuration not found!

The default configuration fragment ` + "`config.default.cue`" + ` is missing, so there
is no configuration to build from.

## Things you can try:
- Copy the configuration templates shipped with the project:
~~~
$ cp -r src/front/_config src/front/config
~~~

- Point frontbuild at a different directory in ` + "`frontbuild.cue`" + `:
~~~cue
paths: config_dir: "src/front/config"
~~~`,
	}

	flavorConfigMissingIssue = &Issue{
		id: FlavorConfigMissingId,
		mdMsg: `
# Flavor configuration not found!

Every flavor needs its own configuration fragment next to
` + "`config.default.cue`" + `, named ` + "`config.<flavor>.cue`" + `.

## Things you can try:
- Check the spelling of the ` + "`--flavor`" + ` argument (the default is ` + "`web`" + `)
- Create the fragment for the new flavor:
~~~cue
package config

base: disabledModules: []
~~~`,
	}

	fragmentCompileFailedIssue = &Issue{
		id: FragmentCompileFailedId,
		mdMsg: `
# Failed to compile a configuration fragment!

A configuration fragment contains invalid CUE, imports a package that cannot
be resolved, or evaluates to conflicting values.

## Things you can try:
- Validate the fragment with the cue command-line tool:
~~~
$ cue vet src/front/config/config.default.cue
~~~

- Values from the build are available under ` + "`context`" + `:
~~~cue
app: name: context.env.APP_NAME
app: flavor: context.meta.flavor
~~~`,
	}

	toolConfigLoadFailedIssue = &Issue{
		id: ToolConfigLoadFailedId,
		mdMsg: `
# Failed to load frontbuild.cue!

The project-level frontbuild configuration could not be parsed or does not
match the expected schema.

## Example configuration:
~~~cue
paths: {
  src: "src"
  generated_dir: ".quasar/cabloy"
}
manual_chunk: {
  debug: false
  vendors: [
    {match: ["echarts", "zrender"], output: "echarts"},
  ]
}
~~~`,
	}

	envLoadFailedIssue = &Issue{
		id: EnvLoadFailedId,
		mdMsg: `
# Failed to load environment files!

One of the ` + "`.env*`" + ` files in the env directory could not be parsed.

## Things you can try:
- Every non-comment line must have the form ` + "`KEY=value`" + `
- Quote values that contain spaces or ` + "`#`" + ``,
	}

	moduleDependencyCycleIssue = &Issue{
		id: ModuleDependencyCycleId,
		mdMsg: `
# Module dependency cycle detected!

The ` + "`cabloyModule.dependencies`" + ` entries of your modules form a cycle,
so no load order exists.

## Things you can try:
- Remove one of the dependencies listed in the error message
- Move shared code into a separate module that both depend on`,
	}

	artifactWriteFailedIssue = &Issue{
		id: ArtifactWriteFailedId,
		mdMsg: `
# Failed to write a generated file!

frontbuild could not write into the generated directory.

## Things you can try:
- Check the permissions of the generated directory
- Remove the directory and run the build again`,
	}

	issues = map[Id]*Issue{
		configDirMissingIssue.Id():      configDirMissingIssue,
		flavorConfigMissingIssue.Id():   flavorConfigMissingIssue,
		fragmentCompileFailedIssue.Id(): fragmentCompileFailedIssue,
		toolConfigLoadFailedIssue.Id():  toolConfigLoadFailedIssue,
		envLoadFailedIssue.Id():         envLoadFailedIssue,
		moduleDependencyCycleIssue.Id(): moduleDependencyCycleIssue,
		artifactWriteFailedIssue.Id():   artifactWriteFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
