// SPDX-License-Identifier: MPL-2.0

// Package metafile renders the modules-meta artifact: a lazy import map of
// the enabled front-end modules plus their metadata.
package metafile

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/cabloy/frontbuild/internal/discovery"

	"github.com/goccy/go-json"
)

const templateName = "modules-meta"

//go:embed templates/modules-meta.js.tmpl
var defaultTemplate string

type (
	// Entry is one module as seen by the template.
	Entry struct {
		Name string
		// Import is the specifier the generated module imports.
		Import string
	}

	// MetaEntry is the metadata recorded per module.
	MetaEntry struct {
		Name    string `json:"name"`
		Package string `json:"package,omitempty"`
		Version string `json:"version,omitempty"`
		Suite   string `json:"suite,omitempty"`
		Source  string `json:"source"`
		RelRoot string `json:"relRoot"`
	}

	// Data is the template input.
	Data struct {
		Modules []Entry
		Meta    map[string]MetaEntry
	}

	// Renderer renders modules-meta artifacts.
	Renderer struct {
		tmpl *template.Template
	}

	// Option configures a Renderer.
	Option func(*rendererOptions)

	rendererOptions struct {
		text string
		file string
	}
)

// WithTemplateFile makes the renderer use the template at path instead of the
// built-in one.
func WithTemplateFile(path string) Option {
	return func(o *rendererOptions) {
		o.file = path
	}
}

// WithTemplate makes the renderer use text as its template.
func WithTemplate(text string) Option {
	return func(o *rendererOptions) {
		o.text = text
	}
}

// New parses the template.
func New(opts ...Option) (*Renderer, error) {
	o := rendererOptions{text: defaultTemplate}
	for _, opt := range opts {
		opt(&o)
	}
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("read modules-meta template: %w", err)
		}
		o.text = string(data)
	}

	tmpl, err := template.New(templateName).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"json":       toJSON,
			"indentJSON": toIndentJSON,
		}).
		Parse(o.text)
	if err != nil {
		return nil, fmt.Errorf("parse modules-meta template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// NewData prepares template input for modules written to outDir. Local
// modules are imported by relative path and packages by their npm name.
func NewData(outDir string, modules []*discovery.Module) (Data, error) {
	data := Data{
		Modules: make([]Entry, 0, len(modules)),
		Meta:    make(map[string]MetaEntry, len(modules)),
	}
	for _, m := range modules {
		spec, err := importSpecifier(outDir, m)
		if err != nil {
			return Data{}, err
		}
		data.Modules = append(data.Modules, Entry{Name: m.Name, Import: spec})
		data.Meta[m.Name] = MetaEntry{
			Name:    m.Name,
			Package: m.PackageName,
			Version: m.Version,
			Suite:   m.Suite,
			Source:  m.Source.String(),
			RelRoot: m.RelRoot,
		}
	}
	return data, nil
}

// Render writes the artifact for modules, as seen from outDir, to w.
func (r *Renderer) Render(w io.Writer, outDir string, modules []*discovery.Module) error {
	data, err := NewData(outDir, modules)
	if err != nil {
		return err
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render modules-meta: %w", err)
	}
	return nil
}

// RenderBytes is Render into a byte slice.
func (r *Renderer) RenderBytes(outDir string, modules []*discovery.Module) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, outDir, modules); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func importSpecifier(outDir string, m *discovery.Module) (string, error) {
	if m.Source == discovery.SourcePackage && m.PackageName != "" {
		return m.PackageName, nil
	}
	rel, err := filepath.Rel(outDir, m.Root)
	if err != nil {
		return "", fmt.Errorf("module %s: %w", m.Name, err)
	}
	rel = path.Clean(filepath.ToSlash(rel))
	if rel != ".." && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}

func toJSON(v any) (string, error) {
	b, err := json.MarshalWithOption(v, json.DisableHTMLEscape())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toIndentJSON(v any) (string, error) {
	b, err := json.MarshalIndentWithOption(v, "", "  ", json.DisableHTMLEscape())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
