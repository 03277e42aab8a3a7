// SPDX-License-Identifier: MPL-2.0

package fragment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cabloy/frontbuild/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/parser"
	"github.com/goccy/go-json"
)

// CUEEngine evaluates fragment files written in CUE.
type CUEEngine struct {
	// MaxFileSize bounds the entry file; zero means cueutil.DefaultMaxFileSize.
	MaxFileSize int64
}

// Compile loads entry as a CUE instance in a fresh context, fills the
// context and buildInfo fields, requires a concrete result and writes the
// remaining regular fields to w.
func (e *CUEEngine) Compile(ctx context.Context, entry string, inv Invocation, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	abs, err := filepath.Abs(entry)
	if err != nil {
		return fmt.Errorf("resolve fragment path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read fragment: %w", err)
	}
	maxSize := e.MaxFileSize
	if maxSize <= 0 {
		maxSize = cueutil.DefaultMaxFileSize
	}
	if err := cueutil.CheckFileSize(data, maxSize, entry); err != nil {
		return err
	}

	decls, err := injectedDecls(abs, data)
	if err != nil {
		return cueutil.FormatError(err, entry)
	}
	dir := filepath.Dir(abs)
	insts := load.Instances([]string{filepath.Base(abs), injectedFile}, &load.Config{
		Dir: dir,
		Overlay: map[string]load.Source{
			abs:                             load.FromBytes(data),
			filepath.Join(dir, injectedFile): load.FromString(decls),
		},
	})
	if len(insts) != 1 {
		return fmt.Errorf("%s: expected one CUE instance, got %d", entry, len(insts))
	}
	if insts[0].Err != nil {
		return cueutil.FormatError(insts[0].Err, entry)
	}

	cctx := cuecontext.New()
	v := cctx.BuildInstance(insts[0])
	if v.Err() != nil {
		return cueutil.FormatError(v.Err(), entry)
	}

	if inv.Build.Entry == "" {
		inv.Build.Entry = entry
	}
	v = v.FillPath(cue.ParsePath(ContextField), inv.Context.Map())
	v = v.FillPath(cue.ParsePath(BuildInfoField), inv.Build.Map())

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cueutil.FormatError(err, entry)
	}

	frag, err := cueutil.DecodeFields(v, entry, ContextField, BuildInfoField)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(frag); err != nil {
		return fmt.Errorf("write fragment artifact: %w", err)
	}
	return nil
}

// injectedFile only exists in the loader overlay. It declares the injected
// fields so that references to them resolve before they are filled.
const injectedFile = "zz_frontbuild_injected.cue"

func injectedDecls(filename string, data []byte) (string, error) {
	f, err := parser.ParseFile(filename, data, parser.PackageClauseOnly)
	if err != nil {
		return "", err
	}
	var clause string
	if name := f.PackageName(); name != "" {
		clause = "package " + name + "\n\n"
	}
	return clause + ContextField + ": _\n" + BuildInfoField + ": _\n", nil
}
