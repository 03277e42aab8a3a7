// SPDX-License-Identifier: MPL-2.0

// Package persist writes generated artifacts for the host build tool.
package persist

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Persister writes artifacts to FS. The zero value is not usable; use New.
type Persister struct {
	fs afero.Fs
}

// New returns a Persister over fsys, or the OS filesystem when fsys is nil.
func New(fsys afero.Fs) *Persister {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Persister{fs: fsys}
}

// FS returns the filesystem the persister writes to.
func (p *Persister) FS() afero.Fs {
	return p.fs
}

// EncodeModule renders cfg as an ES module exporting it as default value.
// Keys are sorted and indented by two spaces, so output is stable across runs.
func EncodeModule(cfg map[string]any) ([]byte, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}
	body, err := json.MarshalIndentWithOption(cfg, "", "  ", json.DisableHTMLEscape())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + 32)
	buf.WriteString("export default ")
	buf.Write(body)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// WriteConfig serializes cfg as a config module at path and returns cfg
// unchanged.
func (p *Persister) WriteConfig(path string, cfg map[string]any) (map[string]any, error) {
	data, err := EncodeModule(cfg)
	if err != nil {
		return cfg, err
	}
	if err := p.WriteFile(path, data); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WriteFile replaces path with data atomically. The data is staged next to
// path and renamed into place; parent directories are created as needed.
func (p *Persister) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := p.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(p.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create staging file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = p.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write staging file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync staging file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close staging file for %s: %w", path, err)
	}
	if err := p.fs.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("set permissions on %s: %w", path, err)
	}

	if err := p.fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	renamed = true
	return nil
}
