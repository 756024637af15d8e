// Package store loads the flat source directories a page is assembled from:
// JSON data documents and HTML fragments, each keyed by file base name.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadError reports a source file or directory that could not be loaded.
// It aborts the whole build.
type LoadError struct {
	Kind string // "data" or "fragment"
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// sourceFile is one candidate file directly inside a store directory.
type sourceFile struct {
	Path string // Path on disk.
	Key  string // Base name without extension.
	Ext  string // Extension including the dot.
}

// listFiles returns the regular files directly inside dir whose extension is
// one of exts, in directory listing order. Symlinks are followed. A missing
// directory yields no files and no error.
func listFiles(dir string, exts ...string) ([]sourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []sourceFile
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if !hasExt(ext, exts) {
			continue
		}
		full := filepath.Join(dir, name)
		if !entry.Type().IsRegular() {
			info, err := os.Stat(full)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		files = append(files, sourceFile{
			Path: full,
			Key:  strings.TrimSuffix(name, ext),
			Ext:  ext,
		})
	}
	return files, nil
}

func hasExt(ext string, exts []string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
