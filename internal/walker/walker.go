package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Entry describes one file or directory found under a walk root.
type Entry struct {
	Path    string // Path on disk.
	RelPath string // Slash-separated path relative to the root.
	IsDir   bool
	Size    int64
	Mode    os.FileMode
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir string   // Root directory to walk.
	Exclude []string // Glob patterns; matching files and directories are skipped.
}

// Walk lists every directory and regular file below config.RootDir, parents
// before their children and siblings in directory listing order. It keeps an
// explicit stack of pending directories instead of recursing, so deep trees
// do not grow the call stack. A missing root yields no entries.
//
// Symlinks to files are followed; symlinks to directories are skipped.
func Walk(config WalkerConfig) ([]Entry, error) {
	root := filepath.Clean(config.RootDir)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walker: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	var entries []Entry
	stack := []string{""}
	for len(stack) > 0 {
		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir := filepath.Join(root, filepath.FromSlash(rel))
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("walker: read %s: %w", dir, err)
		}

		var subdirs []string
		for _, child := range children {
			childRel := child.Name()
			if rel != "" {
				childRel = rel + "/" + child.Name()
			}
			if shouldExcludeDir(child.Name()) || MatchesExclude(childRel, config.Exclude) {
				continue
			}

			path := filepath.Join(dir, child.Name())
			info, err := os.Stat(path)
			if err != nil {
				// Dangling symlink or a file removed mid-walk.
				continue
			}
			if child.Type()&os.ModeSymlink != 0 && info.IsDir() {
				continue
			}

			switch {
			case info.IsDir():
				entries = append(entries, Entry{Path: path, RelPath: childRel, IsDir: true, Mode: info.Mode()})
				subdirs = append(subdirs, childRel)
			case info.Mode().IsRegular():
				entries = append(entries, Entry{Path: path, RelPath: childRel, Size: info.Size(), Mode: info.Mode()})
			}
		}

		// Push in reverse so the first sub-directory is walked next.
		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}
	return entries, nil
}

// Dirs returns the root and every directory below it.
func Dirs(config WalkerConfig) ([]string, error) {
	entries, err := Walk(config)
	if err != nil {
		return nil, err
	}
	dirs := []string{filepath.Clean(config.RootDir)}
	for _, e := range entries {
		if e.IsDir {
			dirs = append(dirs, e.Path)
		}
	}
	return dirs, nil
}
