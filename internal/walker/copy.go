package walker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyOptions tunes CopyTree.
type CopyOptions struct {
	Exclude []string
	// OnFile is called after each file is copied, with its relative path.
	OnFile func(relPath string)
}

// CountFiles returns how many regular files CopyTree would copy from src.
func CountFiles(src string, exclude []string) (int, error) {
	entries, err := Walk(WalkerConfig{RootDir: src, Exclude: exclude})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir {
			n++
		}
	}
	return n, nil
}

// CopyTree copies every file below src into dest, creating directories as
// needed and preserving relative paths. Existing destination files are
// replaced unconditionally. A missing src copies nothing. It returns the
// number of files copied.
func CopyTree(src, dest string, opts CopyOptions) (int, error) {
	entries, err := Walk(WalkerConfig{RootDir: src, Exclude: opts.Exclude})
	if err != nil {
		return 0, err
	}
	if entries == nil {
		if _, statErr := os.Stat(src); statErr != nil {
			return 0, nil
		}
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dest, err)
	}

	copied := 0
	for _, e := range entries {
		target := filepath.Join(dest, filepath.FromSlash(e.RelPath))
		if e.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return copied, fmt.Errorf("creating %s: %w", target, err)
			}
			continue
		}
		if err := copyFile(e.Path, target, e.Mode.Perm()); err != nil {
			return copied, fmt.Errorf("copying %s: %w", e.RelPath, err)
		}
		copied++
		if opts.OnFile != nil {
			opts.OnFile(e.RelPath)
		}
	}
	return copied, nil
}

func copyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return WriteFile(dest, in, perm)
}

// WriteFile writes r to path through a temporary file in the same directory
// followed by a rename. Concurrent writers to the same path each install a
// complete file; the last rename wins.
func WriteFile(path string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
