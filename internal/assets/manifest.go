package assets

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/pagebuild/internal/walker"
)

const (
	// StylesDir and ScriptsDir are the source sub-directories assets are
	// discovered in; they are mirrored under the output directory.
	StylesDir  = "styles"
	ScriptsDir = "scripts"
)

// Manifest lists the assets a page pulls in, as slash-separated paths
// relative to the source root (e.g. "styles/main.css").
type Manifest struct {
	Styles  []string
	Scripts []string
}

// Discover builds the manifest for srcDir from the *.css files in its styles
// directory and the *.js files in its scripts directory. Entries matching an
// exclude pattern are left out, the same way the asset copy skips them.
func Discover(srcDir string, exclude []string) (Manifest, error) {
	styles, err := discoverDir(srcDir, StylesDir, ".css", exclude)
	if err != nil {
		return Manifest{}, err
	}
	scripts, err := discoverDir(srcDir, ScriptsDir, ".js", exclude)
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{Styles: styles, Scripts: scripts}, nil
}

// discoverDir lists the files directly inside srcDir/sub whose names end in
// ext, in directory listing order. Symlinks to files count as files. A
// missing directory yields nothing.
func discoverDir(srcDir, sub, ext string, exclude []string) ([]string, error) {
	dir := filepath.Join(srcDir, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		rel := path.Join(sub, entry.Name())
		if walker.MatchesExclude(rel, exclude) {
			continue
		}
		if !entry.Type().IsRegular() {
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		out = append(out, rel)
	}
	return out, nil
}
