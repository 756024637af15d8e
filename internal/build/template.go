package build

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
)

// defaultTemplate is used when the source tree has no templates/page.html.
// It includes the eight standard sections and both asset sentinels.
//
//go:embed default_page.html
var defaultTemplate string

// DefaultTemplate returns the fallback page template.
func DefaultTemplate() string {
	return defaultTemplate
}

// readTemplate returns the contents of path, or the default template when
// path does not exist. The bool reports whether the default was used.
func readTemplate(path string) (string, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultTemplate, true, nil
		}
		return "", false, err
	}
	return string(content), false, nil
}
