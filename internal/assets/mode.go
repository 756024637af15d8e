// Package assets injects stylesheet and script markup into a resolved page,
// either as references to the copied files or with their contents inlined.
package assets

import (
	"fmt"
	"strings"
)

// Mode selects how assets reach the page.
type Mode string

const (
	// ModeReference emits <link> and <script src> tags pointing at the
	// copied asset files.
	ModeReference Mode = "reference"
	// ModeInline embeds every asset's contents in the page.
	ModeInline Mode = "inline"
)

// ParseMode accepts "reference" or "inline", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeReference, ModeInline:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be one of reference, inline", s)
	}
}
