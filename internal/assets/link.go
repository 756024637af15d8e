package assets

import (
	"fmt"
	"html"
	"strings"

	"github.com/ziadkadry99/pagebuild/internal/placeholder"
)

// tagSeparator joins consecutive tags in reference mode.
const tagSeparator = "\n    "

// ReadFunc returns the contents of a manifest entry. Inline mode skips any
// entry whose read fails.
type ReadFunc func(name string) ([]byte, error)

// Link replaces the first {{CSS_LINKS}} and {{JS_SCRIPTS}} sentinels in page
// with markup for the manifest's assets. A sentinel missing from page is
// simply not substituted. read is only used in inline mode.
func Link(page string, mode Mode, m Manifest, read ReadFunc) string {
	var css, js string
	if mode == ModeInline {
		css = "<style>\n" + concat(m.Styles, read) + "</style>"
		js = "<script>\n" + concat(m.Scripts, read) + "</script>"
	} else {
		css = referenceTags(m.Styles, `<link rel="stylesheet" href="./%s">`)
		js = referenceTags(m.Scripts, `<script src="./%s"></script>`)
	}

	page = strings.Replace(page, placeholder.CSSLinks, css, 1)
	page = strings.Replace(page, placeholder.JSScripts, js, 1)
	return page
}

func referenceTags(names []string, format string) string {
	tags := make([]string, 0, len(names))
	for _, name := range names {
		tags = append(tags, fmt.Sprintf(format, html.EscapeString(name)))
	}
	return strings.Join(tags, tagSeparator)
}

// concat joins the contents of every readable entry, each followed by a
// newline, in manifest order.
func concat(names []string, read ReadFunc) string {
	if read == nil {
		return ""
	}
	var b strings.Builder
	for _, name := range names {
		content, err := read(name)
		if err != nil {
			continue
		}
		b.Write(content)
		b.WriteByte('\n')
	}
	return b.String()
}
