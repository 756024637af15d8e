package store

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/pagebuild/internal/ctxlog"
)

// Fragments maps a component name to its raw HTML text.
type Fragments map[string]string

// FragmentOptions controls which files LoadFragments picks up.
type FragmentOptions struct {
	// Markdown also loads *.md files, rendered to HTML. An .html fragment
	// with the same name takes precedence.
	Markdown bool
}

// LoadFragments reads every *.html file directly inside dir, unmodified. A
// missing or unreadable directory yields no fragments; unreadable files are
// skipped with a warning.
func LoadFragments(ctx context.Context, dir string, opts FragmentOptions) (Fragments, error) {
	logger := ctxlog.FromContext(ctx)

	exts := []string{".html"}
	if opts.Markdown {
		exts = append(exts, ".md")
	}

	files, err := listFiles(dir, exts...)
	if err != nil {
		logger.Warn("cannot read components directory", "dir", dir, "error", err)
		return Fragments{}, nil
	}

	var md goldmark.Markdown
	fragments := make(Fragments, len(files))
	fromHTML := map[string]bool{}
	for _, f := range files {
		raw, err := os.ReadFile(f.Path)
		if err != nil {
			logger.Warn("skipping unreadable component", "path", f.Path, "error", err)
			continue
		}

		if f.Ext == ".md" {
			if fromHTML[f.Key] {
				continue
			}
			if md == nil {
				md = newMarkdown()
			}
			rendered, err := renderMarkdown(md, raw)
			if err != nil {
				logger.Warn("skipping component", "path", f.Path, "error", err)
				continue
			}
			fragments[f.Key] = rendered
			logger.Debug("loaded markdown component", "name", f.Key, "path", f.Path)
			continue
		}

		fragments[f.Key] = string(raw)
		fromHTML[f.Key] = true
		logger.Debug("loaded component", "name", f.Key, "path", f.Path)
	}
	return fragments, nil
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

func renderMarkdown(md goldmark.Markdown, src []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}
