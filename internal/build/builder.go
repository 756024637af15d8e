// Package build runs the page pipeline: load data and components, resolve the
// template, link assets, write index.html and copy the asset trees.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/pagebuild/internal/assets"
	"github.com/ziadkadry99/pagebuild/internal/config"
	"github.com/ziadkadry99/pagebuild/internal/ctxlog"
	"github.com/ziadkadry99/pagebuild/internal/placeholder"
	"github.com/ziadkadry99/pagebuild/internal/progress"
	"github.com/ziadkadry99/pagebuild/internal/store"
	"github.com/ziadkadry99/pagebuild/internal/walker"
)

// Source and output layout, relative to the source and output directories.
const (
	DataDir       = "data"
	ComponentsDir = "components"
	TemplatePath  = "templates/page.html"
	OutputPage    = "index.html"
	AssetsOutDir  = "assets"
)

// Options configures a Builder.
type Options struct {
	SrcDir             string
	DistDir            string
	AssetsDir          string
	Mode               assets.Mode
	MarkdownComponents bool
	Exclude            []string
	// Progress receives asset copy progress. Nil reports nothing.
	Progress progress.Reporter
}

// OptionsFromConfig maps a validated configuration onto builder options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SrcDir:             cfg.SrcDir,
		DistDir:            cfg.DistDir,
		AssetsDir:          cfg.AssetsDir,
		Mode:               cfg.Mode,
		MarkdownComponents: cfg.MarkdownComponents,
		Exclude:            cfg.Exclude,
	}
}

// Result summarises one build.
type Result struct {
	BuildID         string
	OutputPath      string
	DataFiles       int
	Components      int
	Styles          int
	Scripts         int
	DefaultTemplate bool
	// Unresolved lists placeholders left verbatim in the output.
	Unresolved  []placeholder.Token
	CopiedFiles int
	Duration    time.Duration
}

// Builder produces the site. It holds no per-build state, so one Builder may
// run several builds at once; they then race on the output directory.
type Builder struct {
	opts Options
}

// New creates a Builder with the given options.
func New(opts Options) *Builder {
	if opts.Mode == "" {
		opts.Mode = assets.ModeReference
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	return &Builder{opts: opts}
}

// WithProgress returns a copy of b that reports copy progress to r.
func (b *Builder) WithProgress(r progress.Reporter) *Builder {
	opts := b.opts
	opts.Progress = r
	return New(opts)
}

// Build runs the whole pipeline once. Any error aborts the build; missing
// optional inputs and unresolved placeholders do not.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{BuildID: uuid.NewString()}

	logger := ctxlog.FromContext(ctx).With("build_id", res.BuildID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("building site", "src", b.opts.SrcDir, "dist", b.opts.DistDir, "mode", b.opts.Mode)

	if err := os.MkdirAll(b.opts.DistDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	data, err := store.LoadData(ctx, filepath.Join(b.opts.SrcDir, DataDir))
	if err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}
	res.DataFiles = len(data)

	fragments, err := store.LoadFragments(ctx, filepath.Join(b.opts.SrcDir, ComponentsDir), store.FragmentOptions{
		Markdown: b.opts.MarkdownComponents,
	})
	if err != nil {
		return nil, fmt.Errorf("loading components: %w", err)
	}
	res.Components = len(fragments)

	tmpl, usedDefault, err := readTemplate(filepath.Join(b.opts.SrcDir, filepath.FromSlash(TemplatePath)))
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	res.DefaultTemplate = usedDefault
	if usedDefault {
		logger.Info("no page template found, using the default", "path", TemplatePath)
	}

	page, report := placeholder.ResolveReport(tmpl, data, fragments)
	res.Unresolved = report.Unresolved
	for _, tok := range report.Unresolved {
		logger.Warn("unresolved placeholder", "kind", tok.Kind.String(), "token", tok.Text)
	}

	manifest, err := assets.Discover(b.opts.SrcDir, b.opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering assets: %w", err)
	}
	res.Styles, res.Scripts = len(manifest.Styles), len(manifest.Scripts)
	page = assets.Link(page, b.opts.Mode, manifest, b.assetReader(ctx))

	res.OutputPath = filepath.Join(b.opts.DistDir, OutputPage)
	if err := walker.WriteFile(res.OutputPath, strings.NewReader(page), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", res.OutputPath, err)
	}

	copied, err := b.copyAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("copying assets: %w", err)
	}
	res.CopiedFiles = copied

	res.Duration = time.Since(start)
	logger.Info("build complete", "output", res.OutputPath, "copied", copied, "duration", res.Duration)
	return res, nil
}

// assetReader reads manifest entries from the source tree.
func (b *Builder) assetReader(ctx context.Context) assets.ReadFunc {
	logger := ctxlog.FromContext(ctx)
	return func(name string) ([]byte, error) {
		content, err := os.ReadFile(filepath.Join(b.opts.SrcDir, filepath.FromSlash(name)))
		if err != nil {
			logger.Debug("skipping unreadable asset", "asset", name, "error", err)
			return nil, err
		}
		return content, nil
	}
}

// copyTree is one source directory mirrored into the output.
type copyTree struct {
	src  string
	dest string
}

func (b *Builder) copyTrees() []copyTree {
	trees := []copyTree{
		{src: filepath.Join(b.opts.SrcDir, assets.StylesDir), dest: filepath.Join(b.opts.DistDir, assets.StylesDir)},
		{src: filepath.Join(b.opts.SrcDir, assets.ScriptsDir), dest: filepath.Join(b.opts.DistDir, assets.ScriptsDir)},
	}
	if b.opts.AssetsDir != "" {
		trees = append(trees, copyTree{src: b.opts.AssetsDir, dest: filepath.Join(b.opts.DistDir, AssetsOutDir)})
	}
	return trees
}

func (b *Builder) copyAssets(ctx context.Context) (int, error) {
	logger := ctxlog.FromContext(ctx)
	trees := b.copyTrees()

	total := 0
	for _, tree := range trees {
		n, err := walker.CountFiles(tree.src, b.opts.Exclude)
		if err != nil {
			return 0, err
		}
		total += n
	}

	reporter := b.opts.Progress
	reporter.Start(total, "Copying assets")
	defer reporter.Finish()

	copied := 0
	for _, tree := range trees {
		n, err := walker.CopyTree(tree.src, tree.dest, walker.CopyOptions{
			Exclude: b.opts.Exclude,
			OnFile: func(rel string) {
				copied++
				reporter.Update(copied, rel)
			},
		})
		if err != nil {
			return copied, err
		}
		logger.Debug("copied tree", "src", tree.src, "dest", tree.dest, "files", n)
	}
	return copied, nil
}
