package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagebuild/internal/assets"
	"github.com/ziadkadry99/pagebuild/internal/build"
	"github.com/ziadkadry99/pagebuild/internal/config"
	"github.com/ziadkadry99/pagebuild/internal/ctxlog"
	"github.com/ziadkadry99/pagebuild/internal/history"
	"github.com/ziadkadry99/pagebuild/internal/progress"
	"github.com/ziadkadry99/pagebuild/internal/server"
	"github.com/ziadkadry99/pagebuild/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site into the output directory",
	Long: `Loads src/data/*.json and src/components/*.html, resolves the page template,
links or inlines styles and scripts, writes index.html to the output directory
and copies styles, scripts and static assets next to it.

With --watch the sources are observed and every change triggers a rebuild.
With --serve the output directory is served over HTTP.

Styles, scripts and assets are mirrored verbatim. Only .git, .svn and .hg
directories and paths matching the configured exclude patterns are skipped.
Editor swap files and OS metadata such as .DS_Store are copied but do not
trigger a rebuild in watch mode.`,
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func addBuildFlags(c *cobra.Command) {
	c.Flags().String("mode", "", "asset mode: reference or inline (overrides config)")
	c.Flags().Bool("optimize", false, "inline styles and scripts into index.html (same as --mode inline)")
	c.Flags().Bool("watch", false, "rebuild whenever a source file changes")
	c.Flags().Bool("serve", false, "serve the output directory over HTTP")
	c.Flags().Int("port", 0, "port for --serve (overrides config)")
	c.Flags().String("src", "", "source directory (overrides config)")
	c.Flags().String("dist", "", "output directory (overrides config)")
	c.Flags().String("assets", "", "static assets directory (overrides config)")
	c.Flags().Duration("debounce", 0, "wait this long after the last change before rebuilding in watch mode")
}

// applyBuildFlags overlays explicitly set flags on cfg and validates the
// result.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("src") {
		cfg.SrcDir, _ = flags.GetString("src")
	}
	if flags.Changed("dist") {
		cfg.DistDir, _ = flags.GetString("dist")
	}
	if flags.Changed("assets") {
		cfg.AssetsDir, _ = flags.GetString("assets")
	}
	if flags.Changed("mode") {
		raw, _ := flags.GetString("mode")
		mode, err := assets.ParseMode(raw)
		if err != nil {
			return err
		}
		cfg.Mode = mode
	}
	if optimize, _ := flags.GetBool("optimize"); optimize {
		if flags.Changed("mode") && cfg.Mode != assets.ModeInline {
			return fmt.Errorf("--optimize conflicts with --mode %s", cfg.Mode)
		}
		cfg.Mode = assets.ModeInline
	}
	if flags.Changed("watch") {
		cfg.Watch.Enabled, _ = flags.GetBool("watch")
	}
	if flags.Changed("debounce") {
		d, _ := flags.GetDuration("debounce")
		cfg.Watch.DebounceMS = int(d / time.Millisecond)
	}
	if flags.Changed("serve") {
		cfg.Serve.Enabled, _ = flags.GetBool("serve")
	}
	if flags.Changed("port") {
		cfg.Serve.Port, _ = flags.GetInt("port")
	}

	return cfg.Validate()
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBuildFlags(cmd, cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := ctxlog.New(os.Stderr, verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	opts := build.OptionsFromConfig(cfg)
	out := cmd.OutOrStdout()

	builds := openHistory(ctx, cfg)
	if builds != nil {
		defer builds.Close()
	}

	start := time.Now()
	res, err := build.New(opts).WithProgress(progress.NewReporter()).Build(ctx)
	builds.record(ctx, res, err, history.TriggerManual, time.Since(start))
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	printSummary(out, res)

	if !cfg.Watch.Enabled && !cfg.Serve.Enabled {
		return nil
	}

	var srv *server.Server
	serveErr := make(chan error, 1)
	if cfg.Serve.Enabled {
		srv = server.New(server.Config{
			Port:       cfg.Serve.Port,
			Dir:        cfg.DistDir,
			AllowAll:   cfg.Serve.AllowAllOrigins,
			LiveReload: cfg.Serve.LiveReload && cfg.Watch.Enabled,
		}, logger)
		srv.RecordBuild(res.BuildID, nil)
		go func() {
			err := srv.Start()
			if err != nil {
				logger.Error("preview server stopped", "error", err)
			}
			serveErr <- err
		}()
		fmt.Fprintf(out, "Serving %s at http://localhost:%d — press Ctrl+C to stop\n", cfg.DistDir, cfg.Serve.Port)
	}

	var watchErr error
	if cfg.Watch.Enabled {
		fmt.Fprintf(out, "Watching %s for changes — press Ctrl+C to stop\n", cfg.SrcDir)
		watchErr = watchAndRebuild(ctx, cfg, opts, srv, builds, out)
	} else {
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("serving: %w", err)
			}
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
	}
	return watchErr
}

// watchAndRebuild rebuilds on every source or asset change until ctx is
// cancelled. Failed rebuilds are logged and the watcher keeps running.
func watchAndRebuild(ctx context.Context, cfg *config.Config, opts build.Options, srv *server.Server, builds *buildLog, out io.Writer) error {
	logger := ctxlog.FromContext(ctx)
	builder := build.New(opts).WithProgress(progress.Nop{})
	wopts := watch.Options{
		Exclude:     cfg.Exclude,
		IgnorePaths: []string{cfg.DistDir},
		Debounce:    time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
	}

	roots := []string{cfg.SrcDir}
	if cfg.AssetsDir != "" {
		if info, err := os.Stat(cfg.AssetsDir); err == nil && info.IsDir() {
			roots = append(roots, cfg.AssetsDir)
		}
	}

	watchers := make([]*watch.Watcher, 0, len(roots))
	for _, root := range roots {
		w, err := watch.New(root, wopts)
		if err != nil {
			for _, started := range watchers {
				started.Close()
			}
			return err
		}
		watchers = append(watchers, w)
	}

	rebuild := func(ctx context.Context, ev watch.Event) {
		logger.Info("change detected, rebuilding", "path", ev.Path, "op", ev.Op.String())
		start := time.Now()
		res, err := builder.Build(ctx)
		builds.record(ctx, res, err, history.TriggerWatch, time.Since(start))
		if err != nil {
			logger.Error("rebuild failed", "error", err)
			if srv != nil {
				srv.RecordBuild("", err)
			}
			return
		}
		if srv != nil {
			srv.RecordBuild(res.BuildID, nil)
		}
		printSummary(out, res)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(watchers))
	for i, w := range watchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = w.Run(ctx, rebuild)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, res *build.Result) {
	fmt.Fprintf(out, "Built %s in %s\n", res.OutputPath, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Data files: %d, components: %d, styles: %d, scripts: %d, copied files: %d\n",
		res.DataFiles, res.Components, res.Styles, res.Scripts, res.CopiedFiles)
	if res.DefaultTemplate {
		fmt.Fprintln(out, "  Template: built-in default")
	}
	if n := len(res.Unresolved); n > 0 {
		fmt.Fprintf(out, "  Unresolved placeholders: %d\n", n)
		if verbose {
			for _, tok := range res.Unresolved {
				fmt.Fprintf(out, "    %s %s\n", tok.Kind, tok.Text)
			}
		}
	}
}

