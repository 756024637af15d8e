// Package watch turns filesystem notifications under a source tree into
// rebuild triggers.
//
// Each relevant notification spawns its own rebuild. Rebuilds are not
// serialized: a burst of changes can start overlapping builds that race on
// the output directory, and the last writer wins. Setting Options.Debounce
// coalesces a burst into a single rebuild.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/pagebuild/internal/ctxlog"
	"github.com/ziadkadry99/pagebuild/internal/walker"
)

// relevantOps are the notifications that trigger a rebuild.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// DefaultIgnores are OS and editor scratch files whose changes never trigger
// a rebuild. They are still copied by a build.
var DefaultIgnores = []string{
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*.swx",
	"*~",
	".#*",
	"4913",
}

// Event is one change notification.
type Event struct {
	Path    string // Path on disk.
	RelPath string // Slash-separated path relative to the watched root.
	Op      fsnotify.Op
}

// Options tunes a Watcher.
type Options struct {
	// Exclude holds glob patterns, relative to the root, whose changes are
	// ignored.
	Exclude []string
	// IgnorePaths are directories whose changes are ignored, typically the
	// output directory when it lives inside the source tree.
	IgnorePaths []string
	// Debounce waits for a quiet period before triggering. Zero triggers
	// once per notification.
	Debounce time.Duration
}

// Watcher observes a directory tree.
type Watcher struct {
	root   string
	opts   Options
	ignore []string
	fsw    *fsnotify.Watcher
}

// New starts watching root and every directory below it. Changes made after
// New returns are delivered once Run is called.
func New(root string, opts Options) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{root: absRoot, opts: opts, fsw: fsw}
	for _, p := range opts.IgnorePaths {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}

	if err := w.addTree(absRoot); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching. Run calls it on return.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addTree registers dir and its sub-directories with fsnotify, which does
// not watch recursively on its own.
func (w *Watcher) addTree(dir string) error {
	dirs, err := walker.Dirs(walker.WalkerConfig{RootDir: dir, Exclude: w.opts.Exclude})
	if err != nil {
		return fmt.Errorf("watch: listing %s: %w", dir, err)
	}
	for _, d := range dirs {
		if w.ignored(d) {
			continue
		}
		if err := w.fsw.Add(d); err != nil {
			return fmt.Errorf("watch: adding %s: %w", d, err)
		}
	}
	return nil
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run delivers change events to onChange until ctx is cancelled, then waits
// for in-flight callbacks and closes the watcher. Each callback runs in its
// own goroutine with a context that is not cancelled along with ctx, so a
// rebuild that has started always completes.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, Event)) error {
	defer w.fsw.Close()
	logger := ctxlog.FromContext(ctx)
	taskCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()
	spawn := func(ev Event) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			onChange(taskCtx, ev)
		}()
	}

	var pending Event
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case fe, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			ev, relevant := w.handle(ctx, fe)
			if !relevant {
				continue
			}
			logger.Debug("source changed", "path", ev.RelPath, "op", ev.Op.String())
			if w.opts.Debounce <= 0 {
				spawn(ev)
				continue
			}
			pending = ev
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.opts.Debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			spawn(pending)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("watch event queue overflowed; changes may have been missed")
				continue
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// handle filters a raw notification and keeps the watch list in step with
// newly created directories.
func (w *Watcher) handle(ctx context.Context, fe fsnotify.Event) (Event, bool) {
	if !fe.Op.Has(fsnotify.Write) && !fe.Op.Has(fsnotify.Create) &&
		!fe.Op.Has(fsnotify.Remove) && !fe.Op.Has(fsnotify.Rename) {
		return Event{}, false
	}
	if w.ignored(fe.Name) {
		return Event{}, false
	}

	rel, err := filepath.Rel(w.root, fe.Name)
	if err != nil {
		return Event{}, false
	}
	rel = filepath.ToSlash(rel)
	if walker.MatchesExclude(rel, w.opts.Exclude) || walker.MatchesExclude(rel, DefaultIgnores) || excludedByDefault(rel) {
		return Event{}, false
	}

	if fe.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(fe.Name); err == nil && info.IsDir() {
			if err := w.addTree(fe.Name); err != nil {
				ctxlog.FromContext(ctx).Warn("cannot watch new directory", "path", fe.Name, "error", err)
			}
		}
	}

	return Event{Path: fe.Name, RelPath: rel, Op: fe.Op & relevantOps}, true
}

func excludedByDefault(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		for _, excl := range walker.DefaultExcludes {
			if strings.EqualFold(part, excl) {
				return true
			}
		}
	}
	return false
}
