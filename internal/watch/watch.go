// Package watch rebuilds the site when its sources change.
//
// Every directory below the watched roots is registered with fsnotify. Bursts of
// events are debounced into a single rebuild, and directories created while running
// are added to the watch set. An optional interval adds a periodic full rebuild
// scheduled with gocron.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/site"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// Builder runs one full build.
type Builder interface {
	Build(ctx context.Context) (*site.Report, error)
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option { return func(w *Watcher) { w.debounce = d } }

// WithInterval enables a periodic full rebuild.
func WithInterval(d time.Duration) Option { return func(w *Watcher) { w.interval = d } }

// WithIgnore excludes paths (typically the output directory) from triggering rebuilds.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p != "" {
				w.ignore = append(w.ignore, filepath.Clean(p))
			}
		}
	}
}

// WithRoots watches additional directories, such as asset search roots.
func WithRoots(roots ...string) Option {
	return func(w *Watcher) {
		for _, r := range roots {
			if r != "" {
				w.roots = append(w.roots, filepath.Clean(r))
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(w *Watcher) { w.logger = l } }

// WithOnBuild registers a callback invoked after every rebuild.
func WithOnBuild(fn func(reason string, report *site.Report, err error)) Option {
	return func(w *Watcher) { w.onBuild = fn }
}

// Watcher triggers rebuilds from filesystem events and an optional schedule.
type Watcher struct {
	builder  Builder
	roots    []string
	ignore   []string
	debounce time.Duration
	interval time.Duration
	logger   *slog.Logger
	onBuild  func(string, *site.Report, error)

	buildMu sync.Mutex
}

// New creates a Watcher for the source tree rooted at sourceDir.
func New(builder Builder, sourceDir string, opts ...Option) *Watcher {
	w := &Watcher{
		builder:  builder,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	if sourceDir != "" {
		w.roots = append(w.roots, filepath.Clean(sourceDir))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is canceled. It does not perform an initial build.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range w.roots {
		if err := w.addTree(fsw, root); err != nil {
			return err
		}
	}

	if w.interval > 0 {
		sched, err := w.schedule(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	w.logger.Info("Watching for changes",
		slog.Any("roots", w.roots),
		slog.Duration("debounce", w.debounce))

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fsw, event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.rebuild(ctx, "change: "+pending)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// schedule starts a gocron scheduler running a full rebuild every interval.
func (w *Watcher) schedule(ctx context.Context) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.rebuild(ctx, "interval") }),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	s.Start()
	return s, nil
}

// rebuild runs one build; concurrent triggers are serialized.
func (w *Watcher) rebuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	w.logger.Info("Rebuilding site", slog.String("reason", reason))
	report, err := w.builder.Build(ctx)
	if err != nil {
		w.logger.Error("Rebuild finished with errors", logfields.Error(err))
	}
	if w.onBuild != nil {
		w.onBuild(reason, report, err)
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool {
	p = filepath.Clean(p)
	for _, ig := range w.ignore {
		if p == ig || strings.HasPrefix(p, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
