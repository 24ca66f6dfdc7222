package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	"git.home.luguber.info/inful/pageassets/internal/observability"
	"git.home.luguber.info/inful/pageassets/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags `embed:""`
	Interval  time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
	Debounce  time.Duration `help:"Quiet period before a rebuild starts" default:"300ms"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig(w.SiteFlags)
	if err != nil {
		return err
	}

	builder, err := newBuilder(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Starting pageassets watch")
	ctx = observability.WithMode(ctx, string(cfg.Mode))
	if _, err := builder.Build(ctx); err != nil {
		// Keep watching so failing pages can be fixed.
		observability.ErrorContext(ctx, "Initial build finished with errors", logfields.Error(err))
	}

	watcher := watch.New(builder, cfg.Site.Source,
		watch.WithRoots(cfg.SearchRoots...),
		watch.WithIgnore(cfg.Site.Output),
		watch.WithDebounce(w.Debounce),
		watch.WithInterval(w.Interval),
		watch.WithLogger(slog.Default()),
	)
	if err := watcher.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Watch stopped")
	return nil
}
