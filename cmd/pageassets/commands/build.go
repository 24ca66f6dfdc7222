package commands

import (
	"context"
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pageassets/internal/config"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	"git.home.luguber.info/inful/pageassets/internal/observability"
	"git.home.luguber.info/inful/pageassets/internal/pageassets"
	"git.home.luguber.info/inful/pageassets/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags   `embed:""`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this path after the build"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig(b.SiteFlags)
	if err != nil {
		return err
	}
	return RunBuild(context.Background(), cfg, b.MetricsFile)
}

// RunBuild builds the site once and prints a summary on stdout.
func RunBuild(ctx context.Context, cfg *config.Config, metricsFile string) error {
	fmt.Println("Starting pageassets build")
	ctx = observability.WithMode(observability.WithBuildID(ctx, observability.NewBuildID()), string(cfg.Mode))
	observability.DebugContext(ctx, "Configuration loaded",
		slog.String("source", cfg.Site.Source),
		slog.String("output", cfg.Site.Output),
		slog.Bool("hash_assets", cfg.HashAssets))

	mem := &metrics.MemoryRecorder{}
	recorders := metrics.Fanout{mem}
	var reg *prom.Registry
	if metricsFile != "" {
		reg = prom.NewRegistry()
		recorders = append(recorders, metrics.NewPrometheusRecorder(reg))
	}

	builder, err := newBuilder(cfg, recorders)
	if err != nil {
		return err
	}

	report, buildErr := builder.Build(ctx)

	if reg != nil {
		if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
			observability.WarnContext(ctx, "Failed to write metrics file", logfields.Path(metricsFile), logfields.Error(err))
		}
	}

	if report != nil {
		fmt.Printf("Built %d pages (%d failed, %d drafts): %d assets, %d copied, %d unchanged\n",
			report.Pages, report.Failed, report.Drafts, mem.Discovered(), mem.Copies(), mem.Skips())
	}
	if buildErr != nil {
		fmt.Println("Build finished with errors")
		return buildErr
	}
	return nil
}

// newBuilder wires the asset transform for cfg.Mode into a site builder.
func newBuilder(cfg *config.Config, recorder metrics.Recorder) (*site.Builder, error) {
	transform, err := pageassets.New(cfg,
		pageassets.WithRecorder(recorder),
		pageassets.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	builder, err := site.NewBuilder(cfg, transform, site.WithLogger(slog.Default()))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to create site builder").Build()
	}
	return builder, nil
}
