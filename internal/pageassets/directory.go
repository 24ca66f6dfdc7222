package pageassets

import (
	"context"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pageassets/internal/assetpath"
	"git.home.luguber.info/inful/pageassets/internal/copier"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	"git.home.luguber.info/inful/pageassets/internal/observability"
)

// DirectoryTransform copies every matching file from the page's template directory
// into the page's output directory, mirroring subdirectories. Markup is never touched.
type DirectoryTransform struct {
	base
}

func (t *DirectoryTransform) Name() string { return "directory" }

// Transform copies the files sequentially and returns the page content unchanged.
func (t *DirectoryTransform) Transform(ctx context.Context, page Page) (Result, error) {
	start := time.Now()
	mode := t.Name()
	ctx = observability.WithPage(ctx, page.OutputPath)

	if !t.applicable(page) {
		t.opts.recorder.IncPageOutcome(mode, metrics.PageSkipped)
		return Result{Content: page.Content}, nil
	}

	templateDir := filepath.Dir(page.InputPath)
	outputDir := filepath.Dir(page.OutputPath)

	files, err := t.opts.walker.List(templateDir, t.cfg.Recursive)
	if err != nil {
		t.opts.recorder.IncPageOutcome(mode, metrics.PageFailed)
		return Result{}, pageError(errors.WrapError(err, errors.CategoryFileSystem, "failed to list template directory").
			WithContext("path", templateDir).
			Build(), page)
	}

	res := Result{Content: page.Content}
	for _, rel := range files {
		if !t.assets.Match(rel) {
			continue
		}
		res.Discovered++

		loc := assetpath.Mirrored(templateDir, outputDir, rel)
		if err := copier.EnsureDir(loc.DestDir); err != nil {
			t.opts.recorder.IncPageOutcome(mode, metrics.PageFailed)
			return Result{}, pageError(err, page)
		}
		outcome, err := t.copier.CopyIfNeeded(ctx, loc.AssetPath, loc.DestPath)
		if err != nil {
			t.opts.recorder.IncPageOutcome(mode, metrics.PageFailed)
			return Result{}, pageError(err, page)
		}
		res.Processed++
		if outcome == copier.Copied {
			res.Copied++
		}
	}

	elapsed := time.Since(start)
	t.opts.recorder.AddAssetsDiscovered(mode, res.Discovered)
	t.opts.recorder.IncPageOutcome(mode, metrics.PageProcessed)
	t.opts.recorder.ObservePageDuration(mode, elapsed)
	observability.Logger(ctx, t.opts.logger).DebugContext(ctx, "Copied template directory assets",
		logfields.Count(res.Processed),
		logfields.Copied(res.Copied),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return res, nil
}
