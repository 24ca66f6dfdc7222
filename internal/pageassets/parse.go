package pageassets

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pageassets/internal/assetpath"
	"git.home.luguber.info/inful/pageassets/internal/copier"
	"git.home.luguber.info/inful/pageassets/internal/digest"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/markup"
	"git.home.luguber.info/inful/pageassets/internal/match"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	"git.home.luguber.info/inful/pageassets/internal/observability"
)

// ParseTransform discovers asset references in page markup and rewrites them.
type ParseTransform struct {
	base
}

func (t *ParseTransform) Name() string { return "parse" }

// reference is one asset occurrence selected for processing.
type reference struct {
	ref    *markup.Ref
	raw    string
	path   string
	suffix string
}

// pageRun holds the per-page state shared by the reference tasks.
type pageRun struct {
	*ParseTransform
	page        Page
	templateDir string
	outputDir   string

	mu     sync.Mutex // guards the markup document and claims
	claims map[string]string
	copied int
}

// Transform processes every asset reference of the page concurrently and renders the
// markup once all of them succeeded. Pages that are not applicable, or that contain no
// asset references, are returned byte-identical.
func (t *ParseTransform) Transform(ctx context.Context, page Page) (Result, error) {
	start := time.Now()
	mode := t.Name()
	ctx = observability.WithPage(ctx, page.OutputPath)

	if !t.applicable(page) {
		t.opts.recorder.IncPageOutcome(mode, metrics.PageSkipped)
		return Result{Content: page.Content}, nil
	}

	doc, err := markup.Parse(page.Content)
	if err != nil {
		t.opts.recorder.IncPageOutcome(mode, metrics.PageFailed)
		return Result{}, pageError(err, page)
	}

	var refs []reference
	for _, r := range doc.Refs(t.cfg.Selectors) {
		raw := r.Value()
		p, suffix := assetpath.SplitRef(raw)
		if match.IsExternal(p) || !t.assets.Match(p) {
			continue
		}
		refs = append(refs, reference{ref: r, raw: raw, path: p, suffix: suffix})
	}
	t.opts.recorder.AddAssetsDiscovered(mode, len(refs))

	if len(refs) == 0 {
		t.finish(ctx, mode, start, Result{Content: page.Content})
		return Result{Content: page.Content}, nil
	}

	run := &pageRun{
		ParseTransform: t,
		page:           page,
		templateDir:    filepath.Dir(page.InputPath),
		outputDir:      filepath.Dir(page.OutputPath),
		claims:         make(map[string]string, len(refs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if t.cfg.Concurrency > 0 {
		g.SetLimit(t.cfg.Concurrency)
	}
	for _, r := range refs {
		r := r
		g.Go(func() error {
			return run.process(gctx, r)
		})
	}
	if err := g.Wait(); err != nil {
		t.opts.recorder.IncPageOutcome(mode, metrics.PageFailed)
		t.opts.recorder.ObservePageDuration(mode, time.Since(start))
		return Result{}, pageError(err, page)
	}

	rendered, err := doc.Render()
	if err != nil {
		t.opts.recorder.IncPageOutcome(mode, metrics.PageFailed)
		return Result{}, pageError(err, page)
	}

	res := Result{
		Content:    rendered,
		Discovered: len(refs),
		Processed:  len(refs),
		Copied:     run.copied,
	}
	t.finish(ctx, mode, start, res)
	return res, nil
}

func (t *ParseTransform) finish(ctx context.Context, mode string, start time.Time, res Result) {
	elapsed := time.Since(start)
	t.opts.recorder.IncPageOutcome(mode, metrics.PageProcessed)
	t.opts.recorder.ObservePageDuration(mode, elapsed)
	observability.Logger(ctx, t.opts.logger).DebugContext(ctx, "Processed page assets",
		logfields.Count(res.Processed),
		logfields.Copied(res.Copied),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
}

// process resolves, hashes, copies and rewrites one reference.
func (r *pageRun) process(ctx context.Context, ref reference) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hit, err := r.opts.resolver.Resolve(r.templateDir, ref.path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotFound,
			fmt.Sprintf("unresolved asset %q referenced by %s (template %s)", ref.raw, r.page.OutputPath, r.page.InputPath)).
			WithContextMap(errors.ErrorContext{
				"reference":    ref.raw,
				"template_dir": r.templateDir,
			}).
			Build()
	}

	loc := assetpath.MirroredFrom(hit.Root, hit.Path, r.outputDir)

	var sum digest.Digest
	if r.cfg.HashAssets {
		sum, err = digest.File(loc.AssetPath, r.cfg.HashingAlg, r.cfg.HashingDigest)
		if err != nil {
			return err
		}
		loc = assetpath.Flattened(loc, r.outputDir, sum.FileStem())
	} else if err := r.claim(loc); err != nil {
		return err
	}

	if err := copier.EnsureDir(loc.DestDir); err != nil {
		return err
	}
	outcome, err := r.copier.CopyIfNeeded(ctx, loc.AssetPath, loc.DestPath)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if outcome == copier.Copied {
		r.copied++
	}
	ref.ref.Set(assetpath.PageRef(r.outputDir, loc.DestPath) + ref.suffix)
	if r.cfg.HashAssets && r.cfg.AddIntegrityAttribute {
		ref.ref.SetAttr("integrity", sum.Integrity())
	}
	return nil
}

// claim records the mirrored destination of a source. Distinct sources for one
// destination within a page are rejected.
func (r *pageRun) claim(loc assetpath.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.claims[loc.DestPath]; ok && prev != loc.AssetPath {
		return errors.WrapError(ErrDestinationCollision, errors.CategoryValidation,
			"two assets map to the same destination").
			WithContext("destination", loc.DestPath).
			WithContext("path", loc.AssetPath).
			WithContext("conflicting_path", prev).
			Build()
	}
	r.claims[loc.DestPath] = loc.AssetPath
	return nil
}
