// Package site is a small static site builder that hosts the asset transform.
//
// It discovers templates under the configured source directory, renders Markdown
// through a layout, hands every rendered page to the asset transform and writes the
// result. Pages whose transform fails are not written.
package site

import (
	"context"
	stderrors "errors"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/pageassets/internal/config"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/frontmatter"
	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/markdown"
	"git.home.luguber.info/inful/pageassets/internal/observability"
	"git.home.luguber.info/inful/pageassets/internal/pageassets"
)

// Report summarizes one build.
type Report struct {
	Pages       int
	Transformed int
	Drafts      int
	Failed      int
	Assets      int
	Copied      int
	Duration    time.Duration
}

// Builder renders the site.
type Builder struct {
	cfg       *config.Config
	transform pageassets.Transform
	layout    *template.Template
	logger    *slog.Logger
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// NewBuilder prepares a builder. The layout is parsed once here.
func NewBuilder(cfg *config.Config, transform pageassets.Transform, opts ...Option) (*Builder, error) {
	layout, err := loadLayout(cfg.Site.Layout)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load layout").
			WithContext("path", cfg.Site.Layout).
			Fatal().
			Build()
	}
	b := &Builder{cfg: cfg, transform: transform, layout: layout, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// pageResult is the outcome of one template.
type pageResult struct {
	draft  bool
	result pageassets.Result
}

// Build renders every template once. Page failures do not stop the build; they are
// counted and returned joined.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	if observability.GetContext(ctx).BuildID == "" {
		ctx = observability.WithBuildID(ctx, observability.NewBuildID())
	}
	ctx = observability.WithMode(ctx, b.transform.Name())
	log := observability.Logger(ctx, b.logger)

	templates, err := Discover(b.cfg.Site.Source, b.cfg.Site.Output)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to discover templates").
			WithContext("path", b.cfg.Site.Source).
			Build()
	}

	results := runOrdered(templates, b.cfg.Site.Workers, func(tpl Template) (pageResult, error) {
		return b.buildPage(ctx, tpl)
	})

	report := &Report{Pages: len(templates)}
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			report.Failed++
			errs = append(errs, r.Err)
			log.ErrorContext(ctx, "Page failed",
				logfields.Page(templates[i].RelativePath),
				logfields.Error(r.Err))
			continue
		}
		if r.Value.draft {
			report.Drafts++
			continue
		}
		report.Transformed++
		report.Assets += r.Value.result.Processed
		report.Copied += r.Value.result.Copied
	}
	report.Duration = time.Since(start)

	log.InfoContext(ctx, "Build completed",
		slog.Int("pages", report.Pages),
		slog.Int("failed", report.Failed),
		slog.Int("assets", report.Assets),
		logfields.Copied(report.Copied),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))

	return report, stderrors.Join(errs...)
}

func (b *Builder) buildPage(ctx context.Context, tpl Template) (pageResult, error) {
	raw, err := os.ReadFile(tpl.Path)
	if err != nil {
		return pageResult{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to read template").
			WithContext("path", tpl.Path).
			Build()
	}

	content := string(raw)
	if tpl.Markdown {
		meta, body, err := frontmatter.Parse(raw)
		if err != nil {
			return pageResult{}, errors.WrapError(err, errors.CategoryValidation, "invalid front matter").
				WithContext("path", tpl.Path).
				Build()
		}
		if meta.Draft {
			return pageResult{draft: true}, nil
		}
		html, err := markdown.Render(body, markdown.DefaultOptions)
		if err != nil {
			return pageResult{}, errors.WrapError(err, errors.CategoryRender, "failed to render markdown").
				WithContext("path", tpl.Path).
				Build()
		}
		title := meta.Title
		if title == "" {
			title = markdown.FirstHeading(body)
		}
		content, err = execute(b.layout, pageData{
			Title:   title,
			Path:    tpl.RelativePath,
			Content: template.HTML(html), //nolint:gosec // rendered from local templates
			Params:  meta.Params,
		})
		if err != nil {
			return pageResult{}, errors.WrapError(err, errors.CategoryRender, "failed to execute layout").
				WithContext("path", tpl.Path).
				Build()
		}
	}

	page := pageassets.Page{
		InputPath:  tpl.Path,
		OutputPath: OutputPath(b.cfg.Site.Output, tpl.RelativePath),
		Content:    content,
	}
	res, err := b.transform.Transform(ctx, page)
	if err != nil {
		return pageResult{}, err
	}

	if err := writePage(page.OutputPath, res.Content); err != nil {
		return pageResult{}, err
	}
	return pageResult{result: res}, nil
}

func writePage(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create page directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // site output is world readable
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
			WithContext("path", path).
			Build()
	}
	return nil
}

type orderedResult[T any] struct {
	Value T
	Err   error
}

// runOrdered applies fn to items with at most concurrency in flight and returns the
// results in input order.
func runOrdered[T any, R any](items []T, concurrency int, fn func(T) (R, error)) []orderedResult[R] {
	if len(items) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	sem := make(chan struct{}, concurrency)
	results := make([]orderedResult[R], len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			v, err := fn(item)
			results[i] = orderedResult[R]{Value: v, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
