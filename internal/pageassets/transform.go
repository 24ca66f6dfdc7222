package pageassets

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pageassets/internal/config"
	"git.home.luguber.info/inful/pageassets/internal/copier"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/fswalk"
	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/match"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	"git.home.luguber.info/inful/pageassets/internal/resolve"
)

// Page is one rendered page handed over by the host.
type Page struct {
	// InputPath is the template source file.
	InputPath string
	// OutputPath is the rendered destination file.
	OutputPath string
	// Content is the rendered markup.
	Content string
}

// Result is the outcome of transforming one page.
type Result struct {
	// Content is the (possibly rewritten) markup.
	Content string
	// Discovered counts asset references (parse) or matching files (directory).
	Discovered int
	// Processed counts assets that were resolved and materialized.
	Processed int
	// Copied counts assets whose bytes were actually written.
	Copied int
}

// Transform is the per-page asset step.
type Transform interface {
	Name() string
	Transform(ctx context.Context, page Page) (Result, error)
}

// Resolver locates a reference below the template directory or a fallback root.
type Resolver interface {
	Resolve(templateDir, ref string) (resolve.Hit, error)
}

// Option customizes the collaborators of a Transform.
type Option func(*options)

type options struct {
	walker   fswalk.Walker
	resolver Resolver
	recorder metrics.Recorder
	logger   *slog.Logger
}

// WithWalker replaces the directory walker used in directory mode.
func WithWalker(w fswalk.Walker) Option { return func(o *options) { o.walker = w } }

// WithResolver replaces the asset resolver used in parse mode.
func WithResolver(r Resolver) Option { return func(o *options) { o.resolver = r } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New binds the transform selected by cfg.Mode. Any mode other than parse or
// directory is a fatal configuration error.
func New(cfg *config.Config, opts ...Option) (Transform, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}

	o := options{
		walker:   fswalk.Default,
		resolver: resolve.New(cfg.SearchRoots...),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Mode != config.ModeParse && cfg.Mode != config.ModeDirectory {
		return nil, errors.ConfigError("unknown asset mode").
			WithContext("field", "mode").
			WithContext("mode", string(cfg.Mode)).
			Build()
	}

	b, err := newBase(cfg, o)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		o.logger.Warn(w, logfields.Mode(string(cfg.Mode)))
	}

	if cfg.Mode == config.ModeDirectory {
		return &DirectoryTransform{base: b}, nil
	}
	return &ParseTransform{base: b}, nil
}

// base carries what both strategies share: the applicability gate, matchers and copier.
type base struct {
	cfg      *config.Config
	posts    *match.Matcher
	assets   *match.Matcher
	copier   *copier.Copier
	opts     options
	markupEx map[string]struct{}
}

func newBase(cfg *config.Config, o options) (base, error) {
	posts, err := match.Compile(cfg.PostsMatching)
	if err != nil {
		return base{}, errors.WrapError(err, errors.CategoryConfig, "invalid posts_matching").
			WithContext("field", "posts_matching").Fatal().Build()
	}
	assets, err := match.Compile(cfg.AssetsMatching)
	if err != nil {
		return base{}, errors.WrapError(err, errors.CategoryConfig, "invalid assets_matching").
			WithContext("field", "assets_matching").Fatal().Build()
	}

	exts := make(map[string]struct{}, len(cfg.MarkupExtensions))
	for _, ext := range cfg.MarkupExtensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return base{
		cfg:    cfg,
		posts:  posts,
		assets: assets,
		copier: copier.New(copier.Options{
			Force:    cfg.ForceCopy,
			Silent:   cfg.Silent,
			Logger:   o.logger,
			Recorder: o.recorder,
		}),
		opts:     o,
		markupEx: exts,
	}, nil
}

// applicable reports whether the page is rendered markup produced from a post.
func (b *base) applicable(page Page) bool {
	if _, ok := b.markupEx[strings.ToLower(filepath.Ext(page.OutputPath))]; !ok {
		return false
	}
	return b.posts.Match(filepath.ToSlash(page.InputPath))
}

// pageError attaches the page's paths to err.
func pageError(err error, page Page) error {
	ce, ok := errors.AsClassified(err)
	switch {
	case ok:
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		ce = errors.WrapError(err, errors.CategoryRuntime, "asset processing interrupted").Build()
	default:
		ce = errors.WrapError(err, errors.CategoryFileSystem, "asset processing failed").Build()
	}
	return ce.WithContext("input_path", page.InputPath).
		WithContext("output_path", page.OutputPath)
}
