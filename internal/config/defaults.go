package config

import "git.home.luguber.info/inful/pageassets/internal/markup"

const (
	defaultPostsMatching  = "*.md"
	defaultAssetsMatching = "*.png|*.jpg|*.jpeg|*.gif|*.svg|*.webp"
	defaultSource         = "src"
	defaultOutput         = "_site"
)

// ApplyDefaults fills zero values. Enumerations are normalized here so that
// validation sees canonical values; unknown ones are left for Validate to reject.
func ApplyDefaults(cfg *Config) {
	if m, err := modeNormalizer.NormalizeWithError(string(cfg.Mode)); err == nil {
		cfg.Mode = m
	}
	if cfg.PostsMatching == "" {
		cfg.PostsMatching = defaultPostsMatching
	}
	if cfg.AssetsMatching == "" {
		cfg.AssetsMatching = defaultAssetsMatching
	}
	if a, err := algNormalizer.NormalizeWithError(string(cfg.HashingAlg)); err == nil {
		cfg.HashingAlg = a
	}
	if e, err := encodingNormalizer.NormalizeWithError(string(cfg.HashingDigest)); err == nil {
		cfg.HashingDigest = e
	}
	if len(cfg.Selectors) == 0 {
		cfg.Selectors = append([]markup.Selector(nil), markup.DefaultSelectors...)
	}
	if len(cfg.MarkupExtensions) == 0 {
		cfg.MarkupExtensions = []string{".html"}
	}
	if cfg.Site.Source == "" {
		cfg.Site.Source = defaultSource
	}
	if cfg.Site.Output == "" {
		cfg.Site.Output = defaultOutput
	}
	if cfg.Site.Workers == 0 {
		cfg.Site.Workers = 1
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
