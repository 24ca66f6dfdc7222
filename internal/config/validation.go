package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pageassets/internal/digest"
	"git.home.luguber.info/inful/pageassets/internal/foundation"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/match"
)

var validators = foundation.NewValidatorChain[*Config](
	validateMode,
	validatePatterns,
	validateHashing,
	validateSelectors,
	validateLimits,
)

// Validate checks the configuration. Any failure is a fatal config error; an
// unknown mode in particular aborts setup before any page is processed.
func (c *Config) Validate() error {
	return validators.Validate(c).ToError(errors.CategoryConfig)
}

func validateMode(c *Config) foundation.ValidationResult {
	return foundation.OneOf("mode", []Mode{ModeParse, ModeDirectory})(c.Mode)
}

func validatePatterns(c *Config) foundation.ValidationResult {
	res := foundation.Valid()
	for _, p := range []struct{ field, pattern string }{
		{"posts_matching", c.PostsMatching},
		{"assets_matching", c.AssetsMatching},
	} {
		if _, err := match.Compile(p.pattern); err != nil {
			res = res.Combine(foundation.Invalid(foundation.NewValidationError(p.field, "glob", err.Error())))
		}
	}
	return res
}

func validateHashing(c *Config) foundation.ValidationResult {
	return foundation.Check(digest.Supported(c.HashingAlg), "hashing_alg", "one_of",
		fmt.Sprintf("unsupported hashing algorithm %q", c.HashingAlg)).
		Combine(foundation.Check(digest.SupportedEncoding(c.HashingDigest), "hashing_digest", "one_of",
			fmt.Sprintf("unsupported digest encoding %q", c.HashingDigest)))
}

func validateSelectors(c *Config) foundation.ValidationResult {
	res := foundation.Valid()
	for i, sel := range c.Selectors {
		if strings.TrimSpace(sel.Element) == "" || strings.TrimSpace(sel.Attribute) == "" {
			res = res.Combine(foundation.Invalid(foundation.NewValidationError(
				fmt.Sprintf("selectors[%d]", i), "required", "element and attribute are required")))
		}
	}
	return res
}

func validateLimits(c *Config) foundation.ValidationResult {
	res := foundation.Check(c.Concurrency >= 0, "concurrency", "min", "concurrency must not be negative").
		Combine(foundation.Check(c.Site.Workers > 0, "site.workers", "min", "site.workers must be positive"))
	for i, ext := range c.MarkupExtensions {
		res = res.Combine(foundation.Check(strings.HasPrefix(ext, ".") && len(ext) > 1,
			fmt.Sprintf("markup_extensions[%d]", i), "format", fmt.Sprintf("extension %q must start with a dot", ext)))
	}
	return res
}
