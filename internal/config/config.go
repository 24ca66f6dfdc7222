// Package config loads the pipeline configuration.
//
// A Config is built once at startup by Load (or Default), validated, and then passed
// by pointer to every component. Nothing mutates it afterwards.
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pageassets/internal/digest"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/markup"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "pageassets.yaml"

// Mode selects the per-page asset strategy.
type Mode string

const (
	// ModeParse scans page markup for references and rewrites them.
	ModeParse Mode = "parse"
	// ModeDirectory copies every matching file next to the page's template.
	ModeDirectory Mode = "directory"
)

// Config is the complete pipeline configuration.
type Config struct {
	Mode           Mode   `yaml:"mode"`
	PostsMatching  string `yaml:"posts_matching"`
	AssetsMatching string `yaml:"assets_matching"`
	Recursive      bool   `yaml:"recursive"`

	HashAssets            bool             `yaml:"hash_assets"`
	HashingAlg            digest.Algorithm `yaml:"hashing_alg"`
	HashingDigest         digest.Encoding  `yaml:"hashing_digest"`
	AddIntegrityAttribute bool             `yaml:"add_integrity_attribute"`

	ForceCopy bool `yaml:"force_copy"`
	Silent    bool `yaml:"silent"`

	Selectors        []markup.Selector `yaml:"selectors"`
	SearchRoots      []string          `yaml:"search_roots"`
	Concurrency      int               `yaml:"concurrency"`
	MarkupExtensions []string          `yaml:"markup_extensions"`

	Site    SiteConfig    `yaml:"site"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the template and output trees of the bundled site builder.
type SiteConfig struct {
	Source string `yaml:"source"`
	Output string `yaml:"output"`
	Layout string `yaml:"layout,omitempty"`
	// Workers bounds how many pages are rendered at once.
	Workers int `yaml:"workers"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{AddIntegrityAttribute: true}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads, expands, decodes, defaults and validates the configuration at path.
// Relative paths inside the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	baseDir := filepath.Dir(path)
	if err := loadEnvFiles(baseDir); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
			WithContext("path", baseDir).
			Fatal().
			Build()
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(err, errors.CategoryConfig, "configuration file not found").
				WithContext("path", path).
				Fatal().
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(baseDir)
	return cfg, nil
}

// Parse decodes YAML config content after ${VAR} expansion. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{AddIntegrityAttribute: true}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode config").
			Fatal().
			Build()
	}

	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePaths makes relative site and search-root paths absolute against baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	c.Site.Source = abs(c.Site.Source)
	c.Site.Output = abs(c.Site.Output)
	c.Site.Layout = abs(c.Site.Layout)
	for i, root := range c.SearchRoots {
		c.SearchRoots[i] = abs(root)
	}
}

// Warnings reports accepted but ineffective settings.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Mode == ModeDirectory && c.HashAssets {
		warnings = append(warnings, "hash_assets is ignored in directory mode")
	}
	if c.Mode == ModeParse && c.Recursive {
		warnings = append(warnings, "recursive only applies to directory mode")
	}
	return warnings
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(path, append([]byte(exampleHeader), data...), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}

const exampleHeader = `# pageassets configuration
# mode: parse rewrites <img src> (and other selectors) to copied assets,
#       directory copies every matching file next to each page.
# Values may reference environment variables as ${VAR}; .env files next to
# this file are loaded first.
`
