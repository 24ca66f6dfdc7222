// Package commands implements the pageassets CLI.
package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pageassets/internal/config"
	ferrors "git.home.luguber.info/inful/pageassets/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"pageassets.yaml" env:"PAGEASSETS_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	Mode      string           `help:"Override mode (parse|directory)"`
	ForceCopy bool             `name:"force-copy" help:"Copy assets even when the destination looks current"`
	Silent    bool             `help:"Suppress per-asset copy logging"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build       BuildCmd   `cmd:"" help:"Build the site once and materialize page assets"`
	Watch       WatchCmd   `cmd:"" help:"Build, then rebuild whenever sources change"`
	Init        InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	VersionInfo VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(config.LogFormatText, level))
	return nil
}

// SiteFlags override the site section of the configuration.
type SiteFlags struct {
	Source string `short:"s" help:"Source directory with page templates (overrides site.source)"`
	Output string `short:"o" help:"Output directory for the generated site (overrides site.output)"`
}

// LoadConfig loads the configuration file and applies command-line overrides.
// A missing file at the default path falls back to built-in defaults.
func (c *CLI) LoadConfig(site SiteFlags) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		if c.Config != config.DefaultPath || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		slog.Info("No configuration file found, using defaults", slog.String("path", c.Config))
		cfg = config.Default()
		cfg.ResolvePaths(".")
	}

	if c.Mode != "" {
		mode, err := config.ParseMode(c.Mode)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid --mode").
				WithContext("field", "mode").
				Fatal().
				Build()
		}
		cfg.Mode = mode
	}
	if c.ForceCopy {
		cfg.ForceCopy = true
	}
	if c.Silent {
		cfg.Silent = true
	}
	if site.Source != "" {
		cfg.Site.Source = absPath(site.Source)
	}
	if site.Output != "" {
		cfg.Site.Output = absPath(site.Output)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Logging.Level.Slog()
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(cfg.Logging.Format, level))
	return cfg, nil
}

func newLogger(format config.LogFormat, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
