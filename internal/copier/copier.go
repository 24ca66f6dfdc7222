// Package copier implements the copy-if-needed step of the asset pipeline.
//
// A copy is skipped when the destination exists with the same size and the same
// modification time (to the nanosecond) as the source. After every copy the source's
// access and modification times are applied to the destination, which keeps that check
// stable across runs and across machines. No state is kept between runs; the
// filesystem is the cache.
package copier

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/logfields"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
)

// Outcome is the result of a copy-if-needed decision.
type Outcome int

const (
	// Unchanged means the destination already matched the source.
	Unchanged Outcome = iota
	// Copied means the source bytes were written to the destination.
	Copied
)

func (o Outcome) String() string {
	if o == Copied {
		return "copied"
	}
	return "unchanged"
}

// Options configures a Copier.
type Options struct {
	// Force bypasses the metadata equality check.
	Force bool
	// Silent suppresses the per-copy progress log line.
	Silent   bool
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Copier performs idempotent, timestamp-preserving copies.
type Copier struct {
	force    bool
	silent   bool
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New creates a Copier. A nil Logger uses slog.Default, a nil Recorder is a no-op.
func New(opts Options) *Copier {
	c := &Copier{
		force:    opts.Force,
		silent:   opts.Silent,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.recorder == nil {
		c.recorder = metrics.NoopRecorder{}
	}
	return c
}

// EnsureDir creates dir and its parents. Concurrent creators are tolerated.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create destination directory").
			WithContext("path", dir).
			WithContext("operation", "mkdir").
			Build()
	}
	return nil
}

// CopyIfNeeded copies src to dest unless dest is already up to date.
// A missing dest is not an error; it just needs a copy.
func (c *Copier) CopyIfNeeded(ctx context.Context, src, dest string) (Outcome, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		c.recorder.IncAssetCopy(metrics.CopyFailed)
		category := errors.CategoryFileSystem
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return Unchanged, errors.WrapError(err, category, "stat asset source").
			WithContext("path", src).
			WithContext("operation", "stat").
			Build()
	}
	if !srcInfo.Mode().IsRegular() {
		c.recorder.IncAssetCopy(metrics.CopyFailed)
		return Unchanged, errors.FileSystemError("asset source is not a regular file").
			WithContext("path", src).
			Build()
	}

	if filepath.Clean(src) == filepath.Clean(dest) {
		c.recorder.IncAssetCopy(metrics.CopyUnchanged)
		return Unchanged, nil
	}

	if !c.force && upToDate(srcInfo, dest) {
		c.recorder.IncAssetCopy(metrics.CopyUnchanged)
		return Unchanged, nil
	}

	if err := copyFile(src, dest, srcInfo); err != nil {
		c.recorder.IncAssetCopy(metrics.CopyFailed)
		return Unchanged, errors.WrapError(err, errors.CategoryFileSystem, "copy asset").
			WithContext("path", src).
			WithContext("destination", dest).
			WithContext("operation", "copy").
			Build()
	}

	c.recorder.IncAssetCopy(metrics.CopyCopied)
	if !c.silent {
		c.logger.InfoContext(ctx, "Copied asset",
			logfields.Asset(src),
			logfields.Destination(dest))
	}
	return Copied, nil
}

// upToDate reports whether dest exists with src's size and modification time.
func upToDate(srcInfo fs.FileInfo, dest string) bool {
	destInfo, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return destInfo.Mode().IsRegular() &&
		destInfo.Size() == srcInfo.Size() &&
		destInfo.ModTime().Equal(srcInfo.ModTime())
}

// copyFile writes src into a temporary file next to dest, applies mode and
// timestamps, then renames it over dest. Readers never observe a partial file and
// concurrent writers of the same bytes converge.
func copyFile(src, dest string, srcInfo fs.FileInfo) error {
	in, err := os.Open(src) //nolint:gosec // resolved asset path
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, srcInfo.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Chtimes(tmpName, accessTime(srcInfo), srcInfo.ModTime()); err != nil {
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return err
	}
	committed = true
	return nil
}
