package copier

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	helpers "git.home.luguber.info/inful/pageassets/internal/testutil/testutils"
)

func setup(t *testing.T, content string) (src, dest string) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "src", "photo.jpg")
	dest = filepath.Join(dir, "out", "img", "photo.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o750))
	require.NoError(t, os.WriteFile(src, []byte(content), 0o600))
	// Sub-second precision so equality is checked to the nanosecond.
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))
	require.NoError(t, EnsureDir(filepath.Dir(dest)))
	return src, dest
}

func TestCopyIfNeeded_CopiesAndPropagatesTimestamps(t *testing.T) {
	src, dest := setup(t, "jpeg-bytes")
	rec := &metrics.MemoryRecorder{}
	c := New(Options{Silent: true, Recorder: rec})

	outcome, err := c.CopyIfNeeded(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, Copied, outcome)
	assert.Equal(t, 1, rec.Copies())

	fa := helpers.NewFileAssertions(t, filepath.Dir(dest))
	fa.AssertFileExists("photo.jpg").AssertFileContent("photo.jpg", "jpeg-bytes")

	srcInfo, err := os.Stat(src)
	require.NoError(t, err)
	destInfo, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, destInfo.ModTime().Equal(srcInfo.ModTime()), "dest mtime %v != src mtime %v", destInfo.ModTime(), srcInfo.ModTime())
}

func TestCopyIfNeeded_SecondRunIsNoop(t *testing.T) {
	src, dest := setup(t, "jpeg-bytes")
	rec := &metrics.MemoryRecorder{}
	c := New(Options{Silent: true, Recorder: rec})

	_, err := c.CopyIfNeeded(context.Background(), src, dest)
	require.NoError(t, err)
	rec.Reset()

	outcome, err := c.CopyIfNeeded(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Equal(t, 0, rec.Copies())
	assert.Equal(t, 1, rec.Skips())
}

func TestCopyIfNeeded_DetectsChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, src string)
	}{
		{
			name: "size change",
			mutate: func(t *testing.T, src string) {
				info, err := os.Stat(src)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(src, []byte("jpeg-bytes-but-longer"), 0o600))
				require.NoError(t, os.Chtimes(src, info.ModTime(), info.ModTime()))
			},
		},
		{
			name: "mtime change",
			mutate: func(t *testing.T, src string) {
				later := time.Date(2024, 3, 2, 8, 0, 0, 1, time.UTC)
				require.NoError(t, os.Chtimes(src, later, later))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dest := setup(t, "jpeg-bytes")
			rec := &metrics.MemoryRecorder{}
			c := New(Options{Silent: true, Recorder: rec})

			_, err := c.CopyIfNeeded(context.Background(), src, dest)
			require.NoError(t, err)
			tt.mutate(t, src)
			rec.Reset()

			outcome, err := c.CopyIfNeeded(context.Background(), src, dest)
			require.NoError(t, err)
			assert.Equal(t, Copied, outcome)
			assert.Equal(t, 1, rec.Copies())

			outcome, err = c.CopyIfNeeded(context.Background(), src, dest)
			require.NoError(t, err)
			assert.Equal(t, Unchanged, outcome)
			assert.Equal(t, 1, rec.Copies())
		})
	}
}

func TestCopyIfNeeded_Force(t *testing.T) {
	src, dest := setup(t, "jpeg-bytes")
	rec := &metrics.MemoryRecorder{}
	c := New(Options{Force: true, Silent: true, Recorder: rec})

	for i := 0; i < 3; i++ {
		outcome, err := c.CopyIfNeeded(context.Background(), src, dest)
		require.NoError(t, err)
		assert.Equal(t, Copied, outcome)
	}
	assert.Equal(t, 3, rec.Copies())
}

func TestCopyIfNeeded_MissingSource(t *testing.T) {
	dir := t.TempDir()
	rec := &metrics.MemoryRecorder{}
	c := New(Options{Silent: true, Recorder: rec})

	_, err := c.CopyIfNeeded(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.png"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Equal(t, 1, rec.CopyFailures())
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}

func TestCopyIfNeeded_MissingDestDirIsFilesystemError(t *testing.T) {
	src, _ := setup(t, "x")
	c := New(Options{Silent: true})

	_, err := c.CopyIfNeeded(context.Background(), src, filepath.Join(t.TempDir(), "absent", "x.jpg"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestCopyIfNeeded_SamePath(t *testing.T) {
	src, _ := setup(t, "x")
	c := New(Options{Silent: true})

	outcome, err := c.CopyIfNeeded(context.Background(), src, src)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestCopyIfNeeded_ConcurrentSameDestination(t *testing.T) {
	src, dest := setup(t, "same-bytes")
	c := New(Options{Force: true, Silent: true})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CopyIfNeeded(context.Background(), src, dest)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "same-bytes", string(data))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	helpers.NewFileAssertions(t, filepath.Dir(dir)).AssertDirExists("b")
}
