package pageassets

import (
	"context"
	"crypto/sha1" //nolint:gosec // expected digest for assertions
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pageassets/internal/config"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/markup"
	"git.home.luguber.info/inful/pageassets/internal/metrics"
	"git.home.luguber.info/inful/pageassets/internal/resolve"
	helpers "git.home.luguber.info/inful/pageassets/internal/testutil/testutils"
)

type fixture struct {
	base      string
	srcDir    string
	outDir    string
	page      Page
	recorder  *metrics.MemoryRecorder
	transform Transform
}

func newFixture(t *testing.T, files map[string]string, content string, mutate func(*config.Config)) *fixture {
	t.Helper()
	base := t.TempDir()
	helpers.WriteTree(t, base, files)

	cfg := config.Default()
	cfg.Silent = true
	if mutate != nil {
		mutate(cfg)
	}
	cfg.ResolvePaths(base)

	rec := &metrics.MemoryRecorder{}
	tr, err := New(cfg, WithRecorder(rec))
	require.NoError(t, err)

	f := &fixture{
		base:      base,
		srcDir:    filepath.Join(base, "src", "posts", "a"),
		outDir:    filepath.Join(base, "_site", "posts", "a"),
		recorder:  rec,
		transform: tr,
	}
	f.page = Page{
		InputPath:  filepath.Join(f.srcDir, "index.md"),
		OutputPath: filepath.Join(f.outDir, "index.html"),
		Content:    content,
	}
	require.NoError(t, os.MkdirAll(f.outDir, 0o750))
	return f
}

func (f *fixture) run(t *testing.T) Result {
	t.Helper()
	res, err := f.transform.Transform(context.Background(), f.page)
	require.NoError(t, err)
	return res
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // test vector
	return hex.EncodeToString(sum[:])
}

func TestParse_MirroredRewrite(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":      "# A",
		"src/posts/a/img/photo.jpg": "jpeg",
	}, `<p><img src="img/photo.jpg" alt="p"></p>`, nil)

	res := f.run(t)

	assert.Equal(t, `<p><img src="./img/photo.jpg" alt="p"></p>`, res.Content)
	assert.Equal(t, 1, res.Discovered)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Copied)
	helpers.NewFileAssertions(t, f.outDir).AssertFileContent("img/photo.jpg", "jpeg")

	src, err := os.Stat(filepath.Join(f.srcDir, "img", "photo.jpg"))
	require.NoError(t, err)
	dst, err := os.Stat(filepath.Join(f.outDir, "img", "photo.jpg"))
	require.NoError(t, err)
	assert.True(t, src.ModTime().Equal(dst.ModTime()))
}

func TestParse_Idempotent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":   "# A",
		"src/posts/a/img/a.png":  "png-a",
		"src/posts/a/img/b.webp": "webp-b",
	}, `<img src="img/a.png"><img src="img/b.webp">`, nil)

	first := f.run(t)
	assert.Equal(t, 2, first.Copied)
	assert.Equal(t, 2, f.recorder.Copies())

	second := f.run(t)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 0, second.Copied)
	assert.Equal(t, 2, f.recorder.Copies(), "second run must not copy")
	assert.Equal(t, 2, f.recorder.Skips())

	processed, skipped, failed := f.recorder.Pages()
	assert.Equal(t, 2, processed)
	assert.Zero(t, skipped)
	assert.Zero(t, failed)
}

func TestParse_ChangeDetection(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":  "# A",
		"src/posts/a/img/a.png": "png-a",
		"src/posts/a/img/b.png": "png-b",
	}, `<img src="img/a.png"><img src="img/b.png">`, nil)

	f.run(t)
	f.recorder.Reset()

	changed := filepath.Join(f.srcDir, "img", "a.png")
	require.NoError(t, os.WriteFile(changed, []byte("png-a-v2-longer"), 0o600))
	helpers.Touch(t, changed, helpers.FixedTime)

	res := f.run(t)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, 1, f.recorder.Copies())
	helpers.NewFileAssertions(t, f.outDir).AssertFileContent("img/a.png", "png-a-v2-longer")

	helpers.Touch(t, filepath.Join(f.srcDir, "img", "b.png"), helpers.FixedTime.Add(time.Hour))
	res = f.run(t)
	assert.Equal(t, 1, res.Copied)
}

func TestParse_ReferenceFiltering(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":  "# A",
		"src/posts/a/img/a.png": "png-a",
	}, `<img src="https://cdn.example.com/x.png?w=1&h=2"><img src="//cdn/x.png"><img src="/abs/x.png">`+
		`<img src="data:image/png;base64,AA=="><img src="notes.txt"><img src="img/a.png?v=3#frag">`, nil)

	res := f.run(t)

	assert.Equal(t, 1, res.Discovered)
	assert.Equal(t, `<img src="https://cdn.example.com/x.png?w=1&h=2"><img src="//cdn/x.png"><img src="/abs/x.png">`+
		`<img src="data:image/png;base64,AA=="><img src="notes.txt"><img src="./img/a.png?v=3#frag">`, res.Content)
}

func TestParse_FullPageKeepsStructure(t *testing.T) {
	page := "\ufeff<!DOCTYPE html>\n<html><head><title>T &amp; U</title></head>" +
		"<body><table><tr><td><img src=\"img/a.png\"></td></tr></table></body></html>\n"
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":  "# A",
		"src/posts/a/img/a.png": "png-a",
	}, page, nil)

	res := f.run(t)
	assert.Equal(t, strings.Replace(page, `src="img/a.png"`, `src="./img/a.png"`, 1), res.Content)
}

func TestParse_NoAssetsKeepsContentByteIdentical(t *testing.T) {
	content := "<p>Hello<br>world &amp; <img src=\"https://x/y.png\"></p>\n"
	f := newFixture(t, map[string]string{"src/posts/a/index.md": "# A"}, content, nil)

	res := f.run(t)
	assert.Equal(t, content, res.Content)
	assert.Zero(t, res.Discovered)
}

func TestParse_Flattened(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":          "# A",
		"src/posts/a/img/a.png":         "AAA",
		"src/posts/a/img/deep/nest.png": "BBB",
	}, `<img src="img/a.png"><img src="img/deep/nest.png">`, func(c *config.Config) {
		c.HashAssets = true
	})

	res := f.run(t)

	a, b := sha1Hex("AAA"), sha1Hex("BBB")
	assert.NotEqual(t, a, b)
	assert.Equal(t,
		`<img src="./`+a+`.png" integrity="sha1-`+a+`"><img src="./`+b+`.png" integrity="sha1-`+b+`">`,
		res.Content)

	helpers.NewFileAssertions(t, f.outDir).
		AssertFileContent(a+".png", "AAA").
		AssertFileContent(b+".png", "BBB").
		AssertNoFile("img").
		AssertFileCount(".", 2)
}

func TestParse_FlattenedWithoutIntegrity(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":  "# A",
		"src/posts/a/img/a.png": "AAA",
	}, `<img src="img/a.png">`, func(c *config.Config) {
		c.HashAssets = true
		c.AddIntegrityAttribute = false
	})

	res := f.run(t)
	assert.Equal(t, `<img src="./`+sha1Hex("AAA")+`.png">`, res.Content)
}

func TestParse_UnresolvedAssetFailsPage(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":  "# A",
		"src/posts/a/img/a.png": "AAA",
	}, `<img src="img/a.png"><img src="img/missing.png">`, nil)

	res, err := f.transform.Transform(context.Background(), f.page)
	require.Error(t, err)
	assert.Empty(t, res.Content)
	assert.ErrorIs(t, err, resolve.ErrNotFound)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Contains(t, err.Error(), "img/missing.png")
	assert.Contains(t, err.Error(), f.page.OutputPath)
	assert.Contains(t, err.Error(), f.page.InputPath)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	ref, _ := ce.Context().GetString("reference")
	assert.Equal(t, "img/missing.png", ref)
	dir, _ := ce.Context().GetString("template_dir")
	assert.Equal(t, f.srcDir, dir)
	input, _ := ce.Context().GetString("input_path")
	assert.Equal(t, f.page.InputPath, input)

	_, _, failed := f.recorder.Pages()
	assert.Equal(t, 1, failed)
}

func TestParse_SearchRootFallback(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":   "# A",
		"shared/img/logo.svg":    "<svg/>",
		"shared/img/overlay.png": "shared",
		"src/posts/a/img/a.png":  "local",
	}, `<img src="img/logo.svg"><img src="img/a.png">`, func(c *config.Config) {
		c.SearchRoots = []string{"missing-root", "shared"}
	})

	res := f.run(t)
	assert.Equal(t, `<img src="./img/logo.svg"><img src="./img/a.png">`, res.Content)
	helpers.NewFileAssertions(t, f.outDir).
		AssertFileContent("img/logo.svg", "<svg/>").
		AssertFileContent("img/a.png", "local")
}

func TestParse_FullDocumentAndSelectors(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":     "# A",
		"src/posts/a/img/a.png":    "AAA",
		"src/posts/a/poster.jpg":   "JPG",
		"src/posts/a/favicon.svg":  "SVG",
		"src/posts/a/img/skip.gif": "GIF",
	}, "<!DOCTYPE html><html><head><link rel=\"icon\" href=\"favicon.svg\"></head>"+
		"<body><video poster=\"poster.jpg\"></video><img src=\"img/a.png\"></body></html>",
		func(c *config.Config) {
			c.Selectors = append(c.Selectors,
				markup.Selector{Element: "video", Attribute: "poster"},
				markup.Selector{Element: "link", Attribute: "href"},
			)
			c.Concurrency = 1
		})

	res := f.run(t)
	assert.Equal(t, 3, res.Processed)
	assert.Contains(t, res.Content, `href="./favicon.svg"`)
	assert.Contains(t, res.Content, `poster="./poster.jpg"`)
	assert.Contains(t, res.Content, `src="./img/a.png"`)
	helpers.NewFileAssertions(t, f.outDir).
		AssertFileExists("favicon.svg").
		AssertFileExists("poster.jpg").
		AssertNoFile("img/skip.gif")
}

func TestParse_NotApplicable(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
	}{
		{"non markup output", "index.md", "feed.xml"},
		{"input not a post", "index.njk", "index.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{
				"src/posts/a/index.md":  "# A",
				"src/posts/a/img/a.png": "AAA",
			}, `<img src="img/a.png">`, nil)
			f.page.InputPath = filepath.Join(f.srcDir, tt.input)
			f.page.OutputPath = filepath.Join(f.outDir, tt.output)

			res := f.run(t)
			assert.Equal(t, `<img src="img/a.png">`, res.Content)
			assert.Zero(t, f.recorder.Copies())
			_, skipped, _ := f.recorder.Pages()
			assert.Equal(t, 1, skipped)
		})
	}
}

type resolverFunc func(templateDir, ref string) (resolve.Hit, error)

func (f resolverFunc) Resolve(templateDir, ref string) (resolve.Hit, error) { return f(templateDir, ref) }

func TestParse_MirroredCollision(t *testing.T) {
	base := t.TempDir()
	helpers.WriteTree(t, base, map[string]string{
		"one/img/x.png": "first",
		"two/img/x.png": "second",
	})
	roots := map[string]string{"one.png": filepath.Join(base, "one"), "two.png": filepath.Join(base, "two")}

	cfg := config.Default()
	cfg.Silent = true
	tr, err := New(cfg, WithResolver(resolverFunc(func(_, ref string) (resolve.Hit, error) {
		root := roots[ref]
		return resolve.Hit{Root: root, Path: filepath.Join(root, "img", "x.png")}, nil
	})))
	require.NoError(t, err)

	out := filepath.Join(base, "out")
	require.NoError(t, os.MkdirAll(out, 0o750))
	_, err = tr.Transform(context.Background(), Page{
		InputPath:  filepath.Join(base, "page", "index.md"),
		OutputPath: filepath.Join(out, "index.html"),
		Content:    `<img src="one.png"><img src="two.png">`,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDestinationCollision)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestParse_SameSourceTwiceIsNotACollision(t *testing.T) {
	f := newFixture(t, map[string]string{
		"src/posts/a/index.md":  "# A",
		"src/posts/a/img/a.png": "AAA",
	}, `<img src="img/a.png"><img src="./img/a.png">`, nil)

	res := f.run(t)
	assert.Equal(t, `<img src="./img/a.png"><img src="./img/a.png">`, res.Content)
}

func TestDirectory_CopiesAndKeepsMarkup(t *testing.T) {
	files := map[string]string{
		"src/posts/a/index.md":       "# A",
		"src/posts/a/photo.jpg":      "jpg",
		"src/posts/a/img/logo.png":   "png",
		"src/posts/a/notes.txt":      "txt",
		"src/posts/a/img/deep/x.gif": "gif",
	}
	content := `<img src="photo.jpg"><img src="img/logo.png">`

	t.Run("immediate", func(t *testing.T) {
		f := newFixture(t, files, content, func(c *config.Config) { c.Mode = config.ModeDirectory })
		res := f.run(t)
		assert.Equal(t, content, res.Content)
		assert.Equal(t, 1, res.Copied)
		helpers.NewFileAssertions(t, f.outDir).
			AssertFileContent("photo.jpg", "jpg").
			AssertNoFile("img/logo.png").
			AssertNoFile("notes.txt")
	})

	t.Run("recursive", func(t *testing.T) {
		f := newFixture(t, files, content, func(c *config.Config) {
			c.Mode = config.ModeDirectory
			c.Recursive = true
			c.HashAssets = true
		})
		res := f.run(t)
		assert.Equal(t, content, res.Content)
		assert.Equal(t, 3, res.Copied)
		helpers.NewFileAssertions(t, f.outDir).
			AssertFileContent("photo.jpg", "jpg").
			AssertFileContent("img/logo.png", "png").
			AssertFileContent("img/deep/x.gif", "gif").
			AssertNoFile("notes.txt")

		again := f.run(t)
		assert.Zero(t, again.Copied)
		assert.Equal(t, 3, f.recorder.Copies())
	})
}

func TestNew_InvalidModeIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "watch"

	tr, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, tr)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryConfig, ce.Category())
	assert.True(t, ce.IsFatal())
}

func TestNew_Names(t *testing.T) {
	cfg := config.Default()
	tr, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "parse", tr.Name())

	cfg.Mode = config.ModeDirectory
	tr, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "directory", tr.Name())
}
