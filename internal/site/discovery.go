package site

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// templatePattern selects the files rendered as pages.
const templatePattern = "**/*.{md,markdown,html}"

// Template is a page source discovered under the site source directory.
type Template struct {
	// Path is the absolute source file path.
	Path string
	// RelativePath is the forward-slash path below the source directory.
	RelativePath string
	// Markdown reports whether the template needs Markdown rendering.
	Markdown bool
}

// Discover lists page templates below source. Hidden files and directories and
// anything below skip (typically the output directory) are ignored.
func Discover(source, skip string) ([]Template, error) {
	matches, err := doublestar.Glob(os.DirFS(source), templatePattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	skipRel := ""
	if skip != "" {
		if rel, err := filepath.Rel(source, skip); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			skipRel = filepath.ToSlash(rel) + "/"
		}
	}

	templates := make([]Template, 0, len(matches))
	for _, rel := range matches {
		if hidden(rel) || (skipRel != "" && strings.HasPrefix(rel, skipRel)) {
			continue
		}
		ext := strings.ToLower(path.Ext(rel))
		templates = append(templates, Template{
			Path:         filepath.Join(source, filepath.FromSlash(rel)),
			RelativePath: rel,
			Markdown:     ext == ".md" || ext == ".markdown",
		})
	}
	return templates, nil
}

// OutputPath maps a template to its rendered file: index templates render to
// <dir>/index.html, everything else to <dir>/<name>/index.html.
func OutputPath(output, rel string) string {
	dir, file := path.Split(rel)
	name := strings.TrimSuffix(file, path.Ext(file))
	if name != "index" {
		dir = path.Join(dir, name)
	}
	return filepath.Join(output, filepath.FromSlash(dir), "index.html")
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "_") {
			return true
		}
	}
	return false
}
