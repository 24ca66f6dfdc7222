// Package fswalk lists candidate asset files below a template directory.
package fswalk

import (
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker lists regular files under dir as forward-slash paths relative to dir.
type Walker interface {
	List(dir string, recursive bool) ([]string, error)
}

// Func adapts a plain function to Walker.
type Func func(dir string, recursive bool) ([]string, error)

func (f Func) List(dir string, recursive bool) ([]string, error) { return f(dir, recursive) }

// Default is the doublestar-backed Walker.
var Default Walker = Func(List)

// List returns the files directly in dir, or every file below it when recursive is
// set. Results are sorted. A missing dir yields no files.
func List(dir string, recursive bool) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	pattern := "*"
	if recursive {
		pattern = "**"
	}
	files, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
