// Package resolve locates asset files referenced from a page.
//
// A reference is searched for below the page's template directory first and then
// below each configured search root, in order. Roots that do not exist (yet) are
// skipped.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no root contains the referenced file.
var ErrNotFound = errors.New("asset not found")

// Hit is a located asset.
type Hit struct {
	// Root is the directory the reference was resolved against.
	Root string
	// Path is the cleaned file path below Root.
	Path string
}

// Resolver searches an ordered list of fallback roots.
type Resolver struct {
	roots []string
}

// New creates a Resolver with the given fallback roots.
func New(roots ...string) *Resolver {
	r := &Resolver{}
	for _, root := range roots {
		if root == "" {
			continue
		}
		r.roots = append(r.roots, filepath.Clean(root))
	}
	return r
}

// Roots returns the configured fallback roots.
func (r *Resolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Resolve finds ref (a forward-slash relative path) below templateDir or one of
// the fallback roots. Only regular files count as hits.
func (r *Resolver) Resolve(templateDir, ref string) (Hit, error) {
	rel := filepath.FromSlash(ref)
	for _, root := range append([]string{filepath.Clean(templateDir)}, r.roots...) {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			continue
		}
		candidate := filepath.Join(root, rel)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return Hit{Root: root, Path: candidate}, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return Hit{}, fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return Hit{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}
