// Package assetpath maps asset references to source and destination paths.
//
// Two addressing schemes exist. Mirrored keeps the asset's subdirectory below the
// template directory, so img/photo.jpg next to posts/a/index.md lands in
// <outputDir>/img/photo.jpg. Flattened drops the subdirectory and names the file after
// its content digest: <outputDir>/<digest><ext>.
//
// All functions are pure path arithmetic. Filesystem paths use the native separator,
// references written back into markup always use forward slashes.
package assetpath

import (
	"path"
	"path/filepath"
	"strings"
)

// Location holds the resolved paths for one asset reference.
type Location struct {
	// AssetPath is the absolute (or root-joined) source file path.
	AssetPath string
	// AssetSubdir is the directory of AssetPath relative to the root it was found in.
	AssetSubdir string
	// DestDir is the directory the asset is copied into.
	DestDir string
	// DestPath is the full destination file path.
	DestPath string
}

// Mirrored resolves ref against templateDir and mirrors its subdirectory under outputDir.
func Mirrored(templateDir, outputDir, ref string) Location {
	assetPath := filepath.Join(templateDir, filepath.FromSlash(ref))
	return MirroredFrom(templateDir, assetPath, outputDir)
}

// MirroredFrom mirrors an already located asset. The subdirectory is computed against
// root, which is the directory the asset was found in (template dir or a search root).
func MirroredFrom(root, assetPath, outputDir string) Location {
	assetPath = filepath.Clean(assetPath)
	subdir, err := filepath.Rel(filepath.Clean(root), filepath.Dir(assetPath))
	if err != nil {
		// Unrelated volumes; fall back to a flat layout.
		subdir = "."
	}
	destDir := filepath.Join(outputDir, subdir)
	return Location{
		AssetPath:   assetPath,
		AssetSubdir: subdir,
		DestDir:     destDir,
		DestPath:    filepath.Join(destDir, filepath.Base(assetPath)),
	}
}

// Flattened switches loc to content-addressed addressing: the destination is
// outputDir/<stem><ext> where ext is taken from the source file.
func Flattened(loc Location, outputDir, stem string) Location {
	loc.DestDir = filepath.Clean(outputDir)
	loc.DestPath = filepath.Join(loc.DestDir, stem+filepath.Ext(loc.AssetPath))
	return loc
}

// PageRef expresses destPath relative to the page's output directory as a
// forward-slash reference starting with "./", also when it climbs out of it
// ("./../shared/x.png").
func PageRef(outputDir, destPath string) string {
	rel, err := filepath.Rel(filepath.Clean(outputDir), filepath.Clean(destPath))
	if err != nil {
		rel = filepath.Base(destPath)
	}
	return "./" + path.Clean(filepath.ToSlash(rel))
}

// SplitRef separates a trailing ?query or #fragment from ref.
func SplitRef(ref string) (p, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}
