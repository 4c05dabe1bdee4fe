// Package pathutil converts between the absolute paths used internally and
// the root-relative, slash separated paths shown to users and tools.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts path to a slash separated path relative to rootDir.
// Paths outside the root, or that cannot be made relative, are returned
// unchanged.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go"
func ToRelative(path, rootDir string) string {
	if path == "" || rootDir == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(filepath.Clean(rootDir), abs)
	if err != nil || escapes(rel) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Resolve maps path onto rootDir: relative paths are joined to the root.
// The result is cleaned; ok is false when it lies outside the root.
func Resolve(path, rootDir string) (resolved string, ok bool) {
	resolved = filepath.FromSlash(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(rootDir, resolved)
	}
	resolved = filepath.Clean(resolved)
	rel, err := filepath.Rel(filepath.Clean(rootDir), resolved)
	if err != nil || escapes(rel) {
		return resolved, false
	}
	return resolved, true
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
