package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRelative(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	tests := []struct {
		name     string
		path     string
		rootDir  string
		expected string
	}{
		{"nested file", filepath.Join(root, "internal", "core", "search.go"), root, "internal/core/search.go"},
		{"root level file", filepath.Join(root, "README.md"), root, "README.md"},
		{"root itself", root, root, "."},
		{"outside root", filepath.Join(filepath.Dir(root), "other", "file.go"), root, filepath.Join(filepath.Dir(root), "other", "file.go")},
		{"sibling with common prefix", root + "2" + string(filepath.Separator) + "a.go", root, root + "2" + string(filepath.Separator) + "a.go"},
		{"dotdot prefixed name stays inside", filepath.Join(root, "..a"), root, "..a"},
		{"empty path", "", root, ""},
		{"empty root", filepath.Join(root, "a.go"), "", filepath.Join(root, "a.go")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToRelative(tt.path, tt.rootDir))
		})
	}
}

func TestResolve(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	tests := []struct {
		name     string
		path     string
		expected string
		ok       bool
	}{
		{"relative", "src/main.go", filepath.Join(root, "src", "main.go"), true},
		{"dot", ".", root, true},
		{"absolute inside", filepath.Join(root, "a.go"), filepath.Join(root, "a.go"), true},
		{"cleaned back inside", "src/../a.go", filepath.Join(root, "a.go"), true},
		{"parent", "..", filepath.Dir(root), false},
		{"escaping", "../outside/a.go", filepath.Join(filepath.Dir(root), "outside", "a.go"), false},
		{"absolute outside", filepath.Dir(root), filepath.Dir(root), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.path, root)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
