package files_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsr/internal/files"
	"github.com/standardbeagle/lsr/testhelpers"
)

func sampleProject(t *testing.T) string {
	t.Helper()
	root := testhelpers.WriteProject(t, map[string]string{
		".gitignore":     "*.log\nbuild/\n",
		"a.go":           "package a",
		"b.txt":          "hello",
		"big.txt":        strings.Repeat("x", 100),
		"app.log":        "log line",
		"build/out.go":   "package out",
		".hidden/x.go":   "package x",
		".git/config":    "[core]",
		"sub/.gitignore": "secret.txt\n",
		"sub/c.go":       "package c",
		"sub/d.txt":      "text",
		"sub/secret.txt": "token",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "img.png"), []byte{0x89, 0x50, 0x4E, 0x47}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.bin2"), []byte("a\x00b\x00c\x00"), 0o644))
	return root
}

func TestWalker_Filters(t *testing.T) {
	root := sampleProject(t)

	tests := []struct {
		name string
		opts files.Options
		want []string
	}{
		{
			name: "gitignore and binary",
			opts: files.Options{Gitignore: true, SkipBinary: true},
			want: []string{"a.go", "b.txt", "big.txt", "sub/c.go", "sub/d.txt"},
		},
		{
			name: "include",
			opts: files.Options{Gitignore: true, Include: []string{"*.go"}},
			want: []string{"a.go", "sub/c.go"},
		},
		{
			name: "exclude directory",
			opts: files.Options{Gitignore: true, SkipBinary: true, Exclude: []string{"sub/**"}},
			want: []string{"a.go", "b.txt", "big.txt"},
		},
		{
			name: "max file size",
			opts: files.Options{Gitignore: true, SkipBinary: true, MaxFileSize: 10},
			want: []string{"a.go", "b.txt", "sub/c.go", "sub/d.txt"},
		},
		{
			name: "without gitignore",
			opts: files.Options{SkipBinary: true, Include: []string{"**/*.log", "**/*.go", "sub/*.txt"}},
			want: []string{"a.go", "app.log", "build/out.go", "sub/c.go", "sub/d.txt", "sub/secret.txt"},
		},
		{
			name: "hidden",
			opts: files.Options{Gitignore: true, Hidden: true, Include: []string{"*.go", ".gitignore"}},
			want: []string{".gitignore", ".hidden/x.go", "a.go", "sub/.gitignore", "sub/c.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := files.NewWalker(root, tt.opts)
			require.NoError(t, err)
			paths, err := w.Walk(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, testhelpers.RelPaths(t, root, paths))
		})
	}
}

func TestWalker_ExplicitPaths(t *testing.T) {
	root := sampleProject(t)
	w, err := files.NewWalker(root, files.Options{Gitignore: true, SkipBinary: true})
	require.NoError(t, err)

	// a file named on the command line bypasses the filters
	paths, err := w.Walk(context.Background(), filepath.Join(root, "app.log"), filepath.Join(root, "sub"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log", "sub/c.go", "sub/d.txt"}, testhelpers.RelPaths(t, root, paths))

	_, err = w.Walk(context.Background(), filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestWalker_Accept(t *testing.T) {
	root := sampleProject(t)
	w, err := files.NewWalker(root, files.Options{Gitignore: true, SkipBinary: true})
	require.NoError(t, err)
	_, err = w.Walk(context.Background())
	require.NoError(t, err)

	assert.True(t, w.Accept(filepath.Join(root, "a.go")))
	assert.True(t, w.Accept(filepath.Join(root, "sub", "c.go")))
	assert.False(t, w.Accept(filepath.Join(root, "app.log")))
	assert.False(t, w.Accept(filepath.Join(root, "build", "out.go")))
	assert.False(t, w.Accept(filepath.Join(root, "sub", "secret.txt")))
	assert.False(t, w.Accept(filepath.Join(root, ".git", "config")))
	assert.False(t, w.Accept(filepath.Join(root, "img.png")))
	assert.False(t, w.Accept(filepath.Join(root, "sub")))

	assert.True(t, w.SkipDir(filepath.Join(root, "build")))
	assert.True(t, w.SkipDir(filepath.Join(root, ".git")))
	assert.False(t, w.SkipDir(filepath.Join(root, "sub")))
	assert.False(t, w.SkipDir(w.Root()))
}

func TestWalker_Canceled(t *testing.T) {
	root := sampleProject(t)
	w, err := files.NewWalker(root, files.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Walk(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWalker_InvalidGlob(t *testing.T) {
	_, err := files.NewWalker(t.TempDir(), files.Options{Include: []string{"[a-"}})
	assert.Error(t, err)
}
