package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1, cfg.Version)
	assert.NotEmpty(t, cfg.Project.Root)
	assert.Equal(t, "basic", cfg.Search.MatchType)
	assert.False(t, cfg.Search.MatchCase)
	assert.False(t, cfg.Search.WordMarks)
	assert.Equal(t, DefaultMaxLineSize, cfg.Search.MaxLineSize)
	assert.True(t, cfg.Files.RespectGitignore)
	assert.True(t, cfg.Files.SkipBinary)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	require.NoError(t, ValidateConfig(cfg))
}

func TestApplyKDL(t *testing.T) {
	cfg := Default()
	err := ApplyKDL(cfg, `
project {
    name "demo"
}
search {
    match_type "regexp"
    match_case true
    whole_words true
    word_marks true
    workers 3
    max_matches 500
    max_matches_per_file 20
    max_line_size "4MB"
    encoding "latin1"
    context_chars 16
    cache_size 64
}
replace {
    preserve_case true
}
files {
    respect_gitignore false
    hidden true
    max_file_size "1MB"
    watch_debounce_ms 50
}
output {
    color "never"
    format "json"
}
log {
    debug true
    file true
    dir "/tmp/lsr-logs"
    max_size_mb 5
    compress true
}
include "*.go" "*.md"
exclude {
    "vendor/**"
    "**/node_modules/**"
}
`)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, Search{
		MatchType:         "regexp",
		MatchCase:         true,
		WholeWords:        true,
		WordMarks:         true,
		Workers:           3,
		MaxMatches:        500,
		MaxMatchesPerFile: 20,
		MaxLineSize:       4 * 1024 * 1024,
		Encoding:          "latin1",
		ContextChars:      16,
		CacheSize:         64,
	}, cfg.Search)
	assert.True(t, cfg.Replace.PreserveCase)
	assert.False(t, cfg.Files.RespectGitignore)
	assert.True(t, cfg.Files.Hidden)
	assert.Equal(t, int64(1024*1024), cfg.Files.MaxFileSize)
	assert.Equal(t, 50, cfg.Files.WatchDebounceMs)
	assert.Equal(t, Output{Color: "never", Format: "json"}, cfg.Output)
	assert.True(t, cfg.Log.Debug)
	assert.True(t, cfg.Log.File)
	assert.Equal(t, "/tmp/lsr-logs", cfg.Log.Dir)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
	assert.True(t, cfg.Log.Compress)

	assert.Equal(t, []string{"*.go", "*.md"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "vendor/**")
	// defaults are kept and duplicates dropped
	count := 0
	for _, p := range cfg.Exclude {
		if p == "**/node_modules/**" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	require.NoError(t, ValidateConfig(cfg))
}

func TestApplyKDL_ParseError(t *testing.T) {
	cfg := Default()
	err := ApplyKDL(cfg, `search { match_type "regexp"`)
	assert.Error(t, err)
}

func TestApplyTOML(t *testing.T) {
	cfg := Default()
	err := ApplyTOML(cfg, []byte(`
include = ["*.py"]
exclude = ["build/**"]

[search]
match_type = "literal"
whole_words = true
max_matches = 10

[files]
skip_binary = false
`))
	require.NoError(t, err)

	assert.Equal(t, "literal", cfg.Search.MatchType)
	assert.True(t, cfg.Search.WholeWords)
	assert.Equal(t, 10, cfg.Search.MaxMatches)
	// untouched keys keep their values
	assert.Equal(t, DefaultMaxLineSize, cfg.Search.MaxLineSize)
	assert.True(t, cfg.Files.RespectGitignore)
	assert.False(t, cfg.Files.SkipBinary)
	assert.Equal(t, []string{"*.py"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "build/**")
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
}

func TestApplyTOML_UnknownKey(t *testing.T) {
	cfg := Default()
	err := ApplyTOML(cfg, []byte("[search]\nmatch_typo = \"regexp\"\n"))
	assert.Error(t, err)
	assert.Equal(t, "basic", cfg.Search.MatchType)
}

func TestLoad_GlobalAndProject(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)

	writeFile(t, filepath.Join(home, KDLFileName), `
search {
    whole_words true
    workers 2
}
include "*.txt"
exclude "global-skip/**"
project {
    root "/somewhere/else"
}
`)
	writeFile(t, filepath.Join(project, KDLFileName), `
search {
    workers 6
}
exclude "project-skip/**"
`)

	cfg, err := Load(project)
	require.NoError(t, err)

	assert.Equal(t, project, cfg.Project.Root)
	assert.True(t, cfg.Search.WholeWords, "global setting survives")
	assert.Equal(t, 6, cfg.Search.Workers, "project overrides global")
	assert.Equal(t, []string{"*.txt"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "global-skip/**")
	assert.Contains(t, cfg.Exclude, "project-skip/**")
}

func TestLoad_ProjectTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	writeFile(t, filepath.Join(project, TOMLFileName), "[search]\nmatch_type = \"regexp\"\n")

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "regexp", cfg.Search.MatchType)
}

func TestLoad_NoFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, project, cfg.Project.Root)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoad_InvalidProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	writeFile(t, filepath.Join(project, KDLFileName), `search {`)

	_, err := Load(project)
	assert.Error(t, err)
}

func TestLoadFile_RelativeRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "lsr.kdl")
	writeFile(t, path, `project { root "../src" }`)

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Project.Root)

	assert.Error(t, LoadFile(cfg, filepath.Join(dir, "missing.kdl")))
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"512", 512},
		{"100B", 100},
		{"4kb", 4096},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := parseSize("lots")
	assert.Error(t, err)
	_, err = parseSize("-1MB")
	assert.Error(t, err)
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, DeduplicatePatterns(nil))
}
