package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lsr/internal/debug"
)

// Config file names looked up in the home and project directories.
const (
	KDLFileName  = ".lsr.kdl"
	TOMLFileName = ".lsr.toml"
)

// Defaults shared by the loader and the validator.
const (
	DefaultMatchType       = "basic"
	DefaultMaxLineSize     = 8 * 1024 * 1024
	DefaultMaxFileSize     = 10 * 1024 * 1024
	DefaultContextChars    = 40
	DefaultCacheSize       = 256
	DefaultWatchDebounceMs = 200
)

type Config struct {
	Version int      `toml:"version"`
	Project Project  `toml:"project"`
	Search  Search   `toml:"search"`
	Replace Replace  `toml:"replace"`
	Files   Files    `toml:"files"`
	Output  Output   `toml:"output"`
	Log     Log      `toml:"log"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Search struct {
	MatchType         string `toml:"match_type"` // literal, basic or regexp
	MatchCase         bool   `toml:"match_case"`
	WholeWords        bool   `toml:"whole_words"`
	WordMarks         bool   `toml:"word_marks"` // combining marks count as word characters
	Workers           int    `toml:"workers"`    // 0 = auto-detect
	MaxMatches        int    `toml:"max_matches"`
	MaxMatchesPerFile int    `toml:"max_matches_per_file"`
	MaxLineSize       int    `toml:"max_line_size"`
	Encoding          string `toml:"encoding"`
	ContextChars      int    `toml:"context_chars"` // line head kept when long lines are abbreviated
	CacheSize         int    `toml:"cache_size"`    // compiled pattern cache entries
}

type Replace struct {
	PreserveCase bool `toml:"preserve_case"`
}

type Files struct {
	RespectGitignore   bool  `toml:"respect_gitignore"`
	Hidden             bool  `toml:"hidden"`
	SkipBinary         bool  `toml:"skip_binary"`
	MaxFileSize        int64 `toml:"max_file_size"`
	ExcludeBuildOutput bool  `toml:"exclude_build_output"`
	WatchDebounceMs    int   `toml:"watch_debounce_ms"`
}

type Output struct {
	Color  string `toml:"color"`  // auto, always or never
	Format string `toml:"format"` // text or json
}

// Log configures the rotating debug log.
type Log struct {
	Debug      bool   `toml:"debug"`
	File       bool   `toml:"file"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Default returns the built-in configuration rooted at the working
// directory.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Version: 1,
		Project: Project{Root: cwd},
		Search: Search{
			MatchType:    DefaultMatchType,
			MaxLineSize:  DefaultMaxLineSize,
			ContextChars: DefaultContextChars,
			CacheSize:    DefaultCacheSize,
		},
		Files: Files{
			RespectGitignore:   true,
			SkipBinary:         true,
			MaxFileSize:        DefaultMaxFileSize,
			ExcludeBuildOutput: true,
			WatchDebounceMs:    DefaultWatchDebounceMs,
		},
		Output: Output{Color: "auto", Format: "text"},
		Log: Log{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Include: []string{},
		Exclude: []string{
			"**/node_modules/**",
			"**/__pycache__/**",
			"**/*.min.js",
			"**/*.min.css",
			"**/*.swp",
			"**/*~",
		},
	}
}

// Load builds the configuration for a project: defaults, then the global
// ~/.lsr.kdl, then the project's .lsr.kdl or .lsr.toml. Exclusions from
// every layer are kept; the project's include list replaces the global one.
func Load(rootDir string) (*Config, error) {
	if rootDir == "" {
		rootDir = "."
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Project.Root = absRoot

	if homeDir, err := os.UserHomeDir(); err == nil && filepath.Clean(homeDir) != absRoot {
		global := filepath.Join(homeDir, KDLFileName)
		if fileExists(global) {
			if err := LoadFile(cfg, global); err != nil {
				return nil, err
			}
			// the global file never moves the project root
			cfg.Project.Root = absRoot
		}
	}

	for _, name := range []string{KDLFileName, TOMLFileName} {
		path := filepath.Join(absRoot, name)
		if !fileExists(path) {
			continue
		}
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
		break
	}

	if cfg.Files.ExcludeBuildOutput {
		cfg.EnrichExclusionsWithBuildArtifacts()
	}
	return cfg, nil
}

// LoadFile applies one config file on top of cfg. The format follows the
// extension: .toml is TOML, anything else KDL. A relative project root is
// resolved against the file's directory.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	debug.LogConfig("loading %s\n", path)

	prevRoot := cfg.Project.Root
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = ApplyTOML(cfg, data)
	} else {
		err = ApplyKDL(cfg, string(data))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Project.Root != prevRoot && !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(filepath.Dir(path), cfg.Project.Root))
	}
	return nil
}

// mergeLists folds a layer's include and exclude lists into cfg. Include
// lists replace, exclusions accumulate.
func mergeLists(cfg *Config, include, exclude []string) {
	if len(include) > 0 {
		cfg.Include = append([]string(nil), include...)
	}
	if len(exclude) > 0 {
		cfg.Exclude = DeduplicatePatterns(append(cfg.Exclude, exclude...))
	}
}

// EnrichExclusionsWithBuildArtifacts detects build output directories from
// language configs and adds them to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		debug.LogConfig("excluding build output %v\n", detected)
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
