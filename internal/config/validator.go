package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	lsrerrors "github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/pattern"
	"github.com/standardbeagle/lsr/internal/search"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if cfg.Project.Root == "" {
		return lsrerrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}
	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return err
	}
	if err := v.validateFilesConfig(&cfg.Files); err != nil {
		return err
	}
	if err := v.validateOutputConfig(&cfg.Output); err != nil {
		return err
	}
	for _, field := range []struct {
		name     string
		patterns []string
	}{{"include", cfg.Include}, {"exclude", cfg.Exclude}} {
		for _, p := range field.patterns {
			if !doublestar.ValidatePattern(p) {
				return lsrerrors.NewConfigError(field.name, p, errors.New("invalid glob pattern"))
			}
		}
	}

	v.setSmartDefaults(cfg)
	return nil
}

// validateSearchConfig validates search configuration
func (v *Validator) validateSearchConfig(s *Search) error {
	if _, err := pattern.ParseMatchType(s.MatchType); err != nil {
		return lsrerrors.NewConfigError("search.match_type", s.MatchType, err)
	}
	if s.Workers < 0 {
		return lsrerrors.NewConfigError("search.workers", fmt.Sprint(s.Workers), errors.New("cannot be negative"))
	}
	if s.MaxMatches < 0 {
		return lsrerrors.NewConfigError("search.max_matches", fmt.Sprint(s.MaxMatches), errors.New("cannot be negative"))
	}
	if s.MaxMatchesPerFile < 0 {
		return lsrerrors.NewConfigError("search.max_matches_per_file", fmt.Sprint(s.MaxMatchesPerFile), errors.New("cannot be negative"))
	}
	if s.MaxLineSize < 0 {
		return lsrerrors.NewConfigError("search.max_line_size", fmt.Sprint(s.MaxLineSize), errors.New("cannot be negative"))
	}
	if s.ContextChars < 0 {
		return lsrerrors.NewConfigError("search.context_chars", fmt.Sprint(s.ContextChars), errors.New("cannot be negative"))
	}
	if s.CacheSize < 0 {
		return lsrerrors.NewConfigError("search.cache_size", fmt.Sprint(s.CacheSize), errors.New("cannot be negative"))
	}
	if _, err := search.LookupEncoding(s.Encoding); err != nil {
		return lsrerrors.NewConfigError("search.encoding", s.Encoding, err)
	}
	return nil
}

// validateFilesConfig validates file discovery configuration
func (v *Validator) validateFilesConfig(f *Files) error {
	if f.MaxFileSize < 0 {
		return lsrerrors.NewConfigError("files.max_file_size", fmt.Sprint(f.MaxFileSize), errors.New("cannot be negative"))
	}
	if f.WatchDebounceMs < 0 {
		return lsrerrors.NewConfigError("files.watch_debounce_ms", fmt.Sprint(f.WatchDebounceMs), errors.New("cannot be negative"))
	}
	return nil
}

var (
	colorModes    = []string{"auto", "always", "never"}
	outputFormats = []string{"text", "json"}
)

// validateOutputConfig validates output configuration
func (v *Validator) validateOutputConfig(o *Output) error {
	o.Color = strings.ToLower(strings.TrimSpace(o.Color))
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Color != "" && !slices.Contains(colorModes, o.Color) {
		return lsrerrors.NewConfigError("output.color", o.Color, fmt.Errorf("expected one of %s", strings.Join(colorModes, ", ")))
	}
	if o.Format != "" && !slices.Contains(outputFormats, o.Format) {
		return lsrerrors.NewConfigError("output.format", o.Format, fmt.Errorf("expected one of %s", strings.Join(outputFormats, ", ")))
	}
	return nil
}

// setSmartDefaults applies smart defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	// leave a core for the OS when nothing is configured
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = max(1, runtime.NumCPU()-1)
	}
	if cfg.Search.MaxLineSize == 0 {
		cfg.Search.MaxLineSize = DefaultMaxLineSize
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = DefaultCacheSize
	}
	if cfg.Files.WatchDebounceMs == 0 {
		cfg.Files.WatchDebounceMs = DefaultWatchDebounceMs
	}
	if cfg.Output.Color == "" {
		cfg.Output.Color = "auto"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}

// PatternOptions returns the match type and word character policy the
// search settings select. The configuration must have been validated.
func (c *Config) PatternOptions() (pattern.MatchType, pattern.WordChars) {
	mt, _ := pattern.ParseMatchType(c.Search.MatchType)
	return mt, pattern.WordChars{IncludeMarks: c.Search.WordMarks}
}
