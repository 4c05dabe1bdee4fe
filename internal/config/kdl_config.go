package config

import (
	"fmt"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/lsr/internal/debug"
)

// ApplyKDL parses a .lsr.kdl document and applies it on top of cfg:
//
//	search {
//	    match_type "regexp"
//	    whole_words true
//	    max_line_size "4MB"
//	}
//	files { max_file_size "1MB" }
//	exclude "vendor/**" "testdata/**"
func ApplyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	var include, exclude []string
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			setInt(n, &cfg.Version)
		case "project":
			for _, cn := range n.Children { // project { root "." name "foo" }
				switch nodeName(cn) {
				case "root":
					setString(cn, &cfg.Project.Root)
				case "name":
					setString(cn, &cfg.Project.Name)
				}
			}
		case "search":
			for _, cn := range n.Children {
				applySearchNode(&cfg.Search, cn)
			}
		case "replace":
			for _, cn := range n.Children {
				if nodeName(cn) == "preserve_case" {
					setBool(cn, &cfg.Replace.PreserveCase)
				}
			}
		case "files":
			for _, cn := range n.Children {
				applyFilesNode(&cfg.Files, cn)
			}
		case "output":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "color":
					setString(cn, &cfg.Output.Color)
				case "format":
					setString(cn, &cfg.Output.Format)
				}
			}
		case "log":
			for _, cn := range n.Children {
				applyLogNode(&cfg.Log, cn)
			}
		case "include":
			include = append(include, collectStringArgs(n)...)
		case "exclude":
			exclude = append(exclude, collectStringArgs(n)...)
		default:
			debug.LogConfig("ignoring unknown config node %q\n", nodeName(n))
		}
	}

	mergeLists(cfg, include, exclude)
	return nil
}

func applySearchNode(s *Search, cn *document.Node) {
	switch nodeName(cn) {
	case "match_type":
		setString(cn, &s.MatchType)
	case "match_case":
		setBool(cn, &s.MatchCase)
	case "whole_words":
		setBool(cn, &s.WholeWords)
	case "word_marks":
		setBool(cn, &s.WordMarks)
	case "workers":
		setInt(cn, &s.Workers)
	case "max_matches":
		setInt(cn, &s.MaxMatches)
	case "max_matches_per_file":
		setInt(cn, &s.MaxMatchesPerFile)
	case "max_line_size":
		setSize(cn, &s.MaxLineSize)
	case "encoding":
		setString(cn, &s.Encoding)
	case "context_chars":
		setInt(cn, &s.ContextChars)
	case "cache_size":
		setInt(cn, &s.CacheSize)
	}
}

func applyFilesNode(f *Files, cn *document.Node) {
	switch nodeName(cn) {
	case "respect_gitignore":
		setBool(cn, &f.RespectGitignore)
	case "hidden":
		setBool(cn, &f.Hidden)
	case "skip_binary":
		setBool(cn, &f.SkipBinary)
	case "max_file_size":
		setSize(cn, &f.MaxFileSize)
	case "exclude_build_output":
		setBool(cn, &f.ExcludeBuildOutput)
	case "watch_debounce_ms":
		setInt(cn, &f.WatchDebounceMs)
	}
}

func applyLogNode(l *Log, cn *document.Node) {
	switch nodeName(cn) {
	case "debug":
		setBool(cn, &l.Debug)
	case "file":
		setBool(cn, &l.File)
	case "dir":
		setString(cn, &l.Dir)
	case "max_size_mb":
		setInt(cn, &l.MaxSizeMB)
	case "max_backups":
		setInt(cn, &l.MaxBackups)
	case "max_age_days":
		setInt(cn, &l.MaxAgeDays)
	case "compress":
		setBool(cn, &l.Compress)
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstArg(n *document.Node) (interface{}, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return nil, false
	}
	return n.Arguments[0].Value, true
}

func firstStringArg(n *document.Node) (string, bool) {
	v, _ := firstArg(n)
	s, ok := v.(string)
	return s, ok
}

// The setters leave dst untouched when the node's argument has the wrong
// type, so a malformed entry keeps the value of the layer below.

func setBool(n *document.Node, dst *bool) {
	v, _ := firstArg(n)
	if b, ok := v.(bool); ok {
		*dst = b
	}
}

func setString(n *document.Node, dst *string) {
	if s, ok := firstStringArg(n); ok {
		*dst = s
	}
}

func setInt(n *document.Node, dst *int) {
	v, _ := firstArg(n)
	switch x := v.(type) {
	case int64:
		*dst = int(x)
	case float64:
		*dst = int(x)
	}
}

// setSize accepts a byte count or a size string such as "10MB".
func setSize[T int | int64](n *document.Node, dst *T) {
	v, _ := firstArg(n)
	switch x := v.(type) {
	case int64:
		*dst = T(x)
	case float64:
		*dst = T(x)
	case string:
		size, err := parseSize(x)
		if err != nil {
			debug.LogConfig("invalid size %q for %s: %v\n", x, nodeName(n), err)
			return
		}
		*dst = T(size)
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	// inline form: exclude "a" "b"
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// block form: exclude { "a"; "b" } where each string is a child node name
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

var sizeUnits = []struct {
	suffix string
	scale  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseSize reads "4MB", "512kb" or "100" as a byte count.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	scale := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, scale = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.scale
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad size: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %d", n)
	}
	return n * scale, nil
}
