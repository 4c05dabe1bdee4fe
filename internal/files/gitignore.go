package files

import (
	"bufio"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreRule is one parsed .gitignore line.
type IgnoreRule struct {
	Pattern   string
	Negate    bool
	Directory bool
	Anchored  bool

	// base is the slash separated directory, relative to the walk root,
	// holding the .gitignore the rule came from
	base string
	glob string
}

// Gitignore matches paths against .gitignore rules collected while walking
// a tree. Later rules win, so rules from deeper directories override their
// parents.
type Gitignore struct {
	rules []IgnoreRule
}

// NewGitignore creates an empty rule set.
func NewGitignore() *Gitignore {
	return &Gitignore{}
}

// Len returns the number of loaded rules.
func (g *Gitignore) Len() int { return len(g.rules) }

// LoadDir reads dir/.gitignore, if present. rel is dir relative to the walk
// root in slash form ("" for the root itself).
func (g *Gitignore) LoadDir(dir, rel string) error {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return g.Load(f, rel)
}

// Load parses rules from r, scoping them to the directory base.
func (g *Gitignore) Load(r io.Reader, base string) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		g.AddRule(base, sc.Text())
	}
	return sc.Err()
}

// AddRule parses a single line. Blank lines and comments are ignored.
func (g *Gitignore) AddRule(base, line string) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	if base == "." {
		base = ""
	}
	rule := IgnoreRule{base: strings.TrimSuffix(base, "/")}
	if strings.HasPrefix(line, `\#`) || strings.HasPrefix(line, `\!`) {
		line = line[1:]
	} else if strings.HasPrefix(line, "!") {
		rule.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.Directory = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		rule.Anchored = true
		line = strings.TrimLeft(line, "/")
	} else if strings.Contains(line, "/") {
		// a slash anywhere but the end anchors the pattern to its .gitignore
		rule.Anchored = true
	}
	if line == "" {
		return
	}

	rule.Pattern = line
	rule.glob = line
	if !rule.Anchored && !strings.HasPrefix(line, "**/") {
		rule.glob = "**/" + line
	}
	if !doublestar.ValidatePattern(rule.glob) {
		return
	}
	g.rules = append(g.rules, rule)
}

// ShouldIgnore reports whether rel, a slash separated path relative to the
// walk root, is ignored. A path inside an ignored directory is ignored.
func (g *Gitignore) ShouldIgnore(rel string, isDir bool) bool {
	if len(g.rules) == 0 {
		return false
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}

	// check parents first: git never re-includes a file below an
	// excluded directory
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if g.match(dir, true) {
			return true
		}
	}
	return g.match(rel, isDir)
}

func (g *Gitignore) match(rel string, isDir bool) bool {
	ignored := false
	for i := range g.rules {
		r := &g.rules[i]
		if r.Directory && !isDir {
			continue
		}
		sub := rel
		if r.base != "" {
			if !strings.HasPrefix(rel, r.base+"/") {
				continue
			}
			sub = rel[len(r.base)+1:]
		}
		if ok, _ := doublestar.Match(r.glob, sub); ok {
			ignored = !r.Negate
		}
	}
	return ignored
}
