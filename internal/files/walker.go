package files

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/errors"
)

// vcsDirs are never descended into.
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true, ".jj": true}

// Options controls which files a Walker reports.
type Options struct {
	// Include globs; when non-empty a file must match one of them.
	Include []string
	// Exclude globs apply to files and directories.
	Exclude []string
	// Gitignore honours .gitignore files found in the tree.
	Gitignore bool
	// Hidden includes dot files and dot directories.
	Hidden bool
	// SkipBinary drops files that look binary.
	SkipBinary bool
	// MaxFileSize drops larger files; 0 means no limit.
	MaxFileSize int64
}

// Walker discovers the files a search runs over. Globs are doublestar
// patterns matched against the slash separated path relative to the root;
// a pattern without a slash also matches the base name.
type Walker struct {
	root   string
	opts   Options
	binary *BinaryDetector

	mu     sync.RWMutex
	ignore *Gitignore
}

// NewWalker validates the globs in opts and creates a walker rooted at root.
func NewWalker(root string, opts Options) (*Walker, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewFileError("resolve", root, err)
	}
	for _, p := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.NewConfigError("glob", p, fmt.Errorf("invalid glob pattern"))
		}
	}
	return &Walker{
		root:   abs,
		opts:   opts,
		binary: NewBinaryDetector(),
		ignore: NewGitignore(),
	}, nil
}

// Root returns the absolute walk root.
func (w *Walker) Root() string { return w.root }

// Walk returns the sorted, de-duplicated files below paths (the root when
// none are given). Files named explicitly are always returned.
func (w *Walker) Walk(ctx context.Context, paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{w.root}
	}

	ignore := NewGitignore()
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.NewFileError("stat", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		if w.opts.Gitignore {
			w.loadParentIgnores(ignore, p)
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				debug.LogSearch("walk: skipping %s: %v\n", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			rel := w.rel(path)
			if d.IsDir() {
				if path != p && w.skipDir(ignore, rel, d.Name()) {
					return fs.SkipDir
				}
				if w.opts.Gitignore {
					if err := ignore.LoadDir(path, filepath.ToSlash(rel)); err != nil {
						debug.LogSearch("walk: reading %s/.gitignore: %v\n", path, err)
					}
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if w.acceptFile(ignore, path, rel, d) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	w.mu.Lock()
	w.ignore = ignore
	w.mu.Unlock()

	sort.Strings(out)
	return out, nil
}

// Accept applies the walk filters to a single file, using the .gitignore
// rules gathered by the last Walk.
func (w *Walker) Accept(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	rel := w.rel(path)
	w.mu.RLock()
	ignore := w.ignore
	w.mu.RUnlock()

	for dir := filepath.Dir(rel); dir != "." && dir != "/" && dir != ""; dir = filepath.Dir(dir) {
		base := filepath.Base(dir)
		if vcsDirs[base] || (!w.opts.Hidden && isHidden(base)) || matchAny(w.opts.Exclude, filepath.ToSlash(dir)) {
			return false
		}
	}
	return w.acceptFile(ignore, path, rel, fs.FileInfoToDirEntry(info))
}

// SkipDir reports whether a directory is pruned from walks and watches.
func (w *Walker) SkipDir(path string) bool {
	if path == w.root {
		return false
	}
	w.mu.RLock()
	ignore := w.ignore
	w.mu.RUnlock()
	return w.skipDir(ignore, w.rel(path), filepath.Base(path))
}

func (w *Walker) skipDir(ignore *Gitignore, rel, name string) bool {
	if vcsDirs[name] {
		return true
	}
	if !w.opts.Hidden && isHidden(name) {
		return true
	}
	slashRel := filepath.ToSlash(rel)
	if matchAny(w.opts.Exclude, slashRel) {
		return true
	}
	return w.opts.Gitignore && ignore.ShouldIgnore(slashRel, true)
}

func (w *Walker) acceptFile(ignore *Gitignore, path, rel string, d fs.DirEntry) bool {
	name := d.Name()
	slashRel := filepath.ToSlash(rel)
	if !w.opts.Hidden && isHidden(name) {
		return false
	}
	if len(w.opts.Include) > 0 && !matchAny(w.opts.Include, slashRel) {
		return false
	}
	if matchAny(w.opts.Exclude, slashRel) {
		return false
	}
	if w.opts.Gitignore && ignore.ShouldIgnore(slashRel, false) {
		return false
	}
	if w.opts.MaxFileSize > 0 {
		info, err := d.Info()
		if err != nil || info.Size() > w.opts.MaxFileSize {
			debug.LogSearch("walk: skipping %s (size limit)\n", path)
			return false
		}
	}
	if w.opts.SkipBinary {
		binary, err := w.binary.IsBinaryFile(path)
		if err != nil || binary {
			return false
		}
	}
	return true
}

// loadParentIgnores reads the .gitignore files between the root and dir
// (exclusive) so a walk started below the root sees its ancestors' rules.
func (w *Walker) loadParentIgnores(ignore *Gitignore, dir string) {
	rel := w.rel(dir)
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return
	}
	current := w.root
	_ = ignore.LoadDir(current, "")
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := 0; i < len(parts)-1; i++ {
		current = filepath.Join(current, parts[i])
		_ = ignore.LoadDir(current, strings.Join(parts[:i+1], "/"))
	}
}

// rel returns path relative to the root, or path itself when it lies
// outside the root.
func (w *Walker) rel(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}

func matchAny(patterns []string, slashRel string) bool {
	base := slashRel
	if i := strings.LastIndexByte(slashRel, '/'); i >= 0 {
		base = slashRel[i+1:]
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, slashRel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
