// Package workspace ties a loaded configuration to the pattern compiler, the
// file walker and the search engine. The CLI and the MCP server both drive
// searches through it.
package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/standardbeagle/lsr/internal/config"
	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/files"
	"github.com/standardbeagle/lsr/internal/pattern"
	"github.com/standardbeagle/lsr/internal/search"
)

// Query is a search expression with its interpretation.
type Query struct {
	Expr       string
	MatchType  pattern.MatchType
	MatchCase  bool
	WholeWords bool
	// MaxMatches caps the matches of a search; 0 uses the configured cap.
	MaxMatches int
}

// Pattern returns the SearchPattern for q.
func (q Query) Pattern() pattern.SearchPattern {
	return pattern.New(q.Expr, q.MatchCase, q.WholeWords, q.MatchType)
}

// Workspace is a project root with its configuration.
type Workspace struct {
	cfg      *config.Config
	compiler *pattern.Compiler
	walker   *files.Walker
}

// New creates a workspace from a validated configuration.
func New(cfg *config.Config) (*Workspace, error) {
	_, wc := cfg.PatternOptions()
	walker, err := files.NewWalker(cfg.Project.Root, files.Options{
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		Gitignore:   cfg.Files.RespectGitignore,
		Hidden:      cfg.Files.Hidden,
		SkipBinary:  cfg.Files.SkipBinary,
		MaxFileSize: cfg.Files.MaxFileSize,
	})
	if err != nil {
		return nil, err
	}
	return &Workspace{
		cfg:      cfg,
		compiler: pattern.NewCompiler(wc, cfg.Search.CacheSize),
		walker:   walker,
	}, nil
}

// Config returns the workspace configuration.
func (w *Workspace) Config() *config.Config { return w.cfg }

// Root returns the absolute project root.
func (w *Workspace) Root() string { return w.walker.Root() }

// Walker returns the file walker.
func (w *Workspace) Walker() *files.Walker { return w.walker }

// Compiler returns the pattern compiler.
func (w *Workspace) Compiler() *pattern.Compiler { return w.compiler }

// NewQuery returns a query for expr using the configured search defaults.
func (w *Workspace) NewQuery(expr string) Query {
	mt, _ := w.cfg.PatternOptions()
	return Query{
		Expr:       expr,
		MatchType:  mt,
		MatchCase:  w.cfg.Search.MatchCase,
		WholeWords: w.cfg.Search.WholeWords,
	}
}

// Compile compiles q. An empty expression is rejected.
func (w *Workspace) Compile(q Query) (*pattern.CompiledPattern, error) {
	p := q.Pattern()
	if p.IsEmpty() {
		return nil, errors.NewPatternError(q.Expr, q.MatchType.String(), fmt.Errorf("empty pattern"))
	}
	return w.compiler.Compile(p)
}

// Engine returns a search engine configured from the workspace.
func (w *Workspace) Engine() *search.Engine {
	return w.engineFor(Query{})
}

func (w *Workspace) engineFor(q Query) *search.Engine {
	s := w.cfg.Search
	opts := search.Options{
		Workers:           s.Workers,
		MaxMatchesPerFile: s.MaxMatchesPerFile,
		MaxMatches:        s.MaxMatches,
		Encoding:          s.Encoding,
		MaxLineSize:       s.MaxLineSize,
	}
	if q.MaxMatches > 0 {
		opts.MaxMatches = q.MaxMatches
	}
	return search.NewEngine(opts)
}

// Files lists the files a search over paths visits; no paths means the
// whole root.
func (w *Workspace) Files(ctx context.Context, paths ...string) ([]string, error) {
	return w.walker.Walk(ctx, paths...)
}

// Stream compiles q and starts searching paths. The caller must drain the
// stream or cancel ctx.
func (w *Workspace) Stream(ctx context.Context, q Query, paths ...string) (*search.Stream, error) {
	compiled, err := w.Compile(q)
	if err != nil {
		return nil, err
	}
	list, err := w.Files(ctx, paths...)
	if err != nil {
		return nil, err
	}
	debug.LogSearch("searching %d files for %s\n", len(list), q.Pattern())
	return w.engineFor(q).Stream(ctx, compiled, search.FileSources(list)), nil
}

// Search runs q over paths and collects the results sorted by path.
func (w *Workspace) Search(ctx context.Context, q Query, paths ...string) ([]search.FileResult, search.Summary, error) {
	compiled, err := w.Compile(q)
	if err != nil {
		return nil, search.Summary{}, err
	}
	list, err := w.Files(ctx, paths...)
	if err != nil {
		return nil, search.Summary{}, err
	}
	results, summary := w.engineFor(q).Search(ctx, compiled, search.FileSources(list))
	slices.SortFunc(results, func(a, b search.FileResult) int { return strings.Compare(a.Path, b.Path) })
	return results, summary, nil
}

// ReplaceOptions describes a replacement run.
type ReplaceOptions struct {
	Replacement  string
	PreserveCase bool
	// DryRun computes diffs without writing files.
	DryRun bool
}

// NewReplaceOptions returns options for replacement using the configured
// defaults.
func (w *Workspace) NewReplaceOptions(replacement string) ReplaceOptions {
	return ReplaceOptions{Replacement: replacement, PreserveCase: w.cfg.Replace.PreserveCase}
}

// Replace searches paths for q and replaces every match. In a dry run
// nothing is written and the changes carry diff previews only.
func (w *Workspace) Replace(ctx context.Context, q Query, opts ReplaceOptions, paths ...string) ([]search.FileChange, search.Summary, error) {
	compiled, err := w.Compile(q)
	if err != nil {
		return nil, search.Summary{}, err
	}
	list, err := w.Files(ctx, paths...)
	if err != nil {
		return nil, search.Summary{}, err
	}
	results, summary := w.engineFor(q).Search(ctx, compiled, search.FileSources(list))
	if summary.Canceled {
		return nil, summary, ctx.Err()
	}
	replacer := search.NewReplacer(compiled, opts.Replacement, search.ReplaceOptions{
		PreserveCase: opts.PreserveCase,
		Encoding:     w.cfg.Search.Encoding,
	})
	changes, err := replacer.Apply(ctx, results, opts.DryRun)
	return changes, summary, err
}

// Watch re-runs q over every batch of changed files until ctx is done or
// the returned watcher is stopped. onResults runs on the watcher goroutine.
func (w *Workspace) Watch(ctx context.Context, q Query, onResults func([]search.FileResult, search.Summary)) (*files.Watcher, error) {
	compiled, err := w.Compile(q)
	if err != nil {
		return nil, err
	}
	engine := w.engineFor(q)
	debounce := time.Duration(w.cfg.Files.WatchDebounceMs) * time.Millisecond
	watcher := files.NewWatcher(w.walker, debounce, func(b files.Batch) {
		if len(b.Changed) == 0 {
			return
		}
		results, summary := engine.Search(ctx, compiled, search.FileSources(b.Changed))
		onResults(results, summary)
	})
	if err := watcher.Start(ctx); err != nil {
		return nil, err
	}
	return watcher, nil
}
