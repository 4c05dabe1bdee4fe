package search

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/pattern"
)

// Options configures an Engine.
type Options struct {
	// Workers bounds concurrent file scans; <= 0 uses GOMAXPROCS.
	Workers int
	// MaxMatchesPerFile caps matches reported for one file; 0 is unlimited.
	MaxMatchesPerFile int
	// MaxMatches caps matches across all files; 0 is unlimited.
	MaxMatches  int
	Encoding    string
	MaxLineSize int
}

// FileResult is the batch of matches found in one file.
type FileResult struct {
	Path        string          `json:"path"`
	Matches     []MatchLocation `json:"matches"`
	Status      ScanStatus      `json:"status"`
	Limited     bool            `json:"limited,omitempty"`
	Fingerprint uint64          `json:"-"`
	Err         error           `json:"-"`
}

// Summary describes a finished search.
type Summary struct {
	Files        int           `json:"files"`
	FilesMatched int           `json:"files_matched"`
	Matches      int           `json:"matches"`
	Canceled     bool          `json:"canceled"`
	Limited      bool          `json:"limited"`
	Errors       []error       `json:"-"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Engine runs a compiled pattern over many sources on a bounded pool of
// workers.
type Engine struct {
	opts Options
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{opts: opts}
}

// Stream is a running search. Results delivers one FileResult per scanned
// source and is closed when the search finishes; the consumer must drain it
// or cancel the context passed to Engine.Stream.
type Stream struct {
	results chan FileResult
	done    chan struct{}
	summary Summary
}

// Results returns the channel of per-file results.
func (s *Stream) Results() <-chan FileResult { return s.results }

// Wait blocks until the search has finished and returns its summary.
func (s *Stream) Wait() Summary {
	<-s.done
	return s.summary
}

// Stream starts searching sources with p in the background.
func (e *Engine) Stream(ctx context.Context, p *pattern.CompiledPattern, sources []Source) *Stream {
	s := &Stream{
		results: make(chan FileResult, e.opts.Workers),
		done:    make(chan struct{}),
	}
	go e.run(ctx, p, sources, s)
	return s
}

func (e *Engine) run(ctx context.Context, p *pattern.CompiledPattern, sources []Source, s *Stream) {
	defer close(s.done)
	start := time.Now()

	// scanCtx additionally stops when the total match cap is reached
	scanCtx, stopScans := context.WithCancel(ctx)
	defer stopScans()

	var (
		mu      sync.Mutex
		summary Summary
		total   atomic.Int64
		limited atomic.Bool
	)

	g, gctx := errgroup.WithContext(scanCtx)
	g.SetLimit(e.opts.Workers)

	for _, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fr := e.scanOne(gctx, p, src, &total, &limited)
			if limited.Load() {
				stopScans()
			}
			if fr.Status == StatusCanceled && limited.Load() && ctx.Err() == nil {
				// skipped because the cap was hit, not because the caller gave up
				return nil
			}

			mu.Lock()
			summary.Files++
			summary.Matches += len(fr.Matches)
			if len(fr.Matches) > 0 {
				summary.FilesMatched++
			}
			if fr.Err != nil {
				summary.Errors = append(summary.Errors, fr.Err)
			}
			mu.Unlock()

			select {
			case s.results <- fr:
			case <-ctx.Done():
			}
			return nil
		})
	}
	_ = g.Wait()
	close(s.results)

	summary.Canceled = ctx.Err() != nil
	summary.Limited = limited.Load()
	summary.Elapsed = time.Since(start)
	s.summary = summary
	debug.LogSearch("search finished: %d files, %d matches, canceled=%t\n", summary.Files, summary.Matches, summary.Canceled)
}

func (e *Engine) scanOne(ctx context.Context, p *pattern.CompiledPattern, src Source, total *atomic.Int64, limited *atomic.Bool) FileResult {
	maxMatches := e.opts.MaxMatchesPerFile
	if e.opts.MaxMatches > 0 {
		remaining := e.opts.MaxMatches - int(total.Load())
		if remaining <= 0 {
			limited.Store(true)
			return FileResult{Path: src.Name(), Status: StatusCanceled}
		}
		if maxMatches == 0 || remaining < maxMatches {
			maxMatches = remaining
		}
	}

	scanner := NewScanner(p, ScanOptions{
		Encoding:    e.opts.Encoding,
		MaxMatches:  maxMatches,
		MaxLineSize: e.opts.MaxLineSize,
	})
	res, err := scanner.Scan(ctx, src)
	fr := FileResult{
		Path:        res.Source,
		Matches:     res.Matches,
		Status:      res.Status,
		Limited:     res.Limited,
		Fingerprint: res.Fingerprint,
		Err:         err,
	}

	if e.opts.MaxMatches > 0 && len(fr.Matches) > 0 {
		after := total.Add(int64(len(fr.Matches)))
		if over := int(after) - e.opts.MaxMatches; over >= 0 {
			// concurrent workers may overshoot; trim this file's share
			if over > 0 {
				keep := len(fr.Matches) - over
				if keep < 0 {
					keep = 0
				}
				fr.Matches = fr.Matches[:keep]
				fr.Limited = true
			}
			limited.Store(true)
		}
	}
	return fr
}

// Search runs a search to completion and collects every result.
func (e *Engine) Search(ctx context.Context, p *pattern.CompiledPattern, sources []Source) ([]FileResult, Summary) {
	stream := e.Stream(ctx, p, sources)
	var results []FileResult
	for fr := range stream.Results() {
		results = append(results, fr)
	}
	return results, stream.Wait()
}
