package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lsr/internal/casing"
	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/display"
	"github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/pattern"
	"github.com/standardbeagle/lsr/internal/search"
	"github.com/standardbeagle/lsr/internal/workspace"
	"github.com/standardbeagle/lsr/pkg/pathutil"
)

// PatternParams are the pattern fields shared by the pattern tools. Unset
// options fall back to the project configuration.
type PatternParams struct {
	Pattern    string `json:"pattern"`
	Type       string `json:"type,omitempty"`
	MatchCase  *bool  `json:"match_case,omitempty"`
	WholeWords *bool  `json:"whole_words,omitempty"`
}

// SearchParams are the arguments of the search tool.
type SearchParams struct {
	PatternParams
	Paths      []string `json:"paths,omitempty"`
	MaxMatches int      `json:"max_matches,omitempty"`
	Output     string   `json:"output,omitempty"`
}

// ReplaceParams are the arguments of the replace tool.
type ReplaceParams struct {
	PatternParams
	Replacement  *string  `json:"replacement"`
	PreserveCase *bool    `json:"preserve_case,omitempty"`
	DryRun       *bool    `json:"dry_run,omitempty"`
	Paths        []string `json:"paths,omitempty"`
}

// AdaptCaseParams are the arguments of the adapt_case tool.
type AdaptCaseParams struct {
	Replacement string `json:"replacement"`
	Matched     string `json:"matched"`
}

// SearchMatch is one match in a search response.
type SearchMatch struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Text     string `json:"text"`
	LineText string `json:"line_text,omitempty"`
}

// SearchResponse is the result of the search tool. Only the field selected
// by the output parameter is filled.
type SearchResponse struct {
	Matches []SearchMatch  `json:"matches,omitempty"`
	Files   []string       `json:"files,omitempty"`
	Counts  map[string]int `json:"counts,omitempty"`
	Summary search.Summary `json:"summary"`
	Errors  []string       `json:"errors,omitempty"`
}

// ReplaceResponse is the result of the replace tool.
type ReplaceResponse struct {
	Changes      []search.FileChange `json:"changes"`
	Replacements int                 `json:"replacements"`
	DryRun       bool                `json:"dry_run"`
	Summary      search.Summary      `json:"summary"`
}

// CompileResponse describes a compiled pattern.
type CompileResponse struct {
	Pattern           string `json:"pattern"`
	MatchType         string `json:"match_type"`
	Source            string `json:"source"`
	Regexp            string `json:"regexp"`
	CaseInsensitive   bool   `json:"case_insensitive"`
	DotAll            bool   `json:"dot_all"`
	Multiline         bool   `json:"multiline"`
	NotAfterWordChar  bool   `json:"not_after_word_char"`
	NotBeforeWordChar bool   `json:"not_before_word_char"`
	Groups            int    `json:"groups"`
}

// AdaptCaseResponse is the result of the adapt_case tool.
type AdaptCaseResponse struct {
	Result string `json:"result"`
	Class  string `json:"class"`
}

func decodeParams(req *mcp.CallToolRequest, v any) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) query(p PatternParams) (workspace.Query, error) {
	q := s.ws.NewQuery(p.Pattern)
	if p.Type != "" {
		mt, err := pattern.ParseMatchType(p.Type)
		if err != nil {
			return q, err
		}
		q.MatchType = mt
	}
	if p.MatchCase != nil {
		q.MatchCase = *p.MatchCase
	}
	if p.WholeWords != nil {
		q.WholeWords = *p.WholeWords
	}
	return q, nil
}

// resolvePaths maps tool paths onto the project root. Paths leaving the
// root are rejected.
func (s *Server) resolvePaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		full, ok := pathutil.Resolve(p, s.ws.Root())
		if !ok {
			return nil, errors.NewFileError("resolve", p, fmt.Errorf("path is outside the project root")).WithType(errors.ErrorTypePermission)
		}
		out = append(out, full)
	}
	return out, nil
}

func (s *Server) relPath(path string) string {
	return pathutil.ToRelative(path, s.ws.Root())
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("search", err)
	}
	debug.LogMCP("search %q type=%q paths=%v\n", params.Pattern, params.Type, params.Paths)

	details := map[string]interface{}{"pattern": params.Pattern, "type": params.Type}
	return s.recoverFromPanic("search", details, func() (*mcp.CallToolResult, error) {
		q, err := s.query(params.PatternParams)
		if err != nil {
			return nil, err
		}
		q.MaxMatches = params.MaxMatches
		paths, err := s.resolvePaths(params.Paths)
		if err != nil {
			return nil, err
		}

		results, summary, err := s.ws.Search(ctx, q, paths...)
		if err != nil {
			return nil, err
		}

		resp := SearchResponse{Summary: summary}
		for _, e := range summary.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
		switch params.Output {
		case "", "matches":
			resp.Matches = []SearchMatch{}
			contextChars := s.ws.Config().Search.ContextChars
			for _, fr := range results {
				path := s.relPath(fr.Path)
				for _, m := range fr.Matches {
					resp.Matches = append(resp.Matches, SearchMatch{
						Path:     path,
						Line:     m.Line,
						Column:   m.Column,
						Text:     m.Text,
						LineText: display.MatchLine(m, contextChars, display.DefaultMaxLineWidth),
					})
				}
			}
		case "files":
			resp.Files = []string{}
			for _, fr := range results {
				if len(fr.Matches) > 0 {
					resp.Files = append(resp.Files, s.relPath(fr.Path))
				}
			}
		case "count":
			resp.Counts = map[string]int{}
			for _, fr := range results {
				if len(fr.Matches) > 0 {
					resp.Counts[s.relPath(fr.Path)] = len(fr.Matches)
				}
			}
		default:
			return nil, fmt.Errorf("unknown output %q (expected matches, files or count)", params.Output)
		}
		return createJSONResponse(resp)
	})
}

func (s *Server) handleReplace(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ReplaceParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("replace", err)
	}
	debug.LogMCP("replace %q paths=%v\n", params.Pattern, params.Paths)

	details := map[string]interface{}{"pattern": params.Pattern, "type": params.Type}
	return s.recoverFromPanic("replace", details, func() (*mcp.CallToolResult, error) {
		if params.Replacement == nil {
			return nil, fmt.Errorf("replacement is required")
		}
		q, err := s.query(params.PatternParams)
		if err != nil {
			return nil, err
		}
		paths, err := s.resolvePaths(params.Paths)
		if err != nil {
			return nil, err
		}

		opts := s.ws.NewReplaceOptions(*params.Replacement)
		opts.DryRun = true
		if params.DryRun != nil {
			opts.DryRun = *params.DryRun
		}
		if params.PreserveCase != nil {
			opts.PreserveCase = *params.PreserveCase
		}

		changes, summary, err := s.ws.Replace(ctx, q, opts, paths...)
		if err != nil && len(changes) == 0 {
			return nil, err
		}
		if err != nil {
			s.diagnosticLogger.Errorf("replace finished with errors: %v", err)
		}

		resp := ReplaceResponse{Changes: []search.FileChange{}, DryRun: opts.DryRun, Summary: summary}
		for _, c := range changes {
			c.Path = s.relPath(c.Path)
			resp.Changes = append(resp.Changes, c)
			resp.Replacements += c.Replacements
		}
		return createJSONResponse(resp)
	})
}

func (s *Server) handleCompilePattern(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params PatternParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("compile_pattern", err)
	}

	details := map[string]interface{}{"pattern": params.Pattern, "type": params.Type}
	return s.recoverFromPanic("compile_pattern", details, func() (*mcp.CallToolResult, error) {
		q, err := s.query(params)
		if err != nil {
			return nil, err
		}
		compiled, err := s.ws.Compile(q)
		if err != nil {
			return nil, err
		}
		return createJSONResponse(CompileResponse{
			Pattern:           q.Expr,
			MatchType:         q.MatchType.String(),
			Source:            compiled.Source,
			Regexp:            compiled.Expr(),
			CaseInsensitive:   compiled.CaseInsensitive,
			DotAll:            compiled.DotAll,
			Multiline:         compiled.Multiline,
			NotAfterWordChar:  compiled.NotAfterWordChar,
			NotBeforeWordChar: compiled.NotBeforeWordChar,
			Groups:            compiled.NumGroups(),
		})
	})
}

func (s *Server) handleAdaptCase(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params AdaptCaseParams
	if err := decodeParams(req, &params); err != nil {
		return createErrorResponse("adapt_case", err)
	}
	return s.recoverFromPanic("adapt_case", nil, func() (*mcp.CallToolResult, error) {
		return createJSONResponse(AdaptCaseResponse{
			Result: casing.AdaptCase(params.Replacement, params.Matched),
			Class:  casing.Classify(params.Matched).String(),
		})
	})
}

type panicError struct{ value any }

func (e panicError) Error() string { return fmt.Sprintf("internal error: %v", e.value) }
