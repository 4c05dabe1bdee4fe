package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsr/internal/config"
	"github.com/standardbeagle/lsr/internal/workspace"
	"github.com/standardbeagle/lsr/testhelpers"
)

type toolHandler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	root := testhelpers.WriteProject(t, files)
	cfg := config.Default()
	cfg.Project.Root = root
	require.NoError(t, config.ValidateConfig(cfg))
	ws, err := workspace.New(cfg)
	require.NoError(t, err)
	return NewServer(ws, nil)
}

// callTool invokes handler with params and decodes the JSON text result
// into out. It returns whether the result was flagged as an error.
func callTool(t *testing.T, handler toolHandler, params map[string]any, out any) bool {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	result, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: raw},
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	return result.IsError
}

func TestHandleSearch(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"a.txt":     "foo bar\nfood\n",
		"sub/b.txt": "  foo\n",
	})

	var resp SearchResponse
	isErr := callTool(t, s.handleSearch, map[string]any{"pattern": "foo", "whole_words": true}, &resp)
	require.False(t, isErr)
	assert.Equal(t, []SearchMatch{
		{Path: "a.txt", Line: 1, Column: 1, Text: "foo", LineText: "foo bar"},
		{Path: "sub/b.txt", Line: 1, Column: 3, Text: "foo", LineText: "  foo"},
	}, resp.Matches)
	assert.Equal(t, 2, resp.Summary.Matches)

	resp = SearchResponse{}
	callTool(t, s.handleSearch, map[string]any{"pattern": "foo", "output": "count"}, &resp)
	assert.Equal(t, map[string]int{"a.txt": 2, "sub/b.txt": 1}, resp.Counts)

	resp = SearchResponse{}
	callTool(t, s.handleSearch, map[string]any{"pattern": "fo?d", "output": "files", "paths": []string{"sub"}}, &resp)
	assert.Empty(t, resp.Files)

	resp = SearchResponse{}
	callTool(t, s.handleSearch, map[string]any{"pattern": "fo?d", "output": "files"}, &resp)
	assert.Equal(t, []string{"a.txt"}, resp.Files)
}

func TestHandleSearch_LongLineBounded(t *testing.T) {
	line := strings.Repeat(strings.Repeat("x", 2000)+"needle", 50) + " tail\n"
	s := newTestServer(t, map[string]string{"min.js": line})

	raw, err := json.Marshal(map[string]any{"pattern": "needle"})
	require.NoError(t, err)
	result, err := s.handleSearch(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: raw},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Less(t, len(text.Text), 30_000)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	require.Len(t, resp.Matches, 50)
	head := strings.Repeat("x", config.DefaultContextChars)
	for _, m := range resp.Matches {
		assert.Equal(t, head+"…needle…", m.LineText)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	s := newTestServer(t, map[string]string{"a.txt": "x\n"})

	tests := []struct {
		name     string
		params   map[string]any
		contains string
	}{
		{"bad regexp", map[string]any{"pattern": "(", "type": "regexp"}, "invalid regexp pattern"},
		{"empty pattern", map[string]any{"pattern": ""}, "empty pattern"},
		{"unknown type", map[string]any{"pattern": "x", "type": "regx"}, "did you mean"},
		{"escaping path", map[string]any{"pattern": "x", "paths": []string{"../outside"}}, "outside the project root"},
		{"unknown output", map[string]any{"pattern": "x", "output": "tree"}, "unknown output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp map[string]any
			require.True(t, callTool(t, s.handleSearch, tt.params, &resp))
			assert.Equal(t, false, resp["success"])
			assert.Contains(t, resp["error"], tt.contains)
		})
	}
}

func TestHandleSearch_RegexSuggestion(t *testing.T) {
	s := newTestServer(t, map[string]string{"a.txt": "x\n"})

	var resp map[string]any
	require.True(t, callTool(t, s.handleSearch, map[string]any{"pattern": "(?<=a)b", "type": "regexp"}, &resp))
	suggestions, ok := resp["suggestions"].([]any)
	require.True(t, ok)
	assert.Contains(t, suggestions, "Lookaround assertions are not supported; use whole_words for word boundaries")
}

func TestHandleReplace(t *testing.T) {
	s := newTestServer(t, map[string]string{"a.go": "getUser(GetUser)\n"})
	path := filepath.Join(s.ws.Root(), "a.go")

	var resp ReplaceResponse
	isErr := callTool(t, s.handleReplace, map[string]any{
		"pattern":       "getUser",
		"replacement":   "fetchAccount",
		"preserve_case": true,
	}, &resp)
	require.False(t, isErr)
	assert.True(t, resp.DryRun, "dry run is the default")
	assert.Equal(t, 2, resp.Replacements)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "a.go", resp.Changes[0].Path)
	assert.Contains(t, resp.Changes[0].Diff, "+fetchAccount(FetchAccount)")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "getUser(GetUser)\n", string(content))

	resp = ReplaceResponse{}
	callTool(t, s.handleReplace, map[string]any{
		"pattern":     `get(\w+)`,
		"type":        "regexp",
		"match_case":  true,
		"replacement": `load\1`,
		"dry_run":     false,
	}, &resp)
	assert.False(t, resp.DryRun)
	require.Len(t, resp.Changes, 1)
	assert.True(t, resp.Changes[0].Applied)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "loadUser(GetUser)\n", string(content))
}

func TestHandleReplace_MissingReplacement(t *testing.T) {
	s := newTestServer(t, nil)
	var resp map[string]any
	require.True(t, callTool(t, s.handleReplace, map[string]any{"pattern": "x"}, &resp))
	assert.Contains(t, resp["error"], "replacement is required")
}

func TestHandleCompilePattern(t *testing.T) {
	s := newTestServer(t, nil)

	var resp CompileResponse
	require.False(t, callTool(t, s.handleCompilePattern, map[string]any{
		"pattern":     "*foo",
		"whole_words": true,
	}, &resp))
	assert.Equal(t, "basic", resp.MatchType)
	assert.True(t, resp.CaseInsensitive)
	assert.False(t, resp.Multiline)
	assert.True(t, resp.NotBeforeWordChar)
	assert.NotEmpty(t, resp.Regexp)

	resp = CompileResponse{}
	callTool(t, s.handleCompilePattern, map[string]any{
		"pattern":    `(a)\n(b)`,
		"type":       "regexp",
		"match_case": true,
	}, &resp)
	assert.True(t, resp.Multiline)
	assert.False(t, resp.CaseInsensitive)
	assert.Equal(t, 2, resp.Groups)
}

func TestHandleAdaptCase(t *testing.T) {
	s := newTestServer(t, nil)

	var resp AdaptCaseResponse
	require.False(t, callTool(t, s.handleAdaptCase, map[string]any{"replacement": "bar", "matched": "FOO"}, &resp))
	assert.Equal(t, "BAR", resp.Result)
	assert.Equal(t, "UPPER", resp.Class)
}

func TestHandler_MissingArguments(t *testing.T) {
	s := newTestServer(t, nil)
	result, err := s.handleAdaptCase(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{}})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRecoverFromPanic(t *testing.T) {
	s := newTestServer(t, nil)
	result, err := s.recoverFromPanic("boom", nil, func() (*mcp.CallToolResult, error) {
		panic("kaboom")
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, "kaboom")
}

func TestServer_InMemoryClient(t *testing.T) {
	s := newTestServer(t, map[string]string{"a.txt": "hello\n"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search", "replace", "compile_pattern", "adapt_case"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search",
		Arguments: map[string]any{"pattern": "hello"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, `"path":"a.txt"`)

	require.NoError(t, session.Close())
	_ = serverSession.Wait()
}

func TestDiagnosticLogger(t *testing.T) {
	dir := t.TempDir()
	logger := NewDiagnosticLogger(true, dir)
	logger.Printf("hello %d", 42)
	logger.Errorf("bad %s", "thing")
	require.NoError(t, logger.Close())

	assert.Equal(t, filepath.Join(dir, "mcp.log"), logger.LogPath())
	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello 42")
	assert.Contains(t, string(data), "ERROR: bad thing")

	var nilLogger *DiagnosticLogger
	nilLogger.Printf("ignored")
	assert.NoError(t, nilLogger.Close())
	assert.Empty(t, NewDiagnosticLogger(false, "").LogPath())
}
