package mcp

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lsr/internal/version"
	"github.com/standardbeagle/lsr/internal/workspace"
)

// Server exposes search, replace, pattern compilation and case adaptation
// as MCP tools over a workspace.
type Server struct {
	ws               *workspace.Workspace
	server           *mcp.Server
	diagnosticLogger *DiagnosticLogger
}

// NewServer creates a server for ws. A nil logger discards diagnostics.
func NewServer(ws *workspace.Workspace, logger *DiagnosticLogger) *Server {
	if logger == nil {
		logger = NewDiscardLogger()
	}
	s := &Server{
		ws: ws,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "lsr-mcp-server",
			Version: version.Version,
		}, nil),
		diagnosticLogger: logger,
	}
	s.registerTools()
	logger.Printf("MCP server ready for %s", ws.Root())
	return s
}

var stringList = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}

func patternProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"pattern": {
			Type:        "string",
			Description: "Search expression",
		},
		"type": {
			Type:        "string",
			Description: "How the pattern is read: literal, basic (* and ? wildcards) or regexp (RE2). Defaults to the project setting",
			Enum:        []any{"literal", "basic", "regexp"},
		},
		"match_case": {
			Type:        "boolean",
			Description: "Case sensitive matching",
		},
		"whole_words": {
			Type:        "boolean",
			Description: "Only match whole words",
		},
	}
}

func (s *Server) registerTools() {
	searchProps := patternProperties()
	searchProps["paths"] = &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "string"},
		Description: "Files or directories to search, relative to the project root. Defaults to the whole project",
	}
	searchProps["max_matches"] = &jsonschema.Schema{
		Type:        "integer",
		Description: "Stop after this many matches in total",
	}
	searchProps["output"] = &jsonschema.Schema{
		Type:        "string",
		Description: "matches (default), files or count",
		Enum:        []any{"matches", "files", "count"},
	}
	s.server.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Search project files for a literal, wildcard or regular expression pattern. Returns line and column for every match.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: searchProps,
			Required:   []string{"pattern"},
		},
	}, s.handleSearch)

	replaceProps := patternProperties()
	replaceProps["replacement"] = &jsonschema.Schema{
		Type:        "string",
		Description: "Replacement text. In regexp mode $1, ${name} and \\1 refer to capture groups",
	}
	replaceProps["preserve_case"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Re-case the replacement to follow each matched text (foo->bar, Foo->Bar, FOO->BAR)",
	}
	replaceProps["dry_run"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Only return diffs, write nothing. Defaults to true",
	}
	replaceProps["paths"] = stringList
	s.server.AddTool(&mcp.Tool{
		Name:        "replace",
		Description: "Replace every match of a pattern in project files. Returns a diff per changed file; files are only written when dry_run is false.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: replaceProps,
			Required:   []string{"pattern", "replacement"},
		},
	}, s.handleReplace)

	s.server.AddTool(&mcp.Tool{
		Name:        "compile_pattern",
		Description: "Show the regular expression a pattern compiles to, with its flags, word boundary guards and whether it can match across lines.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: patternProperties(),
			Required:   []string{"pattern"},
		},
	}, s.handleCompilePattern)

	s.server.AddTool(&mcp.Tool{
		Name:        "adapt_case",
		Description: "Re-case a replacement string to follow the casing of matched text.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"replacement": {Type: "string", Description: "Text to re-case"},
				"matched":     {Type: "string", Description: "Text whose casing is followed"},
			},
			Required: []string{"replacement", "matched"},
		},
	}, s.handleAdaptCase)
}

// recoverFromPanic runs handler, turning a panic or an error into an error
// result instead of a protocol failure.
func (s *Server) recoverFromPanic(operation string, details map[string]interface{}, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.diagnosticLogger.Printf("PANIC RECOVERED in %s: %v", operation, r)
			s.diagnosticLogger.Printf("Stack trace: %s", debug.Stack())

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			s.diagnosticLogger.Printf("Memory stats - Alloc: %d KB, Sys: %d KB, NumGC: %d",
				m.Alloc/1024, m.Sys/1024, m.NumGC)

			result, err = createErrorResponse(operation, panicError{value: r})
		}
	}()

	started := time.Now()
	result, err = handler()
	if err != nil {
		s.diagnosticLogger.Errorf("%s failed: %v", operation, err)
		return createSmartErrorResponse(operation, err, details)
	}
	s.diagnosticLogger.Printf("%s completed in %s", operation, time.Since(started))
	return result, nil
}

// Run serves MCP over transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// Start serves MCP over stdio.
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to a single transport, for in-process
// clients.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// Shutdown flushes and closes the diagnostic log.
func (s *Server) Shutdown() error {
	s.diagnosticLogger.Printf("MCP server shutdown complete")
	return s.diagnosticLogger.Close()
}
