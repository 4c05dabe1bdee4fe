package mcp

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/pattern"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools.
// Tool failures are reported in the result with IsError set, so the client
// model can see them and correct its call.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	return createSmartErrorResponse(operation, err, nil)
}

// createSmartErrorResponse is createErrorResponse with suggestions derived
// from the error and the call's parameters.
func createSmartErrorResponse(operation string, err error, details map[string]interface{}) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}
	if suggestions := generateErrorSuggestions(err, details); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}
	if len(details) > 0 {
		errorData["context"] = details
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

func generateErrorSuggestions(err error, details map[string]interface{}) []string {
	var suggestions []string

	var patternErr *errors.PatternError
	var conflict *errors.ReplaceConflictError
	var fileErr *errors.FileError
	switch {
	case stderrors.As(err, &patternErr):
		if patternErr.Expr == "" {
			suggestions = append(suggestions, "Provide a non-empty pattern")
			break
		}
		if patternErr.MatchType == pattern.Regexp.String() {
			suggestions = append(suggestions, "The pattern is not valid RE2 syntax; escape special characters or use type \"literal\"")
			if strings.Contains(patternErr.Expr, "(?<") || strings.Contains(patternErr.Expr, "(?=") || strings.Contains(patternErr.Expr, "(?!") {
				suggestions = append(suggestions, "Lookaround assertions are not supported; use whole_words for word boundaries")
			}
		}
	case stderrors.As(err, &conflict):
		suggestions = append(suggestions, "The file changed after it was searched; run the replacement again")
	case stderrors.As(err, &fileErr):
		suggestions = append(suggestions, "Paths are resolved against the project root; check that the path exists")
	}

	if expr, ok := details["pattern"].(string); ok {
		if mt, _ := details["type"].(string); mt != "regexp" && strings.ContainsAny(expr, "|()[]+^$") {
			suggestions = append(suggestions, fmt.Sprintf("Pattern contains regex syntax; set \"type\": \"regexp\" to use it, e.g. {\"pattern\": %q, \"type\": \"regexp\"}", expr))
		}
	}
	return suggestions
}
