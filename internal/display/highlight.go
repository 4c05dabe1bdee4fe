package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Span is a byte range [Start, End) of a line to emphasize.
type Span struct {
	Start int
	End   int
}

// Highlighter styles search output for terminals. A disabled highlighter
// returns its input unchanged.
type Highlighter struct {
	enabled    bool
	matchStyle lipgloss.Style
	pathStyle  lipgloss.Style
	lineStyle  lipgloss.Style
	dimStyle   lipgloss.Style
	addStyle   lipgloss.Style
	delStyle   lipgloss.Style
}

// NewHighlighter creates a highlighter; enabled selects whether ANSI styling
// is emitted at all.
func NewHighlighter(enabled bool) *Highlighter {
	return &Highlighter{
		enabled: enabled,
		matchStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("11")).
			Bold(true),
		pathStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		lineStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dimStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		addStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		delStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Enabled reports whether styling is emitted.
func (h *Highlighter) Enabled() bool { return h.enabled }

func (h *Highlighter) render(style lipgloss.Style, s string) string {
	if !h.enabled || s == "" {
		return s
	}
	return style.Render(s)
}

// Path styles a file name.
func (h *Highlighter) Path(path string) string {
	return h.render(h.pathStyle, path)
}

// Position styles a line:column prefix.
func (h *Highlighter) Position(line, column int) string {
	return h.render(h.lineStyle, fmt.Sprintf("%d:%d", line, column))
}

// Dim styles secondary text such as context lines and separators.
func (h *Highlighter) Dim(s string) string {
	return h.render(h.dimStyle, s)
}

// DiffLine colors one line of a unified diff by its leading marker.
func (h *Highlighter) DiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+"):
		return h.render(h.addStyle, line)
	case strings.HasPrefix(line, "-"):
		return h.render(h.delStyle, line)
	case strings.HasPrefix(line, "@@"):
		return h.render(h.lineStyle, line)
	}
	return line
}

// Line emphasizes spans of line. Spans must be sorted and non-overlapping;
// out of range spans are clamped.
func (h *Highlighter) Line(line string, spans []Span) string {
	if !h.enabled || len(spans) == 0 {
		return line
	}
	var sb strings.Builder
	last := 0
	for _, sp := range spans {
		start := clamp(sp.Start, last, len(line))
		end := clamp(sp.End, start, len(line))
		sb.WriteString(line[last:start])
		sb.WriteString(h.matchStyle.Render(line[start:end]))
		last = end
	}
	sb.WriteString(line[last:])
	return sb.String()
}
