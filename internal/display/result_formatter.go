package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/standardbeagle/lsr/internal/search"
	"github.com/standardbeagle/lsr/pkg/pathutil"
)

// FormatterOptions controls result formatting
type FormatterOptions struct {
	Format       string // "text", "json", "compact"
	Root         string // paths are shown relative to Root when set
	ContextChars int    // line head kept when a long line is abbreviated
	MaxLineWidth int    // lines longer than this many bytes are abbreviated; 0 never
	Indent       string // indentation for match lines in text output
}

// ResultFormatter renders search and replace results. Text output is a
// tree of files and their matching lines; compact output is one
// path:line:column:text record per line; json output is one object per file.
type ResultFormatter struct {
	options FormatterOptions
	hl      *Highlighter
}

// NewResultFormatter creates a formatter; a nil highlighter disables color.
func NewResultFormatter(options FormatterOptions, hl *Highlighter) *ResultFormatter {
	if options.Format == "" {
		options.Format = "text"
	}
	if hl == nil {
		hl = NewHighlighter(false)
	}
	return &ResultFormatter{options: options, hl: hl}
}

// ColorEnabled resolves a color mode ("auto", "always", "never") for f.
// Auto enables color on terminals unless NO_COLOR is set.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

type fileRecord struct {
	Path    string                 `json:"path"`
	Status  search.ScanStatus      `json:"status"`
	Limited bool                   `json:"limited,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Matches []search.MatchLocation `json:"matches"`
}

// WriteFile renders the matches of one file. Files without matches or
// errors produce no output.
func (rf *ResultFormatter) WriteFile(w io.Writer, fr search.FileResult) error {
	if len(fr.Matches) == 0 && fr.Err == nil {
		return nil
	}
	switch rf.options.Format {
	case "json":
		rec := fileRecord{
			Path:    rf.displayPath(fr.Path),
			Status:  fr.Status,
			Limited: fr.Limited,
			Matches: make([]search.MatchLocation, len(fr.Matches)),
		}
		if fr.Err != nil {
			rec.Error = fr.Err.Error()
		}
		for i, m := range fr.Matches {
			m.LineText = MatchLine(m, rf.options.ContextChars, rf.options.MaxLineWidth)
			rec.Matches[i] = m
		}
		return json.NewEncoder(w).Encode(rec)
	case "compact":
		return rf.writeCompact(w, fr)
	default:
		return rf.writeTree(w, fr)
	}
}

func (rf *ResultFormatter) writeTree(w io.Writer, fr search.FileResult) error {
	var sb strings.Builder
	sb.WriteString(rf.hl.Path(rf.displayPath(fr.Path)))
	if fr.Err != nil {
		sb.WriteString(rf.hl.Dim(": " + fr.Err.Error()))
	}
	sb.WriteString("\n")

	groups := groupByLine(fr.Matches)
	for i, group := range groups {
		branch := "├─ "
		if i == len(groups)-1 && !fr.Limited {
			branch = "└─ "
		}
		m := group[0]
		sb.WriteString(rf.options.Indent)
		sb.WriteString(rf.hl.Dim(branch))
		sb.WriteString(rf.hl.Position(m.Line, m.Column))
		sb.WriteString("  ")
		sb.WriteString(rf.renderLine(group))
		sb.WriteString("\n")
	}
	if fr.Limited {
		sb.WriteString(rf.options.Indent)
		sb.WriteString(rf.hl.Dim("└─ … more matches not shown"))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (rf *ResultFormatter) writeCompact(w io.Writer, fr search.FileResult) error {
	path := rf.displayPath(fr.Path)
	if fr.Err != nil {
		if _, err := fmt.Fprintf(w, "%s: %v\n", rf.hl.Path(path), fr.Err); err != nil {
			return err
		}
	}
	for _, group := range groupByLine(fr.Matches) {
		m := group[0]
		if _, err := fmt.Fprintf(w, "%s:%s:%s\n", rf.hl.Path(path), rf.hl.Position(m.Line, m.Column), rf.renderLine(group)); err != nil {
			return err
		}
	}
	return nil
}

// renderLine highlights every match of a line. A line over MaxLineWidth is
// abbreviated to its head and the first match.
func (rf *ResultFormatter) renderLine(group []search.MatchLocation) string {
	line := strings.TrimRight(group[0].LineText, "\r\n")
	spans := make([]Span, 0, len(group))
	for _, m := range group {
		start := m.Start - m.LineStart
		end := min(m.End-m.LineStart, len(line))
		if start < 0 || start > len(line) {
			continue
		}
		spans = append(spans, Span{Start: start, End: max(start, end)})
	}

	if rf.options.MaxLineWidth > 0 && len(line) > rf.options.MaxLineWidth && len(spans) > 0 {
		view := OptimizeText(line, rf.options.ContextChars, spans[0].Start, spans[0].End)
		text, span := view.CompactSpan()
		return rf.hl.Line(text, []Span{span})
	}
	return rf.hl.Line(line, spans)
}

// DefaultMaxLineWidth is the line length above which a match is shown
// through an OptimizedText view.
const DefaultMaxLineWidth = 200

// MatchLine returns the line holding m without its terminator. A line over
// maxWidth bytes is cut down to its head and the match, so records that
// repeat the line per match stay small; maxWidth 0 never abbreviates.
func MatchLine(m search.MatchLocation, contextChars, maxWidth int) string {
	line := strings.TrimRight(m.LineText, "\r\n")
	if maxWidth <= 0 || len(line) <= maxWidth {
		return line
	}
	return OptimizeText(line, contextChars, m.Start-m.LineStart, m.End-m.LineStart).Compact()
}

// groupByLine splits matches, which arrive in document order, into runs
// sharing a start line.
func groupByLine(matches []search.MatchLocation) [][]search.MatchLocation {
	var groups [][]search.MatchLocation
	for i := 0; i < len(matches); {
		j := i + 1
		for j < len(matches) && matches[j].Line == matches[i].Line {
			j++
		}
		groups = append(groups, matches[i:j])
		i = j
	}
	return groups
}

// WriteFileName prints the path of a file with matches, for
// --files-with-matches.
func (rf *ResultFormatter) WriteFileName(w io.Writer, fr search.FileResult) error {
	if len(fr.Matches) == 0 {
		return nil
	}
	if rf.options.Format == "json" {
		return json.NewEncoder(w).Encode(map[string]string{"path": rf.displayPath(fr.Path)})
	}
	_, err := fmt.Fprintln(w, rf.hl.Path(rf.displayPath(fr.Path)))
	return err
}

// WriteCounts prints a per-file match count table.
func (rf *ResultFormatter) WriteCounts(w io.Writer, results []search.FileResult, summary search.Summary) error {
	var matched []search.FileResult
	for _, fr := range results {
		if len(fr.Matches) > 0 {
			matched = append(matched, fr)
		}
	}

	if rf.options.Format == "json" {
		counts := make(map[string]int, len(matched))
		for _, fr := range matched {
			counts[rf.displayPath(fr.Path)] = len(fr.Matches)
		}
		return json.NewEncoder(w).Encode(map[string]any{"counts": counts, "total": summary.Matches})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Matches"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, fr := range matched {
		table.Append([]string{rf.displayPath(fr.Path), fmt.Sprintf("%d", len(fr.Matches))})
	}
	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(matched)),
		fmt.Sprintf("%d", summary.Matches),
	})
	table.Render()
	return nil
}

// WriteSummary prints the closing line of a search.
func (rf *ResultFormatter) WriteSummary(w io.Writer, s search.Summary) error {
	if rf.options.Format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{"summary": s})
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %s in %d of %d %s (%s)",
		s.Matches, plural(s.Matches, "match", "matches"),
		s.FilesMatched, s.Files, plural(s.Files, "file", "files"),
		s.Elapsed.Round(time.Millisecond))
	if s.Limited {
		sb.WriteString(", limited")
	}
	if s.Canceled {
		sb.WriteString(", canceled")
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(&sb, ", %d %s", len(s.Errors), plural(len(s.Errors), "error", "errors"))
	}
	_, err := fmt.Fprintln(w, rf.hl.Dim(sb.String()))
	return err
}

// WriteChanges prints replacement results with their diffs.
func (rf *ResultFormatter) WriteChanges(w io.Writer, changes []search.FileChange, dryRun bool) error {
	if rf.options.Format == "json" {
		out := make([]search.FileChange, len(changes))
		for i, c := range changes {
			c.Path = rf.displayPath(c.Path)
			out[i] = c
		}
		return json.NewEncoder(w).Encode(map[string]any{"changes": out, "dry_run": dryRun})
	}

	total := 0
	var sb strings.Builder
	for _, c := range changes {
		total += c.Replacements
		fmt.Fprintf(&sb, "%s %s\n", rf.hl.Path(rf.displayPath(c.Path)),
			rf.hl.Dim(fmt.Sprintf("(%d %s)", c.Replacements, plural(c.Replacements, "replacement", "replacements"))))
		for _, line := range strings.SplitAfter(c.Diff, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(rf.hl.DiffLine(strings.TrimSuffix(line, "\n")))
			sb.WriteString("\n")
		}
	}
	verb := "replaced"
	if dryRun {
		verb = "would replace"
	}
	fmt.Fprintf(&sb, "%s\n", rf.hl.Dim(fmt.Sprintf("%s %d %s in %d %s", verb, total,
		plural(total, "occurrence", "occurrences"), len(changes), plural(len(changes), "file", "files"))))
	_, err := io.WriteString(w, sb.String())
	return err
}

func (rf *ResultFormatter) displayPath(path string) string {
	if rf.options.Root == "" {
		return path
	}
	return pathutil.ToRelative(path, rf.options.Root)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
