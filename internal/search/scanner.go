package search

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/pattern"
)

// The context is checked before the first line, then after every
// cancelCheckInterval lines or cancelCheckBytes of line text, whichever
// comes first.
const (
	cancelCheckInterval = 1024
	cancelCheckBytes    = 1 << 20
)

// MatchLocation is one occurrence of a pattern. Start and End are byte
// offsets into the decoded content; Column counts characters.
type MatchLocation struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	LineText string `json:"line_text,omitempty"`
	// LineStart is the byte offset of the line containing Start.
	LineStart int `json:"-"`
}

// ScanStatus tells how a scan ended.
type ScanStatus int

const (
	StatusCompleted ScanStatus = iota
	StatusCanceled
	StatusFailed
)

func (s ScanStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("ScanStatus(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON output.
func (s ScanStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ScanResult is the outcome of scanning one source.
type ScanResult struct {
	Source  string
	Matches []MatchLocation
	Status  ScanStatus
	// Limited is set when MaxMatches stopped the scan early.
	Limited bool
	// Fingerprint is the xxhash of the raw bytes read. It is only
	// meaningful for completed scans.
	Fingerprint uint64
	// WholeContent is set when the pattern required scanning the content
	// as a single unit.
	WholeContent bool
}

// ScanOptions tunes a Scanner.
type ScanOptions struct {
	Encoding    string
	MaxMatches  int // 0 means no limit
	MaxLineSize int
}

// Scanner finds the MatchLocations of a compiled pattern in sources.
// Patterns that may span lines are matched against the whole content,
// others line by line.
type Scanner struct {
	pattern *pattern.CompiledPattern
	opts    ScanOptions
}

// NewScanner creates a scanner for p.
func NewScanner(p *pattern.CompiledPattern, opts ScanOptions) *Scanner {
	return &Scanner{pattern: p, opts: opts}
}

// Scan reads src and returns its matches in order. Cancellation is not an
// error: the result carries StatusCanceled and the matches found so far.
func (s *Scanner) Scan(ctx context.Context, src Source) (ScanResult, error) {
	result := ScanResult{Source: src.Name(), WholeContent: s.pattern.Multiline}
	if err := ctx.Err(); err != nil {
		result.Status = StatusCanceled
		return result, nil
	}

	rc, err := src.Open()
	if err != nil {
		result.Status = StatusFailed
		return result, err
	}
	defer rc.Close()

	digest := xxhash.New()
	raw := io.TeeReader(rc, digest)
	decoded, err := NewDecodingReader(raw, s.opts.Encoding)
	if err != nil {
		result.Status = StatusFailed
		return result, errors.NewFileError("decode", src.Name(), err).WithType(errors.ErrorTypeEncoding)
	}

	if result.WholeContent {
		err = s.scanWhole(ctx, decoded, &result)
	} else {
		err = s.scanLines(ctx, decoded, &result)
	}
	if err != nil {
		result.Status = StatusFailed
		return result, errors.NewFileError("read", src.Name(), err)
	}

	if result.Status == StatusCompleted {
		// finish hashing input a match limit left unread
		if _, err := io.Copy(io.Discard, raw); err != nil {
			result.Status = StatusFailed
			return result, errors.NewFileError("read", src.Name(), err)
		}
		result.Fingerprint = digest.Sum64()
	}
	debug.LogSearch("%s: %d matches (%s)\n", src.Name(), len(result.Matches), result.Status)
	return result, nil
}

// ScanText scans in-memory text.
func (s *Scanner) ScanText(ctx context.Context, name, text string) ScanResult {
	result, _ := s.Scan(ctx, StringSource{Label: name, Content: text})
	return result
}

func (s *Scanner) full(result *ScanResult) bool {
	return s.opts.MaxMatches > 0 && len(result.Matches) >= s.opts.MaxMatches
}

func (s *Scanner) scanLines(ctx context.Context, r io.Reader, result *ScanResult) error {
	lines := NewLineReader(r, s.opts.MaxLineSize)
	linesLeft, bytesSeen := 0, 0
	for lines.Next() {
		line := lines.Line()
		if linesLeft == 0 || bytesSeen >= cancelCheckBytes {
			if ctx.Err() != nil {
				result.Status = StatusCanceled
				return nil
			}
			linesLeft, bytesSeen = cancelCheckInterval, 0
		}
		linesLeft--
		bytesSeen += len(line.Text)

		s.pattern.Each(line.Text, func(m pattern.Match) bool {
			result.Matches = append(result.Matches, MatchLocation{
				Line:      line.Number,
				Column:    utf8.RuneCountInString(line.Text[:m.Start]) + 1,
				Text:      line.Text[m.Start:m.End],
				Start:     line.Offset + m.Start,
				End:       line.Offset + m.End,
				LineText:  line.Text,
				LineStart: line.Offset,
			})
			return !s.full(result)
		})
		if s.full(result) {
			result.Limited = true
			return nil
		}
	}
	if err := lines.Err(); err != nil {
		if stderrors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("line %d longer than %d bytes: %w", lines.Line().Number+1, maxLineSize(s.opts), err)
		}
		return err
	}
	return nil
}

func maxLineSize(opts ScanOptions) int {
	if opts.MaxLineSize > 0 {
		return opts.MaxLineSize
	}
	return DefaultMaxLineSize
}

func (s *Scanner) scanWhole(ctx context.Context, r io.Reader, result *ScanResult) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		result.Status = StatusCanceled
		return nil
	}

	text := string(data)
	idx := NewLineIndex(text)
	s.pattern.Each(text, func(m pattern.Match) bool {
		if len(result.Matches)%cancelCheckInterval == 0 && ctx.Err() != nil {
			result.Status = StatusCanceled
			return false
		}
		line, column := idx.Position(m.Start)
		l := idx.Line(line)
		result.Matches = append(result.Matches, MatchLocation{
			Line:      line,
			Column:    column,
			Text:      text[m.Start:m.End],
			Start:     m.Start,
			End:       m.End,
			LineText:  l.Text,
			LineStart: l.Offset,
		})
		if s.full(result) {
			result.Limited = true
			return false
		}
		return true
	})
	return nil
}
