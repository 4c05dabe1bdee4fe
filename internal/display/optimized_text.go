package display

import (
	"strings"
	"unicode/utf8"
)

// Placeholder stands in for every character outside the kept windows.
const Placeholder = '?'

// Ellipsis replaces a run of placeholders in Compact output.
const Ellipsis = "…"

// OptimizedText is a length preserving view of a line that only reveals the
// head of the line and the match. Offsets are byte offsets into the
// original line; windows are widened to whole UTF-8 sequences.
type OptimizedText struct {
	line       string
	headEnd    int
	matchStart int
	matchEnd   int
}

// OptimizeText creates a view of line keeping [0, contextChars) and
// [matchStart, matchEnd). Out of range arguments are clamped.
func OptimizeText(line string, contextChars, matchStart, matchEnd int) OptimizedText {
	n := len(line)
	headEnd := snapForward(line, clamp(contextChars, 0, n))
	matchStart = snapBackward(line, clamp(matchStart, 0, n))
	matchEnd = snapForward(line, clamp(matchEnd, matchStart, n))
	return OptimizedText{
		line:       line,
		headEnd:    headEnd,
		matchStart: matchStart,
		matchEnd:   matchEnd,
	}
}

// Len is the length of the original line.
func (o OptimizedText) Len() int { return len(o.line) }

func (o OptimizedText) kept(i int) bool {
	return i < o.headEnd || (i >= o.matchStart && i < o.matchEnd)
}

// At returns the byte at i, or Placeholder when i is hidden or out of range.
func (o OptimizedText) At(i int) byte {
	if i < 0 || i >= len(o.line) || !o.kept(i) {
		return Placeholder
	}
	return o.line[i]
}

// SubSequence returns bytes [start, end) of the view. Hidden bytes read as
// Placeholder; bounds are clamped.
func (o OptimizedText) SubSequence(start, end int) string {
	start = clamp(start, 0, len(o.line))
	end = clamp(end, start, len(o.line))

	var sb strings.Builder
	sb.Grow(end - start)
	for i := start; i < end; {
		if !o.kept(i) {
			sb.WriteByte(Placeholder)
			i++
			continue
		}
		j := i + 1
		for j < end && o.kept(j) {
			j++
		}
		sb.WriteString(o.line[i:j])
		i = j
	}
	return sb.String()
}

// String renders the whole view.
func (o OptimizedText) String() string {
	return o.SubSequence(0, len(o.line))
}

// Compact renders the kept windows with every placeholder run collapsed to
// a single Ellipsis, so its size depends only on the windows.
func (o OptimizedText) Compact() string {
	s, _ := o.CompactSpan()
	return s
}

// CompactSpan is Compact plus the byte range the match occupies in the
// compact rendering, for highlighting.
func (o OptimizedText) CompactSpan() (string, Span) {
	var sb strings.Builder
	n := len(o.line)
	sb.WriteString(o.line[:o.headEnd])

	span := Span{Start: clamp(o.matchStart, 0, o.headEnd), End: clamp(o.matchEnd, 0, o.headEnd)}
	from := o.headEnd
	if o.matchEnd > o.matchStart && o.matchEnd > o.headEnd {
		ms := o.matchStart
		if ms < o.headEnd {
			ms = o.headEnd
		} else {
			span.Start = sb.Len()
		}
		if ms > from {
			sb.WriteString(Ellipsis)
			span.Start = sb.Len()
		}
		sb.WriteString(o.line[ms:o.matchEnd])
		span.End = sb.Len()
		from = o.matchEnd
	}
	if from < n {
		sb.WriteString(Ellipsis)
	}
	return sb.String(), span
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func snapForward(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

func snapBackward(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
