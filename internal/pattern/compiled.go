package pattern

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/errors"
)

// Flags are the regular expression modes of a TextPattern.
type Flags struct {
	CaseInsensitive bool
	// DotAll lets '.' match line terminators.
	DotAll bool
	// Multiline is set when the pattern may match across lines; such
	// patterns must be run against whole contents instead of single lines.
	Multiline bool
}

// TextPattern is the engine independent compiled description of a
// SearchPattern.
type TextPattern struct {
	Translation
	Flags
	WordChars WordChars
	MatchType MatchType
}

// HasGuards reports whether matches need explicit boundary checks.
func (t TextPattern) HasGuards() bool {
	return t.NotAfterWordChar || t.NotBeforeWordChar
}

// Expr renders the full Go regular expression. User groups keep their
// numbers; when an end guard is present it is appended as the last group.
func (t TextPattern) Expr() string {
	if t.Source == "" {
		return ""
	}
	var sb strings.Builder
	var flags []byte
	if t.CaseInsensitive {
		flags = append(flags, 'i')
	}
	// ^ and $ are line anchors, the same as when scanning line by line
	if t.Multiline || t.MatchType == Regexp {
		flags = append(flags, 'm')
	}
	if t.DotAll {
		flags = append(flags, 's')
	}
	if len(flags) > 0 {
		sb.WriteString("(?")
		sb.Write(flags)
		sb.WriteString(")")
	}
	sb.WriteString("(?:")
	sb.WriteString(t.Source)
	sb.WriteString(")")
	if t.NotBeforeWordChar {
		sb.WriteString(`([^`)
		sb.WriteString(t.WordChars.Class())
		sb.WriteString(`]|\z)`)
	}
	return sb.String()
}

// Match is one occurrence found by a CompiledPattern. Offsets are byte
// offsets into the searched text.
type Match struct {
	Start int
	End   int
	// Groups holds start/end pairs for the whole match and each capture
	// group, in the layout of regexp.FindSubmatchIndex.
	Groups []int
}

// CompiledPattern is a TextPattern bound to a compiled regular expression.
// It is safe for concurrent use.
type CompiledPattern struct {
	TextPattern
	pattern SearchPattern
	re      *regexp.Regexp
	// resume is re behind one consumed character. Guarded iteration runs it
	// from the character before the resume offset, so anchors and \b see
	// the real preceding text.
	resume *regexp.Regexp
	groups int
}

// Pattern returns the search pattern this was compiled from.
func (c *CompiledPattern) Pattern() SearchPattern { return c.pattern }

// Regexp returns the underlying expression, nil for an empty pattern.
func (c *CompiledPattern) Regexp() *regexp.Regexp { return c.re }

// NumGroups is the number of capture groups in the user's expression.
func (c *CompiledPattern) NumGroups() int { return c.groups }

// compileTextPattern builds the regexp for t. Failures are reported as a
// PatternError keyed to the user's expression.
func compileTextPattern(p SearchPattern, t TextPattern) (*CompiledPattern, error) {
	c := &CompiledPattern{TextPattern: t, pattern: p}
	expr := t.Expr()
	if expr == "" {
		return c, nil
	}

	// validate the user's part on its own so errors don't mention our wrapping
	if _, err := regexp.Compile(t.Source); err != nil {
		return nil, errors.NewPatternError(p.Expr(), p.MatchType().String(), err)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.NewPatternError(p.Expr(), p.MatchType().String(), err)
	}
	c.re = re
	if t.HasGuards() {
		if c.resume, err = regexp.Compile(`(?s:.)` + expr); err != nil {
			return nil, errors.NewPatternError(p.Expr(), p.MatchType().String(), err)
		}
	}
	c.groups = re.NumSubexp()
	if t.NotBeforeWordChar {
		c.groups--
	}
	debug.LogPattern("compiled %s as %s\n", p, expr)
	return c, nil
}

// FindAll returns up to limit non-overlapping matches in text, in order.
// A negative limit means no limit. Zero-length matches are skipped.
func (c *CompiledPattern) FindAll(text string, limit int) []Match {
	if limit == 0 {
		return nil
	}
	var matches []Match
	c.Each(text, func(m Match) bool {
		matches = append(matches, m)
		return limit < 0 || len(matches) < limit
	})
	return matches
}

// Each calls yield for every non-overlapping match in text until yield
// returns false.
func (c *CompiledPattern) Each(text string, yield func(Match) bool) {
	if c.re == nil {
		return
	}
	if !c.HasGuards() {
		c.eachUnguarded(text, yield)
		return
	}
	c.eachGuarded(text, yield)
}

func (c *CompiledPattern) eachUnguarded(text string, yield func(Match) bool) {
	for _, loc := range c.re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if !yield(Match{Start: loc[0], End: loc[1], Groups: loc}) {
			return
		}
	}
}

// eachGuarded enforces the boundary guards by hand. A candidate preceded
// by a word character is dropped and the search resumes one character
// later; the end guard is the trailing group whose start is the real end.
func (c *CompiledPattern) eachGuarded(text string, yield func(Match) bool) {
	userPairs := 2 * (c.groups + 1)

	pos := 0
	for pos <= len(text) {
		loc, base := c.findFrom(text, pos)
		if loc == nil {
			return
		}
		start := base + loc[0]
		end := base + loc[1]
		if c.NotBeforeWordChar {
			end = base + loc[userPairs]
		}

		if start == end || (c.NotAfterWordChar && c.precededByWordChar(text, start)) {
			if start >= len(text) {
				return
			}
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}

		groups := make([]int, userPairs)
		for i := 0; i < userPairs; i++ {
			if loc[i] >= 0 {
				groups[i] = base + loc[i]
			} else {
				groups[i] = -1
			}
		}
		groups[0], groups[1] = start, end
		if !yield(Match{Start: start, End: end, Groups: groups}) {
			return
		}
		pos = end
	}
}

// findFrom returns the leftmost match starting at or after pos, judged
// against the whole of text. Offsets in loc are relative to base. Past the
// start, the resume expression runs from the preceding character; its
// first, consumed character is dropped from the whole-match span.
func (c *CompiledPattern) findFrom(text string, pos int) (loc []int, base int) {
	if pos == 0 {
		return c.re.FindStringSubmatchIndex(text), 0
	}
	_, size := utf8.DecodeLastRuneInString(text[:pos])
	base = pos - size
	loc = c.resume.FindStringSubmatchIndex(text[base:])
	if loc == nil {
		return nil, base
	}
	_, skip := utf8.DecodeRuneInString(text[base+loc[0]:])
	loc[0] += skip
	return loc, base
}

func (c *CompiledPattern) precededByWordChar(text string, at int) bool {
	if at == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:at])
	return c.WordChars.Is(r)
}

// MatchString reports whether text contains at least one match.
func (c *CompiledPattern) MatchString(text string) bool {
	return len(c.FindAll(text, 1)) > 0
}
