package pattern

import (
	"regexp"
	"regexp/syntax"
	"strconv"
	"strings"
)

// UsesBackreferenceSyntax reports whether text contains a backslash
// followed by a digit, as in \1 or \0. An escaped backslash (\\) is
// consumed as a pair, so \\1 does not count.
func UsesBackreferenceSyntax(text string) bool {
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '\\' {
			continue
		}
		if isASCIIDigit(text[i+1]) {
			return true
		}
		i++
	}
	return false
}

// Constructs outside of escapes that can match a line terminator.
var multilineConstructs = []*regexp.Regexp{
	// Inline flags enabling dot-all or multi-line mode: (?s) (?im) (?s:...)
	regexp.MustCompile(`\(\?[a-zA-Z]*[sm][a-zA-Z]*(?:-[a-zA-Z]*)?[:)]`),
	// POSIX classes containing \n or \r
	regexp.MustCompile(`\[:(?:space|cntrl|vspace):\]`),
}

// IsMultilineOrMatchesMultiline reports whether a regular expression source
// may match across a line terminator. It over-approximates: a true result
// only costs a whole-content scan, a false one would lose matches.
//
// Besides the textual checks below, every character class and literal of
// the parsed expression is inspected, so negated classes such as [^x], \W,
// \D or \PL, which all contain '\n', count as multiline. A bare '.' does
// not: it never matches '\n' without the s flag.
func IsMultilineOrMatchesMultiline(src string) bool {
	if strings.ContainsAny(src, "\n\r\v\f\u0085\u2028\u2029") {
		return true
	}
	for _, re := range multilineConstructs {
		if re.MatchString(src) {
			return true
		}
	}

	for i := 0; i < len(src)-1; i++ {
		if src[i] != '\\' {
			continue
		}
		next := src[i+1]
		switch next {
		case 'n', 'r', 'f', 'v', 's', 'R':
			return true
		case 'x':
			if v, ok := parseHexEscape(src[i+2:]); ok && isLineTerminator(v) {
				return true
			}
		case 'u':
			if len(src) >= i+6 {
				if v, err := strconv.ParseUint(src[i+2:i+6], 16, 32); err == nil && isLineTerminator(rune(v)) {
					return true
				}
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			if v, ok := parseOctalEscape(src[i+1:]); ok && isLineTerminator(v) {
				return true
			}
		}
		i++
	}
	return parsedMatchesTerminator(src)
}

// parsedMatchesTerminator parses src with Go's Perl syntax and reports
// whether any literal or class in it can match a line terminator. A source
// that does not parse is reported as multiline; Compile rejects it anyway.
func parsedMatchesTerminator(src string) bool {
	re, err := syntax.Parse(src, syntax.Perl)
	if err != nil {
		return true
	}
	return nodeMatchesTerminator(re)
}

func nodeMatchesTerminator(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpAnyChar:
		return true
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			if isLineTerminator(r) {
				return true
			}
		}
	case syntax.OpCharClass:
		// Rune holds inclusive lo, hi pairs
		for i := 0; i+1 < len(re.Rune); i += 2 {
			if classRangeHasTerminator(re.Rune[i], re.Rune[i+1]) {
				return true
			}
		}
	}
	for _, sub := range re.Sub {
		if nodeMatchesTerminator(sub) {
			return true
		}
	}
	return false
}

func classRangeHasTerminator(lo, hi rune) bool {
	for _, t := range []rune{'\n', '\r', '\v', '\f', 0x85, 0x2028, 0x2029} {
		if lo <= t && t <= hi {
			return true
		}
	}
	return false
}

// parseHexEscape reads the value of \xHH or \x{H...} after the "\x".
func parseHexEscape(s string) (rune, bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, false
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		return rune(v), err == nil
	}
	if len(s) < 2 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:2], 16, 8)
	return rune(v), err == nil
}

// parseOctalEscape reads up to three octal digits.
func parseOctalEscape(s string) (rune, bool) {
	n := 0
	for n < len(s) && n < 3 && s[n] >= '0' && s[n] <= '7' {
		n++
	}
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:n], 8, 32)
	return rune(v), err == nil
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
