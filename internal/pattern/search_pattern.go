package pattern

import (
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
)

// SearchPattern is the user facing description of what to search for.
// It is an immutable value; the With methods return modified copies.
type SearchPattern struct {
	expr       string
	matchCase  bool
	wholeWords bool
	matchType  MatchType
}

// New creates a search pattern.
func New(expr string, matchCase, wholeWords bool, matchType MatchType) SearchPattern {
	return SearchPattern{
		expr:       expr,
		matchCase:  matchCase,
		wholeWords: wholeWords,
		matchType:  matchType,
	}
}

func (p SearchPattern) Expr() string         { return p.expr }
func (p SearchPattern) MatchCase() bool      { return p.matchCase }
func (p SearchPattern) WholeWords() bool     { return p.wholeWords }
func (p SearchPattern) MatchType() MatchType { return p.matchType }

func (p SearchPattern) WithExpr(expr string) SearchPattern {
	p.expr = expr
	return p
}

func (p SearchPattern) WithMatchCase(matchCase bool) SearchPattern {
	p.matchCase = matchCase
	return p
}

func (p SearchPattern) WithWholeWords(wholeWords bool) SearchPattern {
	p.wholeWords = wholeWords
	return p
}

func (p SearchPattern) WithMatchType(matchType MatchType) SearchPattern {
	p.matchType = matchType
	return p
}

func (p SearchPattern) String() string {
	return fmt.Sprintf("%s %q (matchCase=%t, wholeWords=%t)", p.matchType, p.expr, p.matchCase, p.wholeWords)
}

// IsEmpty reports whether the pattern can never match.
func (p SearchPattern) IsEmpty() bool {
	return p.expr == ""
}

// cacheKey hashes everything that influences the compiled form.
func (p SearchPattern) cacheKey(wc WordChars) uint64 {
	var flags [4]byte
	flags[0] = byte(p.matchType)
	if p.matchCase {
		flags[1] = 1
	}
	if p.wholeWords {
		flags[2] = 1
	}
	if wc.IncludeMarks {
		flags[3] = 1
	}
	d := xxhash.New()
	_, _ = d.Write(flags[:])
	_, _ = d.WriteString(p.expr)
	return d.Sum64()
}

// TextPattern derives the regular expression form of p. The result is
// deterministic: equal patterns always produce byte-identical sources.
func (p SearchPattern) TextPattern(wc WordChars) TextPattern {
	var t Translation
	switch p.matchType {
	case Basic:
		t = wc.TranslateGlob(p.expr, p.wholeWords)
	case Regexp:
		t = Translation{Source: p.expr}
		if p.wholeWords && p.expr != "" {
			t.NotAfterWordChar = true
			t.NotBeforeWordChar = true
		}
	default:
		t = Translation{Source: regexp.QuoteMeta(p.expr)}
		if p.wholeWords && p.expr != "" {
			t.NotAfterWordChar = true
			t.NotBeforeWordChar = true
		}
	}

	multiline := IsMultilineOrMatchesMultiline(t.Source)
	return TextPattern{
		Translation: t,
		Flags: Flags{
			CaseInsensitive: !p.matchCase,
			DotAll:          p.matchType == Basic && multiline,
			Multiline:       multiline,
		},
		WordChars: wc,
		MatchType: p.matchType,
	}
}
