package pattern

import (
	"regexp"
	"strconv"
	"strings"
)

// Translation is the regular expression form of a search expression.
//
// Go's regexp package has no lookbehind, so whole word boundaries that
// cannot be expressed structurally are carried as guards and enforced by
// the matcher: NotAfterWordChar rejects a match preceded by a word
// character, NotBeforeWordChar rejects one followed by a word character.
type Translation struct {
	Source            string
	NotAfterWordChar  bool
	NotBeforeWordChar bool
}

// TranslateGlob converts a wildcard expression using the default word
// character policy.
func TranslateGlob(expr string, wholeWords bool) Translation {
	return DefaultWordChars.TranslateGlob(expr, wholeWords)
}

type globToken struct {
	literal  string // quoted regex text, empty for wildcard runs
	stars    bool
	question int
}

func (t globToken) wildcard() bool { return t.literal == "" }

// tokenizeGlob splits expr into alternating literal and wildcard runs.
// Consecutive wildcards are folded into a single token.
func tokenizeGlob(expr string) []globToken {
	var tokens []globToken
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, globToken{literal: lit.String()})
			lit.Reset()
		}
	}
	addWildcard := func(star bool) {
		flushLiteral()
		if n := len(tokens); n > 0 && tokens[n-1].wildcard() {
			if star {
				tokens[n-1].stars = true
			} else {
				tokens[n-1].question++
			}
			return
		}
		tok := globToken{stars: star}
		if !star {
			tok.question = 1
		}
		tokens = append(tokens, tok)
	}

	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			addWildcard(true)
		case '?':
			addWildcard(false)
		case '\\':
			if i+1 == len(runes) {
				// dangling escape stands for itself
				lit.WriteString(`\\`)
				continue
			}
			i++
			if runes[i] == 'n' {
				lit.WriteString(`\n`)
			} else {
				lit.WriteString(regexp.QuoteMeta(string(runes[i])))
			}
		default:
			lit.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	flushLiteral()
	return tokens
}

// TranslateGlob converts a wildcard expression into regular expression
// source. '*' matches any run of characters, '?' exactly one character and
// a backslash escapes the next character. The search is substring based,
// so wildcards at either edge only contribute their minimum length, unless
// wholeWords is set, in which case they consume the rest of the word.
func (w WordChars) TranslateGlob(expr string, wholeWords bool) Translation {
	tokens := tokenizeGlob(expr)
	if len(tokens) == 0 {
		return Translation{}
	}

	class := "[" + w.Class() + "]"

	if len(tokens) == 1 && tokens[0].wildcard() {
		tok := tokens[0]
		if wholeWords {
			return Translation{Source: class + minRepeat(tok.question, true, false)}
		}
		return Translation{Source: exactDots(tok.question)}
	}

	var sb strings.Builder
	last := len(tokens) - 1
	for i, tok := range tokens {
		switch {
		case !tok.wildcard():
			sb.WriteString(tok.literal)
		case i == 0 || i == last:
			if wholeWords {
				sb.WriteString(class)
				sb.WriteString(minRepeat(tok.question, false, false))
			} else {
				sb.WriteString(exactDots(tok.question))
			}
		case !tok.stars:
			sb.WriteString(exactDots(tok.question))
		default:
			sb.WriteString(".")
			sb.WriteString(minRepeat(tok.question, false, true))
		}
	}

	t := Translation{Source: sb.String()}
	if wholeWords {
		t.NotAfterWordChar = !tokens[0].wildcard()
		t.NotBeforeWordChar = !tokens[last].wildcard()
	}
	return t
}

// exactDots matches exactly n arbitrary characters.
func exactDots(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "."
	default:
		return ".{" + strconv.Itoa(n) + "}"
	}
}

// minRepeat is a quantifier for at least n repetitions. nonEmpty raises
// the minimum to one.
func minRepeat(n int, nonEmpty, lazy bool) string {
	if nonEmpty && n == 0 {
		n = 1
	}
	var q string
	switch n {
	case 0:
		q = "*"
	case 1:
		q = "+"
	default:
		q = "{" + strconv.Itoa(n) + ",}"
	}
	if lazy {
		q += "?"
	}
	return q
}
