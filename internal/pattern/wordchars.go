package pattern

import "unicode"

// WordChars defines which characters are word constituents for whole word
// matching. Letters, digits and underscore always are; combining marks are
// opt-in.
type WordChars struct {
	IncludeMarks bool
}

// DefaultWordChars is the policy used by the package level helpers.
var DefaultWordChars = WordChars{}

// Class returns the body of a regular expression character class matching
// one word character, without the surrounding brackets.
func (w WordChars) Class() string {
	if w.IncludeMarks {
		return `\p{L}\p{M}\p{N}_`
	}
	return `\p{L}\p{N}_`
}

// Is reports whether r is a word character under this policy.
func (w WordChars) Is(r rune) bool {
	if r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.N, r) {
		return true
	}
	return w.IncludeMarks && unicode.Is(unicode.M, r)
}
