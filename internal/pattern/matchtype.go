package pattern

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
)

// MatchType selects how a search expression is interpreted.
type MatchType int

const (
	// Literal matches the expression text verbatim.
	Literal MatchType = iota
	// Basic treats '*' and '?' as wildcards and everything else literally.
	Basic
	// Regexp passes the expression to the regular expression engine unchanged.
	Regexp
)

var matchTypeNames = []string{"literal", "basic", "regexp"}

func (m MatchType) String() string {
	if m < Literal || m > Regexp {
		return fmt.Sprintf("MatchType(%d)", int(m))
	}
	return matchTypeNames[m]
}

// MatchTypeNames lists the accepted spellings for ParseMatchType.
func MatchTypeNames() []string {
	return append([]string(nil), matchTypeNames...)
}

// ParseMatchType resolves a user supplied match type name.
// "glob", "wildcard" and "regex" are accepted as aliases.
func ParseMatchType(s string) (MatchType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "", "basic", "glob", "wildcard":
		return Basic, nil
	case "literal", "text", "fixed":
		return Literal, nil
	case "regexp", "regex", "re":
		return Regexp, nil
	}

	if suggestion, ok := SuggestMatchType(normalized); ok {
		return Basic, fmt.Errorf("unknown match type %q (did you mean %q?)", s, suggestion)
	}
	return Basic, fmt.Errorf("unknown match type %q (expected one of %s)", s, strings.Join(matchTypeNames, ", "))
}

// SuggestMatchType returns the closest known match type name when the
// Levenshtein distance to it is small enough to be a plausible typo.
func SuggestMatchType(input string) (string, bool) {
	bestMatch := ""
	bestDistance := 1000

	for _, name := range matchTypeNames {
		distance := edlib.LevenshteinDistance(input, name)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = name
		}
	}

	if bestDistance > 0 && bestDistance <= 2 {
		return bestMatch, true
	}
	return "", false
}
