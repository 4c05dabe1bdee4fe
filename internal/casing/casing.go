// Package casing re-cases replacement text so it mirrors the capitalization
// of the text it replaces.
package casing

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Class is the casing of a word or word segment.
type Class int

const (
	// None means no letters, or a casing that is kept as authored.
	None Class = iota
	Lower
	Upper
	Capitalized
	// Mixed is a multi segment word such as camelCase or HTTPServer.
	Mixed
)

func (c Class) String() string {
	switch c {
	case Lower:
		return "lower"
	case Upper:
		return "UPPER"
	case Capitalized:
		return "Capitalized"
	case Mixed:
		return "mixedCase"
	default:
		return "none"
	}
}

// Segment is a word-like run of a string, delimited by case transitions,
// letter/digit transitions and separator characters.
type Segment struct {
	Start int // byte offset
	End   int
	Text  string
}

// Template is the casing classification of a matched string.
type Template struct {
	Class Class
	// Segments holds the class of each letter-bearing segment, in order.
	Segments []Class
}

type runeKind int

const (
	kindSeparator runeKind = iota
	kindUpper
	kindLower
	kindCaseless
	kindDigit
)

func kindOf(r rune) runeKind {
	switch {
	case unicode.IsUpper(r) || unicode.IsTitle(r):
		return kindUpper
	case unicode.IsLower(r):
		return kindLower
	case unicode.IsLetter(r) || unicode.Is(unicode.M, r):
		return kindCaseless
	case unicode.IsDigit(r):
		return kindDigit
	default:
		return kindSeparator
	}
}

func isLetterKind(k runeKind) bool {
	return k == kindUpper || k == kindLower || k == kindCaseless
}

// Split breaks s into segments. A boundary falls between a lower-case (or
// caseless) letter and an upper-case one, between letters and digits,
// before the last capital of an acronym followed by a lower-case letter,
// and around separators, which belong to no segment.
func Split(s string) []Segment {
	type pos struct {
		off  int
		r    rune
		kind runeKind
	}
	runes := make([]pos, 0, len(s))
	for off, r := range s {
		runes = append(runes, pos{off, r, kindOf(r)})
	}

	var segments []Segment
	start := -1
	closeAt := func(end int) {
		if start >= 0 {
			segments = append(segments, Segment{Start: start, End: end, Text: s[start:end]})
			start = -1
		}
	}

	for i, p := range runes {
		if p.kind == kindSeparator {
			closeAt(p.off)
			continue
		}
		if start < 0 {
			start = p.off
			continue
		}
		prev := runes[i-1].kind
		boundary := false
		switch {
		case p.kind == kindUpper && (prev == kindLower || prev == kindCaseless):
			boundary = true
		case (p.kind == kindDigit) != (prev == kindDigit):
			boundary = true
		case p.kind == kindUpper && prev == kindUpper && i+1 < len(runes) && runes[i+1].kind == kindLower:
			boundary = true
		}
		if boundary {
			closeAt(p.off)
			start = p.off
		}
	}
	closeAt(len(s))
	return segments
}

// classifySegment looks at the letters of one segment.
func classifySegment(s string) Class {
	upper, lower, letters := 0, 0, 0
	firstUpper := false
	for _, r := range s {
		switch kindOf(r) {
		case kindUpper:
			if letters == 0 {
				firstUpper = true
			}
			upper++
			letters++
		case kindLower:
			lower++
			letters++
		case kindCaseless:
			letters++
		}
	}
	switch {
	case letters == 0 || upper+lower == 0:
		return None
	case lower == 0 && upper >= 2:
		return Upper
	case upper == 0:
		return Lower
	case firstUpper && upper == 1:
		return Capitalized
	default:
		return None
	}
}

// NewTemplate classifies matched. Strings whose letters are all upper case
// are Upper, even a single letter, and all lower case are Lower; anything
// else is classified segment by segment. Inside mixed text a one-letter
// upper-case segment such as the X of getX counts as Capitalized.
func NewTemplate(matched string) Template {
	var segs []Class
	for _, seg := range Split(matched) {
		if c := classifySegment(seg.Text); c != None || hasLetter(seg.Text) {
			segs = append(segs, c)
		}
	}
	if len(segs) == 0 {
		return Template{Class: None}
	}

	upper, lower, letters := 0, 0, 0
	for _, r := range matched {
		switch kindOf(r) {
		case kindUpper:
			upper++
			letters++
		case kindLower:
			lower++
			letters++
		case kindCaseless:
			letters++
		}
	}

	t := Template{Segments: segs}
	switch {
	case upper+lower == 0:
		t.Class = None
	case lower == 0:
		t.Class = Upper
	case upper == 0:
		t.Class = Lower
	case len(segs) == 1:
		t.Class = segs[0]
	default:
		t.Class = Mixed
	}
	return t
}

// Classify returns the overall casing class of s.
func Classify(s string) Class {
	return NewTemplate(s).Class
}

// AdaptCase re-cases replacement to follow the casing of matched. Segments
// are aligned by position among letter-bearing segments, not by character
// index; replacement segments beyond the template's count take the class of
// the template's last segment. When matched carries no usable casing the
// replacement is returned unchanged.
func AdaptCase(replacement, matched string) string {
	if replacement == "" {
		return replacement
	}
	return NewTemplate(matched).Apply(replacement)
}

// Apply imposes the template on s.
func (t Template) Apply(s string) string {
	switch t.Class {
	case None:
		if len(t.Segments) == 0 {
			return s
		}
	case Upper:
		return cases.Upper(language.Und).String(s)
	case Lower:
		return cases.Lower(language.Und).String(s)
	}

	var sb strings.Builder
	last := 0
	k := 0
	for _, seg := range Split(s) {
		sb.WriteString(s[last:seg.Start])
		last = seg.End
		if !hasLetter(seg.Text) {
			sb.WriteString(seg.Text)
			continue
		}
		class := t.Segments[len(t.Segments)-1]
		if k < len(t.Segments) {
			class = t.Segments[k]
		}
		k++
		sb.WriteString(applyClass(class, seg.Text))
	}
	sb.WriteString(s[last:])
	return sb.String()
}

func applyClass(c Class, s string) string {
	switch c {
	case Upper:
		return cases.Upper(language.Und).String(s)
	case Lower:
		return cases.Lower(language.Und).String(s)
	case Capitalized:
		return cases.Title(language.Und).String(s)
	default:
		return s
	}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if isLetterKind(kindOf(r)) {
			return true
		}
	}
	return false
}
