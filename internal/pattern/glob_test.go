package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/lsr/internal/pattern"
)

const w = `[\p{L}\p{N}_]`

func TestTranslateGlob(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		wholeWords bool
		want       pattern.Translation
	}{
		{"empty", "", false, pattern.Translation{}},
		{"empty whole words", "", true, pattern.Translation{}},
		{"plain literal", "abc", false, pattern.Translation{Source: "abc"}},
		{"metacharacters quoted", "a.b(c)", false, pattern.Translation{Source: `a\.b\(c\)`}},
		{"edge stars dropped", "*li*", false, pattern.Translation{Source: "li"}},
		{"edge questions kept", "?abc??", false, pattern.Translation{Source: ".abc.{2}"}},
		{"interior star", "a*b", false, pattern.Translation{Source: "a.*?b"}},
		{"interior star and question", "a*?b", false, pattern.Translation{Source: "a.+?b"}},
		{"interior folded run", "a?*?b", false, pattern.Translation{Source: "a.{2,}?b"}},
		{"interior questions only", "a??b", false, pattern.Translation{Source: "a.{2}b"}},
		{"escaped wildcards", `a\*b\?`, false, pattern.Translation{Source: `a\*b\?`}},
		{"dangling backslash", `abc\`, false, pattern.Translation{Source: `abc\\`}},
		{"escaped newline", `a\nb`, false, pattern.Translation{Source: `a\nb`}},
		{"only stars", "***", false, pattern.Translation{}},
		{"only questions", "??", false, pattern.Translation{Source: ".{2}"}},

		{"whole word literal", "foo", true, pattern.Translation{Source: "foo", NotAfterWordChar: true, NotBeforeWordChar: true}},
		{"whole word leading star", "*lic", true, pattern.Translation{Source: w + "*lic", NotBeforeWordChar: true}},
		{"whole word trailing star", "pub*", true, pattern.Translation{Source: "pub" + w + "*", NotAfterWordChar: true}},
		{"whole word both edges", "*li*", true, pattern.Translation{Source: w + "*li" + w + "*"}},
		{"whole word leading question", "?abc", true, pattern.Translation{Source: w + "+abc", NotBeforeWordChar: true}},
		{"whole word leading questions", "??abc", true, pattern.Translation{Source: w + "{2,}abc", NotBeforeWordChar: true}},
		{"whole word interior", "a*b", true, pattern.Translation{Source: "a.*?b", NotAfterWordChar: true, NotBeforeWordChar: true}},
		{"whole word only star", "*", true, pattern.Translation{Source: w + "+"}},
		{"whole word only questions", "??", true, pattern.Translation{Source: w + "{2,}"}},
		{"whole word mixed wildcards", "*?*", true, pattern.Translation{Source: w + "+"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pattern.TranslateGlob(tt.expr, tt.wholeWords))
		})
	}
}

func TestTranslateGlob_Deterministic(t *testing.T) {
	exprs := []string{"", "a*b?c", `x\*y`, "*foo*", "??", `tail\`}
	for _, expr := range exprs {
		for _, ww := range []bool{false, true} {
			first := pattern.TranslateGlob(expr, ww)
			second := pattern.TranslateGlob(expr, ww)
			assert.Equal(t, first, second, "expr %q wholeWords=%t", expr, ww)
		}
	}
}

func TestTranslateGlob_CombiningMarks(t *testing.T) {
	wc := pattern.WordChars{IncludeMarks: true}
	got := wc.TranslateGlob("*", true)
	assert.Equal(t, `[\p{L}\p{M}\p{N}_]+`, got.Source)

	assert.True(t, wc.Is('\u0301'))
	assert.False(t, pattern.DefaultWordChars.Is('\u0301'))
	assert.True(t, pattern.DefaultWordChars.Is('\u00e9'))
	assert.True(t, pattern.DefaultWordChars.Is('7'))
	assert.True(t, pattern.DefaultWordChars.Is('_'))
	assert.False(t, pattern.DefaultWordChars.Is('-'))
}
