package pattern_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/pattern"
)

func matchTexts(t *testing.T, p pattern.SearchPattern, text string) []string {
	t.Helper()
	compiled, err := pattern.Compile(p)
	require.NoError(t, err)
	var out []string
	for _, m := range compiled.FindAll(text, -1) {
		out = append(out, text[m.Start:m.End])
	}
	return out
}

func TestCompile_WildcardWholeWords(t *testing.T) {
	substring := pattern.New("*li*", false, false, pattern.Basic)
	compiled, err := pattern.Compile(substring)
	require.NoError(t, err)
	matches := compiled.FindAll("public", -1)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].Start)
	assert.Equal(t, 4, matches[0].End)

	// whole words never yield the inner "li"; the match widens to the word
	whole := substring.WithWholeWords(true)
	assert.Equal(t, []string{"public"}, matchTexts(t, whole, "public"))
	assert.Equal(t, []string{"li"}, matchTexts(t, whole, "x li y"))

	suffix := pattern.New("*lic", false, true, pattern.Basic)
	assert.Equal(t, []string{"public"}, matchTexts(t, suffix, "public static"))
	assert.Empty(t, matchTexts(t, suffix, "publicity"))
}

func TestCompile_WholeWordGuards(t *testing.T) {
	p := pattern.New("foo", true, true, pattern.Basic)
	compiled, err := pattern.Compile(p)
	require.NoError(t, err)

	matches := compiled.FindAll("foobar foo_x foo", -1)
	require.Len(t, matches, 1)
	assert.Equal(t, 13, matches[0].Start)
	assert.Equal(t, 16, matches[0].End)

	matches = compiled.FindAll("xfoo foo", -1)
	require.Len(t, matches, 1)
	assert.Equal(t, 5, matches[0].Start)

	// boundaries are Unicode aware
	assert.Empty(t, compiled.FindAll("éfoo fooü", -1))
	assert.Len(t, compiled.FindAll("(foo)-foo.", -1), 2)
}

func TestCompile_GuardedAnchorsSeePrecedingText(t *testing.T) {
	tests := []struct {
		name string
		expr string
		text string
		want []string
	}{
		{"line start after rejected candidate", `\.b|^b`, "a.b", nil},
		{"line start after accepted match", `x;|^ y`, "x; y", []string{"x;"}},
		{"line start after newline", `\.b|^b`, "a.\nb", []string{"b"}},
		{"text start only once", `\Ab|\.b`, "a.b b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pattern.New(tt.expr, true, true, pattern.Regexp)
			assert.Equal(t, tt.want, matchTexts(t, p, tt.text))
		})
	}
}

func TestCompile_LiteralRoundTrip(t *testing.T) {
	texts := []string{
		"abc xabc abcabc",
		"aaaa",
		"hello world, hello again",
		"nothing here",
	}
	needles := []string{"abc", "aa", "hello", "a1b2"}

	for _, needle := range needles {
		for _, text := range texts {
			var want []int
			for pos := 0; ; {
				i := strings.Index(text[pos:], needle)
				if i < 0 {
					break
				}
				want = append(want, pos+i)
				pos += i + len(needle)
			}

			compiled, err := pattern.Compile(pattern.New(needle, true, false, pattern.Basic))
			require.NoError(t, err)
			var got []int
			for _, m := range compiled.FindAll(text, -1) {
				assert.Equal(t, needle, text[m.Start:m.End])
				got = append(got, m.Start)
			}
			assert.Equal(t, want, got, "needle %q in %q", needle, text)
		}
	}
}

func TestCompile_MatchCase(t *testing.T) {
	insensitive := pattern.New("Hello", false, false, pattern.Literal)
	assert.Equal(t, []string{"HELLO", "hello"}, matchTexts(t, insensitive, "HELLO hello"))

	sensitive := insensitive.WithMatchCase(true)
	assert.Empty(t, matchTexts(t, sensitive, "HELLO hello"))
	assert.Equal(t, []string{"Hello"}, matchTexts(t, sensitive, "Hello hello"))
}

func TestCompile_LiteralMode(t *testing.T) {
	p := pattern.New("a.b*", true, false, pattern.Literal)
	assert.Equal(t, []string{"a.b*"}, matchTexts(t, p, "axb a.b* a.bb"))

	ww := p.WithExpr("a.b").WithWholeWords(true)
	assert.Equal(t, []string{"a.b"}, matchTexts(t, ww, "xa.b a.b a.bc"))
}

func TestCompile_Regexp(t *testing.T) {
	p := pattern.New(`(\w+)=`, true, true, pattern.Regexp)
	compiled, err := pattern.Compile(p)
	require.NoError(t, err)
	assert.Equal(t, 1, compiled.NumGroups())

	matches := compiled.FindAll("a=b key= x", -1)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, 4, m.Start)
	assert.Equal(t, 8, m.End)
	require.Len(t, m.Groups, 4)
	assert.Equal(t, []int{4, 8, 4, 7}, m.Groups)
}

func TestCompile_InvalidRegexp(t *testing.T) {
	p := pattern.New("foo(", true, false, pattern.Regexp)
	compiled, err := pattern.Compile(p)
	require.Error(t, err)
	assert.Nil(t, compiled)

	var patternErr *errors.PatternError
	require.True(t, stderrors.As(err, &patternErr))
	assert.Equal(t, "foo(", patternErr.Expr)
	assert.Equal(t, "regexp", patternErr.MatchType)

	// wrapping must not turn an unbalanced expression into a valid one
	_, err = pattern.Compile(p.WithExpr("a)(b"))
	assert.Error(t, err)
}

func TestCompile_ZeroLengthMatchesSkipped(t *testing.T) {
	p := pattern.New("x*", true, false, pattern.Regexp)
	assert.Empty(t, matchTexts(t, p, "aaa"))
	assert.Equal(t, []string{"xx"}, matchTexts(t, p, "axxa"))
}

func TestCompile_EmptyPattern(t *testing.T) {
	for _, mt := range []pattern.MatchType{pattern.Literal, pattern.Basic, pattern.Regexp} {
		compiled, err := pattern.Compile(pattern.New("", false, true, mt))
		require.NoError(t, err)
		assert.Nil(t, compiled.Regexp())
		assert.Empty(t, compiled.FindAll("anything", -1))
	}
}

func TestCompile_Limit(t *testing.T) {
	p := pattern.New("a", true, false, pattern.Literal)
	compiled, err := pattern.Compile(p)
	require.NoError(t, err)
	assert.Len(t, compiled.FindAll("aaaa", 2), 2)
	assert.Nil(t, compiled.FindAll("aaaa", 0))

	guarded, err := pattern.Compile(p.WithWholeWords(true))
	require.NoError(t, err)
	assert.Len(t, guarded.FindAll("a a a a", 3), 3)
}

func TestTextPattern_FlagsAndExpr(t *testing.T) {
	wc := pattern.DefaultWordChars

	tp := pattern.New("foo", false, true, pattern.Basic).TextPattern(wc)
	assert.True(t, tp.CaseInsensitive)
	assert.False(t, tp.Multiline)
	assert.False(t, tp.DotAll)
	assert.Equal(t, `(?i)(?:foo)([^\p{L}\p{N}_]|\z)`, tp.Expr())

	ml := pattern.New(`a\nb`, true, false, pattern.Basic).TextPattern(wc)
	assert.True(t, ml.Multiline)
	assert.True(t, ml.DotAll)
	assert.Equal(t, `(?ms)(?:a\nb)`, ml.Expr())

	re := pattern.New(`(?s)a.b`, true, false, pattern.Regexp).TextPattern(wc)
	assert.True(t, re.Multiline)
	assert.False(t, re.DotAll)

	assert.Equal(t, "", pattern.New("", false, false, pattern.Basic).TextPattern(wc).Expr())
}

func TestCompile_MultilineBasic(t *testing.T) {
	p := pattern.New(`foo\nbar`, true, false, pattern.Basic)
	assert.Equal(t, []string{"foo\nbar"}, matchTexts(t, p, "x foo\nbar y"))

	interior := pattern.New(`a*z`, true, false, pattern.Basic)
	compiled, err := pattern.Compile(interior)
	require.NoError(t, err)
	assert.False(t, compiled.Multiline)
}
