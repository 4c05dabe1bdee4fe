package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsr/internal/pattern"
)

func TestSearchPattern_Immutable(t *testing.T) {
	base := pattern.New("foo", false, false, pattern.Basic)

	changed := base.WithExpr("bar").WithMatchCase(true).WithWholeWords(true).WithMatchType(pattern.Regexp)

	assert.Equal(t, "foo", base.Expr())
	assert.False(t, base.MatchCase())
	assert.False(t, base.WholeWords())
	assert.Equal(t, pattern.Basic, base.MatchType())

	assert.Equal(t, "bar", changed.Expr())
	assert.True(t, changed.MatchCase())
	assert.True(t, changed.WholeWords())
	assert.Equal(t, pattern.Regexp, changed.MatchType())

	assert.True(t, pattern.New("", true, true, pattern.Literal).IsEmpty())
}

func TestMatchType(t *testing.T) {
	tests := []struct {
		in   string
		want pattern.MatchType
	}{
		{"", pattern.Basic},
		{"basic", pattern.Basic},
		{"glob", pattern.Basic},
		{"Literal", pattern.Literal},
		{"regex", pattern.Regexp},
		{" REGEXP ", pattern.Regexp},
	}
	for _, tt := range tests {
		got, err := pattern.ParseMatchType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := pattern.ParseMatchType("litral")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "literal"`)

	_, err = pattern.ParseMatchType("zzzzzzzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one of literal, basic, regexp")

	assert.Equal(t, "regexp", pattern.Regexp.String())
	assert.Equal(t, "MatchType(9)", pattern.MatchType(9).String())
}

func TestCompiler_Memoizes(t *testing.T) {
	c := pattern.NewCompiler(pattern.DefaultWordChars, 8)
	p := pattern.New("a*b", false, true, pattern.Basic)

	first, err := c.Compile(p)
	require.NoError(t, err)
	second, err := c.Compile(p)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := c.Compile(p.WithMatchCase(true))
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	stats := c.Cache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 1.0/3.0, stats.HitRatio(), 0.0001)

	_, err = c.Compile(pattern.New("(", true, false, pattern.Regexp))
	assert.Error(t, err)
	assert.Equal(t, 2, c.Cache().Len())
}

func TestCache_Eviction(t *testing.T) {
	cache := pattern.NewCache(2)
	wc := pattern.DefaultWordChars
	a := pattern.New("a", true, false, pattern.Literal)
	b := pattern.New("b", true, false, pattern.Literal)
	c := pattern.New("c", true, false, pattern.Literal)

	compiledA, _ := pattern.Compile(a)
	compiledB, _ := pattern.Compile(b)
	compiledC, _ := pattern.Compile(c)

	cache.Put(a, wc, compiledA)
	cache.Put(b, wc, compiledB)
	// touch a so b becomes least recently used
	assert.Same(t, compiledA, cache.Get(a, wc))
	cache.Put(c, wc, compiledC)

	assert.Equal(t, 2, cache.Len())
	assert.Nil(t, cache.Get(b, wc))
	assert.Same(t, compiledC, cache.Get(c, wc))
	assert.Equal(t, int64(1), cache.Stats().Evictions)

	// word character policy is part of the key
	assert.Nil(t, cache.Get(a, pattern.WordChars{IncludeMarks: true}))

	assert.Equal(t, 2, cache.CleanupExpired(-1))
	assert.Equal(t, 0, cache.Len())

	cache.Put(a, wc, compiledA)
	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, pattern.CacheStats{}, cache.Stats())
}
