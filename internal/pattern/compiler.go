package pattern

// Compiler turns SearchPatterns into CompiledPatterns under a fixed word
// character policy, memoizing results.
type Compiler struct {
	wordChars WordChars
	cache     *Cache
}

// NewCompiler creates a compiler with its own cache of cacheSize entries.
func NewCompiler(wc WordChars, cacheSize int) *Compiler {
	return &Compiler{wordChars: wc, cache: NewCache(cacheSize)}
}

var defaultCompiler = NewCompiler(DefaultWordChars, 256)

// Compile compiles p with the default word character policy.
func Compile(p SearchPattern) (*CompiledPattern, error) {
	return defaultCompiler.Compile(p)
}

// WordChars returns the compiler's word character policy.
func (c *Compiler) WordChars() WordChars { return c.wordChars }

// Cache exposes the compiler's cache, mainly for statistics.
func (c *Compiler) Cache() *Cache { return c.cache }

// Compile returns the compiled form of p. An invalid regular expression is
// reported as a *errors.PatternError; nothing is cached for it.
func (c *Compiler) Compile(p SearchPattern) (*CompiledPattern, error) {
	if compiled := c.cache.Get(p, c.wordChars); compiled != nil {
		return compiled, nil
	}
	compiled, err := compileTextPattern(p, p.TextPattern(c.wordChars))
	if err != nil {
		return nil, err
	}
	c.cache.Put(p, c.wordChars, compiled)
	return compiled, nil
}
