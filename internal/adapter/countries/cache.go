package countries

import (
	"sync"

	"github.com/cafedata/coffee-footprint-etl/internal/domain"
)

// CachedNormalizer memoizes an inner normalizer for the lifetime of one
// run. Keys are the exact input strings — no case or whitespace folding
// before lookup — so repeated calls return the identical cached result.
// The cache is an explicit per-run object, not a package global, to keep
// runs independent and tests hermetic.
type CachedNormalizer struct {
	inner domain.CountryNormalizer

	mu     sync.Mutex
	byName map[string]domain.NormalizationResult
	byCode map[string]codeEntry
}

type codeEntry struct {
	result domain.NormalizationResult
	ok     bool
}

// NewCachedNormalizer creates a memoizing decorator around a normalizer.
func NewCachedNormalizer(inner domain.CountryNormalizer) *CachedNormalizer {
	return &CachedNormalizer{
		inner:  inner,
		byName: make(map[string]domain.NormalizationResult),
		byCode: make(map[string]codeEntry),
	}
}

func (c *CachedNormalizer) Normalize(name string) domain.NormalizationResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.byName[name]; ok {
		return r
	}
	r := c.inner.Normalize(name)
	c.byName[name] = r
	return r
}

func (c *CachedNormalizer) ResolveAlpha3(code string) (domain.NormalizationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byCode[code]; ok {
		return e.result, e.ok
	}
	r, ok := c.inner.ResolveAlpha3(code)
	c.byCode[code] = codeEntry{result: r, ok: ok}
	return r, ok
}
