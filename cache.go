// FILE: lixenwraith/bridge/cache.go
package bridge

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the per-kind entry bound of a Cache.
const DefaultCacheSize = 256

// regexKey identifies a compiled pattern.
type regexKey struct {
	pattern string
	options regexp2.RegexOptions
	timeout time.Duration
}

// Cache memoizes compiled regexes and date patterns.
// It is safe for concurrent use. A nil *Cache is valid and never hits.
type Cache struct {
	regexes *lru.Cache[regexKey, *regexp2.Regexp]
	dates   *lru.Cache[string, *datePattern]
}

// NewCache creates a cache holding up to size entries of each kind.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	regexes, err := lru.New[regexKey, *regexp2.Regexp](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create regex cache: %w", err)
	}
	dates, err := lru.New[string, *datePattern](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create date pattern cache: %w", err)
	}
	return &Cache{regexes: regexes, dates: dates}, nil
}

// Len returns the number of cached regexes and date patterns.
func (c *Cache) Len() (regexes, dates int) {
	if c == nil {
		return 0, 0
	}
	return c.regexes.Len(), c.dates.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.regexes.Purge()
	c.dates.Purge()
}

// regex returns the compiled pattern, compiling and storing it on a miss.
func (c *Cache) regex(pattern string, opts regexp2.RegexOptions, timeout time.Duration) (*regexp2.Regexp, error) {
	key := regexKey{pattern: pattern, options: opts, timeout: timeout}
	if c != nil {
		if re, ok := c.regexes.Get(key); ok {
			return re, nil
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPatternInvalid, err)
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	if c != nil {
		c.regexes.Add(key, re)
	}
	return re, nil
}

// datePattern returns the compiled date pattern, compiling it on a miss.
func (c *Cache) datePattern(pattern string) (*datePattern, error) {
	if c != nil {
		if dp, ok := c.dates.Get(pattern); ok {
			return dp, nil
		}
	}
	dp, err := compileDatePattern(pattern)
	if err != nil {
		return nil, err
	}
	if c != nil {
		c.dates.Add(pattern, dp)
	}
	return dp, nil
}
