package eq

import (
	"sync"

	"github.com/syssam/eq/schema"
)

// CacheKey identifies a cached statement or fragment.
type CacheKey struct {
	Type *schema.Type
	// Key is the caller-supplied statement key, or the operation kind for
	// fragments.
	Key string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Type.String() + "__" + k.Key
}

// CacheStats is a point-in-time snapshot of statement cache statistics.
type CacheStats struct {
	Hits           int64 // Builds answered from a cached statement.
	Misses         int64 // Keyed builds that had to compose.
	FragmentHits   int64
	FragmentMisses int64
}

// CacheStats returns a snapshot of the statement and fragment cache
// statistics.
func (c *Config) CacheStats() CacheStats {
	return CacheStats{
		Hits:           c.stats.hits.Load(),
		Misses:         c.stats.misses.Load(),
		FragmentHits:   c.stats.fragHits.Load(),
		FragmentMisses: c.stats.fragMisses.Load(),
	}
}

// lookup returns the statement cached under (t, key), if caching is enabled.
func (c *Config) lookup(t *schema.Type, key string) (string, bool) {
	if key == "" || !c.CacheEnabled() {
		return "", false
	}
	v, ok := c.statements.Load(CacheKey{Type: t, Key: key})
	if !ok {
		c.stats.misses.Add(1)
		return "", false
	}
	c.stats.hits.Add(1)
	return v.(string), true
}

// store saves the statement under (t, key) unless one is already there, and
// returns the stored statement.
func (c *Config) store(t *schema.Type, key, query string) string {
	if key == "" || !c.CacheEnabled() {
		return query
	}
	v, loaded := c.statements.LoadOrStore(CacheKey{Type: t, Key: key}, query)
	if !loaded {
		c.log.Debug("eq: cached statement", "key", CacheKey{Type: t, Key: key}.String())
	}
	return v.(string)
}

// fragment returns the text rendered for (t, op). With caching enabled the
// text is rendered once and reused; render errors are never cached.
func (c *Config) fragment(t *schema.Type, op string, render func() (string, error)) (string, error) {
	if !c.CacheEnabled() {
		return render()
	}
	return loadOrRender(&c.fragments, CacheKey{Type: t, Key: op}, func() (string, error) {
		c.stats.fragMisses.Add(1)
		return render()
	}, func() { c.stats.fragHits.Add(1) })
}

func loadOrRender(m *sync.Map, key CacheKey, render func() (string, error), hit func()) (string, error) {
	if v, ok := m.Load(key); ok {
		hit()
		return v.(string), nil
	}
	s, err := render()
	if err != nil {
		return "", err
	}
	v, _ := m.LoadOrStore(key, s)
	return v.(string), nil
}
