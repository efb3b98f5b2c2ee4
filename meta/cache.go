// Package meta memoizes record type metadata: loaded type descriptors, table
// names, column names and classified field sets.
//
// Every entry is computed at most once per Cache, even when many goroutines
// ask for the same key at the same time, and lives as long as the Cache.
// There is no eviction; the number of entries is bounded by the number of
// record types the process uses.
package meta

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/eq/compiler/load"
	"github.com/syssam/eq/naming"
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// Cache is a compute-once, read-many store of record type metadata.
// It is safe for concurrent use.
type Cache struct {
	naming  *naming.Strategy
	log     *slog.Logger
	group   singleflight.Group
	types   sync.Map // reflect.Type => *typeEntry
	fields  sync.Map // *schema.Type => *Fields
	tables  sync.Map // *schema.Type => string
	columns sync.Map // columnKey => string
	stats   struct {
		hits, misses, classified atomic.Int64
	}
}

type typeEntry struct {
	t   *schema.Type
	err error
}

type columnKey struct {
	t    *schema.Type
	name string
}

// Option configures the Cache.
type Option func(*Cache)

// WithLogger sets the logger used to report cache population.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.log = l
	}
}

// New returns a cache resolving names with the given strategy.
func New(s *naming.Strategy, opts ...Option) *Cache {
	c := &Cache{naming: s, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Naming returns the naming strategy of the cache.
func (c *Cache) Naming() *naming.Strategy {
	return c.naming
}

// Type returns the descriptor of the Go struct type rt, loading it once.
// Pointer types share the entry of their element type.
func (c *Cache) Type(rt reflect.Type) (*schema.Type, error) {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	e := compute(c, &c.types, rt, func() string { return fmt.Sprintf("type/%p", rt) }, func() *typeEntry {
		t, err := load.Struct(rt)
		if err != nil {
			c.log.Debug("meta: load record type failed", "type", rt.String(), "error", err)
		}
		return &typeEntry{t: t, err: err}
	})
	return e.t, e.err
}

// TypeOf returns the descriptor of T from the given cache.
func TypeOf[T any](c *Cache) (*schema.Type, error) {
	return c.Type(reflect.TypeOf((*T)(nil)).Elem())
}

// Fields returns the classified field sets of t, classifying it once.
func (c *Cache) Fields(t *schema.Type) *Fields {
	return compute(c, &c.fields, t, func() string { return fmt.Sprintf("fields/%p", t) }, func() *Fields {
		c.stats.classified.Add(1)
		fs := Classify(t)
		c.log.Debug("meta: classified record type", "type", t.String(),
			"select", len(fs.Select), "insert", len(fs.Insert), "update", len(fs.Update), "id", len(fs.ID))
		return fs
	})
}

// TableName returns the quoted table identifier of t, resolving it once.
func (c *Cache) TableName(t *schema.Type) string {
	return compute(c, &c.tables, t, func() string { return fmt.Sprintf("table/%p", t) }, func() string {
		return c.naming.TableName(t)
	})
}

// ColumnName returns the quoted column identifier of f, resolving it once
// per (type, field name).
func (c *Cache) ColumnName(t *schema.Type, f *field.Descriptor) string {
	key := columnKey{t: t, name: f.Name}
	return compute(c, &c.columns, key, func() string { return fmt.Sprintf("column/%p/%s", t, f.Name) }, func() string {
		return c.naming.ColumnName(t, f)
	})
}

// Stats is a point-in-time snapshot of cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Classified int64
}

// Stats returns a snapshot of the current statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.stats.hits.Load(),
		Misses:     c.stats.misses.Load(),
		Classified: c.stats.classified.Load(),
	}
}

// compute returns the value stored under key in m, computing and storing it
// first if absent. Concurrent callers with the same key share one computation,
// keyed by the result of flight, which is only called on a miss.
func compute[V any](c *Cache, m *sync.Map, key any, flight func() string, fn func() V) V {
	if v, ok := m.Load(key); ok {
		c.stats.hits.Add(1)
		return v.(V)
	}
	v, _, _ := c.group.Do(flight(), func() (any, error) {
		if v, ok := m.Load(key); ok {
			return v, nil
		}
		c.stats.misses.Add(1)
		v, _ := m.LoadOrStore(key, fn())
		return v, nil
	})
	return v.(V)
}
