package eq

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/syssam/eq/dialect"
	"github.com/syssam/eq/meta"
	"github.com/syssam/eq/naming"
	"github.com/syssam/eq/schema"
)

// Config holds the naming strategy, the metadata cache and the statement
// caches shared by every builder created from it. It is safe for concurrent
// use; the zero value is not usable, create one with NewConfig.
type Config struct {
	log    *slog.Logger
	naming *naming.Strategy
	meta   *meta.Cache
	cache  atomic.Bool

	statements sync.Map // cacheKey => string
	fragments  sync.Map // cacheKey => string
	stats      struct {
		hits, misses, fragHits, fragMisses atomic.Int64
	}
}

// options collects the settings applied by Option before the config is
// assembled.
type options struct {
	dialect     string
	log         *slog.Logger
	underscores bool
	plural      bool
	cache       bool
	table       naming.TableResolver
	column      naming.ColumnResolver
}

// Option configures a Config.
type Option func(*options)

// WithDialect sets the SQL dialect statements are rendered for.
// Default is MySQL.
func WithDialect(name string) Option {
	return func(o *options) {
		o.dialect = name
	}
}

// WithLogger sets the logger used to report cache population.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithUnderscores enables converting declared type and field names to
// snake_case when no explicit marker names the table or column.
func WithUnderscores(v bool) Option {
	return func(o *options) {
		o.underscores = v
	}
}

// WithPluralTables enables pluralizing derived table names.
func WithPluralTables(v bool) Option {
	return func(o *options) {
		o.plural = v
	}
}

// WithCache enables or disables the statement and fragment caches.
// Caching is enabled by default.
func WithCache(v bool) Option {
	return func(o *options) {
		o.cache = v
	}
}

// WithTableNameResolver sets a custom table resolver.
func WithTableNameResolver(r naming.TableResolver) Option {
	return func(o *options) {
		o.table = r
	}
}

// WithColumnNameResolver sets a custom column resolver.
func WithColumnNameResolver(r naming.ColumnResolver) Option {
	return func(o *options) {
		o.column = r
	}
}

// NewConfig returns a new Config.
//
//	cfg := eq.NewConfig(
//		eq.WithDialect(dialect.Postgres),
//		eq.WithUnderscores(true),
//	)
//	query, err := eq.Of[User](cfg, "select").Select().Build()
func NewConfig(opts ...Option) (*Config, error) {
	o := &options{dialect: dialect.MySQL, log: slog.Default(), cache: true}
	for _, opt := range opts {
		opt(o)
	}
	d := dialect.Normalize(o.dialect)
	if !dialect.Supported(d) {
		return nil, fmt.Errorf("eq: unsupported dialect %q", o.dialect)
	}
	s := naming.New(d)
	s.Conventions().SetUnderscores(o.underscores)
	s.Conventions().SetPluralTables(o.plural)
	s.SetTableNameResolver(o.table)
	s.SetColumnNameResolver(o.column)
	c := &Config{
		log:    o.log,
		naming: s,
		meta:   meta.New(s, meta.WithLogger(o.log)),
	}
	c.cache.Store(o.cache)
	return c, nil
}

// MustConfig is like NewConfig but panics if the options are invalid.
func MustConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Dialect returns the dialect statements are rendered for.
func (c *Config) Dialect() string { return c.naming.Dialect() }

// Naming returns the naming strategy of the config.
func (c *Config) Naming() *naming.Strategy { return c.naming }

// Meta returns the metadata cache of the config.
func (c *Config) Meta() *meta.Cache { return c.meta }

// Logger returns the logger of the config.
func (c *Config) Logger() *slog.Logger { return c.log }

// SetTableNameResolver replaces the table resolver. A nil resolver restores
// the default one. Table names already cached keep their old value.
func (c *Config) SetTableNameResolver(r naming.TableResolver) {
	c.naming.SetTableNameResolver(r)
}

// SetColumnNameResolver replaces the column resolver. A nil resolver
// restores the default one. Column names already cached keep their old value.
func (c *Config) SetColumnNameResolver(r naming.ColumnResolver) {
	c.naming.SetColumnNameResolver(r)
}

// SetMatchNamesWithUnderscores toggles the snake_case naming convention.
func (c *Config) SetMatchNamesWithUnderscores(v bool) {
	c.naming.Conventions().SetUnderscores(v)
}

// SetCacheEnabled toggles the statement and fragment caches. When disabled,
// every build renders its fragments from the classified field sets.
func (c *Config) SetCacheEnabled(v bool) {
	c.cache.Store(v)
}

// CacheEnabled reports if the statement and fragment caches are enabled.
func (c *Config) CacheEnabled() bool { return c.cache.Load() }

// Type returns the descriptor of the Go struct type rt. Load failures are
// reported as schema errors.
func (c *Config) Type(rt reflect.Type) (*schema.Type, error) {
	t, err := c.meta.Type(rt)
	if err != nil {
		return nil, NewSchemaError(rt.String(), "Load", err.Error())
	}
	return t, nil
}

var (
	defaultOnce sync.Once
	defaultCfg  *Config
)

// Default returns the process-wide config used by For and the package level
// setters. It renders MySQL statements with caching enabled.
func Default() *Config {
	defaultOnce.Do(func() {
		defaultCfg = MustConfig()
	})
	return defaultCfg
}

// SetTableNameResolver replaces the table resolver of the default config.
func SetTableNameResolver(r naming.TableResolver) { Default().SetTableNameResolver(r) }

// SetColumnNameResolver replaces the column resolver of the default config.
func SetColumnNameResolver(r naming.ColumnResolver) { Default().SetColumnNameResolver(r) }

// SetMatchNamesWithUnderscores toggles the snake_case convention of the
// default config.
func SetMatchNamesWithUnderscores(v bool) { Default().SetMatchNamesWithUnderscores(v) }

// SetCacheEnabled toggles caching of the default config.
func SetCacheEnabled(v bool) { Default().SetCacheEnabled(v) }

// FileConfig is the on-disk form of a Config.
type FileConfig struct {
	Dialect                   string `toml:"dialect" yaml:"dialect"`
	MatchNamesWithUnderscores bool   `toml:"match_names_with_underscores" yaml:"match_names_with_underscores"`
	PluralizeTables           bool   `toml:"pluralize_tables" yaml:"pluralize_tables"`
	CacheEnabled              *bool  `toml:"cache_enabled" yaml:"cache_enabled"`
}

// Options returns the options described by the file config.
func (f *FileConfig) Options() []Option {
	opts := []Option{
		WithUnderscores(f.MatchNamesWithUnderscores),
		WithPluralTables(f.PluralizeTables),
	}
	if f.Dialect != "" {
		opts = append(opts, WithDialect(f.Dialect))
	}
	if f.CacheEnabled != nil {
		opts = append(opts, WithCache(*f.CacheEnabled))
	}
	return opts
}

// LoadConfig reads a TOML or YAML config file, chosen by extension, and
// returns the config it describes. Extra options are applied after the
// file's settings.
func LoadConfig(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eq: read config: %w", err)
	}
	var f FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("eq: decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("eq: decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("eq: unsupported config format %q", ext)
	}
	return NewConfig(append(f.Options(), opts...)...)
}
