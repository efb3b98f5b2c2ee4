// Package naming maps record types to table identifiers and fields to column
// identifiers.
//
// A Strategy holds one table resolver and one column resolver. Resolvers
// return unquoted names; the strategy quotes them with the delimiter pair of
// its dialect, so a custom resolver never has to know the target database.
//
//	s := naming.New(dialect.MySQL)
//	s.Conventions().SetUnderscores(true)
//	s.TableName(userType)  // `user`
//	s.ColumnName(userType, nameField) // `name`
//
// Resolvers are swappable at any time with SetTableNameResolver and
// SetColumnNameResolver. Names already memoized by a cache in front of the
// strategy are not invalidated by a swap.
package naming

import (
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/go-openapi/inflect"

	"github.com/syssam/eq/dialect"
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// TableResolver resolves the unquoted table name of a record type. A name may
// be qualified with a schema using a dot ("Log.CarLog").
type TableResolver interface {
	ResolveTableName(t *schema.Type) string
}

// ColumnResolver resolves the unquoted column name of a field.
type ColumnResolver interface {
	ResolveColumnName(t *schema.Type, f *field.Descriptor) string
}

// The TableResolverFunc type is an adapter to allow the use of ordinary
// functions as TableResolver.
type TableResolverFunc func(*schema.Type) string

// ResolveTableName calls f(t).
func (f TableResolverFunc) ResolveTableName(t *schema.Type) string { return f(t) }

// The ColumnResolverFunc type is an adapter to allow the use of ordinary
// functions as ColumnResolver.
type ColumnResolverFunc func(*schema.Type, *field.Descriptor) string

// ResolveColumnName calls f(t, fd).
func (f ColumnResolverFunc) ResolveColumnName(t *schema.Type, fd *field.Descriptor) string {
	return f(t, fd)
}

// Conventions holds the flags consulted by the default resolvers.
type Conventions struct {
	underscores atomic.Bool
	plural      atomic.Bool
}

// SetUnderscores enables converting declared names to snake_case.
func (c *Conventions) SetUnderscores(v bool) { c.underscores.Store(v) }

// Underscores reports if declared names are converted to snake_case.
func (c *Conventions) Underscores() bool { return c.underscores.Load() }

// SetPluralTables enables pluralizing derived table names.
func (c *Conventions) SetPluralTables(v bool) { c.plural.Store(v) }

// PluralTables reports if derived table names are pluralized.
func (c *Conventions) PluralTables() bool { return c.plural.Load() }

// Apply converts a declared name according to the underscore convention.
func (c *Conventions) Apply(name string) string {
	if c.Underscores() {
		return Snake(name)
	}
	return name
}

// DefaultTableResolver derives table names from the declared type name.
// An explicit table marker always wins.
type DefaultTableResolver struct {
	Conventions *Conventions
}

// ResolveTableName implements TableResolver.
func (r DefaultTableResolver) ResolveTableName(t *schema.Type) string {
	if t.HasTable() {
		return t.QualifiedTable()
	}
	name := t.Name
	if r.Conventions == nil {
		return name
	}
	name = r.Conventions.Apply(name)
	if r.Conventions.PluralTables() {
		name = inflect.Pluralize(name)
	}
	if t.Schema != "" {
		name = t.Schema + "." + name
	}
	return name
}

// DefaultColumnResolver derives column names from the field name.
// An explicit column marker always wins.
type DefaultColumnResolver struct {
	Conventions *Conventions
}

// ResolveColumnName implements ColumnResolver.
func (r DefaultColumnResolver) ResolveColumnName(_ *schema.Type, f *field.Descriptor) string {
	if f.HasColumn() {
		return f.Column
	}
	if r.Conventions == nil {
		return f.Name
	}
	return r.Conventions.Apply(f.Name)
}

type tableRef struct{ r TableResolver }

type columnRef struct{ r ColumnResolver }

// Strategy resolves and quotes table and column identifiers.
// It is safe for concurrent use.
type Strategy struct {
	dialect string
	conv    *Conventions
	table   atomic.Pointer[tableRef]
	column  atomic.Pointer[columnRef]
}

// New returns a strategy with the default resolvers for the given dialect.
func New(d string) *Strategy {
	s := &Strategy{dialect: dialect.Normalize(d), conv: &Conventions{}}
	s.SetTableNameResolver(nil)
	s.SetColumnNameResolver(nil)
	return s
}

// Dialect returns the dialect the strategy quotes for.
func (s *Strategy) Dialect() string { return s.dialect }

// Conventions returns the flags consulted by the default resolvers.
func (s *Strategy) Conventions() *Conventions { return s.conv }

// SetTableNameResolver replaces the table resolver. A nil resolver restores
// the default one.
func (s *Strategy) SetTableNameResolver(r TableResolver) {
	if r == nil {
		r = DefaultTableResolver{Conventions: s.conv}
	}
	s.table.Store(&tableRef{r: r})
}

// SetColumnNameResolver replaces the column resolver. A nil resolver restores
// the default one.
func (s *Strategy) SetColumnNameResolver(r ColumnResolver) {
	if r == nil {
		r = DefaultColumnResolver{Conventions: s.conv}
	}
	s.column.Store(&columnRef{r: r})
}

// TableName returns the quoted table identifier of t.
func (s *Strategy) TableName(t *schema.Type) string {
	return s.QuoteQualified(s.table.Load().r.ResolveTableName(t))
}

// ColumnName returns the quoted column identifier of f.
func (s *Strategy) ColumnName(t *schema.Type, f *field.Descriptor) string {
	return s.Quote(s.column.Load().r.ResolveColumnName(t, f))
}

// Quote wraps ident with the delimiter pair of the dialect. Delimiters
// inside ident are doubled.
func (s *Strategy) Quote(ident string) string {
	return Quote(s.dialect, ident)
}

// QuoteQualified quotes every dot-separated part of ident.
func (s *Strategy) QuoteQualified(ident string) string {
	if !strings.Contains(ident, ".") {
		return s.Quote(ident)
	}
	parts := strings.Split(ident, ".")
	for i := range parts {
		parts[i] = s.Quote(parts[i])
	}
	return strings.Join(parts, ".")
}

// Quote wraps ident with the delimiter pair of dialect d: double quotes for
// Postgres, backquotes otherwise.
func Quote(d, ident string) string {
	q := "`"
	if d == dialect.Postgres {
		q = `"`
	}
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// Unquote removes the delimiter pair added by Quote, if any.
func Unquote(ident string) string {
	if len(ident) >= 2 {
		if q := ident[0]; (q == '`' || q == '"') && ident[len(ident)-1] == q {
			return strings.ReplaceAll(ident[1:len(ident)-1], string([]byte{q, q}), string(q))
		}
	}
	return ident
}

// Snake converts the given name to snake_case. Acronyms are kept together:
// "UserID" becomes "user_id", "HTTPCode" becomes "http_code" and "UserIDs"
// becomes "user_ids". A digit does not end a word: "Address1Line" becomes
// "address1line".
func Snake(s string) string {
	var (
		j    int
		b    strings.Builder
		rs   = []rune(s)
		prev rune
	)
	b.Grow(len(s) + 4)
	for i, r := range rs {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			if b.Len() > 0 && prev != '_' {
				b.WriteByte('_')
			}
			prev, j = '_', 0
			continue
		case unicode.IsUpper(r):
			if i > 0 && prev != '_' {
				if unicode.IsLower(prev) || (j > 0 && startsWord(rs, i+1)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			j++
		default:
			b.WriteRune(r)
			j = 0
		}
		prev = r
	}
	return b.String()
}

// startsWord reports if rs[i:] continues a capitalized word, as opposed to
// the plural suffix of an acronym.
func startsWord(rs []rune, i int) bool {
	if i >= len(rs) || !unicode.IsLower(rs[i]) {
		return false
	}
	plural := rs[i] == 's' && (i+1 == len(rs) || !unicode.IsLower(rs[i+1]))
	return !plural
}
