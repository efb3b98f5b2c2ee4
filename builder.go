package eq

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/syssam/eq/dialect"
	"github.com/syssam/eq/meta"
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// Fragment cache keys.
const (
	fragSelect           = "SelectWithoutWhere"
	fragWhereByID        = "WhereById"
	fragInsert           = "Insert"
	fragInsertIdentity   = "InsertWithIdentity"
	fragUpsert           = "Upsert"
	fragUpsertWithoutSet = "UpsertWithoutSet"
	fragUpdateSet        = "UpdateSet"
	fragUpdate           = "UpdateWithoutWhere"
	fragDelete           = "DeleteWithoutWhere"
)

// IdentityColumn is the result column carrying the identity value generated
// by InsertWithIdentity.
const IdentityColumn = "_id"

// Builder composes the SQL text of one statement for a record type. Every
// composition appends to the statement and returns the same builder. The
// first failing composition latches its error; later compositions are
// no-ops and Build returns the error.
//
// A builder created with a non-empty key whose statement is already cached
// skips every composition and Build returns the cached text.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	cfg    *Config
	t      *schema.Type
	key    string
	cached string
	hit    bool
	sb     strings.Builder
	err    error
}

// New returns a builder for the record type t. A nil cfg means Default().
// A non-empty key caches the built statement under (t, key).
func New(cfg *Config, t *schema.Type, key string) *Builder {
	if cfg == nil {
		cfg = Default()
	}
	b := &Builder{cfg: cfg, t: t, key: key}
	if t == nil {
		b.err = NewUsageError("New", "nil record type")
		return b
	}
	b.cached, b.hit = cfg.lookup(t, key)
	return b
}

// Of returns a builder for the Go struct type T.
func Of[T any](cfg *Config, key string) *Builder {
	if cfg == nil {
		cfg = Default()
	}
	t, err := cfg.Type(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return &Builder{cfg: cfg, key: key, err: err}
	}
	return New(cfg, t, key)
}

// For returns a builder for T on the default config.
func For[T any](key string) *Builder {
	return Of[T](Default(), key)
}

// Type returns the record type of the builder.
func (b *Builder) Type() *schema.Type { return b.t }

// Cached reports if the builder short-circuits to a cached statement.
func (b *Builder) Cached() bool { return b.hit }

// Err returns the latched error, if any.
func (b *Builder) Err() error { return b.err }

// Build returns the statement text. Keyed statements are stored in the
// statement cache on their first build.
func (b *Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if b.hit {
		return b.cached, nil
	}
	return b.cfg.store(b.t, b.key, b.sb.String()), nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() string {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// skip reports if compositions must be skipped.
func (b *Builder) skip() bool {
	return b.err != nil || b.hit
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) appendFragment(op string, render func() (string, error)) *Builder {
	if b.skip() {
		return b
	}
	s, err := b.cfg.fragment(b.t, op, render)
	if err != nil {
		return b.fail(err)
	}
	b.sb.WriteString(s)
	return b
}

// Append appends raw text.
func (b *Builder) Append(s string) *Builder {
	if !b.skip() {
		b.sb.WriteString(s)
	}
	return b
}

// AppendLine appends raw text followed by a newline.
func (b *Builder) AppendLine(s string) *Builder {
	if !b.skip() {
		b.sb.WriteString(s)
		b.sb.WriteByte('\n')
	}
	return b
}

// SelectWithoutWhere appends "SELECT <columns> FROM <table>". Columns renamed
// by a column marker are aliased back to their field name.
func (b *Builder) SelectWithoutWhere() *Builder {
	return b.appendFragment(fragSelect, func() (string, error) {
		var sb strings.Builder
		sb.WriteString("SELECT ")
		for i, f := range b.fields().Select {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(b.column(f))
			if f.HasColumn() {
				sb.WriteString(" AS ")
				sb.WriteString(b.cfg.naming.Quote(f.Name))
			}
		}
		sb.WriteString(" FROM ")
		sb.WriteString(b.table())
		return sb.String(), nil
	})
}

// WhereByID appends " WHERE <id>=@<Id>" joined by AND for every identity
// field. It fails on types without identity fields.
func (b *Builder) WhereByID() *Builder {
	return b.appendFragment(fragWhereByID, func() (string, error) {
		ids := b.fields().ID
		if len(ids) == 0 {
			return "", b.schemaError("WhereByID", "only available on a record type with a key field or an Id field")
		}
		var sb strings.Builder
		sb.WriteString(" WHERE ")
		for i, f := range ids {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			b.assign(&sb, f)
		}
		return sb.String(), nil
	})
}

// Where appends " WHERE (<expr>)". An empty expression is ignored.
func (b *Builder) Where(expr string) *Builder {
	return b.clause("Where", " WHERE (", expr)
}

// And appends " AND (<expr>)". An empty expression is ignored.
func (b *Builder) And(expr string) *Builder {
	return b.clause("And", " AND (", expr)
}

// Or appends " OR (<expr>)". An empty expression is ignored.
func (b *Builder) Or(expr string) *Builder {
	return b.clause("Or", " OR (", expr)
}

func (b *Builder) clause(op, prefix, expr string) *Builder {
	if b.skip() || strings.TrimSpace(expr) == "" {
		return b
	}
	if startsWithWhere(expr) {
		return b.fail(NewUsageError(op, "no need to include 'WHERE'"))
	}
	b.sb.WriteString(prefix)
	b.sb.WriteString(expr)
	b.sb.WriteByte(')')
	return b
}

// startsWithWhere reports if expr begins with the WHERE keyword, ignoring
// case and leading whitespace.
func startsWithWhere(expr string) bool {
	expr = strings.TrimLeftFunc(expr, unicode.IsSpace)
	if len(expr) < 5 || !strings.EqualFold(expr[:5], "where") {
		return false
	}
	if len(expr) == 5 {
		return true
	}
	r := rune(expr[5])
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// OrderBy appends " ORDER BY <column>". The column is quoted.
func (b *Builder) OrderBy(column string) *Builder {
	return b.order(" ORDER BY ", column, false)
}

// OrderByDesc appends " ORDER BY <column> DESC".
func (b *Builder) OrderByDesc(column string) *Builder {
	return b.order(" ORDER BY ", column, true)
}

// OrderByMore extends a previous ORDER BY with ", <column>".
func (b *Builder) OrderByMore(column string) *Builder {
	return b.order(", ", column, false)
}

// OrderByMoreDesc extends a previous ORDER BY with ", <column> DESC".
func (b *Builder) OrderByMoreDesc(column string) *Builder {
	return b.order(", ", column, true)
}

func (b *Builder) order(prefix, column string, desc bool) *Builder {
	if b.skip() || column == "" {
		return b
	}
	b.sb.WriteString(prefix)
	b.sb.WriteString(b.cfg.naming.Quote(column))
	if desc {
		b.sb.WriteString(" DESC")
	}
	return b
}

// Limit appends " LIMIT @Limit". The value is bound at execution time.
func (b *Builder) Limit() *Builder {
	return b.Append(" LIMIT @Limit")
}

// Insert appends "INSERT INTO <table> (<columns>) VALUES (@<fields>)" over
// the insert fields.
func (b *Builder) Insert() *Builder {
	return b.appendFragment(fragInsert, func() (string, error) {
		return b.insert(b.fields().Insert), nil
	})
}

// InsertWithIdentity appends an insert followed by the fetch of the
// generated identity, returned in the IdentityColumn result column. The type
// must have exactly one identity field of an integer kind.
func (b *Builder) InsertWithIdentity() *Builder {
	return b.appendFragment(fragInsertIdentity, func() (string, error) {
		fs := b.fields()
		if !fs.SingleIntegerID() {
			return "", NewUsageError("InsertWithIdentity", "identity of "+b.t.String()+" should be a single integer field")
		}
		s := b.insert(fs.Insert)
		switch b.cfg.Dialect() {
		case dialect.MySQL:
			return s + ";SELECT LAST_INSERT_ID() AS " + IdentityColumn, nil
		default:
			return s + " RETURNING " + b.column(fs.ID[0]) + " AS " + IdentityColumn, nil
		}
	})
}

// Upsert appends an insert over the upsert insert fields followed by a
// conflict clause assigning the upsert update fields.
func (b *Builder) Upsert() *Builder {
	return b.appendFragment(fragUpsert, func() (string, error) {
		fs := b.fields()
		if len(fs.UpsertUpdate) == 0 {
			return "", b.schemaError("Upsert", "no updatable fields")
		}
		prefix, err := b.upsertPrefix("Upsert", fs)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteString(prefix)
		b.assignments(&sb, fs.UpsertUpdate)
		return sb.String(), nil
	})
}

// UpsertWithoutSet appends an insert over the upsert insert fields followed
// by a conflict clause whose assignments are the given literal text.
func (b *Builder) UpsertWithoutSet(set string) *Builder {
	b.appendFragment(fragUpsertWithoutSet, func() (string, error) {
		return b.upsertPrefix("UpsertWithoutSet", b.fields())
	})
	return b.Append(set)
}

// upsertPrefix renders the insert and the conflict clause up to the first
// assignment.
func (b *Builder) upsertPrefix(op string, fs *meta.Fields) (string, error) {
	s := b.insert(fs.UpsertInsert)
	if b.cfg.Dialect() == dialect.MySQL {
		return s + " ON DUPLICATE KEY UPDATE ", nil
	}
	if len(fs.ID) == 0 {
		return "", b.schemaError(op, "conflict target needs a key field or an Id field")
	}
	cols := make([]string, len(fs.ID))
	for i, f := range fs.ID {
		cols[i] = b.column(f)
	}
	return s + " ON CONFLICT (" + strings.Join(cols, ",") + ") DO UPDATE SET ", nil
}

// UpdateSet appends "UPDATE <table> SET ", leaving the assignments to the
// caller.
func (b *Builder) UpdateSet() *Builder {
	return b.appendFragment(fragUpdateSet, func() (string, error) {
		return "UPDATE " + b.table() + " SET ", nil
	})
}

// UpdateWithoutWhere appends "UPDATE <table> SET <column>=@<field>,..." over
// the update fields.
func (b *Builder) UpdateWithoutWhere() *Builder {
	return b.appendFragment(fragUpdate, func() (string, error) {
		fs := b.fields()
		if len(fs.Update) == 0 {
			return "", b.schemaError("UpdateWithoutWhere", "no updatable fields")
		}
		var sb strings.Builder
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table())
		sb.WriteString(" SET ")
		b.assignments(&sb, fs.Update)
		return sb.String(), nil
	})
}

// deleteWithoutWhere appends "DELETE FROM <table>". It is only reachable
// through Delete and DeleteWhere so a delete always carries a filter.
func (b *Builder) deleteWithoutWhere() *Builder {
	return b.appendFragment(fragDelete, func() (string, error) {
		return "DELETE FROM " + b.table(), nil
	})
}

// Select appends a select by identity.
func (b *Builder) Select() *Builder {
	return b.SelectWithoutWhere().WhereByID()
}

// SelectWhere appends a select filtered by expr.
func (b *Builder) SelectWhere(expr string) *Builder {
	return b.SelectWithoutWhere().Where(expr)
}

// Update appends an update by identity.
func (b *Builder) Update() *Builder {
	return b.UpdateWithoutWhere().WhereByID()
}

// UpdateWhere appends an update filtered by expr.
func (b *Builder) UpdateWhere(expr string) *Builder {
	return b.UpdateWithoutWhere().Where(expr)
}

// Delete appends a delete by identity.
func (b *Builder) Delete() *Builder {
	return b.deleteWithoutWhere().WhereByID()
}

// DeleteWhere appends a delete filtered by expr.
func (b *Builder) DeleteWhere(expr string) *Builder {
	return b.deleteWithoutWhere().Where(expr)
}

func (b *Builder) fields() *meta.Fields {
	if !b.cfg.CacheEnabled() {
		return meta.Classify(b.t)
	}
	return b.cfg.meta.Fields(b.t)
}

func (b *Builder) table() string {
	if !b.cfg.CacheEnabled() {
		return b.cfg.naming.TableName(b.t)
	}
	return b.cfg.meta.TableName(b.t)
}

func (b *Builder) column(f *field.Descriptor) string {
	if !b.cfg.CacheEnabled() {
		return b.cfg.naming.ColumnName(b.t, f)
	}
	return b.cfg.meta.ColumnName(b.t, f)
}

func (b *Builder) insert(fields []*field.Descriptor) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table())
	sb.WriteString(" (")
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(b.column(f))
	}
	sb.WriteString(") VALUES (")
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('@')
		sb.WriteString(f.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

func (b *Builder) assignments(sb *strings.Builder, fields []*field.Descriptor) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		b.assign(sb, f)
	}
}

func (b *Builder) assign(sb *strings.Builder, f *field.Descriptor) {
	sb.WriteString(b.column(f))
	sb.WriteString("=@")
	sb.WriteString(f.Name)
}

func (b *Builder) schemaError(op, msg string) error {
	return NewSchemaError(b.t.String(), op, msg)
}
