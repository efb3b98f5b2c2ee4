package eq

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/syssam/eq/dialect"
	"github.com/syssam/eq/dialect/sql"
	"github.com/syssam/eq/schema"
)

// Insert inserts entity and returns the number of affected rows.
func Insert[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entity *T) (int64, error) {
	return mutate[T](ctx, cfg, ex, "Insert", OpInsert, entity)
}

// InsertList inserts every entity, in order, with the same statement. It
// stops at the first failure and returns the rows affected so far.
func InsertList[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entities []*T) (int64, error) {
	return mutateList(ctx, cfg, ex, "InsertList", OpInsert, entities)
}

// InsertAndGetID inserts entity and returns the identity generated by the
// database. The record type must have a single integer identity field.
//
// On MySQL the statement carries two queries; the connection must allow it
// (multiStatements=true).
func InsertAndGetID[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entity *T) (int64, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return 0, err
	}
	const op = "InsertAndGetID"
	q, err := Compile(cfg, t, OpInsertIdentity)
	if err != nil {
		return 0, err
	}
	rows, err := query(ctx, cfg, ex, op, q, entity)
	if err != nil {
		return 0, mutationError(t, op, err)
	}
	defer rows.Close()
	id, err := scanIdentity(rows)
	if err != nil {
		return 0, mutationError(t, op, err)
	}
	return id, nil
}

// SelectByID returns the record identified by id. For a single identity
// field id is the key value itself; for composite identities id is a struct
// or a map exposing every identity field by name.
func SelectByID[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, id any) (*T, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return nil, err
	}
	params, err := idParams(cfg, t, "SelectByID", id)
	if err != nil {
		return nil, err
	}
	return selectOne[T](ctx, cfg, ex, t, "SelectByID", params, id)
}

// SelectByEntity returns the stored version of entity, looked up by its
// identity fields.
func SelectByEntity[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entity *T) (*T, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return nil, err
	}
	return selectOne[T](ctx, cfg, ex, t, "SelectByEntity", entity, nil)
}

// SelectAll returns every record of T.
func SelectAll[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier) ([]*T, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return nil, err
	}
	q, err := Compile(cfg, t, OpSelectAll)
	if err != nil {
		return nil, err
	}
	return selectAll[T](ctx, cfg, ex, t, "SelectAll", q, nil)
}

// Select returns the records matching where, bound with params.
func Select[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, where string, params any) ([]*T, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return nil, err
	}
	q, err := New(cfg, t, "").SelectWhere(where).Build()
	if err != nil {
		return nil, err
	}
	return selectAll[T](ctx, cfg, ex, t, "Select", q, params)
}

// DeleteByID deletes the record identified by id and returns the number of
// affected rows. id follows the rules of SelectByID.
func DeleteByID[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, id any) (int64, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return 0, err
	}
	const op = "DeleteByID"
	params, err := idParams(cfg, t, op, id)
	if err != nil {
		return 0, err
	}
	q, err := Compile(cfg, t, OpDelete)
	if err != nil {
		return 0, err
	}
	n, err := execute(ctx, cfg, ex, op, q, params)
	if err != nil {
		return 0, mutationError(t, op, err)
	}
	return n, nil
}

// Delete deletes entity by its identity fields.
func Delete[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entity *T) (int64, error) {
	return mutate[T](ctx, cfg, ex, "Delete", OpDelete, entity)
}

// DeleteWhere deletes the records matching where, bound with params.
// An empty filter is rejected.
func DeleteWhere[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, where string, params any) (int64, error) {
	if isBlank(where) {
		return 0, NewUsageError("DeleteWhere", "a filter is required")
	}
	return mutateWith[T](ctx, cfg, ex, "DeleteWhere", params, func(b *Builder) *Builder {
		return b.DeleteWhere(where)
	})
}

// Update updates entity by its identity fields.
func Update[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entity *T) (int64, error) {
	return mutate[T](ctx, cfg, ex, "Update", OpUpdate, entity)
}

// UpdateSetWhere runs "UPDATE <table> SET <set> WHERE (<where>)" bound with
// params.
func UpdateSetWhere[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, set, where string, params any) (int64, error) {
	if isBlank(set) {
		return 0, NewUsageError("UpdateSetWhere", "a set clause is required")
	}
	return mutateWith[T](ctx, cfg, ex, "UpdateSetWhere", params, func(b *Builder) *Builder {
		return b.UpdateSet().Append(set).Where(where)
	})
}

// Upsert inserts entity or updates the stored record with the same key.
func Upsert[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entity *T) (int64, error) {
	return mutate[T](ctx, cfg, ex, "Upsert", OpUpsert, entity)
}

// UpsertSetWhere inserts the record described by params or, on a key
// conflict, applies the literal set clause. A non-empty where restricts the
// conflict update (PostgreSQL and SQLite only).
func UpsertSetWhere[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, set, where string, params any) (int64, error) {
	if isBlank(set) {
		return 0, NewUsageError("UpsertSetWhere", "a set clause is required")
	}
	if cfg.Dialect() == dialect.MySQL && !isBlank(where) {
		return 0, NewUsageError("UpsertSetWhere", "ON DUPLICATE KEY UPDATE does not accept a where clause")
	}
	return mutateWith[T](ctx, cfg, ex, "UpsertSetWhere", params, func(b *Builder) *Builder {
		return b.UpsertWithoutSet(set).Where(where)
	})
}

// UpsertList upserts every entity, in order, with the same statement.
func UpsertList[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, entities []*T) (int64, error) {
	return mutateList(ctx, cfg, ex, "UpsertList", OpUpsert, entities)
}

// resolve returns the config to use and the descriptor of T.
func resolve[T any](cfg *Config) (*Config, *schema.Type, error) {
	if cfg == nil {
		cfg = Default()
	}
	t, err := cfg.Type(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, nil, err
	}
	return cfg, t, nil
}

func mutate[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, name string, op Op, entity *T) (int64, error) {
	if entity == nil {
		return 0, NewUsageError(name, "nil entity")
	}
	return mutateList(ctx, cfg, ex, name, op, []*T{entity})
}

func mutateList[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, name string, op Op, entities []*T) (int64, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return 0, err
	}
	q, err := Compile(cfg, t, op)
	if err != nil {
		return 0, err
	}
	var total int64
	for i, e := range entities {
		if e == nil {
			return total, NewUsageError(name, fmt.Sprintf("nil entity at index %d", i))
		}
		n, err := execute(ctx, cfg, ex, name, q, e)
		if err != nil {
			return total, mutationError(t, name, err)
		}
		total += n
	}
	return total, nil
}

func mutateWith[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, name string, params any, build func(*Builder) *Builder) (int64, error) {
	cfg, t, err := resolve[T](cfg)
	if err != nil {
		return 0, err
	}
	q, err := build(New(cfg, t, "")).Build()
	if err != nil {
		return 0, err
	}
	n, err := execute(ctx, cfg, ex, name, q, params)
	if err != nil {
		return 0, mutationError(t, name, err)
	}
	return n, nil
}

// execute binds and runs a statement that returns no rows.
func execute(ctx context.Context, cfg *Config, ex dialect.ExecQuerier, name, q string, params any) (int64, error) {
	q, args, err := bind(cfg, name, q, params)
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if err := ex.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// query binds and runs a statement that returns rows. The caller closes
// the rows.
func query(ctx context.Context, cfg *Config, ex dialect.ExecQuerier, name, q string, params any) (*sql.Rows, error) {
	q, args, err := bind(cfg, name, q, params)
	if err != nil {
		return nil, err
	}
	rows := &sql.Rows{}
	if err := ex.Query(ctx, q, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func bind(cfg *Config, name, q string, params any) (string, []any, error) {
	q, args, err := sql.Bind(cfg.Dialect(), q, params)
	switch {
	case errors.Is(err, sql.ErrMissingParam):
		return "", nil, NewUsageError(name, "cannot find parameter value: "+err.Error())
	case err != nil:
		return "", nil, NewUsageError(name, err.Error())
	}
	cfg.log.Debug("eq: bound statement", "op", name, "query", q, "args", len(args))
	return q, args, nil
}

func selectOne[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, t *schema.Type, name string, params, id any) (*T, error) {
	q, err := Compile(cfg, t, OpSelect)
	if err != nil {
		return nil, err
	}
	rs, err := selectAll[T](ctx, cfg, ex, t, name, q, params)
	if err != nil {
		return nil, err
	}
	switch len(rs) {
	case 0:
		if id != nil {
			return nil, NewNotFoundErrorWithID(t.String(), id)
		}
		return nil, NewNotFoundError(t.String())
	case 1:
		return rs[0], nil
	default:
		return nil, NewNotSingularErrorWithCount(t.String(), len(rs))
	}
}

func selectAll[T any](ctx context.Context, cfg *Config, ex dialect.ExecQuerier, t *schema.Type, name, q string, params any) ([]*T, error) {
	rows, err := query(ctx, cfg, ex, name, q, params)
	if err != nil {
		if IsUsageError(err) {
			return nil, err
		}
		return nil, NewQueryError(t.String(), name, err)
	}
	defer rows.Close()
	rs, err := scanRows[T](cfg, t, rows)
	if err != nil {
		return nil, NewQueryError(t.String(), name, err)
	}
	return rs, nil
}

// idParams builds the parameters of a statement keyed by identity.
func idParams(cfg *Config, t *schema.Type, name string, id any) (any, error) {
	ids := cfg.meta.Fields(t).ID
	switch {
	case len(ids) == 0:
		return nil, NewSchemaError(t.String(), name, "only available on a record type with a key field or an Id field")
	case id == nil:
		return nil, NewUsageError(name, "nil id")
	case len(ids) == 1 && isScalar(id):
		return sql.Params{ids[0].Name: id}, nil
	case isScalar(id):
		return nil, NewUsageError(name, fmt.Sprintf("cannot find id value from argument. entity=%s, expect a struct or map exposing %d identity fields", t, len(ids)))
	}
	lookup, err := sql.Lookup(id)
	if err != nil {
		return nil, NewUsageError(name, err.Error())
	}
	params := make(sql.Params, len(ids))
	for _, f := range ids {
		v, ok := lookup(f.Name)
		if !ok {
			return nil, NewUsageError(name, fmt.Sprintf("cannot find id value from argument. entity=%s, field=%s", t, f.Name))
		}
		params[f.Name] = v
	}
	return params, nil
}

var (
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType   = reflect.TypeOf(time.Time{})
)

// isScalar reports if v is a single value rather than a struct or map of
// named values.
func isScalar(v any) bool {
	rt := reflect.TypeOf(v)
	if rt.Implements(valuerType) {
		return true
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == timeType || reflect.PointerTo(rt).Implements(valuerType) {
		return true
	}
	switch rt.Kind() {
	case reflect.Struct, reflect.Map:
		return false
	}
	return true
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func mutationError(t *schema.Type, name string, err error) error {
	if IsUsageError(err) || IsSchemaError(err) {
		return err
	}
	if sql.IsConstraintError(err) {
		err = NewConstraintError(err.Error(), err)
	}
	return NewMutationError(t.String(), name, err)
}
