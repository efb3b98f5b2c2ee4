package eq

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/eq/dialect/sql"
	"github.com/syssam/eq/naming"
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// scanRows materializes every row into a new T. Result columns are matched
// to the select fields of t by field name or by column name, ignoring case.
// Unmatched columns are discarded.
func scanRows[T any](cfg *Config, t *schema.Type, rows *sql.Rows) ([]*T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	targets := make([]*field.Descriptor, len(columns))
	for i, c := range columns {
		targets[i] = match(cfg, t, c)
	}
	var rs []*T
	for rows.Next() {
		v := new(T)
		rv := reflect.ValueOf(v).Elem()
		dest := make([]any, len(columns))
		assign := make([]func(), 0, len(columns))
		for i, f := range targets {
			if f == nil {
				dest[i] = new(any)
				continue
			}
			fv, err := fieldByIndex(rv, f.Index)
			if err != nil {
				return nil, fmt.Errorf("scan %s: field %s: %w", t, f.Name, err)
			}
			if fv.Kind() == reflect.Pointer {
				dest[i] = fv.Addr().Interface()
				continue
			}
			// Scan through a pointer so NULL leaves the zero value.
			p := reflect.New(reflect.PointerTo(fv.Type()))
			dest[i] = p.Interface()
			assign = append(assign, func() {
				if e := p.Elem(); !e.IsNil() {
					fv.Set(e.Elem())
				}
			})
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t, err)
		}
		for _, fn := range assign {
			fn()
		}
		rs = append(rs, v)
	}
	return rs, rows.Err()
}

// match returns the select field of t backing the result column c.
func match(cfg *Config, t *schema.Type, c string) *field.Descriptor {
	fields := cfg.meta.Fields(t).Select
	for _, f := range fields {
		if strings.EqualFold(f.Name, c) {
			return f
		}
	}
	for _, f := range fields {
		if strings.EqualFold(naming.Unquote(cfg.meta.ColumnName(t, f)), c) {
			return f
		}
	}
	return nil
}

// fieldByIndex is like reflect.Value.FieldByIndex, but allocates nil
// embedded struct pointers on the way. A nil pointer to an unexported
// embedded struct cannot be allocated and is reported as an error.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot set embedded pointer to unexported struct %v", v.Type().Elem())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

// scanIdentity reads the IdentityColumn of the first result set carrying
// it.
func scanIdentity(rows *sql.Rows) (int64, error) {
	for {
		columns, err := rows.Columns()
		if err != nil {
			return 0, err
		}
		for i, c := range columns {
			if !strings.EqualFold(c, IdentityColumn) {
				continue
			}
			if !rows.Next() {
				if err := rows.Err(); err != nil {
					return 0, err
				}
				return 0, fmt.Errorf("no %s row returned", IdentityColumn)
			}
			var id int64
			dest := make([]any, len(columns))
			for j := range dest {
				dest[j] = new(any)
			}
			dest[i] = &id
			if err := rows.Scan(dest...); err != nil {
				return 0, err
			}
			return id, nil
		}
		if !rows.NextResultSet() {
			if err := rows.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("no %s column returned", IdentityColumn)
		}
	}
}
