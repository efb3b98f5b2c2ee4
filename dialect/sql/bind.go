package sql

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/eq/dialect"
)

// ErrMissingParam is returned by Bind when a placeholder names a parameter
// that the parameter source does not expose.
var ErrMissingParam = errors.New("dialect/sql: missing parameter")

// ErrInvalidParams is returned by Bind when the parameter source is neither
// a struct nor a map keyed by strings.
var ErrInvalidParams = errors.New("dialect/sql: invalid parameters")

// Params holds named parameter values.
type Params map[string]any

// Bind rewrites the @name placeholders of query into the positional form of
// the dialect ("?" for MySQL and SQLite, "$n" for Postgres) and returns the
// matching argument list. Placeholders inside quoted literals, quoted
// identifiers and comments are left untouched, as are "@@" system variables.
//
// params is a struct (or a pointer to one) whose exported fields, promoted
// fields included, are matched by name, or a map keyed by strings. Names are
// matched exactly first and then ignoring case.
func Bind(d, query string, params any) (string, []any, error) {
	lookup, err := Lookup(params)
	if err != nil {
		return "", nil, err
	}
	var (
		b        strings.Builder
		args     []any
		position map[string]int
		pg       = dialect.Normalize(d) == dialect.Postgres
	)
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := closing(query, i+1, c)
			b.WriteString(query[i:end])
			i = end - 1
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query) - i
			}
			b.WriteString(query[i : i+end])
			i += end - 1
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query)
			} else {
				end += i + 4
			}
			b.WriteString(query[i:end])
			i = end - 1
		case c == '@' && i+1 < len(query) && isNameStart(query[i+1]) && (i == 0 || !isNameChar(query[i-1]) && query[i-1] != '@'):
			j := i + 1
			for j < len(query) && isNameChar(query[j]) {
				j++
			}
			name := query[i+1 : j]
			i = j - 1
			if pg {
				if position == nil {
					position = make(map[string]int)
				}
				if n, ok := position[name]; ok {
					b.WriteString("$" + strconv.Itoa(n))
					continue
				}
			}
			v, ok := lookup(name)
			if !ok {
				return "", nil, fmt.Errorf("%w: %q", ErrMissingParam, name)
			}
			args = append(args, v)
			if pg {
				position[name] = len(args)
				b.WriteString("$" + strconv.Itoa(len(args)))
			} else {
				b.WriteByte('?')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), args, nil
}

// closing returns the index right after the quote character q that closes
// the literal starting at i. Doubled quotes are part of the literal.
func closing(s string, i int, q byte) int {
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}

// Lookup returns a function resolving parameter names against params, with
// the matching rules of Bind. A nil params resolves no name.
func Lookup(params any) (func(name string) (any, bool), error) {
	switch p := params.(type) {
	case nil:
		return func(string) (any, bool) { return nil, false }, nil
	case Params:
		return mapLookup(p), nil
	case map[string]any:
		return mapLookup(p), nil
	}
	rv := reflect.ValueOf(params)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s", ErrInvalidParams, rv.Type())
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		return structLookup(rv), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrInvalidParams, rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			m[it.Key().String()] = it.Value().Interface()
		}
		return mapLookup(m), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidParams, params)
}

func mapLookup(m map[string]any) func(string) (any, bool) {
	return func(name string) (any, bool) {
		if v, ok := m[name]; ok {
			return v, true
		}
		for k, v := range m {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
		return nil, false
	}
}

func structLookup(rv reflect.Value) func(string) (any, bool) {
	rt := rv.Type()
	return func(name string) (any, bool) {
		sf, ok := rt.FieldByName(name)
		if !ok {
			sf, ok = rt.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		}
		if !ok || !sf.IsExported() {
			return nil, false
		}
		fv, err := rv.FieldByIndexErr(sf.Index)
		if err != nil {
			// Promoted through a nil embedded pointer.
			return nil, true
		}
		return fv.Interface(), true
	}
}
