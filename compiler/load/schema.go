// Package load builds record type descriptors, either by reflecting over Go
// struct types or by reading a schema file.
package load

import (
	"fmt"
	"reflect"

	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// Struct loads the descriptor of the Go struct type rt (or a pointer to it).
// Exported fields are described in declaration order; embedded structs are
// flattened in place and shadowed fields follow Go's promotion rules. The
// descriptor is returned together with any marker errors found on its fields.
func Struct(rt reflect.Type) (*schema.Type, error) {
	rt = indirect(rt)
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("load: invalid record type %s: expect struct, got %s", rt, rt.Kind())
	}
	t := &schema.Type{
		Name:   rt.Name(),
		GoType: rt,
		Fields: promoted(collect(rt, nil)),
	}
	if t.Name == "" {
		t.Name = rt.String()
	}
	loadMarkers(t, rt)
	return t, t.Err()
}

// Of loads the descriptor of T.
func Of[T any]() (*schema.Type, error) {
	return Struct(reflect.TypeOf((*T)(nil)).Elem())
}

// collect walks the fields of rt in declaration order.
func collect(rt reflect.Type, index []int) []*field.Descriptor {
	var fields []*field.Descriptor
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		path := append(append(make([]int, 0, len(index)+1), index...), i)
		if sf.Anonymous && flatten(sf) {
			fields = append(fields, collect(indirect(sf.Type), path)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		fields = append(fields, field.FromStruct(sf, path))
	}
	return fields
}

// flatten reports if an embedded field contributes its own fields rather
// than being a column itself.
func flatten(sf reflect.StructField) bool {
	rt := indirect(sf.Type)
	if rt.Kind() != reflect.Struct || sf.Tag.Get(field.TagName) != "" {
		return false
	}
	return field.TypeOf(rt).Type == field.TypeOther
}

// promoted drops the fields shadowed by a shallower field of the same name.
func promoted(fields []*field.Descriptor) []*field.Descriptor {
	depth := make(map[string]int, len(fields))
	for _, f := range fields {
		if d, ok := depth[f.Name]; !ok || len(f.Index) < d {
			depth[f.Name] = len(f.Index)
		}
	}
	out := make([]*field.Descriptor, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok || len(f.Index) != depth[f.Name] {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, f)
	}
	return out
}

// loadMarkers applies the type-level table markers of rt.
func loadMarkers(t *schema.Type, rt reflect.Type) {
	for _, v := range []any{reflect.New(rt).Elem().Interface(), reflect.New(rt).Interface()} {
		if tb, ok := v.(schema.Tabler); ok {
			t.Table = tb.TableName()
		}
		if an, ok := v.(schema.Annotated); ok {
			t.Annotate(an.Annotations()...)
		}
		if t.HasTable() {
			return
		}
	}
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
