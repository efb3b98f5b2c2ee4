package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/eq/schema/field"
)

// Annotation is used to attach arbitrary metadata to a record type.
// Annotations are recognized by their Name.
type Annotation interface {
	Name() string
}

// Annotated is implemented by record types that attach type-level
// annotations, such as an explicit table name.
//
//	func (User) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        sqlschema.Annotation{Table: "Users"},
//	    }
//	}
type Annotated interface {
	Annotations() []Annotation
}

// Tabler is implemented by record types that name their table directly.
type Tabler interface {
	TableName() string
}

// TableAnnotation is implemented by annotations that carry a table marker.
type TableAnnotation interface {
	Annotation
	GetTable() (string, bool)
	GetSchema() (string, bool)
}

// Type describes a record type: its declared name, its optional table marker
// and its fields in declaration order. A Type is immutable once loaded.
type Type struct {
	Name   string
	Table  string
	Schema string
	Fields []*field.Descriptor
	GoType reflect.Type
}

// HasTable reports if the type carries an explicit table marker.
func (t *Type) HasTable() bool {
	return t.Table != ""
}

// QualifiedTable returns the table marker prefixed with its schema, if any.
func (t *Type) QualifiedTable() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Table
	}
	return t.Table
}

// Field returns the field with the given name.
func (t *Type) Field(name string) (*field.Descriptor, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// String returns the declared name of the type.
func (t *Type) String() string {
	if t.GoType != nil {
		return t.GoType.String()
	}
	return t.Name
}

// Err returns the descriptor errors of the type, joined.
func (t *Type) Err() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("type name is empty"))
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
		if _, ok := seen[f.Name]; ok {
			errs = append(errs, fmt.Errorf("field %q declared twice", f.Name))
		}
		seen[f.Name] = struct{}{}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("type %s: %w", t, errors.Join(errs...))
}

// Annotate applies the table markers found in the given annotations.
// Later annotations win.
func (t *Type) Annotate(ants ...Annotation) {
	for _, a := range ants {
		ta, ok := a.(TableAnnotation)
		if !ok {
			continue
		}
		if name, ok := ta.GetTable(); ok {
			t.Table = name
		}
		if s, ok := ta.GetSchema(); ok {
			t.Schema = s
		}
	}
}
