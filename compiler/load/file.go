package load

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// File is the on-disk form of explicitly registered record types.
//
//	types:
//	  - name: User
//	    table: Users
//	    fields:
//	      - {name: Id, type: int, markers: key}
//	      - {name: Name, type: text}
//	      - {name: UserId, type: int, markers: "column=user_id_custom"}
type File struct {
	Types []FileType `yaml:"types" toml:"types"`
}

// FileType declares one record type.
type FileType struct {
	Name   string      `yaml:"name" toml:"name"`
	Table  string      `yaml:"table,omitempty" toml:"table,omitempty"`
	Schema string      `yaml:"schema,omitempty" toml:"schema,omitempty"`
	Fields []FileField `yaml:"fields" toml:"fields"`
}

// FileField declares one field. Markers use the struct tag syntax.
type FileField struct {
	Name     string `yaml:"name" toml:"name"`
	Type     string `yaml:"type" toml:"type"`
	Nillable bool   `yaml:"nillable,omitempty" toml:"nillable,omitempty"`
	Markers  string `yaml:"markers,omitempty" toml:"markers,omitempty"`
}

// ReadFile reads a schema file. The format is chosen by extension:
// .yaml/.yml or .toml.
func ReadFile(path string) ([]*schema.Type, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema file: %w", err)
	}
	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(buf, &f)
	case ".toml":
		err = toml.Unmarshal(buf, &f)
	default:
		return nil, fmt.Errorf("load: unsupported schema file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load: decode %s: %w", path, err)
	}
	return f.Schemas()
}

// Schemas converts the declared types to record type descriptors.
func (f *File) Schemas() ([]*schema.Type, error) {
	types := make([]*schema.Type, 0, len(f.Types))
	var errs []error
	for _, ft := range f.Types {
		t := &schema.Type{Name: ft.Name, Table: ft.Table, Schema: ft.Schema}
		for _, ff := range ft.Fields {
			t.Fields = append(t.Fields, ff.descriptor())
		}
		if err := t.Err(); err != nil {
			errs = append(errs, err)
			continue
		}
		types = append(types, t)
	}
	return types, errors.Join(errs...)
}

func (ff FileField) descriptor() *field.Descriptor {
	typ, ok := field.ParseType(strings.ToLower(strings.TrimSpace(ff.Type)))
	fd := field.New(ff.Name, typ).Descriptor()
	if !ok {
		fd.Err = fmt.Errorf("field %q: unknown type %q", ff.Name, ff.Type)
		return fd
	}
	fd.Info.Nillable = ff.Nillable
	if err := fd.Parse(ff.Markers); err != nil {
		fd.Err = err
	}
	return fd
}

// Lookup returns the type with the given name.
func Lookup(types []*schema.Type, name string) (*schema.Type, bool) {
	for _, t := range types {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return nil, false
}
