package field

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// TagName is the struct tag key that carries field markers.
const TagName = "eq"

// A Descriptor for field configuration.
type Descriptor struct {
	Name       string    // field name as declared on the record type.
	Info       *TypeInfo // field type info.
	Column     string    // explicit column name. Empty means derived.
	Index      []int     // struct field index path. Nil for file-declared fields.
	Key        bool      // identity (part of the primary key).
	Required   bool      // identity value is supplied by the caller.
	ReadOnly   bool      // never written by insert or update.
	NotMapped  bool      // no backing column.
	SkipSelect bool      // excluded from select lists.
	SkipInsert bool      // excluded from insert lists.
	SkipUpdate bool      // excluded from update lists.
	Editable   *bool     // explicit scaffoldable override.
	Err        error
}

// Scaffoldable reports if the field is storable. An explicit Editable marker
// decides; otherwise the storage kind does.
func (d *Descriptor) Scaffoldable() bool {
	if d.Editable != nil {
		return *d.Editable
	}
	return d.Info != nil && d.Info.Storable()
}

// IsID reports if the field is literally named "Id", ignoring case.
func (d *Descriptor) IsID() bool {
	return strings.EqualFold(d.Name, "id")
}

// IsText reports if the field holds text.
func (d *Descriptor) IsText() bool {
	return d.Info != nil && d.Info.Type == TypeString
}

// HasColumn reports if the field carries an explicit column name.
func (d *Descriptor) HasColumn() bool {
	return d.Column != ""
}

// Parse applies the options of an `eq` struct tag to the descriptor.
//
//	`eq:"key,required"`
//	`eq:"column=user_id_custom,readonly"`
//	`eq:"noselect,noinsert,noupdate"`
//	`eq:"editable=false"`
//	`eq:"-"`
func (d *Descriptor) Parse(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	if tag == "-" {
		d.NotMapped = true
		return nil
	}
	for _, opt := range strings.Split(tag, ",") {
		name, value, hasValue := strings.Cut(strings.TrimSpace(opt), "=")
		switch name = strings.ToLower(strings.TrimSpace(name)); name {
		case "":
		case "key":
			d.Key = true
		case "required":
			d.Required = true
		case "readonly":
			d.ReadOnly = true
		case "notmapped", "-":
			d.NotMapped = true
		case "noselect":
			d.SkipSelect = true
		case "noinsert":
			d.SkipInsert = true
		case "noupdate":
			d.SkipUpdate = true
		case "editable":
			allow := true
			if hasValue {
				b, err := strconv.ParseBool(strings.TrimSpace(value))
				if err != nil {
					return fmt.Errorf("field %q: invalid editable value %q", d.Name, value)
				}
				allow = b
			}
			d.Editable = &allow
		case "column":
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("field %q: empty column name", d.Name)
			}
			d.Column = strings.TrimSpace(value)
		default:
			return fmt.Errorf("field %q: unknown option %q", d.Name, name)
		}
	}
	return nil
}

// FromStruct returns the descriptor of a struct field. Tag errors are
// recorded in Descriptor.Err.
func FromStruct(sf reflect.StructField, index []int) *Descriptor {
	d := &Descriptor{
		Name:  sf.Name,
		Info:  TypeOf(sf.Type),
		Index: index,
	}
	if err := d.Parse(sf.Tag.Get(TagName)); err != nil {
		d.Err = err
	}
	return d
}

// A Builder configures a field descriptor for records that are registered
// explicitly instead of being loaded from Go struct tags.
type Builder struct {
	desc *Descriptor
}

// New returns a builder for a field of the given storage type.
func New(name string, t Type) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Info: &TypeInfo{Type: t}}}
	if !t.Valid() {
		b.desc.Err = fmt.Errorf("field %q: invalid type %d", name, t)
	}
	return b
}

// Int returns a new builder for an int field.
func Int(name string) *Builder { return New(name, TypeInt) }

// Int64 returns a new builder for an int64 field.
func Int64(name string) *Builder { return New(name, TypeInt64) }

// String returns a new builder for a text field.
func String(name string) *Builder { return New(name, TypeString) }

// Bool returns a new builder for a bool field.
func Bool(name string) *Builder { return New(name, TypeBool) }

// Float returns a new builder for a float64 field.
func Float(name string) *Builder { return New(name, TypeFloat64) }

// Time returns a new builder for a time field.
func Time(name string) *Builder { return New(name, TypeTime) }

// Bytes returns a new builder for a binary field.
func Bytes(name string) *Builder { return New(name, TypeBytes) }

// Other returns a new builder for a field with no scalar storage kind.
func Other(name string) *Builder { return New(name, TypeOther) }

// Key marks the field as (part of) the record identity.
func (b *Builder) Key() *Builder { b.desc.Key = true; return b }

// Required marks the identity value as caller-supplied.
func (b *Builder) Required() *Builder { b.desc.Required = true; return b }

// ReadOnly excludes the field from insert and update.
func (b *Builder) ReadOnly() *Builder { b.desc.ReadOnly = true; return b }

// NotMapped excludes the field from every statement.
func (b *Builder) NotMapped() *Builder { b.desc.NotMapped = true; return b }

// SkipSelect excludes the field from select lists.
func (b *Builder) SkipSelect() *Builder { b.desc.SkipSelect = true; return b }

// SkipInsert excludes the field from insert lists.
func (b *Builder) SkipInsert() *Builder { b.desc.SkipInsert = true; return b }

// SkipUpdate excludes the field from update lists.
func (b *Builder) SkipUpdate() *Builder { b.desc.SkipUpdate = true; return b }

// Nillable marks the field as nullable.
func (b *Builder) Nillable() *Builder { b.desc.Info.Nillable = true; return b }

// Editable overrides the scaffoldable inference.
func (b *Builder) Editable(allow bool) *Builder { b.desc.Editable = &allow; return b }

// Column sets the column name explicitly.
func (b *Builder) Column(name string) *Builder { b.desc.Column = name; return b }

// Descriptor returns the configured descriptor.
func (b *Builder) Descriptor() *Descriptor { return b.desc }
