package meta

import (
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// Fields holds the classified field sets of a record type. Every set keeps
// declaration order. The slices are shared and must not be modified.
type Fields struct {
	// ID holds the identity fields: the key-marked fields, or else the single
	// field named "Id".
	ID []*field.Descriptor
	// Scaffoldable holds the fields with a backing storable kind.
	Scaffoldable []*field.Descriptor
	Select       []*field.Descriptor
	Insert       []*field.Descriptor
	Update       []*field.Descriptor
	UpsertInsert []*field.Descriptor
	UpsertUpdate []*field.Descriptor
}

// Classify computes the field sets of t. It never fails; a type without
// identity fields yields an empty ID set.
func Classify(t *schema.Type) *Fields {
	fs := &Fields{
		ID:           identity(t.Fields),
		Scaffoldable: filter(t.Fields, (*field.Descriptor).Scaffoldable),
	}
	fs.Select = filter(fs.Scaffoldable, func(f *field.Descriptor) bool {
		return !f.SkipSelect && !f.NotMapped
	})
	fs.Insert = filter(fs.Scaffoldable, func(f *field.Descriptor) bool {
		switch {
		case f.Key && !f.Required && !f.IsText():
			// Store-generated identity.
			return false
		case f.IsID() && !f.Required:
			return false
		}
		return !f.SkipInsert && !f.NotMapped && !f.ReadOnly
	})
	fs.Update = filter(fs.Scaffoldable, func(f *field.Descriptor) bool {
		return !f.IsID() && !f.Key && !f.ReadOnly && !f.SkipUpdate && !f.NotMapped
	})
	fs.UpsertInsert = filter(fs.Scaffoldable, func(f *field.Descriptor) bool {
		return !f.SkipInsert && !f.NotMapped && !f.ReadOnly
	})
	fs.UpsertUpdate = fs.Update
	return fs
}

// SingleIntegerID reports if the type has exactly one identity field and
// that field holds an integer.
func (fs *Fields) SingleIntegerID() bool {
	return len(fs.ID) == 1 && fs.ID[0].Info != nil && fs.ID[0].Info.Integer()
}

func identity(fields []*field.Descriptor) []*field.Descriptor {
	keys := filter(fields, func(f *field.Descriptor) bool { return f.Key })
	if len(keys) > 0 {
		return keys
	}
	for _, f := range fields {
		if f.IsID() {
			return []*field.Descriptor{f}
		}
	}
	return nil
}

func filter(fields []*field.Descriptor, keep func(*field.Descriptor) bool) []*field.Descriptor {
	out := make([]*field.Descriptor, 0, len(fields))
	for _, f := range fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
