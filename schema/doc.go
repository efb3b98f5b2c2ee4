// Package schema describes record types: the declared shape that statements
// are compiled from.
//
// A Type is normally loaded from a Go struct by compiler/load, but it can also
// be registered explicitly:
//
//	users := &schema.Type{
//	    Name:  "User",
//	    Table: "Users",
//	    Fields: []*field.Descriptor{
//	        field.Int("Id").Key().Descriptor(),
//	        field.String("Name").Descriptor(),
//	        field.Int("Age").Descriptor(),
//	    },
//	}
//
// # Table Markers
//
// A Go record type overrides its table name either by implementing Tabler:
//
//	func (User) TableName() string { return "Users" }
//
// or by returning SQL annotations, which also carry a schema qualifier:
//
//	func (CarLog) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        sqlschema.Annotation{Table: "CarLog", Schema: "Log"},
//	    }
//	}
package schema
