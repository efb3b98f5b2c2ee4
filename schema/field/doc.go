// Package field describes the fields of a record type and the markers that
// decide which statements a field takes part in.
//
// Fields of Go structs are described by reflection. Markers are declared with
// the `eq` struct tag:
//
//	type User struct {
//	    Id       int       `eq:"key"`
//	    UserId   int       `eq:"column=user_id_custom"`
//	    Name     string
//	    Created  time.Time `eq:"readonly"`
//	    Secret   string    `eq:"noselect,noinsert,noupdate"`
//	    Display  string    `eq:"editable=false"`
//	    Scratch  int       `eq:"-"`
//	}
//
// # Markers
//
//	key        identity (part of the primary key)
//	required   identity value is supplied by the caller, not generated
//	readonly   read but never written by insert or update
//	notmapped  no backing column ("-" is a shorthand)
//	noselect   excluded from select lists
//	noinsert   excluded from insert lists
//	noupdate   excluded from update lists
//	editable   explicit true/false override of the storable-kind inference
//	column=X   explicit column name
//
// # Storage Kinds
//
// A field is storable when its Go type maps to a single column: booleans,
// integers of any width, floats, decimals, strings, []byte, time.Time,
// time.Duration, enums (types implementing EnumValues), UUIDs and other
// driver.Valuer implementations. Pointers to those kinds are the nullable
// forms. Structs, slices, maps and interfaces are not storable.
//
// # Explicit Registration
//
// Records that are not Go structs (for example, those declared in a schema
// file) are described with builders:
//
//	field.Int("Id").Key().Descriptor()
//	field.String("Name").Column("user_name").Descriptor()
package field
