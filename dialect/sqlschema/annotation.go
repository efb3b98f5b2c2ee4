// Package sqlschema provides SQL-specific annotations for record types.
//
// Import this package as:
//
//	import "github.com/syssam/eq/dialect/sqlschema"
//
// # API Styles
//
// Functional style:
//
//	sqlschema.Table("Users")
//	sqlschema.Schema("Log")
//
// Struct literal style:
//
//	sqlschema.Annotation{Table: "CarLog", Schema: "Log"}
//
// Both are returned from the record's Annotations method:
//
//	func (CarLog) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        sqlschema.Table("CarLog"),
//	        sqlschema.Schema("Log"),
//	    }
//	}
package sqlschema

import (
	"github.com/syssam/eq/schema"
)

// AnnotationName is the name used for SQL annotations.
const AnnotationName = "sql"

// Annotation holds SQL-specific settings for record types.
type Annotation struct {
	// Table overrides the database table name for a record type.
	Table string

	// Schema qualifies the table with a database schema (namespace).
	Schema string
}

// Name implements schema.Annotation.
func (a Annotation) Name() string {
	return AnnotationName
}

// Ensure Annotation implements schema.TableAnnotation.
var _ schema.TableAnnotation = (*Annotation)(nil)

// Table sets the database table name for a record type.
//
// Example:
//
//	func (User) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        sqlschema.Table("Users"),
//	    }
//	}
func Table(name string) Annotation {
	return Annotation{Table: name}
}

// Schema sets the database schema that qualifies the table name.
//
// Example:
//
//	func (CarLog) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        sqlschema.Schema("Log"),
//	    }
//	}
func Schema(schemaName string) Annotation {
	return Annotation{Schema: schemaName}
}

// GetTable returns the table name and whether it was set.
func (a Annotation) GetTable() (string, bool) {
	return a.Table, a.Table != ""
}

// GetSchema returns the schema name and whether it was set.
func (a Annotation) GetSchema() (string, bool) {
	return a.Schema, a.Schema != ""
}

// Merge combines multiple SQL annotations into one.
// Later annotations override earlier ones.
func Merge(annotations ...Annotation) Annotation {
	result := Annotation{}
	for _, a := range annotations {
		if a.Table != "" {
			result.Table = a.Table
		}
		if a.Schema != "" {
			result.Schema = a.Schema
		}
	}
	return result
}
